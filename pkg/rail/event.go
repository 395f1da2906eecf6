package rail

import "time"

type Event struct {
	Type        EventType              `json:"type" bson:"type" groups:"basic"`
	Timestamp   time.Time              `json:"timestamp" bson:"timestamp" groups:"basic"`
	StationIdx  int                    `json:"station_idx" bson:"stationidx" groups:"basic"`
	StationCode string                 `json:"station_code" bson:"stationcode" groups:"basic"`
	PNR         string                 `json:"pnr,omitempty" bson:"pnr" groups:"basic"`
	Message     string                 `json:"message" bson:"message" groups:"basic"`
	Data        map[string]interface{} `json:"data,omitempty" bson:"data" groups:"detailed"`
}

type EventType string

const (
	EventTypeJourneyStarted     EventType = "JourneyStarted"
	EventTypeJourneyReset       EventType = "JourneyReset"
	EventTypeStationArrived     EventType = "StationArrived"
	EventTypePassengerBoarded   EventType = "PassengerBoarded"
	EventTypePassengerDeboarded EventType = "PassengerDeboarded"
	EventTypeNoShowMarked       EventType = "NoShowMarked"
	EventTypePassengerAdded     EventType = "PassengerAdded"
	EventTypeRACUpgraded        EventType = "RACUpgraded"
	EventTypeUpgradeOffered     EventType = "UpgradeOffered"
	EventTypeUpgradeAccepted    EventType = "UpgradeAccepted"
	EventTypeUpgradeRejected    EventType = "UpgradeRejected"
	EventTypeUpgradeExpired     EventType = "UpgradeExpired"
	EventTypeUpgradeConfirmed   EventType = "UpgradeConfirmed"
)

type Notification struct {
	PNR     string           `json:"pnr"`
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

type NotificationType string

const (
	NotificationTypeBoarding        NotificationType = "Boarding"
	NotificationTypeNoShow          NotificationType = "NoShow"
	NotificationTypeUpgradeOffered  NotificationType = "UpgradeOffered"
	NotificationTypeUpgradeApproved NotificationType = "UpgradeApproved"
)
