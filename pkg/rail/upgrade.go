package rail

import "time"

type UpgradeStatus string

const (
	UpgradeStatusPending  UpgradeStatus = "PENDING"
	UpgradeStatusApproved UpgradeStatus = "APPROVED"
	UpgradeStatusRejected UpgradeStatus = "REJECTED"
	UpgradeStatusExpired  UpgradeStatus = "EXPIRED"
)

func (s UpgradeStatus) Terminal() bool {
	return s != UpgradeStatusPending
}

type UpgradeNotification struct {
	ID                string        `groups:"basic" bson:"id"`
	PNR               string        `groups:"basic" bson:"pnr"`
	PassengerName     string        `groups:"basic" bson:"passengername"`
	CurrentBerth      string        `groups:"basic" bson:"currentberth"`
	ProposedCoach     string        `groups:"basic" bson:"proposedcoach"`
	ProposedBerth     int           `groups:"basic" bson:"proposedberth"`
	ProposedBerthType BerthType     `groups:"basic" bson:"proposedberthtype"`
	StationCode       string        `groups:"basic" bson:"stationcode"`
	Status            UpgradeStatus `groups:"basic" bson:"status"`

	TTEApproved       bool `groups:"basic" bson:"tteapproved"`
	PassengerApproved bool `groups:"basic" bson:"passengerapproved"`

	VacancyFromIdx int `groups:"detailed" bson:"vacancyfromidx"`
	VacancyToIdx   int `groups:"detailed" bson:"vacancytoidx"`

	CreatedAt    time.Time  `groups:"basic" bson:"createdat"`
	ExpiresAt    time.Time  `groups:"basic" bson:"expiresat"`
	RespondedAt  *time.Time `groups:"detailed" bson:"respondedat"`
	DenialReason string     `groups:"detailed" bson:"denialreason"`
}

func (n *UpgradeNotification) ProposedBerthLabel() string {
	return BerthLabel(n.ProposedCoach, n.ProposedBerth)
}

// Overdue reports whether a non-terminal notification has passed its expiry
func (n *UpgradeNotification) Overdue(now time.Time) bool {
	return !n.Status.Terminal() && !now.Before(n.ExpiresAt)
}

// Vacancy is a freed berth interval [FromIdx, ToIdx) available for reallocation
type Vacancy struct {
	CoachNo   string     `groups:"basic"`
	BerthNo   int        `groups:"basic"`
	BerthType BerthType  `groups:"basic"`
	Class     CoachClass `groups:"basic"`
	FromIdx   int        `groups:"basic"`
	ToIdx     int        `groups:"basic"`

	// CoachOrder is the coach's position in the train, used for deterministic ordering
	CoachOrder int `groups:"detailed"`
}

func (v Vacancy) Label() string {
	return BerthLabel(v.CoachNo, v.BerthNo)
}

func (v Vacancy) Contains(fromIdx int, toIdx int) bool {
	return v.FromIdx <= fromIdx && toIdx <= v.ToIdx
}
