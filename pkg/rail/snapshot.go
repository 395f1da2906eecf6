package rail

import "time"

type JourneyPhase string

const (
	JourneyPhaseNotStarted JourneyPhase = "NOT_STARTED"
	JourneyPhaseStarted    JourneyPhase = "STARTED"
	JourneyPhaseComplete   JourneyPhase = "COMPLETE"
)

// Snapshot is the externally supplied and persisted form of a journey
type Snapshot struct {
	TrainNo     string    `bson:"trainno" yaml:"train_no"`
	TrainName   string    `bson:"trainname" yaml:"train_name"`
	JourneyDate time.Time `bson:"journeydate" yaml:"journey_date"`

	Stations   []Station    `bson:"stations" yaml:"stations"`
	Coaches    []*Coach     `bson:"coaches" yaml:"coaches"`
	Passengers []*Passenger `bson:"passengers" yaml:"-"`

	// SleeperCoaches and AC3TierCoaches build standard coaches when Coaches is empty
	SleeperCoaches int `bson:"-" yaml:"sleeper_coaches"`
	AC3TierCoaches int `bson:"-" yaml:"ac3_tier_coaches"`

	CurrentStationIdx int                    `bson:"currentstationidx" yaml:"-"`
	Phase             JourneyPhase           `bson:"phase" yaml:"-"`
	RACQueue          []string               `bson:"racqueue" yaml:"-"`
	Notifications     []*UpgradeNotification `bson:"notifications" yaml:"-"`

	ModificationDateTime time.Time `bson:"modificationdatetime" yaml:"-"`
}
