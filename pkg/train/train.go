package train

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
)

const DefaultOfferTTL = time.Hour

// EventSink receives committed events after the train lock has been released
type EventSink interface {
	HandleEvents(events []rail.Event)
}

type Config struct {
	TrainNo   string
	TrainName string

	OfferTTL time.Duration

	// BoardingAutoConfirm boards passengers on arrival. When false they are queued for TTE verification.
	BoardingAutoConfirm bool

	Clock     func() time.Time
	EventSink EventSink
}

// Train guards a single journey's State. All access goes through Read and Write.
type Train struct {
	mutex  sync.RWMutex
	state  *State
	config Config
}

func New(config Config) *Train {
	if config.OfferTTL <= 0 {
		config.OfferTTL = DefaultOfferTTL
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Train{
		state:  newState(config),
		config: config,
	}
}

func (t *Train) Config() Config {
	return t.config
}

// Read runs fn under the shared lock. fn must not retain or mutate the state.
func (t *Train) Read(fn func(*State)) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	fn(t.state)
}

// Write runs fn as one critical section. Events raised by fn are published once the lock is released,
// including those raised before fn failed. Operations only emit after their last failure point.
func (t *Train) Write(fn func(*State) error) error {
	t.mutex.Lock()
	err := fn(t.state)
	events := t.state.flushEvents()
	t.mutex.Unlock()

	if len(events) > 0 && t.config.EventSink != nil {
		t.config.EventSink.HandleEvents(events)
	}

	if err != nil && !rail.IsBusinessError(err) {
		log.Error().Err(err).Str("train", t.config.TrainNo).Msg("Train mutation failed")
	}

	return err
}

func (t *Train) Initialize(snapshot *rail.Snapshot) error {
	return t.Write(func(s *State) error {
		return s.Initialize(snapshot)
	})
}

func (t *Train) StartJourney() error {
	return t.Write(func(s *State) error {
		return s.StartJourney()
	})
}

func (t *Train) AdvanceToNextStation() (ArrivalResult, error) {
	var result ArrivalResult
	err := t.Write(func(s *State) error {
		var err error
		result, err = s.AdvanceToNextStation()
		return err
	})
	return result, err
}

func (t *Train) MarkNoShow(pnr string, reason string) (*rail.Vacancy, error) {
	var vacancy *rail.Vacancy
	err := t.Write(func(s *State) error {
		var err error
		vacancy, err = s.MarkNoShow(pnr, reason)
		return err
	})
	return vacancy, err
}

func (t *Train) AddPassenger(passenger *rail.Passenger) error {
	return t.Write(func(s *State) error {
		return s.AddPassenger(passenger)
	})
}

func (t *Train) Reset() error {
	return t.Write(func(s *State) error {
		s.Reset()
		return nil
	})
}

func (t *Train) FindPassenger(pnr string) (PassengerLocation, bool) {
	var location PassengerLocation
	var found bool
	t.Read(func(s *State) {
		location, found = s.FindPassenger(pnr)
		if found {
			location = location.detached()
		}
	})
	return location, found
}

func (t *Train) Stats() Stats {
	var stats Stats
	t.Read(func(s *State) {
		stats = s.Stats()
	})
	return stats
}

func (t *Train) Snapshot() (*rail.Snapshot, error) {
	var snapshot *rail.Snapshot
	var err error
	t.Read(func(s *State) {
		snapshot, err = s.Snapshot()
	})
	return snapshot, err
}

func (t *Train) EventLog() []rail.Event {
	var events []rail.Event
	t.Read(func(s *State) {
		events = s.EventLog()
	})
	return events
}
