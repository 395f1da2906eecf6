// Package traintest builds small journeys for tests
package traintest

import (
	"sync"
	"time"

	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
)

func Stations() []rail.Station {
	return []rail.Station{
		{Code: "NDLS", Name: "New Delhi", Idx: 0, DistanceKm: 0},
		{Code: "AGC", Name: "Agra Cantt", Idx: 1, DistanceKm: 195},
		{Code: "GWL", Name: "Gwalior", Idx: 2, DistanceKm: 313},
		{Code: "JHS", Name: "Jhansi", Idx: 3, DistanceKm: 411},
		{Code: "BPL", Name: "Bhopal Junction", Idx: 4, DistanceKm: 701},
	}
}

func Confirmed(pnr string, coachNo string, berthNo int, fromIdx int, toIdx int) *rail.Passenger {
	return &rail.Passenger{
		PNR:             pnr,
		Name:            "Passenger " + pnr,
		Age:             35,
		PNRStatus:       rail.PNRStatusConfirmed,
		FromIdx:         fromIdx,
		ToIdx:           toIdx,
		Class:           rail.CoachClassSleeper,
		CoachNo:         coachNo,
		BerthNo:         berthNo,
		PassengerStatus: rail.PassengerStatusOffline,
	}
}

func RAC(pnr string, racNumber int, coachNo string, berthNo int, fromIdx int, toIdx int) *rail.Passenger {
	return &rail.Passenger{
		PNR:             pnr,
		Name:            "Passenger " + pnr,
		Age:             35,
		PNRStatus:       rail.PNRStatusRAC,
		RACNumber:       racNumber,
		FromIdx:         fromIdx,
		ToIdx:           toIdx,
		Class:           rail.CoachClassSleeper,
		CoachNo:         coachNo,
		BerthNo:         berthNo,
		PassengerStatus: rail.PassengerStatusOffline,
	}
}

func Waitlisted(pnr string, number int, fromIdx int, toIdx int) *rail.Passenger {
	return &rail.Passenger{
		PNR:             pnr,
		Name:            "Passenger " + pnr,
		PNRStatus:       rail.PNRStatusWaitlisted,
		WLNumber:        number,
		FromIdx:         fromIdx,
		ToIdx:           toIdx,
		Class:           rail.CoachClassSleeper,
		PassengerStatus: rail.PassengerStatusOffline,
	}
}

func Online(passenger *rail.Passenger) *rail.Passenger {
	passenger.PassengerStatus = rail.PassengerStatusOnline
	return passenger
}

// Snapshot is a five station journey with one sleeper and one AC 3 tier coach
func Snapshot(passengers ...*rail.Passenger) *rail.Snapshot {
	return &rail.Snapshot{
		TrainNo:        "12627",
		TrainName:      "Karnataka Express",
		JourneyDate:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		Stations:       Stations(),
		SleeperCoaches: 1,
		AC3TierCoaches: 1,
		Passengers:     passengers,
	}
}

// Clock is a settable time source
type Clock struct {
	Current time.Time
}

func NewClock() *Clock {
	return &Clock{Current: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	return c.Current
}

func (c *Clock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}

// New initializes a train over Snapshot(passengers...)
func New(config train.Config, passengers ...*rail.Passenger) (*train.Train, error) {
	if config.TrainNo == "" {
		config.TrainNo = "12627"
	}
	t := train.New(config)
	if err := t.Initialize(Snapshot(passengers...)); err != nil {
		return nil, err
	}
	return t, nil
}

// Recorder is an EventSink that keeps everything it receives
type Recorder struct {
	mutex  sync.Mutex
	events []rail.Event
}

func (r *Recorder) HandleEvents(events []rail.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Events() []rail.Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]rail.Event(nil), r.events...)
}

func (r *Recorder) Types() []rail.EventType {
	var types []rail.EventType
	for _, event := range r.Events() {
		types = append(types, event.Type)
	}
	return types
}
