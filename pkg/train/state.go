package train

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/travigo/trainrac/pkg/berthallocator"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/stationorder"
	"golang.org/x/exp/slices"
)

// State is the mutable journey aggregate. It is only reachable through Train.Read and Train.Write.
type State struct {
	config Config

	TrainNo     string
	TrainName   string
	JourneyDate time.Time

	Stations []rail.Station
	Coaches  []*rail.Coach

	// Passengers holds every passenger in booking order
	Passengers []*rail.Passenger
	RACQueue   []*rail.Passenger

	Notifications []*rail.UpgradeNotification

	CurrentStationIdx int
	Phase             rail.JourneyPhase

	verificationQueue []*rail.Passenger

	initial *rail.Snapshot

	passengersByPNR map[string]*rail.Passenger
	berthsByLabel   map[string]*rail.Berth
	coachOrder      map[string]int

	pendingEvents []rail.Event
	eventLog      []rail.Event
	nextSeq       int
}

func newState(config Config) *State {
	return &State{
		config:          config,
		TrainNo:         config.TrainNo,
		TrainName:       config.TrainName,
		Phase:           rail.JourneyPhaseNotStarted,
		passengersByPNR: map[string]*rail.Passenger{},
		berthsByLabel:   map[string]*rail.Berth{},
		coachOrder:      map[string]int{},
	}
}

func (s *State) Now() time.Time {
	return s.config.Clock()
}

func (s *State) OfferTTL() time.Duration {
	return s.config.OfferTTL
}

// Initialize replaces the state with the given snapshot
func (s *State) Initialize(snapshot *rail.Snapshot) error {
	if snapshot == nil {
		return rail.NewValidationError("snapshot is required")
	}
	if len(snapshot.Stations) < 2 {
		return rail.NewValidationError("a journey needs at least 2 stations, got %d", len(snapshot.Stations))
	}

	stations := slices.Clone(snapshot.Stations)
	slices.SortStableFunc(stations, func(a, b rail.Station) int {
		return a.Idx - b.Idx
	})
	for i, station := range stations {
		if station.Idx != i {
			return rail.NewValidationError("station %s has index %d, expected %d", station.Code, station.Idx, i)
		}
		if station.Code == "" {
			return rail.NewValidationError("station %d has no code", i)
		}
	}

	coaches, err := buildCoaches(snapshot)
	if err != nil {
		return err
	}

	fresh := newState(s.config)
	if snapshot.TrainNo != "" {
		fresh.TrainNo = snapshot.TrainNo
	}
	if snapshot.TrainName != "" {
		fresh.TrainName = snapshot.TrainName
	}
	fresh.JourneyDate = snapshot.JourneyDate
	fresh.Stations = stations
	fresh.Coaches = coaches
	fresh.CurrentStationIdx = snapshot.CurrentStationIdx
	fresh.Phase = snapshot.Phase
	if fresh.Phase == "" {
		fresh.Phase = rail.JourneyPhaseNotStarted
	}
	if fresh.CurrentStationIdx < 0 || fresh.CurrentStationIdx > fresh.LastIdx() {
		return rail.NewValidationError("current station %d is outside the journey", fresh.CurrentStationIdx)
	}

	for i, coach := range coaches {
		fresh.coachOrder[coach.CoachNo] = i
		for _, berth := range coach.Berths {
			fresh.berthsByLabel[berth.Label()] = berth
		}
	}

	restored := hasSegments(coaches)

	for _, supplied := range snapshot.Passengers {
		if supplied == nil {
			return rail.NewValidationError("snapshot contains an empty passenger")
		}
		copied := *supplied
		passenger := &copied

		if err := fresh.register(passenger); err != nil {
			return err
		}
		if restored || !passenger.Travelling() || !passenger.HasBerth() {
			continue
		}
		if err := fresh.placeSegment(passenger, passenger.FromIdx, passenger.ToIdx, passenger.SegmentRole()); err != nil {
			return err
		}
	}

	if restored {
		for _, coach := range coaches {
			for _, berth := range coach.Berths {
				for _, segment := range berth.Segments {
					if _, ok := fresh.passengersByPNR[segment.PNR]; !ok {
						return rail.NewValidationError("berth %s holds unknown PNR %s", berth.Label(), segment.PNR)
					}
				}
			}
		}
	}

	if len(snapshot.RACQueue) > 0 {
		for _, pnr := range snapshot.RACQueue {
			passenger, ok := fresh.passengersByPNR[pnr]
			if !ok || passenger.PNRStatus != rail.PNRStatusRAC {
				return rail.NewValidationError("RAC queue entry %s is not a RAC passenger", pnr)
			}
			if fresh.queuedIndex(pnr) >= 0 {
				return rail.NewValidationError("RAC queue entry %s is duplicated", pnr)
			}
			fresh.RACQueue = append(fresh.RACQueue, passenger)
		}
	} else {
		for _, passenger := range fresh.Passengers {
			if passenger.PNRStatus == rail.PNRStatusRAC && passenger.Travelling() {
				fresh.RACQueue = append(fresh.RACQueue, passenger)
			}
		}
		fresh.sortRACQueue()
	}

	for _, notification := range snapshot.Notifications {
		copied := *notification
		fresh.Notifications = append(fresh.Notifications, &copied)
	}

	initial := &rail.Snapshot{}
	if err := copier.CopyWithOption(initial, snapshot, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("copying initial snapshot: %w", err)
	}
	fresh.initial = initial

	fresh.pendingEvents = s.pendingEvents
	*s = *fresh

	return nil
}

func hasSegments(coaches []*rail.Coach) bool {
	for _, coach := range coaches {
		for _, berth := range coach.Berths {
			if len(berth.Segments) > 0 {
				return true
			}
		}
	}
	return false
}

func buildCoaches(snapshot *rail.Snapshot) ([]*rail.Coach, error) {
	var coaches []*rail.Coach
	seen := map[string]bool{}

	for _, template := range snapshot.Coaches {
		if template.CoachNo == "" {
			return nil, rail.NewValidationError("coach without a number")
		}
		if seen[template.CoachNo] {
			return nil, rail.NewValidationError("coach %s is duplicated", template.CoachNo)
		}
		seen[template.CoachNo] = true

		coach := &rail.Coach{CoachNo: template.CoachNo, Class: template.Class}
		if len(template.Berths) == 0 {
			coach.Berths = buildBerths(coach.CoachNo, coach.Class)
		} else {
			if err := copier.CopyWithOption(&coach.Berths, template.Berths, copier.Option{DeepCopy: true}); err != nil {
				return nil, fmt.Errorf("copying berths for %s: %w", coach.CoachNo, err)
			}
		}
		coaches = append(coaches, coach)
	}

	if len(snapshot.Coaches) == 0 {
		for i := 1; i <= snapshot.SleeperCoaches; i++ {
			coachNo := fmt.Sprintf("S%d", i)
			coaches = append(coaches, &rail.Coach{CoachNo: coachNo, Class: rail.CoachClassSleeper, Berths: buildBerths(coachNo, rail.CoachClassSleeper)})
		}
		for i := 1; i <= snapshot.AC3TierCoaches; i++ {
			coachNo := fmt.Sprintf("B%d", i)
			coaches = append(coaches, &rail.Coach{CoachNo: coachNo, Class: rail.CoachClassAC3Tier, Berths: buildBerths(coachNo, rail.CoachClassAC3Tier)})
		}
	}

	if len(coaches) == 0 {
		return nil, rail.NewValidationError("train has no coaches")
	}

	return coaches, nil
}

func buildBerths(coachNo string, class rail.CoachClass) []*rail.Berth {
	count := berthallocator.BerthsPerCoach(class)
	berths := make([]*rail.Berth, 0, count)
	for berthNo := 1; berthNo <= count; berthNo++ {
		berths = append(berths, &rail.Berth{
			CoachNo: coachNo,
			BerthNo: berthNo,
			Type:    berthallocator.BerthType(berthNo, class),
		})
	}
	return berths
}

// register validates a passenger record and indexes it. The passenger's berth is not touched.
func (s *State) register(passenger *rail.Passenger) error {
	if passenger == nil || passenger.PNR == "" {
		return rail.NewValidationError("passenger without a PNR")
	}
	if _, exists := s.passengersByPNR[passenger.PNR]; exists {
		return rail.NewStateConflictError("passenger %s already exists", passenger.PNR)
	}
	if !stationorder.IsValidJourney(passenger.FromIdx, passenger.ToIdx) {
		return rail.NewValidationError("passenger %s has an invalid journey %d → %d", passenger.PNR, passenger.FromIdx, passenger.ToIdx)
	}
	if passenger.FromIdx < 0 || passenger.ToIdx > s.LastIdx() {
		return rail.NewValidationError("passenger %s travels outside the route", passenger.PNR)
	}

	booking, err := passenger.Booking()
	if err != nil {
		return err
	}

	switch booking := booking.(type) {
	case rail.Confirmed:
		if booking.CoachNo == "" || booking.BerthNo <= 0 {
			return rail.NewValidationError("confirmed passenger %s has no berth", passenger.PNR)
		}
	case rail.RACBooking:
		if booking.Number <= 0 {
			return rail.NewValidationError("RAC passenger %s has no RAC number", passenger.PNR)
		}
	case rail.Waitlisted:
		if passenger.HasBerth() {
			return rail.NewValidationError("waitlisted passenger %s cannot hold a berth", passenger.PNR)
		}
	}

	if passenger.Class == "" && passenger.HasBerth() {
		if class, ok := s.CoachClass(passenger.CoachNo); ok {
			passenger.Class = class
		}
	}
	if passenger.PassengerStatus == "" {
		passenger.PassengerStatus = rail.PassengerStatusOffline
	}

	s.nextSeq++
	passenger.BoardingSeq = s.nextSeq

	s.Passengers = append(s.Passengers, passenger)
	s.passengersByPNR[passenger.PNR] = passenger

	return nil
}

// placeSegment validates and records [fromIdx, toIdx) for the passenger on their assigned berth
func (s *State) placeSegment(passenger *rail.Passenger, fromIdx int, toIdx int, role rail.SegmentRole) error {
	berth := s.Berth(passenger.CoachNo, passenger.BerthNo)
	if berth == nil {
		return rail.NewNotFoundError("berth %s not found for %s", rail.BerthLabel(passenger.CoachNo, passenger.BerthNo), passenger.PNR)
	}
	if err := berthallocator.ValidateSegment(berth, passenger, s, fromIdx, toIdx, role); err != nil {
		return err
	}

	berth.Segments = append(berth.Segments, &rail.Segment{PNR: passenger.PNR, FromIdx: fromIdx, ToIdx: toIdx, Role: role})
	return nil
}

// releaseSegment frees whatever the passenger holds on their berth. The freed part is reported
// from the current station onwards.
func (s *State) releaseSegment(passenger *rail.Passenger) *rail.Vacancy {
	berth := s.Berth(passenger.CoachNo, passenger.BerthNo)
	if berth == nil {
		return nil
	}

	segment, ok := berth.Release(passenger.PNR)
	if !ok {
		return nil
	}

	fromIdx := segment.FromIdx
	if fromIdx < s.CurrentStationIdx {
		fromIdx = s.CurrentStationIdx
	}
	class, _ := s.CoachClass(berth.CoachNo)

	return &rail.Vacancy{
		CoachNo:    berth.CoachNo,
		BerthNo:    berth.BerthNo,
		BerthType:  berth.Type,
		Class:      class,
		FromIdx:    fromIdx,
		ToIdx:      segment.ToIdx,
		CoachOrder: s.coachOrder[berth.CoachNo],
	}
}

// FreeIntervalFrom returns the maximal zero-occupant interval on the berth starting at idx
func (s *State) FreeIntervalFrom(berth *rail.Berth, idx int) (rail.Vacancy, bool) {
	if idx >= s.LastIdx() {
		return rail.Vacancy{}, false
	}

	toIdx := s.LastIdx()
	for _, segment := range berth.Segments {
		if segment.Covers(idx) {
			return rail.Vacancy{}, false
		}
		if segment.FromIdx > idx && segment.FromIdx < toIdx {
			toIdx = segment.FromIdx
		}
	}

	class, _ := s.CoachClass(berth.CoachNo)

	return rail.Vacancy{
		CoachNo:    berth.CoachNo,
		BerthNo:    berth.BerthNo,
		BerthType:  berth.Type,
		Class:      class,
		FromIdx:    idx,
		ToIdx:      toIdx,
		CoachOrder: s.coachOrder[berth.CoachNo],
	}, true
}

func (s *State) LastIdx() int {
	return len(s.Stations) - 1
}

func (s *State) CurrentStation() rail.Station {
	station, _ := stationorder.ByIndex(s.Stations, s.CurrentStationIdx)
	return station
}

func (s *State) Coach(coachNo string) *rail.Coach {
	for _, coach := range s.Coaches {
		if coach.CoachNo == coachNo {
			return coach
		}
	}
	return nil
}

// CoachClass resolves the class of a coach in this train
func (s *State) CoachClass(coachNo string) (rail.CoachClass, bool) {
	coach := s.Coach(coachNo)
	if coach == nil {
		return "", false
	}
	return coach.Class, true
}

func (s *State) CoachOrder(coachNo string) int {
	return s.coachOrder[coachNo]
}

func (s *State) Berth(coachNo string, berthNo int) *rail.Berth {
	return s.berthsByLabel[rail.BerthLabel(coachNo, berthNo)]
}

func (s *State) Passenger(pnr string) *rail.Passenger {
	return s.passengersByPNR[pnr]
}

func (s *State) RequireStarted() error {
	switch s.Phase {
	case rail.JourneyPhaseStarted:
		return nil
	case rail.JourneyPhaseComplete:
		return rail.ErrJourneyComplete
	default:
		return rail.NewJourneyStateError("journey has not started")
	}
}

// Emit buffers an event until the surrounding Write commits
func (s *State) Emit(eventType rail.EventType, pnr string, message string, data map[string]interface{}) {
	station := s.CurrentStation()
	s.pendingEvents = append(s.pendingEvents, rail.Event{
		Type:        eventType,
		Timestamp:   s.Now(),
		StationIdx:  s.CurrentStationIdx,
		StationCode: station.Code,
		PNR:         pnr,
		Message:     message,
		Data:        data,
	})
}

func (s *State) flushEvents() []rail.Event {
	events := s.pendingEvents
	s.pendingEvents = nil
	s.eventLog = append(s.eventLog, events...)
	return events
}

func (s *State) EventLog() []rail.Event {
	return slices.Clone(s.eventLog)
}
