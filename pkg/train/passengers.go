package train

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/berthallocator"
	"github.com/travigo/trainrac/pkg/rail"
	"golang.org/x/exp/slices"
)

type PassengerLocation struct {
	Passenger *rail.Passenger `groups:"basic"`
	Berth     *rail.Berth     `groups:"detailed"`
	CoachNo   string          `groups:"basic"`
	Queued    bool            `groups:"basic"`
}

// detached copies the location out of the live state
func (l PassengerLocation) detached() PassengerLocation {
	passenger := *l.Passenger
	l.Passenger = &passenger

	if l.Berth != nil {
		berth := *l.Berth
		berth.Segments = nil
		for _, segment := range l.Berth.Segments {
			copied := *segment
			berth.Segments = append(berth.Segments, &copied)
		}
		l.Berth = &berth
	}

	return l
}

// FindPassenger looks for the PNR on the berths, then in the RAC queue, then among unseated passengers
func (s *State) FindPassenger(pnr string) (PassengerLocation, bool) {
	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			if berth.SegmentFor(pnr) != nil {
				return PassengerLocation{
					Passenger: s.passengersByPNR[pnr],
					Berth:     berth,
					CoachNo:   coach.CoachNo,
					Queued:    s.queuedIndex(pnr) >= 0,
				}, true
			}
		}
	}

	if idx := s.queuedIndex(pnr); idx >= 0 {
		passenger := s.RACQueue[idx]
		return PassengerLocation{Passenger: passenger, CoachNo: passenger.CoachNo, Queued: true}, true
	}

	if passenger, ok := s.passengersByPNR[pnr]; ok {
		return PassengerLocation{Passenger: passenger, CoachNo: passenger.CoachNo}, true
	}

	return PassengerLocation{}, false
}

// AllPassengers returns every passenger, seated or queued, in booking order
func (s *State) AllPassengers() []*rail.Passenger {
	return slices.Clone(s.Passengers)
}

// CoPassenger returns the other passenger sharing the RAC berth with pnr at the current station
func (s *State) CoPassenger(pnr string) (*rail.Passenger, bool) {
	passenger, ok := s.passengersByPNR[pnr]
	if !ok || !passenger.HasBerth() {
		return nil, false
	}

	berth := s.Berth(passenger.CoachNo, passenger.BerthNo)
	if berth == nil || !berth.Type.IsSide() {
		return nil, false
	}

	own := berth.SegmentFor(pnr)
	if own == nil {
		return nil, false
	}

	for _, segment := range berth.Overlapping(own.FromIdx, own.ToIdx) {
		if segment.PNR != pnr {
			return s.passengersByPNR[segment.PNR], true
		}
	}
	return nil, false
}

// MarkNoShow flags a passenger that never boarded and frees their berth from the current station
func (s *State) MarkNoShow(pnr string, reason string) (*rail.Vacancy, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}

	passenger, ok := s.passengersByPNR[pnr]
	if !ok {
		return nil, rail.NewNotFoundError("passenger %s not found", pnr)
	}
	if passenger.Boarded {
		return nil, fmt.Errorf("%s: %w", pnr, rail.ErrAlreadyBoarded)
	}
	if passenger.NoShow {
		return nil, rail.NewStateConflictError("passenger %s is already marked no-show", pnr)
	}
	if passenger.Deboarded {
		return nil, rail.NewStateConflictError("passenger %s has already left the train", pnr)
	}

	passenger.NoShow = true
	vacancy := s.releaseSegment(passenger)
	s.dequeue(pnr)
	s.removeFromVerification(pnr)

	data := map[string]interface{}{"reason": reason}
	if vacancy != nil {
		data["berth"] = vacancy.Label()
	}
	s.Emit(rail.EventTypeNoShowMarked, pnr, fmt.Sprintf("%s marked as no-show", passenger.Name), data)

	log.Info().Str("pnr", pnr).Str("reason", reason).Msg("Passenger marked as no-show")

	return vacancy, nil
}

// AddPassenger registers a new passenger during the journey and seats them if they hold a berth
func (s *State) AddPassenger(passenger *rail.Passenger) error {
	if err := s.RequireStarted(); err != nil {
		return err
	}
	if passenger == nil {
		return rail.NewValidationError("passenger is required")
	}
	if passenger.FromIdx < s.CurrentStationIdx {
		return rail.NewValidationError("passenger %s boards at %d which the train has already left", passenger.PNR, passenger.FromIdx)
	}

	if passenger.Class == "" && passenger.HasBerth() {
		if class, ok := s.CoachClass(passenger.CoachNo); ok {
			passenger.Class = class
		}
	}

	if passenger.HasBerth() {
		berth := s.Berth(passenger.CoachNo, passenger.BerthNo)
		if berth == nil {
			return rail.NewNotFoundError("berth %s not found", passenger.BerthLabel())
		}
		if err := berthallocator.ValidateBerthAllocation(berth, passenger, s); err != nil {
			return err
		}
	}

	if err := s.register(passenger); err != nil {
		return err
	}
	if passenger.HasBerth() {
		if err := s.placeSegment(passenger, passenger.FromIdx, passenger.ToIdx, passenger.SegmentRole()); err != nil {
			return err
		}
	}

	if passenger.PNRStatus == rail.PNRStatusRAC {
		s.RACQueue = append(s.RACQueue, passenger)
		s.sortRACQueue()
	}

	s.Emit(rail.EventTypePassengerAdded, passenger.PNR, fmt.Sprintf("%s added to the journey", passenger.Name), map[string]interface{}{
		"status": passenger.PNRStatus,
	})

	return nil
}

// EnqueueRAC appends a RAC passenger to the queue, registering them if unknown
func (s *State) EnqueueRAC(passenger *rail.Passenger) error {
	if err := s.RequireStarted(); err != nil {
		return err
	}
	if passenger == nil || passenger.PNR == "" {
		return rail.NewValidationError("passenger without a PNR")
	}
	if s.queuedIndex(passenger.PNR) >= 0 {
		return rail.NewStateConflictError("passenger %s is already in the RAC queue", passenger.PNR)
	}
	if passenger.PNRStatus != rail.PNRStatusRAC {
		return rail.NewValidationError("passenger %s is %s, not RAC", passenger.PNR, passenger.PNRStatus)
	}

	if existing, ok := s.passengersByPNR[passenger.PNR]; ok {
		if existing.PNRStatus != rail.PNRStatusRAC || !existing.Travelling() {
			return rail.NewStateConflictError("passenger %s can no longer be queued", passenger.PNR)
		}
		s.RACQueue = append(s.RACQueue, existing)
		return nil
	}

	if err := s.register(passenger); err != nil {
		return err
	}
	s.RACQueue = append(s.RACQueue, passenger)

	return nil
}

// DequeueRAC removes the PNR from the RAC queue by identity
func (s *State) DequeueRAC(pnr string) (*rail.Passenger, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}

	idx := s.queuedIndex(pnr)
	if idx < 0 {
		return nil, rail.NewNotFoundError("passenger %s not found in the RAC queue", pnr)
	}

	passenger := s.RACQueue[idx]
	s.dequeue(pnr)
	return passenger, nil
}

// Allocate moves a RAC passenger onto a full berth from the current station onwards.
// Nothing changes if the allocation is invalid.
func (s *State) Allocate(pnr string, coachNo string, berthNo int) error {
	if err := s.RequireStarted(); err != nil {
		return err
	}

	passenger, ok := s.passengersByPNR[pnr]
	if !ok {
		return rail.NewNotFoundError("passenger %s not found", pnr)
	}

	booking, err := passenger.Booking()
	if err != nil {
		return err
	}
	if _, ok := booking.(rail.RACBooking); !ok {
		return rail.NewStateConflictError("passenger %s is %s, only RAC passengers can be upgraded", pnr, rail.DisplayStatus(booking))
	}
	if !passenger.Travelling() {
		return rail.NewStateConflictError("passenger %s is no longer travelling", pnr)
	}
	if passenger.ToIdx <= s.CurrentStationIdx {
		return rail.NewStateConflictError("passenger %s has reached their destination", pnr)
	}

	berth := s.Berth(coachNo, berthNo)
	if berth == nil {
		return rail.NewNotFoundError("berth %s not found", rail.BerthLabel(coachNo, berthNo))
	}

	fromIdx := passenger.FromIdx
	if fromIdx < s.CurrentStationIdx {
		fromIdx = s.CurrentStationIdx
	}
	if err := berthallocator.ValidateSegment(berth, passenger, s, fromIdx, passenger.ToIdx, rail.SegmentRoleConfirmed); err != nil {
		return err
	}

	previous := passenger.BerthLabel()
	s.releaseSegment(passenger)

	passenger.CoachNo = coachNo
	passenger.BerthNo = berthNo
	passenger.PNRStatus = rail.PNRStatusConfirmed
	passenger.RACNumber = 0
	passenger.Upgraded = true
	berth.Segments = append(berth.Segments, &rail.Segment{PNR: pnr, FromIdx: fromIdx, ToIdx: passenger.ToIdx, Role: rail.SegmentRoleConfirmed})

	s.dequeue(pnr)

	s.Emit(rail.EventTypeRACUpgraded, pnr, fmt.Sprintf("%s upgraded to %s", passenger.Name, berth.Label()), map[string]interface{}{
		"from": previous,
		"to":   berth.Label(),
	})

	return nil
}

func (s *State) queuedIndex(pnr string) int {
	return slices.IndexFunc(s.RACQueue, func(p *rail.Passenger) bool {
		return p.PNR == pnr
	})
}

func (s *State) dequeue(pnr string) {
	s.RACQueue = slices.DeleteFunc(s.RACQueue, func(p *rail.Passenger) bool {
		return p.PNR == pnr
	})
}

func (s *State) sortRACQueue() {
	slices.SortStableFunc(s.RACQueue, func(a, b *rail.Passenger) int {
		if a.RACNumber != b.RACNumber {
			return a.RACNumber - b.RACNumber
		}
		return a.BoardingSeq - b.BoardingSeq
	})
}
