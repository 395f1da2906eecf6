package train

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"golang.org/x/exp/slices"
)

type VerificationStats struct {
	Total          int    `groups:"basic"`
	Pending        int    `groups:"basic"`
	CurrentStation string `groups:"basic"`
	HasQueue       bool   `groups:"basic"`
}

// PrepareBoardingVerification rebuilds the TTE queue for passengers due to board here
func (s *State) PrepareBoardingVerification() (int, error) {
	if err := s.RequireStarted(); err != nil {
		return 0, err
	}
	return s.prepareBoardingVerification(), nil
}

func (s *State) prepareBoardingVerification() int {
	s.verificationQueue = nil
	for _, passenger := range s.Passengers {
		if passenger.FromIdx == s.CurrentStationIdx && !passenger.Boarded && passenger.Travelling() {
			s.verificationQueue = append(s.verificationQueue, passenger)
		}
	}

	log.Debug().
		Str("station", s.CurrentStation().Code).
		Int("pending", len(s.verificationQueue)).
		Msg("Boarding verification prepared")

	return len(s.verificationQueue)
}

// ConfirmAllBoarded boards everyone left in the verification queue
func (s *State) ConfirmAllBoarded() ([]string, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}

	var boarded []string
	for _, passenger := range s.verificationQueue {
		if passenger.Boarded || !passenger.Travelling() {
			continue
		}
		s.board(passenger)
		boarded = append(boarded, passenger.PNR)
	}
	s.verificationQueue = nil

	return boarded, nil
}

// MarkNoShowFromQueue marks a queued passenger as no-show
func (s *State) MarkNoShowFromQueue(pnr string) (*rail.Vacancy, error) {
	if err := s.RequireStarted(); err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(s.verificationQueue, func(p *rail.Passenger) bool { return p.PNR == pnr }) {
		return nil, rail.NewNotFoundError("passenger %s is not awaiting boarding verification", pnr)
	}

	return s.MarkNoShow(pnr, "not present at boarding verification")
}

func (s *State) VerificationQueue() []*rail.Passenger {
	return slices.Clone(s.verificationQueue)
}

func (s *State) VerificationStats() VerificationStats {
	pending := 0
	for _, passenger := range s.verificationQueue {
		if !passenger.Boarded && passenger.Travelling() {
			pending++
		}
	}

	return VerificationStats{
		Total:          len(s.verificationQueue),
		Pending:        pending,
		CurrentStation: s.CurrentStation().Name,
		HasQueue:       len(s.verificationQueue) > 0,
	}
}

func (s *State) removeFromVerification(pnr string) {
	s.verificationQueue = slices.DeleteFunc(s.verificationQueue, func(p *rail.Passenger) bool {
		return p.PNR == pnr
	})
}
