package train

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
)

type ArrivalResult struct {
	Station   rail.Station   `groups:"basic"`
	Boarded   []string       `groups:"basic"`
	Deboarded []string       `groups:"basic"`
	Vacancies []rail.Vacancy `groups:"basic"`
	Complete  bool           `groups:"basic"`
}

func (s *State) StartJourney() error {
	if s.Phase != rail.JourneyPhaseNotStarted {
		return rail.NewJourneyStateError("journey is already %s", s.Phase)
	}

	s.Phase = rail.JourneyPhaseStarted
	s.Emit(rail.EventTypeJourneyStarted, "", fmt.Sprintf("Journey started at %s", s.CurrentStation().Name), nil)

	boarded := s.boardAtCurrentStation()

	log.Info().
		Str("train", s.TrainNo).
		Str("station", s.CurrentStation().Code).
		Int("boarded", len(boarded)).
		Msg("Journey started")

	return nil
}

// AdvanceToNextStation moves the cursor forward one station, boards then deboards
func (s *State) AdvanceToNextStation() (ArrivalResult, error) {
	if err := s.RequireStarted(); err != nil {
		return ArrivalResult{}, err
	}
	if s.CurrentStationIdx >= s.LastIdx() {
		return ArrivalResult{}, rail.ErrJourneyComplete
	}

	s.CurrentStationIdx++
	station := s.CurrentStation()

	result := ArrivalResult{Station: station}

	s.Emit(rail.EventTypeStationArrived, "", fmt.Sprintf("Arrived at %s", station.Name), map[string]interface{}{
		"station": station.Code,
	})

	result.Boarded = s.boardAtCurrentStation()

	freedBerths := map[string]*rail.Berth{}
	for _, passenger := range s.Passengers {
		if passenger.ToIdx != s.CurrentStationIdx || !passenger.Travelling() {
			continue
		}

		passenger.Deboarded = true
		s.releaseSegment(passenger)
		s.dequeue(passenger.PNR)
		if berth := s.Berth(passenger.CoachNo, passenger.BerthNo); berth != nil {
			freedBerths[berth.Label()] = berth
		}

		result.Deboarded = append(result.Deboarded, passenger.PNR)
		s.Emit(rail.EventTypePassengerDeboarded, passenger.PNR, fmt.Sprintf("%s deboarded at %s", passenger.Name, station.Name), nil)
	}

	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			if _, ok := freedBerths[berth.Label()]; !ok {
				continue
			}
			if vacancy, ok := s.FreeIntervalFrom(berth, s.CurrentStationIdx); ok {
				result.Vacancies = append(result.Vacancies, vacancy)
			}
		}
	}

	if s.CurrentStationIdx == s.LastIdx() {
		s.Phase = rail.JourneyPhaseComplete
		result.Complete = true
	}

	log.Info().
		Str("train", s.TrainNo).
		Str("station", station.Code).
		Int("boarded", len(result.Boarded)).
		Int("deboarded", len(result.Deboarded)).
		Int("vacancies", len(result.Vacancies)).
		Msg("Station arrival processed")

	return result, nil
}

// boardAtCurrentStation boards, or queues for verification, everyone starting here
func (s *State) boardAtCurrentStation() []string {
	if !s.config.BoardingAutoConfirm {
		s.prepareBoardingVerification()
		return nil
	}

	var boarded []string
	for _, passenger := range s.Passengers {
		if passenger.FromIdx != s.CurrentStationIdx || passenger.Boarded || !passenger.Travelling() {
			continue
		}
		s.board(passenger)
		boarded = append(boarded, passenger.PNR)
	}
	return boarded
}

func (s *State) board(passenger *rail.Passenger) {
	passenger.Boarded = true
	s.Emit(rail.EventTypePassengerBoarded, passenger.PNR, fmt.Sprintf("%s boarded at %s", passenger.Name, s.CurrentStation().Name), nil)
}

// Reset returns the journey to the state it was initialized with
func (s *State) Reset() {
	initial := s.initial
	config := s.config

	if initial != nil {
		if err := s.Initialize(initial); err == nil {
			s.initial = initial
			s.Emit(rail.EventTypeJourneyReset, "", "Journey reset", nil)
			return
		}
	}

	pending := s.pendingEvents
	*s = *newState(config)
	s.pendingEvents = pending
	s.Emit(rail.EventTypeJourneyReset, "", "Journey reset", nil)
}
