package reallocation

import (
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/stationorder"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/upgrade"
	"golang.org/x/exp/slices"
)

type Rules struct {
	// RequireBoarded only considers RAC passengers already on the train
	RequireBoarded bool

	// MinJourneyKm skips passengers whose remaining journey is shorter. Zero disables the rule.
	MinJourneyKm int
}

// Vacancies lists every berth free from the current station onwards, in coach then berth order.
// Intervals held by a live upgrade offer are left out.
func Vacancies(s *train.State) []rail.Vacancy {
	var vacancies []rail.Vacancy

	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			vacancy, ok := s.FreeIntervalFrom(berth, s.CurrentStationIdx)
			if !ok {
				continue
			}
			if _, reserved := upgrade.Reserved(s, vacancy.CoachNo, vacancy.BerthNo, vacancy.FromIdx, vacancy.ToIdx); reserved {
				continue
			}
			vacancies = append(vacancies, vacancy)
		}
	}

	sortVacancies(vacancies)

	return vacancies
}

func sortVacancies(vacancies []rail.Vacancy) {
	slices.SortStableFunc(vacancies, func(a, b rail.Vacancy) int {
		if a.CoachOrder != b.CoachOrder {
			return a.CoachOrder - b.CoachOrder
		}
		if a.BerthNo != b.BerthNo {
			return a.BerthNo - b.BerthNo
		}
		return a.FromIdx - b.FromIdx
	})
}

// Eligible returns the RAC passengers that fit entirely inside the vacancy, by RAC number then booking order.
// A passenger who declined this berth before is not offered it again.
func Eligible(s *train.State, vacancy rail.Vacancy, rules Rules) []*rail.Passenger {
	var candidates []*rail.Passenger

	for _, passenger := range s.RACQueue {
		if !isEligible(s, passenger, vacancy, rules) {
			continue
		}
		candidates = append(candidates, passenger)
	}

	slices.SortStableFunc(candidates, func(a, b *rail.Passenger) int {
		if a.RACNumber != b.RACNumber {
			return a.RACNumber - b.RACNumber
		}
		return a.BoardingSeq - b.BoardingSeq
	})

	return candidates
}

func isEligible(s *train.State, passenger *rail.Passenger, vacancy rail.Vacancy, rules Rules) bool {
	if passenger.PNRStatus != rail.PNRStatusRAC || !passenger.Travelling() {
		return false
	}
	if rules.RequireBoarded && !passenger.Boarded {
		return false
	}
	if passenger.Class != vacancy.Class {
		return false
	}
	if !vacancy.Contains(passenger.FromIdx, passenger.ToIdx) {
		return false
	}
	if upgrade.Declined(s, passenger.PNR, vacancy.CoachNo, vacancy.BerthNo) {
		return false
	}

	if rules.MinJourneyKm > 0 {
		km, ok := stationorder.KmBetween(s.Stations, passenger.FromIdx, passenger.ToIdx)
		if ok && km < rules.MinJourneyKm {
			return false
		}
	}

	return true
}

type MatrixEntry struct {
	Vacancy    rail.Vacancy      `groups:"basic"`
	Candidates []*rail.Passenger `groups:"basic"`
}

// EligibilityMatrix maps each vacancy, in processing order, to its ordered candidates
func EligibilityMatrix(s *train.State, rules Rules) []MatrixEntry {
	var matrix []MatrixEntry
	for _, vacancy := range Vacancies(s) {
		matrix = append(matrix, MatrixEntry{
			Vacancy:    vacancy,
			Candidates: Eligible(s, vacancy, rules),
		})
	}
	return matrix
}
