package reallocation

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/upgrade"
)

type Allocation struct {
	PNR     string `json:"pnr" groups:"basic"`
	CoachNo string `json:"coachNo" groups:"basic"`
	BerthNo int    `json:"berthNo" groups:"basic"`
}

func (a Allocation) Label() string {
	return rail.BerthLabel(a.CoachNo, a.BerthNo)
}

type AllocationResult struct {
	Allocation Allocation `groups:"basic"`
	Success    bool       `groups:"basic"`
	Message    string     `groups:"basic"`
}

type BatchResult struct {
	Allocated []Allocation               `groups:"basic"`
	Offered   []rail.UpgradeNotification `groups:"basic"`
	Skipped   []string                   `groups:"detailed"`
	Expired   int                        `groups:"basic"`
}

// Process allocates every current vacancy in one pass. A granted vacancy and its candidate leave the pool.
// Offline candidates are moved directly, online candidates receive an offer instead.
func Process(s *train.State, rules Rules) (BatchResult, error) {
	var result BatchResult

	if err := s.RequireStarted(); err != nil {
		return result, err
	}

	result.Expired = len(upgrade.ExpireOverdue(s))

	granted := map[string]bool{}

	for _, vacancy := range Vacancies(s) {
		for _, candidate := range Eligible(s, vacancy, rules) {
			if granted[candidate.PNR] {
				continue
			}

			if candidate.IsOnline() {
				if upgrade.HasPending(s, candidate.PNR) {
					continue
				}

				notification, err := upgrade.Offer(s, candidate.PNR, vacancy.CoachNo, vacancy.BerthNo)
				if err != nil {
					if !rail.IsBusinessError(err) {
						return result, err
					}
					result.Skipped = append(result.Skipped, fmt.Sprintf("%s → %s: %s", candidate.PNR, vacancy.Label(), err))
					continue
				}

				result.Offered = append(result.Offered, *notification)
			} else {
				if err := s.Allocate(candidate.PNR, vacancy.CoachNo, vacancy.BerthNo); err != nil {
					if !rail.IsBusinessError(err) {
						return result, err
					}
					result.Skipped = append(result.Skipped, fmt.Sprintf("%s → %s: %s", candidate.PNR, vacancy.Label(), err))
					continue
				}

				result.Allocated = append(result.Allocated, Allocation{PNR: candidate.PNR, CoachNo: vacancy.CoachNo, BerthNo: vacancy.BerthNo})
			}

			granted[candidate.PNR] = true
			break
		}
	}

	log.Info().
		Str("station", s.CurrentStation().Code).
		Int("allocated", len(result.Allocated)).
		Int("offered", len(result.Offered)).
		Int("expired", result.Expired).
		Msg("Reallocation batch processed")

	return result, nil
}

// ApplyReallocation validates and commits each allocation against the live state
func ApplyReallocation(s *train.State, allocations []Allocation) []AllocationResult {
	results := make([]AllocationResult, 0, len(allocations))

	for _, allocation := range allocations {
		results = append(results, applyOne(s, allocation))
	}

	return results
}

func applyOne(s *train.State, allocation Allocation) AllocationResult {
	result := AllocationResult{Allocation: allocation}

	if allocation.PNR == "" || allocation.CoachNo == "" || allocation.BerthNo <= 0 {
		result.Message = rail.NewValidationError("allocation needs a PNR, coach and berth").Error()
		return result
	}

	if passenger := s.Passenger(allocation.PNR); passenger != nil {
		fromIdx := passenger.FromIdx
		if fromIdx < s.CurrentStationIdx {
			fromIdx = s.CurrentStationIdx
		}
		if holder, reserved := upgrade.Reserved(s, allocation.CoachNo, allocation.BerthNo, fromIdx, passenger.ToIdx); reserved && holder.PNR != allocation.PNR {
			result.Message = fmt.Sprintf("berth %s is reserved for %s", allocation.Label(), holder.PNR)
			return result
		}
	}

	if err := s.Allocate(allocation.PNR, allocation.CoachNo, allocation.BerthNo); err != nil {
		result.Message = err.Error()
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("%s allocated %s", allocation.PNR, allocation.Label())
	return result
}

// Engine runs the reallocation operations under the train lock
type Engine struct {
	Rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{Rules: rules}
}

func (e *Engine) Vacancies(t *train.Train) []rail.Vacancy {
	var vacancies []rail.Vacancy
	t.Read(func(s *train.State) {
		vacancies = Vacancies(s)
	})
	return vacancies
}

func (e *Engine) Eligible(t *train.Train, vacancy rail.Vacancy) []rail.Passenger {
	var candidates []rail.Passenger
	t.Read(func(s *train.State) {
		for _, passenger := range Eligible(s, vacancy, e.Rules) {
			candidates = append(candidates, *passenger)
		}
	})
	return candidates
}

func (e *Engine) EligibilityMatrix(t *train.Train) []MatrixEntry {
	var matrix []MatrixEntry
	t.Read(func(s *train.State) {
		for _, entry := range EligibilityMatrix(s, e.Rules) {
			candidates := make([]*rail.Passenger, 0, len(entry.Candidates))
			for _, passenger := range entry.Candidates {
				copied := *passenger
				candidates = append(candidates, &copied)
			}
			matrix = append(matrix, MatrixEntry{Vacancy: entry.Vacancy, Candidates: candidates})
		}
	})
	return matrix
}

func (e *Engine) Process(t *train.Train) (BatchResult, error) {
	var result BatchResult
	err := t.Write(func(s *train.State) error {
		var err error
		result, err = Process(s, e.Rules)
		return err
	})
	return result, err
}

func (e *Engine) ApplyReallocation(t *train.Train, allocations []Allocation) ([]AllocationResult, error) {
	var results []AllocationResult
	err := t.Write(func(s *train.State) error {
		results = ApplyReallocation(s, allocations)
		return nil
	})
	return results, err
}
