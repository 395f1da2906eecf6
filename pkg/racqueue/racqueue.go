// Package racqueue holds the query and mutation operations scoped to the RAC passengers of a train.
// It keeps no state of its own.
package racqueue

import (
	"fmt"

	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
)

type SearchResult struct {
	Found     bool            `groups:"basic"`
	Passenger *rail.Passenger `groups:"basic"`
	Berth     string          `groups:"basic"`
	CoachNo   string          `groups:"basic"`
	Message   string          `groups:"basic"`
}

type Stats struct {
	Total   int `groups:"basic"`
	Boarded int `groups:"basic"`
}

type Result struct {
	Success   bool            `groups:"basic"`
	Passenger *rail.Passenger `groups:"basic"`
	Message   string          `groups:"basic"`
	Kind      rail.ErrorKind  `groups:"detailed"`
}

// Queue returns the queue in its current order
func Queue(t *train.Train) []*rail.Passenger {
	return filter(t, func(*rail.Passenger) bool { return true })
}

func BoardedOnlineRAC(t *train.Train) []*rail.Passenger {
	return filter(t, func(p *rail.Passenger) bool {
		return p.Boarded && p.IsOnline()
	})
}

func OfflineRAC(t *train.Train) []*rail.Passenger {
	return filter(t, func(p *rail.Passenger) bool {
		return !p.IsOnline()
	})
}

func filter(t *train.Train, keep func(*rail.Passenger) bool) []*rail.Passenger {
	var passengers []*rail.Passenger
	t.Read(func(s *train.State) {
		for _, passenger := range s.RACQueue {
			if keep(passenger) {
				copied := *passenger
				passengers = append(passengers, &copied)
			}
		}
	})
	return passengers
}

// SearchPassenger finds a queued RAC passenger
func SearchPassenger(t *train.Train, pnr string) SearchResult {
	location, found := t.FindPassenger(pnr)
	if !found || !location.Queued {
		return SearchResult{Found: false, Message: fmt.Sprintf("RAC passenger %s not found", pnr)}
	}

	result := SearchResult{
		Found:     true,
		Passenger: location.Passenger,
		CoachNo:   location.CoachNo,
	}
	if location.Berth != nil {
		result.Berth = location.Berth.Label()
	}
	return result
}

func GetStats(t *train.Train) Stats {
	var stats Stats
	t.Read(func(s *train.State) {
		stats.Total = len(s.RACQueue)
		for _, passenger := range s.RACQueue {
			if passenger.Boarded {
				stats.Boarded++
			}
		}
	})
	return stats
}

// ByPriority groups the queue by RAC status. Each group keeps queue order.
func ByPriority(t *train.Train) map[string][]*rail.Passenger {
	groups := map[string][]*rail.Passenger{}
	for _, passenger := range Queue(t) {
		status := passenger.RACStatus()
		groups[status] = append(groups[status], passenger)
	}
	return groups
}

// Add appends a passenger to the queue. A PNR already queued is rejected.
func Add(t *train.Train, passenger *rail.Passenger) Result {
	err := t.Write(func(s *train.State) error {
		return s.EnqueueRAC(passenger)
	})
	if err != nil {
		return Result{Success: false, Message: err.Error(), Kind: rail.KindOf(err)}
	}

	return Result{Success: true, Passenger: passenger, Message: fmt.Sprintf("%s added to the RAC queue", passenger.PNR)}
}

// Remove takes a PNR out of the queue
func Remove(t *train.Train, pnr string) Result {
	var removed rail.Passenger
	err := t.Write(func(s *train.State) error {
		passenger, err := s.DequeueRAC(pnr)
		if err != nil {
			return err
		}
		removed = *passenger
		return nil
	})
	if err != nil {
		return Result{Success: false, Message: err.Error(), Kind: rail.KindOf(err)}
	}

	return Result{Success: true, Passenger: &removed, Message: fmt.Sprintf("%s removed from the RAC queue", pnr)}
}
