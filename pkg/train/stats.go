package train

import "github.com/travigo/trainrac/pkg/rail"

type Stats struct {
	TotalPassengers int `groups:"basic"`
	Confirmed       int `groups:"basic"`
	RAC             int `groups:"basic"`
	Waitlisted      int `groups:"basic"`
	NoShow          int `groups:"basic"`
	Boarded         int `groups:"basic"`
	Onboard         int `groups:"basic"`
	Deboarded       int `groups:"basic"`
	VacantBerths    int `groups:"basic"`
	OccupiedBerths  int `groups:"basic"`
	RACUpgraded     int `groups:"basic"`
	RACQueue        int `groups:"basic"`
}

// Stats is derived from the current state on every call
func (s *State) Stats() Stats {
	stats := Stats{
		TotalPassengers: len(s.Passengers),
		RACQueue:        len(s.RACQueue),
	}

	for _, passenger := range s.Passengers {
		switch passenger.PNRStatus {
		case rail.PNRStatusConfirmed:
			stats.Confirmed++
		case rail.PNRStatusRAC:
			stats.RAC++
		case rail.PNRStatusWaitlisted:
			stats.Waitlisted++
		}

		if passenger.NoShow {
			stats.NoShow++
		}
		if passenger.Boarded {
			stats.Boarded++
			if !passenger.Deboarded {
				stats.Onboard++
			}
		}
		if passenger.Deboarded {
			stats.Deboarded++
		}
		if passenger.Upgraded {
			stats.RACUpgraded++
		}
	}

	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			if berth.OccupantsAt(s.CurrentStationIdx) == 0 {
				stats.VacantBerths++
			} else {
				stats.OccupiedBerths++
			}
		}
	}

	return stats
}

// VacantBerths lists berths nobody holds at the current station
func (s *State) VacantBerths() []*rail.Berth {
	var vacant []*rail.Berth
	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			if berth.OccupantsAt(s.CurrentStationIdx) == 0 {
				vacant = append(vacant, berth)
			}
		}
	}
	return vacant
}
