package train

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/travigo/trainrac/pkg/rail"
)

// Snapshot deep copies the state into its persisted form
func (s *State) Snapshot() (*rail.Snapshot, error) {
	snapshot := &rail.Snapshot{
		TrainNo:              s.TrainNo,
		TrainName:            s.TrainName,
		JourneyDate:          s.JourneyDate,
		CurrentStationIdx:    s.CurrentStationIdx,
		Phase:                s.Phase,
		ModificationDateTime: s.Now(),
	}

	if len(s.Stations) > 0 {
		if err := copier.CopyWithOption(&snapshot.Stations, s.Stations, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("copying stations: %w", err)
		}
	}
	if len(s.Coaches) > 0 {
		if err := copier.CopyWithOption(&snapshot.Coaches, s.Coaches, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("copying coaches: %w", err)
		}
	}
	if len(s.Passengers) > 0 {
		if err := copier.CopyWithOption(&snapshot.Passengers, s.Passengers, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("copying passengers: %w", err)
		}
	}
	if len(s.Notifications) > 0 {
		if err := copier.CopyWithOption(&snapshot.Notifications, s.Notifications, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("copying notifications: %w", err)
		}
	}

	for _, passenger := range s.RACQueue {
		snapshot.RACQueue = append(snapshot.RACQueue, passenger.PNR)
	}

	return snapshot, nil
}
