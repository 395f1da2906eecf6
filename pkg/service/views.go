package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/travigo/trainrac/pkg/racqueue"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/reallocation"
	"github.com/travigo/trainrac/pkg/train"
)

// JourneyView is the read model of the whole train
type JourneyView struct {
	TrainNo        string            `json:"trainNo" groups:"basic"`
	TrainName      string            `json:"trainName" groups:"basic"`
	Phase          rail.JourneyPhase `json:"phase" groups:"basic"`
	CurrentStation rail.Station      `json:"currentStation" groups:"basic"`
	NextStation    *rail.Station     `json:"nextStation,omitempty" groups:"basic"`
	Stations       []rail.Station    `json:"stations" groups:"basic"`
	Coaches        []*rail.Coach     `json:"coaches" groups:"detailed"`
	Stats          train.Stats       `json:"stats" groups:"basic"`

	Verification train.VerificationStats `json:"verification" groups:"detailed"`
}

// State builds the whole view under one read lock so coaches and stats describe the same moment
func (s *Service) State() (JourneyView, error) {
	var view JourneyView
	var err error

	s.Train.Read(func(state *train.State) {
		view = JourneyView{
			TrainNo:      state.TrainNo,
			TrainName:    state.TrainName,
			Phase:        state.Phase,
			Stats:        state.Stats(),
			Verification: state.VerificationStats(),
		}

		if len(state.Stations) > 0 {
			view.Stations = append(view.Stations, state.Stations...)
			view.CurrentStation = state.CurrentStation()
		}
		for _, station := range state.Stations {
			if station.Idx == state.CurrentStationIdx+1 {
				next := station
				view.NextStation = &next
			}
		}

		if len(state.Coaches) > 0 {
			if copyErr := copier.CopyWithOption(&view.Coaches, state.Coaches, copier.Option{DeepCopy: true}); copyErr != nil {
				err = fmt.Errorf("copying coaches: %w", copyErr)
			}
		}
	})

	if err != nil {
		return JourneyView{}, err
	}
	return view, nil
}

// Position is the minimal journey cursor used by arrival feeds
func (s *Service) Position() (stations []rail.Station, currentIdx int, phase rail.JourneyPhase) {
	s.Train.Read(func(state *train.State) {
		stations = append(stations, state.Stations...)
		currentIdx = state.CurrentStationIdx
		phase = state.Phase
	})
	return stations, currentIdx, phase
}

func (s *Service) Stats() train.Stats {
	return s.Train.Stats()
}

func (s *Service) FindPassenger(pnr string) (train.PassengerLocation, bool) {
	return s.Train.FindPassenger(pnr)
}

func (s *Service) CoPassenger(pnr string) (rail.Passenger, bool) {
	var coPassenger rail.Passenger
	var found bool
	s.Train.Read(func(state *train.State) {
		var passenger *rail.Passenger
		passenger, found = state.CoPassenger(pnr)
		if found {
			coPassenger = *passenger
		}
	})
	return coPassenger, found
}

func (s *Service) RACQueue() []*rail.Passenger {
	return racqueue.Queue(s.Train)
}

func (s *Service) RACQueueStats() racqueue.Stats {
	return racqueue.GetStats(s.Train)
}

func (s *Service) SearchRAC(pnr string) racqueue.SearchResult {
	return racqueue.SearchPassenger(s.Train, pnr)
}

func (s *Service) OccupancyTimeline(coachNo string, berthNo int) (train.BerthTimeline, error) {
	var timeline train.BerthTimeline
	var err error
	s.Train.Read(func(state *train.State) {
		timeline, err = state.OccupancyTimeline(coachNo, berthNo)
	})
	return timeline, err
}

func (s *Service) SegmentVacancies(segmentID int) (train.SegmentVacancy, error) {
	var vacancy train.SegmentVacancy
	var err error
	s.Train.Read(func(state *train.State) {
		vacancy, err = state.SegmentVacancies(segmentID)
	})
	return vacancy, err
}

type SegmentMatrixView struct {
	Segments []rail.JourneySegment    `json:"segments" groups:"basic"`
	Berths   []train.SegmentMatrixRow `json:"berths" groups:"basic"`
}

func (s *Service) SegmentMatrix() SegmentMatrixView {
	var view SegmentMatrixView
	s.Train.Read(func(state *train.State) {
		view.Segments = state.JourneySegments()
		view.Berths = state.SegmentMatrix()
	})
	return view
}

func (s *Service) Vacancies() []rail.Vacancy {
	return s.Engine.Vacancies(s.Train)
}

func (s *Service) EligibilityMatrix() []reallocation.MatrixEntry {
	return s.Engine.EligibilityMatrix(s.Train)
}

func (s *Service) PendingUpgrades() []rail.UpgradeNotification {
	return s.Workflow.Pending()
}

func (s *Service) UpgradeHistory(pnr string) []rail.UpgradeNotification {
	return s.Workflow.History(pnr)
}

func (s *Service) VerificationQueue() []rail.Passenger {
	var queue []rail.Passenger
	s.Train.Read(func(state *train.State) {
		for _, passenger := range state.VerificationQueue() {
			queue = append(queue, *passenger)
		}
	})
	return queue
}

// SuggestGroup orders the RAC members of a booking group by the configured priority strategy
func (s *Service) SuggestGroup(groupID string) ([]*rail.Passenger, error) {
	var passengers []*rail.Passenger
	s.Train.Read(func(state *train.State) {
		for _, passenger := range state.Passengers {
			if passenger.GroupID == groupID {
				copied := *passenger
				passengers = append(passengers, &copied)
			}
		}
	})

	return reallocation.SuggestGroup(passengers, groupID, s.Strategy)
}

func (s *Service) Events() []rail.Event {
	return s.Train.EventLog()
}
