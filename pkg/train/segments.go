package train

import "github.com/travigo/trainrac/pkg/rail"

type SegmentOccupant struct {
	PNR       string         `groups:"basic"`
	Name      string         `groups:"detailed"`
	PNRStatus rail.PNRStatus `groups:"basic"`
}

// SegmentOccupancy is what one berth holds over one journey segment
type SegmentOccupancy struct {
	Segment   rail.JourneySegment `groups:"basic"`
	Occupied  bool                `groups:"basic"`
	Occupants []SegmentOccupant   `groups:"basic"`
}

type BerthTimeline struct {
	CoachNo   string             `groups:"basic"`
	BerthNo   int                `groups:"basic"`
	BerthType rail.BerthType     `groups:"basic"`
	Segments  []SegmentOccupancy `groups:"basic"`
}

type SegmentVacancy struct {
	Segment      rail.JourneySegment `groups:"basic"`
	VacantCount  int                 `groups:"basic"`
	VacantBerths []string            `groups:"basic"`
}

// SegmentMatrixRow counts the occupants of one berth on every segment, in journey order
type SegmentMatrixRow struct {
	CoachNo   string         `groups:"basic"`
	BerthNo   int            `groups:"basic"`
	BerthType rail.BerthType `groups:"basic"`
	Occupants []int          `groups:"basic"`
}

func (s *State) JourneySegments() []rail.JourneySegment {
	return rail.JourneySegments(s.Stations)
}

// OccupancyTimeline walks the berth segment by segment from origin to destination
func (s *State) OccupancyTimeline(coachNo string, berthNo int) (BerthTimeline, error) {
	berth := s.Berth(coachNo, berthNo)
	if berth == nil {
		return BerthTimeline{}, rail.NewNotFoundError("berth %s not found", rail.BerthLabel(coachNo, berthNo))
	}

	timeline := BerthTimeline{
		CoachNo:   berth.CoachNo,
		BerthNo:   berth.BerthNo,
		BerthType: berth.Type,
	}

	for _, segment := range s.JourneySegments() {
		occupancy := SegmentOccupancy{Segment: segment}
		for _, held := range berth.Segments {
			if !held.Covers(segment.FromIdx) {
				continue
			}

			occupant := SegmentOccupant{PNR: held.PNR}
			if passenger, ok := s.passengersByPNR[held.PNR]; ok {
				occupant.Name = passenger.Name
				occupant.PNRStatus = passenger.PNRStatus
			}
			occupancy.Occupants = append(occupancy.Occupants, occupant)
		}
		occupancy.Occupied = len(occupancy.Occupants) > 0

		timeline.Segments = append(timeline.Segments, occupancy)
	}

	return timeline, nil
}

// SegmentVacancies lists every berth nobody holds over the segment, in coach then berth order
func (s *State) SegmentVacancies(segmentID int) (SegmentVacancy, error) {
	segments := s.JourneySegments()
	if segmentID < 0 || segmentID >= len(segments) {
		return SegmentVacancy{}, rail.NewNotFoundError("segment %d not found", segmentID)
	}

	vacancy := SegmentVacancy{Segment: segments[segmentID]}
	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			if berth.OccupantsAt(vacancy.Segment.FromIdx) == 0 {
				vacancy.VacantBerths = append(vacancy.VacantBerths, berth.Label())
			}
		}
	}
	vacancy.VacantCount = len(vacancy.VacantBerths)

	return vacancy, nil
}

func (s *State) SegmentMatrix() []SegmentMatrixRow {
	segments := s.JourneySegments()

	var matrix []SegmentMatrixRow
	for _, coach := range s.Coaches {
		for _, berth := range coach.Berths {
			row := SegmentMatrixRow{
				CoachNo:   berth.CoachNo,
				BerthNo:   berth.BerthNo,
				BerthType: berth.Type,
				Occupants: make([]int, len(segments)),
			}
			for i, segment := range segments {
				row.Occupants[i] = berth.OccupantsAt(segment.FromIdx)
			}
			matrix = append(matrix, row)
		}
	}

	return matrix
}
