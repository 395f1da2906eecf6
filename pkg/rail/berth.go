package rail

import "fmt"

type CoachClass string

const (
	CoachClassSleeper CoachClass = "SL"
	CoachClassAC3Tier CoachClass = "AC_3_Tier"
)

type BerthType string

const (
	BerthTypeLower     BerthType = "Lower Berth"
	BerthTypeMiddle    BerthType = "Middle Berth"
	BerthTypeUpper     BerthType = "Upper Berth"
	BerthTypeSideLower BerthType = "Side Lower"
	BerthTypeSideUpper BerthType = "Side Upper"
)

// IsSide reports whether berths of this type may be shared by RAC passengers
func (t BerthType) IsSide() bool {
	return t == BerthTypeSideLower || t == BerthTypeSideUpper
}

type SegmentRole string

const (
	SegmentRoleConfirmed SegmentRole = "confirmed"
	SegmentRoleRACShared SegmentRole = "rac-shared"
)

// Segment is the half-open interval [FromIdx, ToIdx) during which a passenger holds a berth
type Segment struct {
	PNR     string      `groups:"basic" bson:"pnr"`
	FromIdx int         `groups:"basic" bson:"fromidx"`
	ToIdx   int         `groups:"basic" bson:"toidx"`
	Role    SegmentRole `groups:"basic" bson:"role"`
}

func (s Segment) Overlaps(fromIdx int, toIdx int) bool {
	return s.FromIdx < toIdx && fromIdx < s.ToIdx
}

func (s Segment) Covers(idx int) bool {
	return s.FromIdx <= idx && idx < s.ToIdx
}

type Coach struct {
	CoachNo string     `groups:"basic" bson:"coachno" yaml:"coach_no"`
	Class   CoachClass `groups:"basic" bson:"class" yaml:"class"`
	Berths  []*Berth   `groups:"detailed" bson:"berths" yaml:"-"`
}

type Berth struct {
	CoachNo  string     `groups:"basic" bson:"coachno"`
	BerthNo  int        `groups:"basic" bson:"berthno"`
	Type     BerthType  `groups:"basic" bson:"type"`
	Segments []*Segment `groups:"detailed" bson:"segments"`
}

func (b *Berth) Label() string {
	return BerthLabel(b.CoachNo, b.BerthNo)
}

func BerthLabel(coachNo string, berthNo int) string {
	return fmt.Sprintf("%s-%d", coachNo, berthNo)
}

// Capacity is the number of segments allowed to overlap at any one station
func (b *Berth) Capacity() int {
	if b.Type.IsSide() {
		return 2
	}
	return 1
}

// OccupantsAt counts the segments covering the given station index
func (b *Berth) OccupantsAt(idx int) int {
	count := 0
	for _, segment := range b.Segments {
		if segment.Covers(idx) {
			count++
		}
	}
	return count
}

// MaxOverlap returns the highest number of segments simultaneously held within [fromIdx, toIdx)
func (b *Berth) MaxOverlap(fromIdx int, toIdx int) int {
	max := 0
	for idx := fromIdx; idx < toIdx; idx++ {
		if n := b.OccupantsAt(idx); n > max {
			max = n
		}
	}
	return max
}

// Overlapping returns segments intersecting [fromIdx, toIdx)
func (b *Berth) Overlapping(fromIdx int, toIdx int) []*Segment {
	var overlapping []*Segment
	for _, segment := range b.Segments {
		if segment.Overlaps(fromIdx, toIdx) {
			overlapping = append(overlapping, segment)
		}
	}
	return overlapping
}

func (b *Berth) SegmentFor(pnr string) *Segment {
	for _, segment := range b.Segments {
		if segment.PNR == pnr {
			return segment
		}
	}
	return nil
}

// Release removes the segment held by pnr and returns it
func (b *Berth) Release(pnr string) (Segment, bool) {
	for i, segment := range b.Segments {
		if segment.PNR == pnr {
			b.Segments = append(b.Segments[:i], b.Segments[i+1:]...)
			return *segment, true
		}
	}
	return Segment{}, false
}
