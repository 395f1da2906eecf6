// Package berthallocator classifies berths and ranks them for allocation.
// Everything here is stateless.
package berthallocator

import (
	"strconv"
	"strings"

	"github.com/travigo/trainrac/pkg/rail"
	"golang.org/x/exp/slices"
)

const BerthsPerCompartment = 8

type berthMapping struct {
	lower     []int
	middle    []int
	upper     []int
	sideLower []int
	sideUpper []int
}

var sleeperMapping = berthMapping{
	lower:     []int{1, 4, 9, 12, 17, 20, 25, 28, 33, 36, 41, 44, 49, 52, 57, 60, 65, 68},
	middle:    []int{2, 5, 10, 13, 18, 21, 26, 29, 34, 37, 42, 45, 50, 53, 58, 61, 66, 69},
	upper:     []int{3, 6, 11, 14, 19, 22, 27, 30, 35, 38, 43, 46, 51, 54, 59, 62, 67, 70},
	sideLower: []int{7, 15, 23, 31, 39, 47, 55, 63, 71},
	sideUpper: []int{8, 16, 24, 32, 40, 48, 56, 64, 72},
}

var ac3TierMapping = berthMapping{
	lower:     []int{1, 4, 9, 12, 17, 20, 25, 28, 33, 36, 41, 44, 49, 52, 57, 60},
	middle:    []int{2, 5, 10, 13, 18, 21, 26, 29, 34, 37, 42, 45, 50, 53, 58, 61},
	upper:     []int{3, 6, 11, 14, 19, 22, 27, 30, 35, 38, 43, 46, 51, 54, 59, 62},
	sideLower: []int{7, 15, 23, 31, 39, 47, 55, 63},
	sideUpper: []int{8, 16, 24, 32, 40, 48, 56, 64},
}

func mappingFor(class rail.CoachClass) berthMapping {
	if class == rail.CoachClassAC3Tier {
		return ac3TierMapping
	}
	return sleeperMapping
}

// BerthType maps a seat number to its position. Unlisted seats fall back to Lower.
func BerthType(seatNo int, class rail.CoachClass) rail.BerthType {
	mapping := mappingFor(class)

	switch {
	case slices.Contains(mapping.lower, seatNo):
		return rail.BerthTypeLower
	case slices.Contains(mapping.middle, seatNo):
		return rail.BerthTypeMiddle
	case slices.Contains(mapping.upper, seatNo):
		return rail.BerthTypeUpper
	case slices.Contains(mapping.sideLower, seatNo):
		return rail.BerthTypeSideLower
	case slices.Contains(mapping.sideUpper, seatNo):
		return rail.BerthTypeSideUpper
	}

	return rail.BerthTypeLower
}

func BerthsPerCoach(class rail.CoachClass) int {
	if class == rail.CoachClassAC3Tier {
		return 64
	}
	return 72
}

// SideLowerBerths lists the RAC berths for a class
func SideLowerBerths(class rail.CoachClass) []int {
	return slices.Clone(mappingFor(class).sideLower)
}

// Priority ranks berth types, lowest allocated first
func Priority(berthType rail.BerthType) int {
	switch berthType {
	case rail.BerthTypeLower:
		return 1
	case rail.BerthTypeSideLower:
		return 2
	case rail.BerthTypeMiddle:
		return 3
	case rail.BerthTypeUpper:
		return 4
	case rail.BerthTypeSideUpper:
		return 5
	}
	return 99
}

// SortByPriority sorts in place. Berths of equal priority keep their input order.
func SortByPriority(berths []*rail.Berth) {
	slices.SortStableFunc(berths, func(a, b *rail.Berth) int {
		return Priority(a.Type) - Priority(b.Type)
	})
}

// FindOptimalBerth picks the best ranked berth, optionally restricted to a preferred type.
// The input slice is not modified.
func FindOptimalBerth(vacantBerths []*rail.Berth, passenger *rail.Passenger, preferredType rail.BerthType) *rail.Berth {
	var candidates []*rail.Berth
	for _, berth := range vacantBerths {
		if preferredType != "" && berth.Type != preferredType {
			continue
		}
		candidates = append(candidates, berth)
	}

	SortByPriority(candidates)

	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// CanAccommodateRAC reports whether a side berth still has room for a sharing passenger
func CanAccommodateRAC(berth *rail.Berth, class rail.CoachClass) bool {
	if !BerthType(berth.BerthNo, class).IsSide() {
		return false
	}
	return len(berth.Segments) < 2
}

// ClassLookup resolves a coach number to its class
type ClassLookup interface {
	CoachClass(coachNo string) (rail.CoachClass, bool)
}

// ValidateBerthAllocation checks a passenger's booked interval against a berth using the
// role implied by their PNR status
func ValidateBerthAllocation(berth *rail.Berth, passenger *rail.Passenger, lookup ClassLookup) error {
	return ValidateSegment(berth, passenger, lookup, passenger.FromIdx, passenger.ToIdx, passenger.SegmentRole())
}

// ValidateSegment checks that [fromIdx, toIdx) can be placed on the berth for the passenger in the given role.
// Segments already held by the passenger are ignored.
func ValidateSegment(berth *rail.Berth, passenger *rail.Passenger, lookup ClassLookup, fromIdx int, toIdx int, role rail.SegmentRole) error {
	if berth == nil {
		return rail.NewNotFoundError("berth not found")
	}

	class, ok := lookup.CoachClass(berth.CoachNo)
	if !ok {
		return rail.NewNotFoundError("coach %s not found", berth.CoachNo)
	}
	if class != passenger.Class {
		return rail.NewValidationError("class mismatch: berth %s is %s, passenger %s booked %s", berth.Label(), class, passenger.PNR, passenger.Class)
	}

	if toIdx <= fromIdx {
		return rail.NewValidationError("invalid segment [%d,%d) for %s", fromIdx, toIdx, passenger.PNR)
	}

	var others []*rail.Segment
	for _, segment := range berth.Overlapping(fromIdx, toIdx) {
		if segment.PNR != passenger.PNR {
			others = append(others, segment)
		}
	}

	if len(others) == 0 {
		return nil
	}

	if !berth.Type.IsSide() || role != rail.SegmentRoleRACShared {
		return rail.NewStateConflictError("segment [%d,%d) overlaps an existing booking on %s", fromIdx, toIdx, berth.Label())
	}

	for _, segment := range others {
		if segment.Role != rail.SegmentRoleRACShared {
			return rail.NewStateConflictError("segment [%d,%d) overlaps a confirmed booking on %s", fromIdx, toIdx, berth.Label())
		}
	}

	for idx := fromIdx; idx < toIdx; idx++ {
		occupants := 0
		for _, segment := range others {
			if segment.Covers(idx) {
				occupants++
			}
		}
		if occupants >= berth.Capacity() {
			return rail.NewCapacityError("shared berth %s already has %d occupants at station %d", berth.Label(), occupants, idx)
		}
	}

	return nil
}

func CompartmentNumber(seatNo int) int {
	return (seatNo + BerthsPerCompartment - 1) / BerthsPerCompartment
}

func SameCompartment(a int, b int) bool {
	return CompartmentNumber(a) == CompartmentNumber(b)
}

func BerthsInCompartment(compartmentNo int) []int {
	berths := make([]int, 0, BerthsPerCompartment)
	for i := (compartmentNo-1)*BerthsPerCompartment + 1; i <= compartmentNo*BerthsPerCompartment; i++ {
		berths = append(berths, i)
	}
	return berths
}

// ParseBerthLabel splits "S1-15" into its coach and berth number
func ParseBerthLabel(label string) (string, int, error) {
	coach, seat, found := strings.Cut(label, "-")
	if !found || coach == "" {
		return "", 0, rail.NewValidationError("invalid berth label %q", label)
	}

	berthNo, err := strconv.Atoi(seat)
	if err != nil || berthNo <= 0 {
		return "", 0, rail.NewValidationError("invalid berth number in %q", label)
	}

	return coach, berthNo, nil
}
