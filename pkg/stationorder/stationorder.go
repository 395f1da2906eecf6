// Package stationorder provides read-only navigation over a journey's ordered stations.
package stationorder

import (
	"fmt"
	"strings"

	"github.com/travigo/trainrac/pkg/rail"
)

func ByIndex(stations []rail.Station, idx int) (rail.Station, bool) {
	for _, station := range stations {
		if station.Idx == idx {
			return station, true
		}
	}
	return rail.Station{}, false
}

func ByCode(stations []rail.Station, code string) (rail.Station, bool) {
	for _, station := range stations {
		if station.Code == code {
			return station, true
		}
	}
	return rail.Station{}, false
}

func ByName(stations []rail.Station, name string) (rail.Station, bool) {
	for _, station := range stations {
		if station.Name == name {
			return station, true
		}
	}
	return rail.Station{}, false
}

// Find matches a free-text search against codes and names.
// Exact matches win over substring matches, and the first hit in journey order is returned.
func Find(stations []rail.Station, search string) (rail.Station, bool) {
	if search == "" {
		return rail.Station{}, false
	}

	for _, station := range stations {
		if station.Code == search || station.Name == search {
			return station, true
		}
	}

	for _, station := range stations {
		if matchesSubstring(station, search) {
			return station, true
		}
	}

	return rail.Station{}, false
}

func matchesSubstring(station rail.Station, search string) bool {
	if station.Code != "" && (strings.Contains(search, station.Code) || strings.Contains(station.Code, search)) {
		return true
	}
	if station.Name != "" && (strings.Contains(search, station.Name) || strings.Contains(station.Name, search)) {
		return true
	}
	return false
}

// IndexByCode returns -1 when the code is unknown
func IndexByCode(stations []rail.Station, code string) int {
	if station, ok := ByCode(stations, code); ok {
		return station.Idx
	}
	return -1
}

func Next(stations []rail.Station, currentIdx int) (rail.Station, bool) {
	return ByIndex(stations, currentIdx+1)
}

func Previous(stations []rail.Station, currentIdx int) (rail.Station, bool) {
	return ByIndex(stations, currentIdx-1)
}

// Between returns the stations with fromIdx <= idx <= toIdx
func Between(stations []rail.Station, fromIdx int, toIdx int) []rail.Station {
	var between []rail.Station
	for _, station := range stations {
		if station.Idx >= fromIdx && station.Idx <= toIdx {
			between = append(between, station)
		}
	}
	return between
}

func Distance(fromIdx int, toIdx int) int {
	if toIdx > fromIdx {
		return toIdx - fromIdx
	}
	return fromIdx - toIdx
}

func IsValidJourney(fromIdx int, toIdx int) bool {
	return toIdx > fromIdx
}

func LastIndex(stations []rail.Station) int {
	last := -1
	for _, station := range stations {
		if station.Idx > last {
			last = station.Idx
		}
	}
	return last
}

func Format(station rail.Station) string {
	return station.String()
}

func Codes(stations []rail.Station) []string {
	codes := make([]string, 0, len(stations))
	for _, station := range stations {
		codes = append(codes, station.Code)
	}
	return codes
}

func Describe(stations []rail.Station, fromIdx int, toIdx int) string {
	from, fromOK := ByIndex(stations, fromIdx)
	to, toOK := ByIndex(stations, toIdx)

	if !fromOK || !toOK {
		return "Invalid journey"
	}

	return fmt.Sprintf("%s → %s (%d segments)", from.Code, to.Code, Distance(fromIdx, toIdx))
}

// KmBetween uses station distance markers, falling back to 0 when either station is unknown
func KmBetween(stations []rail.Station, fromIdx int, toIdx int) (int, bool) {
	from, fromOK := ByIndex(stations, fromIdx)
	to, toOK := ByIndex(stations, toIdx)
	if !fromOK || !toOK {
		return 0, false
	}

	km := to.DistanceKm - from.DistanceKm
	if km < 0 {
		km = -km
	}
	return km, true
}
