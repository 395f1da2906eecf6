package rail

import "fmt"

type Station struct {
	Code       string `groups:"basic" bson:"code" yaml:"code"`
	Name       string `groups:"basic" bson:"name" yaml:"name"`
	Idx        int    `groups:"basic" bson:"idx" yaml:"idx"`
	DistanceKm int    `groups:"detailed" bson:"distancekm" yaml:"distance_km"`
}

func (s Station) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Code)
}

// JourneySegment is the stretch of track between two consecutive stations
type JourneySegment struct {
	ID      int    `groups:"basic"`
	FromIdx int    `groups:"basic"`
	ToIdx   int    `groups:"basic"`
	Name    string `groups:"basic"`
}

// JourneySegments returns one segment per adjacent station pair
func JourneySegments(stations []Station) []JourneySegment {
	var segments []JourneySegment

	for i := 0; i < len(stations)-1; i++ {
		segments = append(segments, JourneySegment{
			ID:      i,
			FromIdx: stations[i].Idx,
			ToIdx:   stations[i+1].Idx,
			Name:    fmt.Sprintf("%s→%s", stations[i].Code, stations[i+1].Code),
		})
	}

	return segments
}
