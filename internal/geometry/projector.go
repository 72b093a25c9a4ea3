// Package geometry places the shared cursor on the stage's route.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Projector finds the point a given number of metres along a track.
type Projector interface {
	PointAtDistance(track orb.LineString, meters float64) (orb.Point, bool)
}

// AlongProjector measures along the track with great-circle distances.
// Negative distances resolve to the start and distances past the end to the
// last vertex.
type AlongProjector struct{}

func (AlongProjector) PointAtDistance(track orb.LineString, meters float64) (orb.Point, bool) {
	if len(track) == 0 || math.IsNaN(meters) {
		return orb.Point{}, false
	}
	if meters <= 0 || len(track) == 1 {
		return track[0], true
	}
	p, _ := geo.PointAtDistanceAlongLine(track, meters)
	return p, true
}

// Length is the track length in metres.
func Length(track orb.LineString) float64 {
	return geo.Length(track)
}
