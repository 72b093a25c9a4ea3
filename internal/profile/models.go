// Package profile models a stage's elevation and gradient profile indexed by
// distance along the route.
package profile

import "errors"

var (
	ErrUnsorted      = errors.New("profile samples are not sorted by distance")
	ErrInvalidSample = errors.New("profile sample is not a finite number")
	ErrNoSamples     = errors.New("no elevation points")
	ErrResolution    = errors.New("resolution must be positive")
)

// ElevationPoint is a raw elevation reading as stored for a stage.
type ElevationPoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// Sample is one point of a gradient profile. Gradient is the slope in percent
// of the segment ending at this sample and is nil for the first sample.
type Sample struct {
	Distance  float64  `json:"distance"`
	Elevation float64  `json:"elevation"`
	Gradient  *float64 `json:"gradient"`
}

// InterpolatedPoint has the same shape as a Sample but is derived at query time.
type InterpolatedPoint = Sample

type ColourStop struct {
	Offset float64 `json:"offset"`
	Colour string  `json:"colour"`
}

// Readout is the text shown next to the hover marker.
type Readout struct {
	Distance  string `json:"distance"`
	Elevation string `json:"elevation"`
	Gradient  string `json:"gradient"`
}

func (r Readout) Lines() []string {
	return []string{r.Distance, r.Elevation, r.Gradient}
}

func gradientOrZero(g *float64) float64 {
	if g == nil {
		return 0
	}
	return *g
}

func floatPtr(v float64) *float64 {
	return &v
}
