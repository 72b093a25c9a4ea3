package profile

import (
	"fmt"
	"math"

	"backend-stagehunter/internal/interp"
)

// Policy selects what happens to queries outside the sampled distance range.
type Policy int

const (
	// PolicyStrict returns nil outside [first, last].
	PolicyStrict Policy = iota
	// PolicyClamp pins queries to the nearest end of the profile.
	PolicyClamp
)

func distanceOf(s Sample) float64 { return s.Distance }

// between derives the point at d from the pair bracketing it. The elevation is
// anchored on the high sample's distance and gradient, matching how the
// rendered profile was always drawn.
func between(low, high Sample, d float64) Sample {
	g := gradientOrZero(high.Gradient)
	return Sample{
		Distance:  d,
		Elevation: low.Elevation + (g/1000)*(high.Distance-d),
		Gradient:  high.Gradient,
	}
}

// Interpolate returns the profile point at distance, or nil when distance is
// nil or outside the sampled range. An exact hit returns that sample as is.
func Interpolate(samples []Sample, distance *float64) *InterpolatedPoint {
	if distance == nil {
		return nil
	}
	p, ok := interp.Interpolate(samples, distanceOf, *distance, between)
	if !ok {
		return nil
	}
	return &p
}

// InterpolateClamped behaves like Interpolate inside the range. Before the
// first sample it reports the first sample's position with no gradient, past
// the last sample it reports the last sample.
func InterpolateClamped(samples []Sample, distance *float64) *InterpolatedPoint {
	if distance == nil || len(samples) < 2 || math.IsNaN(*distance) {
		return nil
	}
	first, last := samples[0], samples[len(samples)-1]
	switch {
	case *distance < first.Distance:
		return &InterpolatedPoint{Distance: first.Distance, Elevation: first.Elevation}
	case *distance > last.Distance:
		p := last
		return &p
	}
	return Interpolate(samples, distance)
}

// Profile is a validated, read-only sample sequence.
type Profile struct {
	samples []Sample
}

func NewProfile(samples []Sample) (*Profile, error) {
	for i, s := range samples {
		if !finite(s.Distance) || !finite(s.Elevation) || (s.Gradient != nil && !finite(*s.Gradient)) {
			return nil, fmt.Errorf("sample %d: %w", i, ErrInvalidSample)
		}
	}
	if !interp.IsSorted(len(samples), func(i int) float64 { return samples[i].Distance }) {
		return nil, ErrUnsorted
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	return &Profile{samples: cp}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Samples returns a copy of the underlying samples.
func (p *Profile) Samples() []Sample {
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

func (p *Profile) Len() int { return len(p.samples) }

// Extent is the distance range covered by the profile.
func (p *Profile) Extent() (min, max float64) {
	if len(p.samples) == 0 {
		return 0, 0
	}
	return p.samples[0].Distance, p.samples[len(p.samples)-1].Distance
}

// ElevationExtent is the smallest and largest elevation in the profile.
func (p *Profile) ElevationExtent() (min, max float64) {
	if len(p.samples) == 0 {
		return 0, 0
	}
	min, max = p.samples[0].Elevation, p.samples[0].Elevation
	for _, s := range p.samples[1:] {
		min = math.Min(min, s.Elevation)
		max = math.Max(max, s.Elevation)
	}
	return min, max
}

func (p *Profile) At(distance *float64, policy Policy) *InterpolatedPoint {
	if policy == PolicyClamp {
		return InterpolateClamped(p.samples, distance)
	}
	return Interpolate(p.samples, distance)
}
