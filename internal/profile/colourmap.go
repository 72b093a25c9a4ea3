package profile

import "math"

// Colourer maps a gradient in percent to a colour string.
type Colourer interface {
	Colour(gradient float64) string
}

// ColourMap builds the horizontal gradient fill under the profile: every
// segment gets a start and end stop in the colour of its closing sample's
// gradient, so segments render as solid bands.
func ColourMap(samples []Sample, c Colourer) []ColourStop {
	if len(samples) < 2 {
		return nil
	}
	total := samples[len(samples)-1].Distance
	if total == 0 {
		return nil
	}

	stops := make([]ColourStop, 0, 2*(len(samples)-1))
	for i := 1; i < len(samples); i++ {
		col := c.Colour(gradientOrZero(samples[i].Gradient))
		stops = append(stops,
			ColourStop{Offset: samples[i-1].Distance / total, Colour: col},
			ColourStop{Offset: samples[i].Distance / total, Colour: col},
		)
	}
	return stops
}

// MaxAbsGradient is the steepest gradient in either direction, used as the
// legend's domain.
func MaxAbsGradient(samples []Sample) float64 {
	var m float64
	for _, s := range samples {
		m = math.Max(m, math.Abs(gradientOrZero(s.Gradient)))
	}
	return m
}
