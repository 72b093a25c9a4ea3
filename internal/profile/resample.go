package profile

import (
	"math"
	"slices"

	"backend-stagehunter/internal/interp"
)

func cmpElevationPoint(a, b ElevationPoint) int {
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	}
	return 0
}

func gradientPercent(dElevation, dDistance float64) float64 {
	return dElevation / dDistance * 100
}

// Resample turns raw elevation readings into a gradient profile with a sample
// every resolution metres, starting at the first reading and always ending on
// the last one. points is sorted in place when it is not already ordered.
func Resample(points []ElevationPoint, resolution float64) ([]Sample, error) {
	if len(points) == 0 {
		return nil, ErrNoSamples
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, ErrResolution
	}
	if !slices.IsSortedFunc(points, cmpElevationPoint) {
		slices.SortFunc(points, cmpElevationPoint)
	}

	lerp := func(low, high ElevationPoint, d float64) ElevationPoint {
		return ElevationPoint{
			Distance:  d,
			Elevation: interp.Lerp(low.Distance, high.Distance, low.Elevation, high.Elevation, d),
		}
	}
	key := func(p ElevationPoint) float64 { return p.Distance }

	start := points[0].Distance
	end := points[len(points)-1].Distance
	out := []Sample{{Distance: start, Elevation: points[0].Elevation}}
	if end == start {
		return out, nil
	}

	for i := 1; ; i++ {
		d := start + resolution*float64(i)
		if d >= end {
			break
		}
		p, ok := interp.Interpolate(points, key, d, lerp)
		if !ok {
			break
		}
		prev := out[len(out)-1]
		out = append(out, Sample{
			Distance:  d,
			Elevation: p.Elevation,
			Gradient:  floatPtr(gradientPercent(p.Elevation-prev.Elevation, d-prev.Distance)),
		})
	}

	last := points[len(points)-1]
	prev := out[len(out)-1]
	out = append(out, Sample{
		Distance:  last.Distance,
		Elevation: last.Elevation,
		Gradient:  floatPtr(gradientPercent(last.Elevation-prev.Elevation, last.Distance-prev.Distance)),
	})
	return out, nil
}
