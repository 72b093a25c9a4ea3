// Package colour maps road gradients onto display colours.
package colour

import (
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultSlope = 0.18
	DefaultFlip  = true
)

// Mapper turns a gradient in percent into a hex colour. Slope and Flip are
// fixed for the lifetime of the process.
type Mapper struct {
	Slope float64
	Flip  bool
	Scale func(float64) colorful.Color
}

// LegendStop is one colour stop of the legend bar.
type LegendStop struct {
	Offset   float64 `json:"offset"`
	Gradient float64 `json:"gradient"`
	Colour   string  `json:"colour"`
}

// LegendTick is an axis label on the legend bar.
type LegendTick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

func DefaultMapper() Mapper {
	return NewMapper(DefaultSlope, DefaultFlip)
}

func NewMapper(slope float64, flip bool) Mapper {
	return Mapper{Slope: slope, Flip: flip, Scale: Spectral}
}

// Transform is the value in [0, 1] fed to the colour scale for gradient g.
// With Flip set, steep climbs land at the red end of the scale.
func (m Mapper) Transform(g float64) float64 {
	if m.Flip {
		g = -g
	}
	return Sigmoid(g, m.Slope)
}

func (m Mapper) Colour(g float64) string {
	scale := m.Scale
	if scale == nil {
		scale = Spectral
	}
	return scale(m.Transform(g)).Hex()
}

// Legend samples n evenly spaced gradients over [-maxAbs, maxAbs).
func (m Mapper) Legend(maxAbs float64, n int) []LegendStop {
	if n <= 0 {
		return nil
	}
	maxAbs = math.Abs(maxAbs)
	step := 2 * maxAbs / float64(n)
	stops := make([]LegendStop, 0, n)
	for i := 0; i < n; i++ {
		g := -maxAbs + float64(i)*step
		stops = append(stops, LegendStop{
			Offset:   float64(i) / float64(n),
			Gradient: g,
			Colour:   m.Colour(g),
		})
	}
	return stops
}

// LegendTicks returns roughly count nicely rounded ticks over
// [-maxAbs, maxAbs], labelled as whole percentages.
func LegendTicks(maxAbs float64, count int) []LegendTick {
	maxAbs = math.Abs(maxAbs)
	values := niceTicks(-maxAbs, maxAbs, count)
	out := make([]LegendTick, 0, len(values))
	for _, v := range values {
		out = append(out, LegendTick{
			Value: v,
			Label: strconv.FormatFloat(roundHalfAway(v), 'f', 0, 64) + "%",
		})
	}
	return out
}

func roundHalfAway(v float64) float64 {
	r := math.Round(v)
	if r == 0 {
		return 0
	}
	return r
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickSpec(start, stop float64, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	errv := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errv >= e10:
		factor = 10
	case errv >= e5:
		factor = 5
	case errv >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && count >= 0.5 && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

func niceTicks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if !(i2 >= i1) {
		return nil
	}
	n := int(i2-i1) + 1
	ticks := make([]float64, n)
	for i := range ticks {
		if inc < 0 {
			ticks[i] = (i1 + float64(i)) / -inc
		} else {
			ticks[i] = (i1 + float64(i)) * inc
		}
	}
	return ticks
}
