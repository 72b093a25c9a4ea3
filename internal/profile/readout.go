package profile

import (
	"math"
	"strconv"
)

func fixed0(v float64) string {
	r := math.Round(v)
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// NewReadout formats p for the hover box: whole kilometres, whole metres and
// a whole-percent gradient ("0%" when the point has none).
func NewReadout(p InterpolatedPoint) Readout {
	g := "0"
	if p.Gradient != nil {
		g = fixed0(*p.Gradient)
	}
	return Readout{
		Distance:  fixed0(p.Distance/1000) + "km",
		Elevation: fixed0(p.Elevation) + "m",
		Gradient:  g + "%",
	}
}
