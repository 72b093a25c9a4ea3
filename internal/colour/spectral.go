package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorBrewer Spectral, 11 classes, red through blue.
var spectralHex = []string{
	"#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b", "#ffffbf",
	"#e6f598", "#abdda4", "#66c2a5", "#3288bd", "#5e4fa2",
}

var spectralR, spectralG, spectralB = splitChannels(spectralHex)

func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("mustParseHex: " + err.Error())
	}
	return c
}

func splitChannels(hexes []string) (r, g, b []float64) {
	for _, h := range hexes {
		c := mustParseHex(h)
		r = append(r, math.Round(c.R*255))
		g = append(g, math.Round(c.G*255))
		b = append(b, math.Round(c.B*255))
	}
	return r, g, b
}

// Spectral maps t in [0, 1] onto the Spectral scheme using a uniform cubic
// B-spline through the palette in RGB space. Values outside [0, 1] clamp.
func Spectral(t float64) colorful.Color {
	if math.IsNaN(t) {
		t = 0.5
	}
	r := math.Round(basisSpline(spectralR, t))
	g := math.Round(basisSpline(spectralG, t))
	b := math.Round(basisSpline(spectralB, t))
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Clamped()
}

func basis(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}

func basisSpline(values []float64, t float64) float64 {
	n := len(values) - 1
	var i int
	switch {
	case t <= 0:
		t = 0
		i = 0
	case t >= 1:
		t = 1
		i = n - 1
	default:
		i = int(math.Floor(t * float64(n)))
	}

	v1, v2 := values[i], values[i+1]
	v0 := 2*v1 - v2
	if i > 0 {
		v0 = values[i-1]
	}
	v3 := 2*v2 - v1
	if i < n-1 {
		v3 = values[i+2]
	}
	return basis((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
}
