package cursor

// LinearScale maps a continuous domain onto a pixel range. A zero-width
// domain or range maps everything to its midpoint.
type LinearScale struct {
	Domain [2]float64
	Range  [2]float64
}

func normalize(a, b, v float64) float64 {
	if b == a {
		return 0.5
	}
	return (v - a) / (b - a)
}

func (s LinearScale) Apply(v float64) float64 {
	t := normalize(s.Domain[0], s.Domain[1], v)
	return s.Range[0] + t*(s.Range[1]-s.Range[0])
}

func (s LinearScale) Invert(px float64) float64 {
	t := normalize(s.Range[0], s.Range[1], px)
	return s.Domain[0] + t*(s.Domain[1]-s.Domain[0])
}
