package colour

import "math"

// Sigmoid squashes x into (0, 1). Larger slopes saturate sooner.
func Sigmoid(x, slope float64) float64 {
	return 1 / (1 + math.Exp(-slope*x))
}
