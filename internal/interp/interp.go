// Package interp locates and interpolates values inside sequences that are
// sorted ascending by a numeric key.
//
// The search is a plain binary search: callers are expected to hand in data
// that is already ordered. Ordering is not re-checked on every query, but a
// probe that falls outside the keys already seen at the bracket ends can only
// come from unsorted input and panics.
package interp

import "math"

// Func builds the value at v from the two samples that bracket it.
type Func[T any] func(low, high T, v float64) T

const unsortedMsg = "interp: samples are not sorted ascending by key"

// FindBounds returns the indexes of the adjacent samples bracketing v.
//
// When key(i) == v for some probed index the pair (i, i) is returned, which
// callers treat as an exact hit. ok is false when n is zero, v is NaN or v is
// outside [key(0), key(n-1)].
func FindBounds(n int, key func(i int) float64, v float64) (low, high int, ok bool) {
	if n == 0 || math.IsNaN(v) {
		return 0, 0, false
	}
	lo, hi := 0, n-1
	klo, khi := key(lo), key(hi)
	if v < klo || v > khi {
		return 0, 0, false
	}
	if klo == v {
		return lo, lo, true
	}
	if khi == v {
		return hi, hi, true
	}

	// key(lo) < v < key(hi) holds on every iteration; a probe outside
	// [key(lo), key(hi)] means the keys are not sorted.
	for hi-lo > 1 {
		mid := int(uint(lo+hi) >> 1)
		mv := key(mid)

		switch {
		case math.IsNaN(mv) || mv < klo || mv > khi:
			panic(unsortedMsg)
		case mv == v:
			return mid, mid, true
		case mv < v:
			lo, klo = mid, mv
		default:
			hi, khi = mid, mv
		}
	}
	return lo, hi, true
}

// Interpolate resolves v against data using fn between the bracketing pair.
// Exact hits return the stored sample untouched. Fewer than two samples, or a
// v outside the key range, yield false.
func Interpolate[T any](data []T, key func(T) float64, v float64, fn Func[T]) (T, bool) {
	var zero T
	if len(data) < 2 {
		return zero, false
	}

	low, high, ok := FindBounds(len(data), func(i int) float64 { return key(data[i]) }, v)
	if !ok {
		return zero, false
	}
	if low == high {
		return data[low], true
	}
	return fn(data[low], data[high], v), true
}

// IsSorted reports whether key is non-decreasing over [0, n). NaN keys make
// the sequence unsorted.
func IsSorted(n int, key func(i int) float64) bool {
	for i := 0; i < n; i++ {
		k := key(i)
		if math.IsNaN(k) {
			return false
		}
		if i > 0 && k < key(i-1) {
			return false
		}
	}
	return true
}

// Lerp linearly interpolates between (x0, y0) and (x1, y1) at v.
func Lerp(x0, x1, y0, y1, v float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (v-x0)/(x1-x0)*(y1-y0)
}
