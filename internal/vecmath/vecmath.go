// Package vecmath provides small numeric helpers over belief vectors.
package vecmath

import "math"

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// MeanAt returns the mean of xs restricted to the given indices,
// or 0 when indices is empty.
func MeanAt(xs []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += xs[i]
	}
	return sum / float64(len(indices))
}

