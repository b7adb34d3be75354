// Package util provides the numeric helpers shared by the resampling,
// synchronisation and classification packages.
package util

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Linspace returns n evenly spaced values from lo to hi inclusive.
// The last value is exactly hi.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out
}

// SearchSorted returns the leftmost index at which x could be inserted into
// the ascending slice xs while keeping it sorted.
func SearchSorted(xs []float64, x float64) int {
	return sort.SearchFloat64s(xs, x)
}

// InterpExtrapolate evaluates the piecewise-linear function through (xs, ys)
// at x. Outside [xs[0], xs[last]] the first or last segment is extended.
// xs must be non-decreasing with at least two entries.
func InterpExtrapolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	idx := SearchSorted(xs, x)
	idx = min(max(idx, 1), n-1)
	lo, hi := idx-1, idx

	span := xs[hi] - xs[lo]
	if span == 0 {
		if x <= xs[lo] {
			return ys[lo]
		}
		return ys[hi]
	}
	return ys[lo] + (x-xs[lo])*(ys[hi]-ys[lo])/span
}

// InterpClamped evaluates the piecewise-linear function through (xs, ys) at x.
// Values before the first knot or after the last take the end values.
func InterpClamped(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	idx := SearchSorted(xs, x)
	lo, hi := idx-1, idx
	if xs[lo] == xs[hi] {
		return ys[lo]
	}
	ratio := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + ratio*(ys[hi]-ys[lo])
}

// MeanSquaredError returns the mean of the squared element differences.
// a and b must have the same non-zero length.
func MeanSquaredError(a, b []float64) float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a))
}
