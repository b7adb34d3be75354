// Package smooth removes noise from elevation curves with robust LOESS:
// a quadratic fitted around every sample with tricube distance weights,
// repeated with Tukey biweights to discount outliers.
package smooth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gpxsync/trackalign/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultWindow is the fraction of the samples used by each local fit.
	DefaultWindow = 0.1
	// DefaultIterations is one plain fit followed by one robust refit.
	DefaultIterations = 2

	// a quadratic needs three samples
	minSamples = 3
	// the farthest sample of a window gets zero weight
	minWindowPoints = minSamples + 1
)

var (
	ErrInvalidWindow = errors.New("smoothing window must be in (0, 1]")
	ErrUnsorted      = errors.New("x values must be ascending")
)

// LOESS returns y smoothed over the ascending x values. Each local fit uses
// the int(window*len(x)) nearest samples, at least four.
func LOESS(x, y []float64, window float64, iterations int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x values for %d y values", core.ErrLengthMismatch, len(x), len(y))
	}
	if window <= 0 || window > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, window)
	}
	n := len(x)
	if n < minSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", core.ErrInsufficientPoints, n, minSamples)
	}
	if !sort.Float64sAreSorted(x) {
		return nil, ErrUnsorted
	}

	k := min(max(int(window*float64(n)), minWindowPoints), n)
	iterations = max(iterations, 1)

	robust := make([]float64, n)
	floats.AddConst(1, robust)
	smoothed := make([]float64, n)

	for it := range iterations {
		for i := range n {
			lo, hi := neighbours(x, i, k)
			smoothed[i] = fitAt(x[i], x[lo:hi], y[lo:hi], robust[lo:hi])
		}
		if it < iterations-1 {
			robust = robustWeights(y, smoothed)
		}
	}
	return smoothed, nil
}

// Elevations smooths the elevations of track over its cumulative distance.
// A track without elevations is returned unchanged.
func Elevations(track core.Track, window float64, iterations int) (core.Track, error) {
	if !track.HasElevations() {
		return track, nil
	}
	smoothed, err := LOESS(track.Distances(), track.ElevationsOrZero(), window, iterations)
	if err != nil {
		return core.Track{}, err
	}
	return track.WithElevations(smoothed)
}

// neighbours returns the bounds [lo, hi) of the k samples nearest to x[i].
// Equal distances prefer the lower index.
func neighbours(x []float64, i, k int) (int, int) {
	lo, hi := i, i+1
	for hi-lo < k {
		switch {
		case lo == 0:
			hi++
		case hi == len(x):
			lo--
		case x[i]-x[lo-1] <= x[hi]-x[i]:
			lo--
		default:
			hi++
		}
	}
	return lo, hi
}

// fitAt evaluates at x0 the weighted quadratic fitted to the window.
func fitAt(x0 float64, xs, ys, robust []float64) float64 {
	span := math.Max(x0-xs[0], xs[len(xs)-1]-x0)

	w := make([]float64, len(xs))
	for j, xj := range xs {
		tricube := 1.0
		if span > 0 {
			u := math.Abs(xj-x0) / span
			tricube = math.Pow(1-u*u*u, 3)
		}
		w[j] = tricube * robust[j]
	}

	// centring on x0 makes the intercept the prediction
	a := mat.NewDense(len(xs), 3, nil)
	b := mat.NewVecDense(len(xs), nil)
	for j, xj := range xs {
		sw := math.Sqrt(w[j])
		dx := xj - x0
		a.SetRow(j, []float64{sw, sw * dx, sw * dx * dx})
		b.SetVec(j, sw*ys[j])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err == nil {
		return beta.AtVec(0)
	}

	// fewer than three distinct weighted samples
	if floats.Sum(w) == 0 {
		return stat.Mean(ys, nil)
	}
	return stat.Mean(ys, w)
}

// robustWeights applies Tukey's biweight to the residuals scaled by six
// median absolute deviations.
func robustWeights(y, smoothed []float64) []float64 {
	residuals := make([]float64, len(y))
	floats.SubTo(residuals, y, smoothed)

	med := median(residuals)
	deviations := make([]float64, len(residuals))
	for i, r := range residuals {
		deviations[i] = math.Abs(r - med)
	}
	mad := median(deviations)

	w := make([]float64, len(y))
	if mad == 0 {
		floats.AddConst(1, w)
		return w
	}
	for i, r := range residuals {
		u := r / (6 * mad)
		if math.Abs(u) < 1 {
			w[i] = (1 - u*u) * (1 - u*u)
		}
	}
	return w
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
