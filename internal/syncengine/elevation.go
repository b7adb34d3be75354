package syncengine

import (
	"fmt"
	"math"

	"github.com/gpxsync/trackalign/internal/util"
	"github.com/gpxsync/trackalign/pkg/core"
)

const (
	// ElevationSamples is the number of samples taken over the common distance range.
	ElevationSamples = 1000
	// MaxShiftSamples bounds the shift search in both directions.
	MaxShiftSamples = 50
)

// ElevationSync treats elevation over distance as a signal and finds the
// shift of the comparison signal that minimises the mean squared error
// against the base. The comparison profile's distance axis is moved by the
// shift; its points are left untouched.
func ElevationSync(base, comparison []core.GeoPoint, opts Options) (Result, error) {
	if len(base) < 2 || len(comparison) < 2 {
		return Result{}, fmt.Errorf("elevation_sync: %w: got %d and %d points",
			core.ErrInsufficientPoints, len(base), len(comparison))
	}

	baseProfile := core.ProfileFromPoints(base)
	compProfile := core.ProfileFromPoints(comparison)

	baseDist, compDist := baseProfile.Distances(), compProfile.Distances()
	baseElev, compElev := baseProfile.Elevations(), compProfile.Elevations()

	lo := max(baseDist[0], compDist[0])
	hi := min(baseDist[len(baseDist)-1], compDist[len(compDist)-1])
	common := util.Linspace(lo, hi, ElevationSamples)

	baseSamples := make([]float64, len(common))
	compSamples := make([]float64, len(common))
	for k, d := range common {
		baseSamples[k] = util.InterpClamped(baseDist, baseElev, d)
		compSamples[k] = util.InterpClamped(compDist, compElev, d)
	}

	shift := bestShift(baseSamples, compSamples, MaxShiftSamples)
	step := (hi - lo) / float64(len(common))
	offset := float64(shift) * step

	res := Result{
		Strategy:     StrategyElevation,
		Base:         baseProfile,
		Comparison:   compProfile.Shifted(offset),
		ShiftSamples: shift,
		ShiftKm:      offset,
	}
	return classify(res, opts)
}

// bestShift scans shifts from -maxShift to +maxShift and returns the first
// one with the lowest mean squared error over the overlapping samples.
// A positive shift pairs ref[s:] with sig[:n-s], a negative one pairs
// ref[:n+s] with sig[-s:].
func bestShift(ref, sig []float64, maxShift int) int {
	n := len(ref)
	maxShift = min(maxShift, n-1)

	best := 0
	bestErr := math.Inf(1)
	for s := -maxShift; s <= maxShift; s++ {
		var a, b []float64
		switch {
		case s < 0:
			b = sig[-s:]
			a = ref[:len(b)]
		case s > 0:
			b = sig[:n-s]
			a = ref[s:]
		default:
			a, b = ref, sig
		}
		if mse := util.MeanSquaredError(a, b); mse < bestErr {
			best, bestErr = s, mse
		}
	}
	return best
}
