package syncengine

import (
	"fmt"
	"math"

	"github.com/gpxsync/trackalign/pkg/core"
)

// StartWindow is the number of leading points searched for a common start.
const StartWindow = 50

// StartSync finds the closest pair of points among the first StartWindow
// points of each recording and drops everything before it. The profiles are
// not resampled and keep their own lengths.
func StartSync(base, comparison []core.GeoPoint, opts Options) (Result, error) {
	if len(base) == 0 || len(comparison) == 0 {
		return Result{}, fmt.Errorf("start_sync: %w: got %d and %d points",
			core.ErrInsufficientPoints, len(base), len(comparison))
	}

	bi, ci := 0, 0
	best := math.Inf(1)
	for i := 0; i < min(StartWindow, len(base)); i++ {
		for j := 0; j < min(StartWindow, len(comparison)); j++ {
			if d := core.GreatCircleDistance(base[i], comparison[j]); d < best {
				bi, ci, best = i, j, d
			}
		}
	}

	if limit := opts.matchToleranceKm(); best > limit {
		return Result{}, fmt.Errorf("start_sync: %w: closest start points are %.3f km apart (tolerance %.3f km)",
			core.ErrNoMatch, best, limit)
	}

	res := Result{
		Strategy:        StrategyStart,
		Base:            core.ProfileFromPoints(base[bi:]),
		Comparison:      core.ProfileFromPoints(comparison[ci:]),
		BaseStart:       bi,
		ComparisonStart: ci,
		StartDistanceKm: best,
	}
	return classify(res, opts)
}
