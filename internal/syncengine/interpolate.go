package syncengine

import (
	"fmt"

	"github.com/gpxsync/trackalign/internal/util"
	"github.com/gpxsync/trackalign/pkg/core"
)

// InterpolateElevations evaluates the comparison elevation curve at every
// base distance, clamping to the first/last comparison elevation outside its
// range. The returned comparison profile has the base's length and distance
// axis. Its positions come from the comparison recording by index; when the
// comparison is shorter, its last position is repeated.
func InterpolateElevations(base, comparison []core.GeoPoint, opts Options) (Result, error) {
	if len(base) == 0 || len(comparison) == 0 {
		return Result{}, fmt.Errorf("interpolate_elevations: %w: got %d and %d points",
			core.ErrInsufficientPoints, len(base), len(comparison))
	}

	baseProfile := core.ProfileFromPoints(base)
	compTrack := core.NewTrack(comparison)

	baseDist := baseProfile.Distances()
	compDist := compTrack.Distances()
	compElev := compTrack.ElevationsOrZero()

	points := make([]core.GeoPoint, len(base))
	for k, d := range baseDist {
		src := comparison[min(k, len(comparison)-1)]
		points[k] = core.NewGeoPointWithElevation(src.Latitude, src.Longitude,
			util.InterpClamped(compDist, compElev, d))
	}

	compProfile, err := core.ProfileFromPoints(points).WithDistances(baseDist)
	if err != nil {
		return Result{}, fmt.Errorf("interpolate_elevations: %w", err)
	}

	res := Result{
		Strategy:   StrategyInterpolate,
		Base:       baseProfile,
		Comparison: compProfile,
	}
	return classify(res, opts)
}
