package tolerance

import (
	"math"

	"github.com/gpxsync/trackalign/internal/util"
	"github.com/gpxsync/trackalign/pkg/core"
)

// Standard pairs every comparison point with the base sample whose distance
// along the path is closest, then checks the great-circle distance between
// the two. Points outside the base distance range are never within tolerance.
//
// The pairing uses the path parameter only, so a path that loops back near
// itself can be misclassified; use KDTree for true spatial proximity.
func Standard(base, comparison core.Profile, toleranceKm float64) core.ToleranceVector {
	out := make(core.ToleranceVector, comparison.Len())
	if base.Len() == 0 {
		return out
	}

	baseDist := base.Distances()
	minDist, maxDist := baseDist[0], baseDist[len(baseDist)-1]

	for i := range out {
		d := comparison.DistanceAt(i)
		if d < minDist || d > maxDist {
			continue
		}

		pos := util.SearchSorted(baseDist, d)
		best := -1
		bestDiff := math.Inf(1)
		for _, j := range []int{pos - 1, pos} {
			if j < 0 || j >= len(baseDist) {
				continue
			}
			if diff := math.Abs(baseDist[j] - d); diff < bestDiff {
				best, bestDiff = j, diff
			}
		}

		if core.GreatCircleDistance(base.At(best), comparison.At(i)) <= toleranceKm {
			out[i] = true
		}
	}
	return out
}
