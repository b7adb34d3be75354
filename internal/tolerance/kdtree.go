package tolerance

import (
	"github.com/gpxsync/trackalign/internal/geo"
	"github.com/gpxsync/trackalign/pkg/core"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree marks a comparison point as within tolerance when any base point
// lies within toleranceKm of it, measured as a straight line between the
// points placed on a sphere of radius core.EarthRadiusKm.
func KDTree(base, comparison core.Profile, toleranceKm float64) core.ToleranceVector {
	out := make(core.ToleranceVector, comparison.Len())
	if base.Len() == 0 || toleranceKm < 0 {
		return out
	}

	tree := kdtree.New(cartesianPoints(base), false)

	// kdtree.Point measures squared euclidean distance
	radius := toleranceKm * toleranceKm
	for i := range out {
		xyz := geo.ToCartesian(comparison.At(i))
		keep := kdtree.NewDistKeeper(radius)
		tree.NearestSet(keep, kdtree.Point(xyz[:]))
		out[i] = kept(keep) > 0
	}
	return out
}

func cartesianPoints(p core.Profile) kdtree.Points {
	pts := make(kdtree.Points, p.Len())
	for i := range pts {
		xyz := geo.ToCartesian(p.At(i))
		pts[i] = kdtree.Point{xyz[0], xyz[1], xyz[2]}
	}
	return pts
}

// kept counts the neighbours found, ignoring the keeper's sentinel entry.
func kept(k *kdtree.DistKeeper) int {
	n := 0
	for _, c := range k.Heap {
		if c.Comparable != nil {
			n++
		}
	}
	return n
}
