// Package resample rebuilds a track with a different number of points along
// the same path, parameterised by cumulative distance.
package resample

import (
	"fmt"

	"github.com/gpxsync/trackalign/internal/util"
	"github.com/gpxsync/trackalign/pkg/core"
)

// InterpolateToMatchPoints resamples source so that it has exactly as many
// points as target. Points are placed at evenly spaced distances from the
// start to the end of source.
func InterpolateToMatchPoints(source, target core.Track) (core.Track, error) {
	if source.Len() < 2 {
		return core.Track{}, fmt.Errorf("source track: %w: need 2, got %d", core.ErrInsufficientPoints, source.Len())
	}
	if target.Len() < 2 {
		return core.Track{}, fmt.Errorf("target track: %w: need 2, got %d", core.ErrInsufficientPoints, target.Len())
	}
	return ToCount(source, target.Len())
}

// ToCount resamples source to n points.
func ToCount(source core.Track, n int) (core.Track, error) {
	if source.Len() < 2 {
		return core.Track{}, fmt.Errorf("source track: %w: need 2, got %d", core.ErrInsufficientPoints, source.Len())
	}
	if n < 2 {
		return core.Track{}, fmt.Errorf("target count: %w: need 2, got %d", core.ErrInsufficientPoints, n)
	}

	dist := source.Distances()
	lats := source.Latitudes()
	lons := source.Longitudes()
	elevs := source.ElevationsOrZero()
	withElevation := source.HasElevations()

	targets := util.Linspace(0, source.TotalDistance(), n)

	points := make([]core.GeoPoint, n)
	for i, d := range targets {
		p := core.NewGeoPoint(
			util.InterpExtrapolate(dist, lats, d),
			util.InterpExtrapolate(dist, lons, d),
		)
		if withElevation {
			p = p.WithElevation(util.InterpExtrapolate(dist, elevs, d))
		}
		points[i] = p
	}

	return core.NewTrack(points), nil
}
