package geo

import (
	"encoding/json"
	"fmt"

	"github.com/gpxsync/trackalign/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ParseTrackJSON parses a JSON array of coordinates into a core.Track.
// Input format: "[[lat1,lon1],[lat2,lon2,elev2],...]"
func ParseTrackJSON(input string) (core.Track, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return core.Track{}, fmt.Errorf("failed to parse track JSON: %w", err)
	}

	if len(coords) < 2 {
		return core.Track{}, fmt.Errorf("track must have at least 2 points, got %d: %w", len(coords), core.ErrInsufficientPoints)
	}

	points := make([]core.GeoPoint, len(coords))
	for i, coord := range coords {
		switch len(coord) {
		case 2:
			points[i] = core.NewGeoPoint(coord[0], coord[1])
		case 3:
			points[i] = core.NewGeoPointWithElevation(coord[0], coord[1], coord[2])
		default:
			return core.Track{}, fmt.Errorf("coordinate %d has %d values: %w", i, len(coord), ErrInvalidCoordinates)
		}
		if err := points[i].Validate(); err != nil {
			return core.Track{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}

	return core.NewTrack(points), nil
}

// LineString converts a track into a geom.LineString with X as longitude
// and Y as latitude. Elevations become Z when the track has any.
func LineString(track core.Track) geom.LineString {
	ct := coordinatesType(track)
	flat := make([]float64, 0, track.Len()*ct.Dimension())
	for i := range track.Len() {
		p := track.At(i)
		flat = append(flat, p.Longitude, p.Latitude)
		if ct == geom.DimXYZ {
			flat = append(flat, p.ElevationOrZero())
		}
	}
	return geom.NewLineString(geom.NewSequence(flat, ct))
}

// WKT returns the well-known text of the track's line string.
func WKT(track core.Track) string {
	return LineString(track).AsText()
}
