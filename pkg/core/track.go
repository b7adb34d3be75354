// pkg/core/track.go
package core

import "fmt"

// Track is an ordered sequence of points describing a recorded path.
// A Track owns its points; the cumulative distances are derived from them on
// construction and a Track is never modified afterwards.
type Track struct {
	points    []GeoPoint
	distances []float64
}

// NewTrack copies points into a new Track.
func NewTrack(points []GeoPoint) Track {
	owned := make([]GeoPoint, len(points))
	copy(owned, points)
	return Track{
		points:    owned,
		distances: cumulativeDistances(owned),
	}
}

func cumulativeDistances(points []GeoPoint) []float64 {
	if len(points) == 0 {
		return []float64{}
	}
	dist := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		dist[i] = dist[i-1] + GreatCircleDistance(points[i-1], points[i])
	}
	return dist
}

// Len returns the number of points.
func (t Track) Len() int {
	return len(t.points)
}

// At returns the i-th point.
func (t Track) At(i int) GeoPoint {
	return t.points[i]
}

// First returns the first point. The track must not be empty.
func (t Track) First() GeoPoint {
	return t.points[0]
}

// Last returns the last point. The track must not be empty.
func (t Track) Last() GeoPoint {
	return t.points[len(t.points)-1]
}

// Points returns a copy of the points.
func (t Track) Points() []GeoPoint {
	out := make([]GeoPoint, len(t.points))
	copy(out, t.points)
	return out
}

// Distances returns a copy of the cumulative distance array in kilometres.
func (t Track) Distances() []float64 {
	out := make([]float64, len(t.distances))
	copy(out, t.distances)
	return out
}

// TotalDistance returns the length of the path in kilometres.
func (t Track) TotalDistance() float64 {
	if len(t.distances) == 0 {
		return 0
	}
	return t.distances[len(t.distances)-1]
}

// Latitudes returns the latitude of every point.
func (t Track) Latitudes() []float64 {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.Latitude
	}
	return out
}

// Longitudes returns the longitude of every point.
func (t Track) Longitudes() []float64 {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.Longitude
	}
	return out
}

// ElevationsOrZero returns every elevation with absent values reported as 0.
func (t Track) ElevationsOrZero() []float64 {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.ElevationOrZero()
	}
	return out
}

// HasElevations reports whether at least one point carries an elevation.
func (t Track) HasElevations() bool {
	for _, p := range t.points {
		if p.HasElevation {
			return true
		}
	}
	return false
}

// Slice returns a new Track holding points[start:end].
func (t Track) Slice(start, end int) Track {
	return NewTrack(t.points[start:end])
}

// Truncate returns a new Track holding at most the first n points.
func (t Track) Truncate(n int) Track {
	if n > len(t.points) {
		n = len(t.points)
	}
	if n < 0 {
		n = 0
	}
	return t.Slice(0, n)
}

// WithElevations returns a new Track whose elevations are replaced by elevs.
func (t Track) WithElevations(elevs []float64) (Track, error) {
	if len(elevs) != len(t.points) {
		return Track{}, fmt.Errorf("%w: %d elevations for %d points", ErrLengthMismatch, len(elevs), len(t.points))
	}
	points := make([]GeoPoint, len(t.points))
	for i, p := range t.points {
		points[i] = p.WithElevation(elevs[i])
	}
	// elevation does not affect the horizontal distances
	return Track{points: points, distances: t.Distances()}, nil
}

// Validate checks every point of the track.
func (t Track) Validate() error {
	for i, p := range t.points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// ElevationStats summarises the vertical movement along a track.
type ElevationStats struct {
	Ascent          float64 `json:"ascent"`
	Descent         float64 `json:"descent"`
	GreatestAscent  float64 `json:"greatestAscent"`
	GreatestDescent float64 `json:"greatestDescent"`
}

// ElevationStats sums positive and negative elevation steps between consecutive points.
// Absent elevations count as 0.
func (t Track) ElevationStats() ElevationStats {
	var s ElevationStats
	for i := 0; i+1 < len(t.points); i++ {
		delta := t.points[i+1].ElevationOrZero() - t.points[i].ElevationOrZero()
		if delta > 0 {
			s.Ascent += delta
			s.GreatestAscent = max(s.GreatestAscent, delta)
		} else {
			s.Descent -= delta
			s.GreatestDescent = max(s.GreatestDescent, -delta)
		}
	}
	return s
}
