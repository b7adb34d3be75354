// pkg/core/profile.go
package core

import "fmt"

// Profile pairs a track with a distance axis used for comparison.
// The axis starts out as the track's cumulative distances and can be
// shifted or replaced without touching the points.
type Profile struct {
	track     Track
	distances []float64
}

// NewProfile creates a profile whose axis is the track's cumulative distance.
func NewProfile(track Track) Profile {
	return Profile{track: track, distances: track.Distances()}
}

// ProfileFromPoints is shorthand for NewProfile(NewTrack(points)).
func ProfileFromPoints(points []GeoPoint) Profile {
	return NewProfile(NewTrack(points))
}

// Track returns the underlying track.
func (p Profile) Track() Track {
	return p.track
}

// Len returns the number of samples.
func (p Profile) Len() int {
	return p.track.Len()
}

// At returns the i-th point.
func (p Profile) At(i int) GeoPoint {
	return p.track.At(i)
}

// Points returns a copy of the points.
func (p Profile) Points() []GeoPoint {
	return p.track.Points()
}

// Distances returns a copy of the distance axis.
func (p Profile) Distances() []float64 {
	out := make([]float64, len(p.distances))
	copy(out, p.distances)
	return out
}

// DistanceAt returns the axis value of the i-th sample.
func (p Profile) DistanceAt(i int) float64 {
	return p.distances[i]
}

// Elevations returns the elevations with absent values as 0.
func (p Profile) Elevations() []float64 {
	return p.track.ElevationsOrZero()
}

// WithDistances returns a new profile using d as its distance axis.
func (p Profile) WithDistances(d []float64) (Profile, error) {
	if len(d) != p.track.Len() {
		return Profile{}, fmt.Errorf("%w: %d distances for %d points", ErrLengthMismatch, len(d), p.track.Len())
	}
	axis := make([]float64, len(d))
	copy(axis, d)
	return Profile{track: p.track, distances: axis}, nil
}

// WithElevations returns a new profile whose points carry elevs.
func (p Profile) WithElevations(elevs []float64) (Profile, error) {
	track, err := p.track.WithElevations(elevs)
	if err != nil {
		return Profile{}, err
	}
	return Profile{track: track, distances: p.Distances()}, nil
}

// Shifted returns a new profile with offset added to every distance.
func (p Profile) Shifted(offset float64) Profile {
	axis := make([]float64, len(p.distances))
	for i, d := range p.distances {
		axis[i] = d + offset
	}
	return Profile{track: p.track, distances: axis}
}

// ToleranceVector holds one flag per comparison point telling whether it lies
// within the tolerance of the base track.
type ToleranceVector []bool

// Count returns the number of points within tolerance.
func (v ToleranceVector) Count() int {
	n := 0
	for _, ok := range v {
		if ok {
			n++
		}
	}
	return n
}

// Ratio returns the share of points within tolerance, 0 for an empty vector.
func (v ToleranceVector) Ratio() float64 {
	if len(v) == 0 {
		return 0
	}
	return float64(v.Count()) / float64(len(v))
}
