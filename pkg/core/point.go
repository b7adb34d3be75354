// pkg/core/point.go
package core

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the radius of the sphere used for all distance calculations.
const EarthRadiusKm = 6371.0

// GeoPoint is a single recorded sample of a path.
// Elevation is only meaningful when HasElevation is true; an absent
// elevation is not the same thing as an elevation of zero.
type GeoPoint struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Elevation    float64 `json:"elevation,omitempty"`
	HasElevation bool    `json:"hasElevation"`
}

// NewGeoPoint creates a point without elevation.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Latitude: lat, Longitude: lon}
}

// NewGeoPointWithElevation creates a point carrying an elevation in metres.
func NewGeoPointWithElevation(lat, lon, elev float64) GeoPoint {
	return GeoPoint{Latitude: lat, Longitude: lon, Elevation: elev, HasElevation: true}
}

// WithElevation returns a copy of p with the given elevation.
func (p GeoPoint) WithElevation(elev float64) GeoPoint {
	p.Elevation = elev
	p.HasElevation = true
	return p
}

// WithoutElevation returns a copy of p with the elevation removed.
func (p GeoPoint) WithoutElevation() GeoPoint {
	p.Elevation = 0
	p.HasElevation = false
	return p
}

// ElevationOrZero returns the elevation, or 0 when it is absent.
func (p GeoPoint) ElevationOrZero() float64 {
	if !p.HasElevation {
		return 0
	}
	return p.Elevation
}

// Validate checks that latitude and longitude are finite and in range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, p.Longitude)
	}
	if p.HasElevation && (math.IsNaN(p.Elevation) || math.IsInf(p.Elevation, 0)) {
		return fmt.Errorf("%w: elevation %v", ErrInvalidCoordinates, p.Elevation)
	}
	return nil
}

// SameCoordinates reports whether p and other share latitude and longitude.
func (p GeoPoint) SameCoordinates(other GeoPoint) bool {
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}

// DistanceTo returns the great-circle distance to other in kilometres.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return GreatCircleDistance(p, other)
}

// GreatCircleDistance returns the haversine distance between a and b in kilometres.
func GreatCircleDistance(a, b GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}
