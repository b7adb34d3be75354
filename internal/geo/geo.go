package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gpxsync/trackalign/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = core.ErrInvalidCoordinates

// ToCartesian places p on a sphere of radius core.EarthRadiusKm and returns
// its x, y, z coordinates in kilometres. Elevation is ignored.
func ToCartesian(p core.GeoPoint) [3]float64 {
	lat := p.Latitude * math.Pi / 180
	lon := p.Longitude * math.Pi / 180
	return [3]float64{
		core.EarthRadiusKm * math.Cos(lat) * math.Cos(lon),
		core.EarthRadiusKm * math.Cos(lat) * math.Sin(lon),
		core.EarthRadiusKm * math.Sin(lat),
	}
}

// PointFromString parses "lat,lon" or "lat,lon,elev" into a point.
func PointFromString(coords string) (core.GeoPoint, error) {
	// split the string into its components
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return core.GeoPoint{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, coords)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, coordsSplit[0])
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, coordsSplit[1])
	}
	p := core.NewGeoPoint(lat, long)
	// parse the elevation
	if len(coordsSplit) > 2 {
		elev, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return core.GeoPoint{}, fmt.Errorf("%w: elevation %q", ErrInvalidCoordinates, coordsSplit[2])
		}
		p = p.WithElevation(elev)
	}
	if err := p.Validate(); err != nil {
		return core.GeoPoint{}, err
	}
	return p, nil
}

// WebMercator projects the track from EPSG:4326 to EPSG:3857.
// The result keeps elevations as Z when the track has any.
func WebMercator(track core.Track) geom.LineString {
	f := wgs84.EPSG().Transform(4326, 3857)

	ct := coordinatesType(track)
	flat := make([]float64, 0, track.Len()*ct.Dimension())
	for i := range track.Len() {
		p := track.At(i)
		x, y, _ := f(p.Longitude, p.Latitude, 0)
		flat = append(flat, x, y)
		if ct == geom.DimXYZ {
			flat = append(flat, p.ElevationOrZero())
		}
	}
	return geom.NewLineString(geom.NewSequence(flat, ct))
}

func coordinatesType(track core.Track) geom.CoordinatesType {
	if track.HasElevations() {
		return geom.DimXYZ
	}
	return geom.DimXY
}
