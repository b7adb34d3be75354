package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gpxsync/trackalign/internal/gpx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON returns one LineString feature per profile followed by one Point
// feature per comparison sample. Sample features carry their index, distance
// and, when the comparison was classified, a withinTolerance flag.
func GeoJSON(r Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	base := geojson.NewFeature(lineString(r.BaseProfile))
	base.Properties["role"] = "base"
	base.Properties["name"] = r.Base
	fc.Append(base)

	comparison := geojson.NewFeature(lineString(r.ComparisonProfile))
	comparison.Properties["role"] = "comparison"
	comparison.Properties["name"] = r.Comparison
	comparison.Properties["strategy"] = r.Strategy
	fc.Append(comparison)

	for i, ll := range r.ComparisonProfile.Points {
		f := geojson.NewFeature(orb.Point{ll[1], ll[0]})
		f.Properties["index"] = i
		if i < len(r.ComparisonProfile.Distances) {
			f.Properties["distanceKm"] = r.ComparisonProfile.Distances[i]
		}
		if r.ComparisonProfile.HasElevations && i < len(r.ComparisonProfile.Elevations) {
			f.Properties["elevation"] = r.ComparisonProfile.Elevations[i]
		}
		if i < len(r.Tolerance) {
			f.Properties["withinTolerance"] = r.Tolerance[i]
		}
		fc.Append(f)
	}

	return fc
}

func lineString(p Profile) orb.LineString {
	ls := make(orb.LineString, len(p.Points))
	for i, ll := range p.Points {
		ls[i] = orb.Point{ll[1], ll[0]}
	}
	return ls
}

// WriteGeoJSONFile writes the GeoJSON of r into dir as <stem>.geojson.
func WriteGeoJSONFile(dir string, r Report) (string, error) {
	data, err := GeoJSON(r).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode GeoJSON: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, Stem(r)+".geojson")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// WriteGPXFile writes the synced comparison track of r into dir as <stem>.gpx.
func WriteGPXFile(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, Stem(r)+".gpx")
	if err := gpx.WriteFile(path, r.Comparison, r.ComparisonProfile.Track()); err != nil {
		return "", err
	}
	return path, nil
}
