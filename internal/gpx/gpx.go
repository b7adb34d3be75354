// Package gpx reads and writes GPX recordings as core tracks.
package gpx

import (
	"fmt"
	"io"
	"os"

	"github.com/gpxsync/trackalign/pkg/core"
	"github.com/tkrajina/gpxgo/gpx"
)

// ParseFile reads the GPX file at path.
func ParseFile(path string) (core.Track, error) {
	data, err := gpx.ParseFile(path)
	if err != nil {
		return core.Track{}, fmt.Errorf("read GPX file %s: %w", path, err)
	}
	track, err := toTrack(data)
	if err != nil {
		return core.Track{}, fmt.Errorf("%s: %w", path, err)
	}
	return track, nil
}

// Parse reads a GPX document from r.
func Parse(r io.Reader) (core.Track, error) {
	data, err := gpx.Parse(r)
	if err != nil {
		return core.Track{}, fmt.Errorf("parse GPX: %w", err)
	}
	return toTrack(data)
}

// ParseBytes reads a GPX document from b.
func ParseBytes(b []byte) (core.Track, error) {
	data, err := gpx.ParseBytes(b)
	if err != nil {
		return core.Track{}, fmt.Errorf("parse GPX: %w", err)
	}
	return toTrack(data)
}

// toTrack joins the segments of every track in document order. Route points
// are used when the document has no track points.
func toTrack(data *gpx.GPX) (core.Track, error) {
	var points []core.GeoPoint
	for _, t := range data.Tracks {
		for _, seg := range t.Segments {
			for _, p := range seg.Points {
				points = append(points, geoPoint(p))
			}
		}
	}

	if len(points) == 0 {
		for _, r := range data.Routes {
			for _, p := range r.Points {
				points = append(points, geoPoint(p))
			}
		}
	}

	if len(points) == 0 {
		return core.Track{}, fmt.Errorf("no track or route points: %w", core.ErrInsufficientPoints)
	}

	track := core.NewTrack(points)
	if err := track.Validate(); err != nil {
		return core.Track{}, err
	}
	return track, nil
}

func geoPoint(p gpx.GPXPoint) core.GeoPoint {
	if p.Elevation.NotNull() {
		return core.NewGeoPointWithElevation(p.Latitude, p.Longitude, p.Elevation.Value())
	}
	return core.NewGeoPoint(p.Latitude, p.Longitude)
}

// Encode renders track as a GPX 1.1 document holding a single track segment.
func Encode(name string, track core.Track) ([]byte, error) {
	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, track.Len())}
	for _, p := range track.Points() {
		pt := gpx.GPXPoint{Point: gpx.Point{Latitude: p.Latitude, Longitude: p.Longitude}}
		if p.HasElevation {
			pt.Elevation.SetValue(p.Elevation)
		}
		seg.Points = append(seg.Points, pt)
	}

	doc := &gpx.GPX{
		Creator: "trackalign",
		Tracks:  []gpx.GPXTrack{{Name: name, Segments: []gpx.GPXTrackSegment{seg}}},
	}
	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode GPX: %w", err)
	}
	return out, nil
}

// WriteFile writes track to path as GPX.
func WriteFile(path, name string, track core.Track) error {
	out, err := Encode(name, track)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write GPX file %s: %w", path, err)
	}
	return nil
}
