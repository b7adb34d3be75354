// Package trackfile loads recordings from disk, picking the parser by file
// extension.
package trackfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gpxsync/trackalign/internal/geo"
	"github.com/gpxsync/trackalign/internal/gpx"
	"github.com/gpxsync/trackalign/pkg/core"
)

// ErrUnsupportedFormat is returned for extensions Load does not know.
var ErrUnsupportedFormat = errors.New("unsupported track file format")

// Load reads the track at path:
//   - .gpx: GPX tracks or routes
//   - .json: an array of [lat, lon] or [lat, lon, elev] arrays
//   - .txt, .csv: one "lat,lon" or "lat,lon,elev" per line; blank lines and
//     lines starting with # are skipped
func Load(path string) (core.Track, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return gpx.ParseFile(path)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return core.Track{}, fmt.Errorf("read %s: %w", path, err)
		}
		track, err := geo.ParseTrackJSON(string(data))
		if err != nil {
			return core.Track{}, fmt.Errorf("%s: %w", path, err)
		}
		return track, nil
	case ".txt", ".csv":
		f, err := os.Open(path)
		if err != nil {
			return core.Track{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		track, err := ParseCoordinates(f)
		if err != nil {
			return core.Track{}, fmt.Errorf("%s: %w", path, err)
		}
		return track, nil
	default:
		return core.Track{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseCoordinates reads one coordinate per line.
func ParseCoordinates(r io.Reader) (core.Track, error) {
	var points []core.GeoPoint
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := geo.PointFromString(text)
		if err != nil {
			return core.Track{}, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return core.Track{}, err
	}
	if len(points) < 2 {
		return core.Track{}, fmt.Errorf("track must have at least 2 points, got %d: %w", len(points), core.ErrInsufficientPoints)
	}
	return core.NewTrack(points), nil
}
