// Package report serialises comparisons for later inspection.
package report

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gpxsync/trackalign/internal/align"
	"github.com/gpxsync/trackalign/internal/compare"
	"github.com/gpxsync/trackalign/internal/geo"
	"github.com/gpxsync/trackalign/pkg/core"
)

// Report is the JSON document written for one comparison.
type Report struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Base       string    `json:"base"`
	Comparison string    `json:"comparison"`
	Strategy   string    `json:"strategy"`

	Method      string  `json:"method,omitempty"`
	ToleranceKm float64 `json:"toleranceKm,omitempty"`

	Alignment *Alignment `json:"alignment,omitempty"`
	Truncated bool       `json:"truncated"`
	Resampled bool       `json:"resampled"`
	Smoothed  bool       `json:"smoothed"`

	BaseProfile       Profile `json:"baseProfile"`
	ComparisonProfile Profile `json:"comparisonProfile"`

	Tolerance  []bool   `json:"tolerance,omitempty"`
	MatchRatio *float64 `json:"matchRatio,omitempty"`

	ShiftSamples int     `json:"shiftSamples"`
	ShiftKm      float64 `json:"shiftKm"`

	BaseWKT       string `json:"baseWkt"`
	ComparisonWKT string `json:"comparisonWkt"`
	// EPSG:3857 projections of the two profiles
	BaseWebMercatorWKT       string `json:"baseWebMercatorWkt"`
	ComparisonWebMercatorWKT string `json:"comparisonWebMercatorWkt"`

	ElapsedMs float64 `json:"elapsedMs"`
}

// Alignment records the endpoint matches used to trim the tracks.
type Alignment struct {
	Start align.Match `json:"start"`
	End   align.Match `json:"end"`
}

// Profile is a synced track. Points are [lat, lon] pairs.
type Profile struct {
	Points          [][2]float64        `json:"points"`
	Elevations      []float64           `json:"elevations"`
	HasElevations   bool                `json:"hasElevations"`
	Distances       []float64           `json:"distances"`
	TotalDistanceKm float64             `json:"totalDistanceKm"`
	ElevationStats  core.ElevationStats `json:"elevationStats"`
}

// Build assembles the report of c created at now.
func Build(c *compare.Comparison, now time.Time) Report {
	res := c.Result
	r := Report{
		ID:                uuid.NewString(),
		CreatedAt:         now.UTC(),
		Base:              c.BaseName,
		Comparison:        c.ComparisonName,
		Strategy:          string(res.Strategy),
		Truncated:         c.Truncated,
		Resampled:         c.Resampled,
		Smoothed:          c.Smoothed,
		BaseProfile:       newProfile(res.Base),
		ComparisonProfile: newProfile(res.Comparison),
		ShiftSamples:      res.ShiftSamples,
		ShiftKm:           res.ShiftKm,
		BaseWKT:           geo.WKT(res.Base.Track()),
		ComparisonWKT:     geo.WKT(res.Comparison.Track()),

		BaseWebMercatorWKT:       geo.WebMercator(res.Base.Track()).AsText(),
		ComparisonWebMercatorWKT: geo.WebMercator(res.Comparison.Track()).AsText(),
		ElapsedMs:         float64(c.Elapsed) / float64(time.Millisecond),
	}

	if c.Alignment != nil {
		r.Alignment = &Alignment{Start: c.Alignment.Start, End: c.Alignment.End}
	}

	if res.Tolerance != nil {
		r.Method = string(c.Options.Sync.Method)
		r.ToleranceKm = c.Options.Sync.ToleranceKm
		r.Tolerance = []bool(res.Tolerance)
		ratio := res.Tolerance.Ratio()
		r.MatchRatio = &ratio
	}

	return r
}

func newProfile(p core.Profile) Profile {
	track := p.Track()
	points := make([][2]float64, track.Len())
	for i, pt := range track.Points() {
		points[i] = [2]float64{pt.Latitude, pt.Longitude}
	}
	dist := p.Distances()
	total := 0.0
	if len(dist) > 0 {
		total = dist[len(dist)-1] - dist[0]
	}
	return Profile{
		Points:          points,
		Elevations:      p.Elevations(),
		HasElevations:   track.HasElevations(),
		Distances:       dist,
		TotalDistanceKm: total,
		ElevationStats:  track.ElevationStats(),
	}
}

// Track rebuilds the core track of a profile.
func (p Profile) Track() core.Track {
	points := make([]core.GeoPoint, len(p.Points))
	for i, ll := range p.Points {
		points[i] = core.NewGeoPoint(ll[0], ll[1])
		if p.HasElevations && i < len(p.Elevations) {
			points[i] = points[i].WithElevation(p.Elevations[i])
		}
	}
	return core.NewTrack(points)
}

// Write encodes r as JSON.
func Write(w io.Writer, r Report) error {
	return json.NewEncoder(w).Encode(r)
}

// Read decodes a report written by Write, transparently handling gzip.
func Read(rd io.Reader) (Report, error) {
	var r Report
	br := bufio.NewReader(rd)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return r, fmt.Errorf("read report: %w", err)
		}
		defer gz.Close()
		src = gz
	}
	if err := json.NewDecoder(src).Decode(&r); err != nil {
		return r, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Stem returns the file name stem of r: comparison name, strategy and creation time.
func Stem(r Report) string {
	name := strings.TrimSuffix(r.Comparison, filepath.Ext(r.Comparison))
	name = strings.NewReplacer(" ", "_", ":", "_", string(filepath.Separator), "_").Replace(name)
	if name == "" {
		name = "comparison"
	}
	return fmt.Sprintf("%s_%s_%s", name, r.Strategy, r.CreatedAt.Format("20060102_150405"))
}

// WriteFile writes r into dir as <stem>.json, or <stem>.json.gz when
// compress is set, and returns the path written.
func WriteFile(dir string, r Report, compress bool) (string, error) {
	filename := Stem(r) + ".json"
	if compress {
		filename += ".gz"
	}
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if compress {
		return path, writeGzipJSON(path, r)
	}
	return path, writeJSON(path, r)
}

func writeJSON(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return Write(f, r)
}

func writeGzipJSON(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := Write(gz, r); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
