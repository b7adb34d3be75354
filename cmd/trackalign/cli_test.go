package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gpxsync/trackalign/internal/config"
	"github.com/gpxsync/trackalign/internal/gpx"
	"github.com/gpxsync/trackalign/internal/report"
	"github.com/gpxsync/trackalign/internal/syncengine"
	"github.com/gpxsync/trackalign/internal/tolerance"
	"github.com/gpxsync/trackalign/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ride(n int) core.Track {
	points := make([]core.GeoPoint, n)
	for i := range points {
		points[i] = core.NewGeoPointWithElevation(47.0, 8.0+float64(i)*0.0003, float64(400+i%7))
	}
	return core.NewTrack(points)
}

// fixtures writes a base and the named comparison recordings into a temp dir.
func fixtures(t *testing.T, names ...string) (string, string, []string) {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "base.gpx")
	require.NoError(t, gpx.WriteFile(base, "base", ride(30)))

	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, gpx.WriteFile(p, name, ride(30)))
		paths = append(paths, p)
	}
	return dir, base, paths
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--config", t.TempDir()}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := execute(t, "--version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "trackalign "+Version)
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := execute(t, "one.gpx")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, _ = execute(t, "--no-such-flag")
	assert.Equal(t, exitUsage, code)
}

func TestRun_InvalidSettings(t *testing.T) {
	_, base, paths := fixtures(t, "a.gpx")
	code, _, errOut := execute(t, "--base", base, "--strategy", "fastest", paths[0])
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, errOut, "invalid config")
}

func TestRun_WritesReports(t *testing.T) {
	dir, base, paths := fixtures(t, "morning.gpx", "evening.gpx")
	out := filepath.Join(dir, "reports")

	code, stdout, errOut := execute(t,
		"--base", base,
		"--strategy", "interpolate_elevations",
		"--method", "kdtree",
		"--out", out,
		"--geojson", "--gpx", "--compress",
		"--log-level", "error",
		paths[0], paths[1])
	require.Equal(t, exitOK, code, errOut)

	assert.Contains(t, stdout, "morning.gpx")
	assert.Contains(t, stdout, "evening.gpx")
	assert.Contains(t, stdout, "100.0%")

	for _, pattern := range []string{"*.json.gz", "*.geojson", "*.gpx"} {
		matches, err := filepath.Glob(filepath.Join(out, pattern))
		require.NoError(t, err)
		assert.Len(t, matches, 2, pattern)
	}

	synced, err := filepath.Glob(filepath.Join(out, "morning_interpolate_elevations_*.gpx"))
	require.NoError(t, err)
	require.Len(t, synced, 1)
	track, err := gpx.ParseFile(synced[0])
	require.NoError(t, err)
	assert.Equal(t, 30, track.Len())
}

func TestRun_PartialFailure(t *testing.T) {
	dir, base, paths := fixtures(t, "a.gpx")
	code, stdout, _ := execute(t, "--base", base, "--log-level", "error",
		paths[0], filepath.Join(dir, "missing.gpx"))

	assert.Equal(t, exitPartial, code)
	assert.Contains(t, stdout, "missing.gpx")
	assert.Contains(t, stdout, "error:")
}

func TestRun_MissingBase(t *testing.T) {
	dir, _, paths := fixtures(t, "a.gpx")
	code, _, errOut := execute(t, "--base", filepath.Join(dir, "nope.gpx"), "--log-level", "error", paths[0])
	assert.Equal(t, exitFailed, code)
	assert.NotEmpty(t, errOut)
}

func TestRun_ConfigFileAndFlags(t *testing.T) {
	_, base, paths := fixtures(t, "a.gpx")
	cfgDir := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, config.FileName), []byte(`{
		"sync": {"method": "start_sync"},
		"output": {"dir": "`+filepath.ToSlash(out)+`"},
		"logLevel": "error"
	}`), 0644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", cfgDir, "--base", base, paths[0]}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	matches, err := filepath.Glob(filepath.Join(out, "a_start_sync_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	stdout.Reset()
	code = run(context.Background(), []string{"--config", cfgDir, "--base", base, "-s", "elevation_sync", paths[0]}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	matches, err = filepath.Glob(filepath.Join(out, "a_elevation_sync_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRun_TruncateSmoothAndShow(t *testing.T) {
	dir, base, _ := fixtures(t)
	short := filepath.Join(dir, "short.gpx")
	require.NoError(t, gpx.WriteFile(short, "short", ride(20)))
	out := filepath.Join(dir, "reports")

	code, stdout, errOut := execute(t,
		"--base", base,
		"--truncate", "--smooth", "--smooth-window", "0.3",
		"--out", out,
		"--log-level", "error",
		short)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, stdout, "short.gpx")

	matches, err := filepath.Glob(filepath.Join(out, "short_elevation_sync_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	r, err := report.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, r.Truncated)
	assert.True(t, r.Smoothed)
	assert.Len(t, r.BaseProfile.Points, 20)

	code, stdout, errOut = execute(t, "--show", matches[0])
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, stdout, "REPORT")
	assert.Contains(t, stdout, filepath.Base(matches[0]))
	assert.Contains(t, stdout, "elevation_sync")
	assert.Contains(t, stdout, "%")
}

func TestRun_ShowErrors(t *testing.T) {
	code, _, errOut := execute(t, "--show")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "--show REPORT.json")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	code, stdout, errOut := execute(t, "--show", bad)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, errOut, "decode report")
	assert.Contains(t, stdout, "REPORT")
}

func TestRun_JSONLogFile(t *testing.T) {
	_, base, paths := fixtures(t, "a.gpx")
	logs := filepath.Join(t.TempDir(), "logs")

	code, _, errOut := execute(t, "--base", base, "--log-format", "json", "--logs-dir", logs, paths[0])
	require.Equal(t, exitOK, code)
	assert.Contains(t, errOut, `"message":"Comparison finished"`)

	files, err := filepath.Glob(filepath.Join(logs, "trackalign.*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Batch finished"))
}

func TestCompareOptions(t *testing.T) {
	s := config.Settings{
		Sync:      config.SyncConfig{Method: "start_sync"},
		Tolerance: config.ToleranceConfig{Enabled: true, Km: 0.2, Method: "kd-tree"},
		Align:     config.AlignConfig{Enabled: true, ToleranceKm: 0.05},
		Resample:  config.ResampleConfig{Enabled: true},
		Truncate:  config.TruncateConfig{Enabled: true},
		Smooth:    config.SmoothConfig{Enabled: true, Window: 0.2, Iterations: 3},
	}

	opts, err := compareOptions(s)
	require.NoError(t, err)
	assert.Equal(t, syncengine.StrategyStart, opts.Strategy)
	assert.Equal(t, syncengine.WithTolerance(0.2, tolerance.MethodKDTree), opts.Sync)
	assert.True(t, opts.Align)
	assert.Equal(t, 0.05, opts.AlignToleranceKm)
	assert.True(t, opts.Resample)
	assert.True(t, opts.Truncate)
	assert.True(t, opts.Smooth)
	assert.Equal(t, 0.2, opts.SmoothWindow)
	assert.Equal(t, 3, opts.SmoothIterations)

	s.Tolerance.Enabled = false
	opts, err = compareOptions(s)
	require.NoError(t, err)
	assert.Equal(t, syncengine.Options{}, opts.Sync)

	s.Sync.Method = "fastest"
	_, err = compareOptions(s)
	assert.ErrorIs(t, err, syncengine.ErrUnknownStrategy)
}
