package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, "elevation_sync", GetString("sync.method"))
	assert.Equal(t, 4, GetInt("batch.workers"))
	assert.True(t, GetBool("tolerance.enabled"))
	assert.False(t, GetBool("otel.enabled"))

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 0.1, s.Tolerance.Km)
	assert.Equal(t, "standard", s.Tolerance.Method)
	assert.Equal(t, 0.1, s.Align.ToleranceKm)
	assert.Equal(t, 5*time.Second, s.OTel.BatchTimeout)
	assert.Equal(t, "localhost:12201", s.Graylog.Address)
	assert.Empty(t, s.Output.Dir)
	assert.False(t, s.Truncate.Enabled)
	assert.False(t, s.Smooth.Enabled)
	assert.Equal(t, 0.1, s.Smooth.Window)
	assert.Equal(t, 2, s.Smooth.Iterations)
}

func TestLoad_EmptyDirSkipsFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(""))
	assert.Equal(t, "text", GetString("logFormat"))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "DEBUG",
		"sync": {"method": "start_sync"},
		"tolerance": {"km": 0.25, "method": "KDTree"},
		"output": {"dir": "/tmp/reports", "compress": true},
		"batch": {"workers": 8}
	}`)
	require.NoError(t, Load(dir))

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "start_sync", s.Sync.Method)
	assert.Equal(t, 0.25, s.Tolerance.Km)
	assert.Equal(t, "kdtree", s.Tolerance.Method)
	assert.Equal(t, "/tmp/reports", s.Output.Dir)
	assert.True(t, s.Output.Compress)
	assert.Equal(t, 8, s.Batch.Workers)
}

func TestCurrent_NormalizesEnumeratedValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(""))
	viper.Set("sync.method", "Start_Sync")
	viper.Set("tolerance.method", " KD-Tree ")
	viper.Set("logFormat", "JSON")
	viper.Set("logLevel", "Warn ")

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "start_sync", s.Sync.Method)
	assert.Equal(t, "kd-tree", s.Tolerance.Method)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoad_Malformed(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("TRACKALIGN_TOLERANCE_KM", "0.5")
	t.Setenv("TRACKALIGN_SYNC_METHOD", "interpolate_elevations")

	require.NoError(t, Load(t.TempDir()))

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Tolerance.Km)
	assert.Equal(t, "interpolate_elevations", s.Sync.Method)
}

func TestCurrent_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown strategy", "sync.method", "fastest"},
		{"zero tolerance", "tolerance.km", 0.0},
		{"unknown method", "tolerance.method", "octree"},
		{"no workers", "batch.workers", 0},
		{"log format", "logFormat", "xml"},
		{"graylog address", "graylog.address", "not an address"},
		{"smoothing window", "smooth.window", 1.5},
		{"smoothing iterations", "smooth.iterations", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			require.NoError(t, Load(""))
			viper.Set("graylog.enabled", true)
			viper.Set(tt.key, tt.value)

			_, err := Current()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}
