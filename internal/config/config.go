package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "trackalign.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. TRACKALIGN_TOLERANCE_KM.
const EnvPrefix = "TRACKALIGN"

// Settings is the validated configuration of a run.
type Settings struct {
	LogLevel  string `json:"logLevel" mapstructure:"logLevel" validate:"oneof=trace debug info warn error"`
	LogFormat string `json:"logFormat" mapstructure:"logFormat" validate:"oneof=text json"`
	LogsDir   string `json:"logsDir" mapstructure:"logsDir"`

	Sync      SyncConfig      `json:"sync" mapstructure:"sync"`
	Tolerance ToleranceConfig `json:"tolerance" mapstructure:"tolerance"`
	Align     AlignConfig     `json:"align" mapstructure:"align"`
	Resample  ResampleConfig  `json:"resample" mapstructure:"resample"`
	Truncate  TruncateConfig  `json:"truncate" mapstructure:"truncate"`
	Smooth    SmoothConfig    `json:"smooth" mapstructure:"smooth"`
	Output    OutputConfig    `json:"output" mapstructure:"output"`
	Batch     BatchConfig     `json:"batch" mapstructure:"batch"`
	OTel      OTelConfig      `json:"otel" mapstructure:"otel"`
	Graylog   GraylogConfig   `json:"graylog" mapstructure:"graylog"`
}

// SyncConfig selects the synchronisation strategy.
type SyncConfig struct {
	Method string `json:"method" mapstructure:"method" validate:"oneof=start_sync elevation_sync interpolate_elevations"`
}

// ToleranceConfig controls the classification of comparison points.
type ToleranceConfig struct {
	Enabled bool    `json:"enabled" mapstructure:"enabled"`
	Km      float64 `json:"km" mapstructure:"km" validate:"gt=0"`
	Method  string  `json:"method" mapstructure:"method" validate:"oneof=standard kdtree kd-tree kd_tree"`
}

// AlignConfig controls endpoint alignment.
type AlignConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	ToleranceKm float64 `json:"toleranceKm" mapstructure:"toleranceKm" validate:"gt=0"`
}

// ResampleConfig controls resampling of the comparison to the base's point count.
type ResampleConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// TruncateConfig cuts both tracks to the shorter one's point count.
type TruncateConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// SmoothConfig controls LOESS smoothing of elevations before syncing.
type SmoothConfig struct {
	Enabled    bool    `json:"enabled" mapstructure:"enabled"`
	Window     float64 `json:"window" mapstructure:"window" validate:"gt=0,lte=1"`
	Iterations int     `json:"iterations" mapstructure:"iterations" validate:"min=1,max=10"`
}

// OutputConfig holds report settings. An empty Dir disables report files.
type OutputConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
	GeoJSON  bool   `json:"geojson" mapstructure:"geojson"`
	GPX      bool   `json:"gpx" mapstructure:"gpx"`
}

// BatchConfig bounds the concurrent comparisons.
type BatchConfig struct {
	Workers int `json:"workers" mapstructure:"workers" validate:"min=1,max=256"`
}

// OTelConfig controls OpenTelemetry log export.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName" validate:"required_if=Enabled true"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout" validate:"gte=0"`
}

// GraylogConfig controls the GELF log sink.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// Load sets default values, enables TRACKALIGN_ environment overrides and
// reads the optional JSON config file from configDir. A missing file is not
// an error; a malformed one is.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "text")
	viper.SetDefault("logsDir", "")

	viper.SetDefault("sync.method", "elevation_sync")

	viper.SetDefault("tolerance.enabled", true)
	viper.SetDefault("tolerance.km", 0.1)
	viper.SetDefault("tolerance.method", "standard")

	viper.SetDefault("align.enabled", false)
	viper.SetDefault("align.toleranceKm", 0.1)

	viper.SetDefault("resample.enabled", false)
	viper.SetDefault("truncate.enabled", false)

	viper.SetDefault("smooth.enabled", false)
	viper.SetDefault("smooth.window", 0.1)
	viper.SetDefault("smooth.iterations", 2)

	viper.SetDefault("output.dir", "")
	viper.SetDefault("output.compress", false)
	viper.SetDefault("output.geojson", false)
	viper.SetDefault("output.gpx", false)

	viper.SetDefault("batch.workers", 4)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "trackalign")
	viper.SetDefault("otel.batchTimeout", "5s")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configDir == "" {
		return nil
	}

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Current decodes and validates the loaded configuration.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	for _, v := range []*string{&s.LogLevel, &s.LogFormat, &s.Sync.Method, &s.Tolerance.Method} {
		*v = normalize(*v)
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// normalize makes enumerated values case and whitespace insensitive.
func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
