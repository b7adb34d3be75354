package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/gpxsync/trackalign/internal/batch"
	"github.com/gpxsync/trackalign/internal/compare"
	"github.com/gpxsync/trackalign/internal/config"
	"github.com/gpxsync/trackalign/internal/logging"
	intOtel "github.com/gpxsync/trackalign/internal/otel"
	"github.com/gpxsync/trackalign/internal/report"
	"github.com/gpxsync/trackalign/internal/syncengine"
	"github.com/gpxsync/trackalign/internal/tolerance"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "trackalign"

// exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitPartial = 3
)

var errUsage = errors.New("usage")

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"strategy":          "sync.method",
	"tolerance":         "tolerance.km",
	"method":            "tolerance.method",
	"classify":          "tolerance.enabled",
	"align":             "align.enabled",
	"align-tolerance":   "align.toleranceKm",
	"resample":          "resample.enabled",
	"truncate":          "truncate.enabled",
	"smooth":            "smooth.enabled",
	"smooth-window":     "smooth.window",
	"smooth-iterations": "smooth.iterations",
	"out":               "output.dir",
	"compress":          "output.compress",
	"geojson":           "output.geojson",
	"gpx":               "output.gpx",
	"workers":           "batch.workers",
	"log-level":         "logLevel",
	"log-format":        "logFormat",
	"logs-dir":          "logsDir",
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] --base BASE.gpx COMPARISON.gpx...\n       %s --show REPORT.json...\n\nFlags:\n", appName, appName)
		fs.PrintDefaults()
	}

	fs.String("config", ".", "directory holding "+config.FileName)
	fs.String("base", "", "base recording (.gpx, .json, .txt or .csv)")
	fs.Bool("show", false, "print the summary of existing reports and exit")
	fs.Bool("version", false, "print version and exit")

	fs.StringP("strategy", "s", "elevation_sync", "sync strategy: start_sync, elevation_sync or interpolate_elevations")
	fs.Float64P("tolerance", "t", 0.1, "tolerance radius in km")
	fs.String("method", "standard", "tolerance method: standard or kdtree")
	fs.Bool("classify", true, "classify comparison points against the tolerance")
	fs.Bool("align", false, "trim both tracks to matching endpoints first")
	fs.Float64("align-tolerance", 0.1, "endpoint match radius in km")
	fs.Bool("resample", false, "resample the comparison to the base's point count first")
	fs.Bool("truncate", false, "cut the longer track to the point count of the shorter first")
	fs.Bool("smooth", false, "smooth both elevation curves with robust LOESS before syncing")
	fs.Float64("smooth-window", 0.1, "fraction of the points used by each local fit")
	fs.Int("smooth-iterations", 2, "LOESS passes; passes after the first downweight outliers")
	fs.StringP("out", "o", "", "report directory; no reports are written when empty")
	fs.Bool("compress", false, "gzip the JSON reports")
	fs.Bool("geojson", false, "also write a GeoJSON report")
	fs.Bool("gpx", false, "also write the synced comparison as GPX")
	fs.IntP("workers", "w", 4, "concurrent comparisons")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "console log format: text or json")
	fs.String("logs-dir", "", "directory for the run log file")

	return fs
}

// loadSettings parses args, loads the config file and applies flags on top.
func loadSettings(args []string, stderr io.Writer) (config.Settings, *pflag.FlagSet, error) {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return config.Settings{}, fs, fmt.Errorf("%w: %w", errUsage, err)
	}

	dir, _ := fs.GetString("config")
	if err := config.Load(dir); err != nil {
		return config.Settings{}, fs, err
	}

	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return config.Settings{}, fs, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	s, err := config.Current()
	return s, fs, err
}

// compareOptions converts settings to the options of a comparison.
func compareOptions(s config.Settings) (compare.Options, error) {
	strategy, err := syncengine.ParseStrategy(s.Sync.Method)
	if err != nil {
		return compare.Options{}, err
	}

	opts := compare.Options{
		Strategy:         strategy,
		Align:            s.Align.Enabled,
		AlignToleranceKm: s.Align.ToleranceKm,
		Resample:         s.Resample.Enabled,
		Truncate:         s.Truncate.Enabled,
		Smooth:           s.Smooth.Enabled,
		SmoothWindow:     s.Smooth.Window,
		SmoothIterations: s.Smooth.Iterations,
	}

	if s.Tolerance.Enabled {
		method, err := tolerance.ParseMethod(s.Tolerance.Method)
		if err != nil {
			return compare.Options{}, err
		}
		opts.Sync = syncengine.WithTolerance(s.Tolerance.Km, method)
	}

	return opts, nil
}

// session holds the logging and telemetry of a run.
type session struct {
	logger   logging.Logger
	metrics  *intOtel.Instruments
	slog     *logging.SlogManager
	provider *intOtel.Provider
	closers  []io.Closer
}

func (s *session) Close(ctx context.Context) {
	if s.slog != nil {
		_ = s.slog.Flush(ctx)
	}
	if s.provider != nil {
		_ = s.provider.Shutdown(ctx)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

func openSession(s config.Settings, runStart time.Time, console io.Writer) (*session, error) {
	sess := &session{}

	var logFile io.Writer
	if s.LogsDir != "" {
		if err := os.MkdirAll(s.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		path := logging.LogFilePath(s.LogsDir, appName, runStart)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sess.closers = append(sess.closers, f)
		logFile = f
	}

	if s.LogFormat == "json" {
		w := console
		if logFile != nil {
			w = io.MultiWriter(console, logFile)
		}
		sess.logger = logging.NewZerologLogger(logging.NewZerolog(w, s.LogLevel))
		sess.metrics = newInstruments(sess.logger, nil)
		if s.OTel.Enabled || s.Graylog.Enabled {
			sess.logger.Warn("OTel and Graylog sinks require text log format, ignoring",
				"otel", s.OTel.Enabled, "graylog", s.Graylog.Enabled)
		}
		return sess, nil
	}

	cfg := logging.Config{
		Level:       s.LogLevel,
		Console:     console,
		File:        logFile,
		ServiceName: s.OTel.ServiceName,
	}

	if s.OTel.Enabled {
		var w io.Writer = os.Stderr
		if s.LogsDir != "" {
			f, err := os.Create(logging.LogFilePath(s.LogsDir, appName+".otel", runStart))
			if err != nil {
				sess.Close(context.Background())
				return nil, fmt.Errorf("failed to create OTel log file: %w", err)
			}
			sess.closers = append(sess.closers, f)
			w = f
		}
		provider, err := intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  s.OTel.ServiceName,
			BatchTimeout: s.OTel.BatchTimeout,
			LogWriter:    w,
		})
		if err != nil {
			sess.Close(context.Background())
			return nil, err
		}
		sess.provider = provider
		cfg.Provider = provider.LoggerProvider()
	}

	if s.Graylog.Enabled {
		sink, err := logging.NewGraylogSink(s.Graylog.Address, s.LogLevel)
		if err != nil {
			sess.Close(context.Background())
			return nil, err
		}
		sess.closers = append(sess.closers, sink)
		cfg.Handlers = append(cfg.Handlers, sink.Handler())
	}

	sess.slog = logging.NewSlogManager()
	sess.slog.Setup(cfg)
	sess.logger = sess.slog.Logger()
	sess.metrics = newInstruments(sess.logger, sess.provider)

	return sess, nil
}

func newInstruments(logger logging.Logger, provider *intOtel.Provider) *intOtel.Instruments {
	if provider == nil {
		provider, _ = intOtel.New(intOtel.Config{})
	}
	in, err := intOtel.NewInstruments(provider.Meter(intOtel.InstrumentationName))
	if err != nil {
		logger.Warn("Failed to create metric instruments", "error", err)
		return nil
	}
	return in
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	defer viper.Reset()

	runStart := time.Now()

	settings, fs, err := loadSettings(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitFailed
	}

	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", appName, Version, BuildDate)
		return exitOK
	}

	if show, _ := fs.GetBool("show"); show {
		if fs.NArg() == 0 {
			fs.Usage()
			return exitUsage
		}
		return showReports(stdout, stderr, fs.Args())
	}

	basePath, _ := fs.GetString("base")
	paths := fs.Args()
	if basePath == "" || len(paths) == 0 {
		fs.Usage()
		return exitUsage
	}

	opts, err := compareOptions(settings)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	sess, err := openSession(settings, runStart, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}
	defer sess.Close(context.Background())

	logger := sess.logger
	logger.Info("Starting comparison run",
		"version", Version,
		"base", basePath,
		"comparisons", len(paths),
		"strategy", opts.Strategy,
		"workers", settings.Batch.Workers)

	runner := batch.NewRunner(compare.NewService(logger, sess.metrics), settings.Batch.Workers, logger)
	items, err := runner.RunFiles(ctx, basePath, paths, opts)
	if items == nil && err != nil {
		logger.Error("Failed to load base recording", "path", basePath, "error", err)
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	written := writeReports(items, settings.Output, runStart, logger)
	printSummary(stdout, items, written)

	switch {
	case err != nil:
		logger.Error("Run aborted", "error", err)
		return exitFailed
	case len(batch.Failed(items)) == len(items):
		return exitFailed
	case len(batch.Failed(items)) > 0:
		return exitPartial
	}
	return exitOK
}

// writeReports writes the configured report files of the successful items
// and returns the JSON report path per item index.
func writeReports(items []batch.Item, out config.OutputConfig, now time.Time, logger logging.Logger) map[int]string {
	written := make(map[int]string)
	if out.Dir == "" {
		return written
	}

	for i, it := range items {
		if it.Err != nil || it.Comparison == nil {
			continue
		}
		r := report.Build(it.Comparison, now)

		path, err := report.WriteFile(out.Dir, r, out.Compress)
		if err != nil {
			logger.Error("Failed to write report", "comparison", it.Name, "error", err)
			continue
		}
		written[i] = path
		logger.Debug("Wrote report", "comparison", it.Name, "path", path)

		if out.GeoJSON {
			if p, err := report.WriteGeoJSONFile(out.Dir, r); err != nil {
				logger.Error("Failed to write GeoJSON", "comparison", it.Name, "error", err)
			} else {
				logger.Debug("Wrote GeoJSON", "comparison", it.Name, "path", p)
			}
		}
		if out.GPX {
			if p, err := report.WriteGPXFile(out.Dir, r); err != nil {
				logger.Error("Failed to write GPX", "comparison", it.Name, "error", err)
			} else {
				logger.Debug("Wrote GPX", "comparison", it.Name, "path", p)
			}
		}
	}
	return written
}

func printSummary(w io.Writer, items []batch.Item, written map[int]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPARISON\tPOINTS\tMATCH\tSHIFT KM\tREPORT")
	for i, it := range items {
		if it.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\terror: %v\n", it.Name, it.Err)
			continue
		}
		res := it.Comparison.Result
		match := "-"
		if res.Tolerance != nil {
			match = fmt.Sprintf("%.1f%%", 100*res.Tolerance.Ratio())
		}
		rep := written[i]
		if rep == "" {
			rep = "-"
		} else {
			rep = filepath.Base(rep)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.3f\t%s\n", it.Name, res.Comparison.Len(), match, res.ShiftKm, rep)
	}
	_ = tw.Flush()
}

// showReports prints the summary of previously written reports.
func showReports(stdout, stderr io.Writer, paths []string) int {
	code := exitOK
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tCOMPARISON\tSTRATEGY\tPOINTS\tMATCH\tSHIFT KM")
	for _, path := range paths {
		r, err := report.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			code = exitFailed
			continue
		}
		match := "-"
		if r.MatchRatio != nil {
			match = fmt.Sprintf("%.1f%%", 100**r.MatchRatio)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.3f\n",
			filepath.Base(path), r.Comparison, r.Strategy, len(r.ComparisonProfile.Points), match, r.ShiftKm)
	}
	_ = tw.Flush()
	return code
}
