// Package compare runs the full comparison of two recordings: optional
// endpoint alignment, truncation, resampling and elevation smoothing,
// then synchronisation and tolerance classification.
package compare

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gpxsync/trackalign/internal/align"
	"github.com/gpxsync/trackalign/internal/logging"
	"github.com/gpxsync/trackalign/internal/otel"
	"github.com/gpxsync/trackalign/internal/resample"
	"github.com/gpxsync/trackalign/internal/smooth"
	"github.com/gpxsync/trackalign/internal/syncengine"
	"github.com/gpxsync/trackalign/internal/trackfile"
	"github.com/gpxsync/trackalign/pkg/core"
)

// Options selects the steps of a comparison.
type Options struct {
	Strategy syncengine.Strategy
	Sync     syncengine.Options

	// Align truncates both tracks to matching endpoints before syncing.
	Align            bool
	AlignToleranceKm float64

	// Truncate cuts both tracks to the shorter one's point count.
	Truncate bool

	// Resample rebuilds the comparison with the base's point count before syncing.
	Resample bool

	// Smooth applies LOESS to both elevation curves before syncing.
	// Zero window and iterations select the smooth package defaults.
	Smooth           bool
	SmoothWindow     float64
	SmoothIterations int
}

// Input is a named track.
type Input struct {
	Name  string
	Track core.Track
}

// Comparison is the outcome of comparing one recording against a base.
type Comparison struct {
	BaseName       string
	ComparisonName string
	Options        Options

	// Alignment is nil unless Options.Align was set.
	Alignment *align.Result
	Truncated bool
	Resampled bool
	Smoothed  bool

	Result  syncengine.Result
	Elapsed time.Duration
}

// Service runs comparisons.
type Service struct {
	logger  logging.Logger
	metrics *otel.Instruments
}

// NewService creates a Service. metrics may be nil.
func NewService(logger logging.Logger, metrics *otel.Instruments) *Service {
	return &Service{logger: logger, metrics: metrics}
}

// CompareFiles loads two track files and compares them.
func (s *Service) CompareFiles(ctx context.Context, basePath, comparisonPath string, opts Options) (*Comparison, error) {
	base, err := trackfile.Load(basePath)
	if err != nil {
		return nil, err
	}
	comparison, err := trackfile.Load(comparisonPath)
	if err != nil {
		return nil, err
	}
	return s.Compare(ctx,
		Input{Name: filepath.Base(basePath), Track: base},
		Input{Name: filepath.Base(comparisonPath), Track: comparison},
		opts)
}

// Compare aligns, resamples and synchronises comparison against base as
// requested by opts.
func (s *Service) Compare(ctx context.Context, base, comparison Input, opts Options) (*Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.run(base, comparison, opts)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RecordComparison(ctx, string(opts.Strategy), otel.OutcomeError, elapsed)
		s.logger.Error("Comparison failed",
			"base", base.Name,
			"comparison", comparison.Name,
			"strategy", opts.Strategy,
			"error", err)
		return nil, fmt.Errorf("compare %s with %s: %w", comparison.Name, base.Name, err)
	}

	out.Elapsed = elapsed
	s.metrics.RecordComparison(ctx, string(opts.Strategy), otel.OutcomeOK, elapsed)

	kv := []any{
		"base", base.Name,
		"comparison", comparison.Name,
		"strategy", opts.Strategy,
		"basePoints", out.Result.Base.Len(),
		"comparisonPoints", out.Result.Comparison.Len(),
		"elapsed", elapsed,
	}
	if out.Result.Tolerance != nil {
		ratio := out.Result.Tolerance.Ratio()
		s.metrics.RecordMatchRatio(ctx, string(opts.Strategy), ratio)
		kv = append(kv, "matchRatio", ratio)
	}
	if opts.Strategy == syncengine.StrategyElevation {
		kv = append(kv, "shiftKm", out.Result.ShiftKm)
	}
	s.logger.Info("Comparison finished", kv...)

	return out, nil
}

func (s *Service) run(base, comparison Input, opts Options) (*Comparison, error) {
	out := &Comparison{
		BaseName:       base.Name,
		ComparisonName: comparison.Name,
		Options:        opts,
	}

	baseTrack, compTrack := base.Track, comparison.Track

	if opts.Align {
		tol := opts.AlignToleranceKm
		if tol <= 0 {
			tol = align.DefaultToleranceKm
		}
		res, err := align.Align(baseTrack, compTrack, tol)
		if err != nil {
			return nil, fmt.Errorf("align endpoints: %w", err)
		}
		s.logger.Debug("Aligned endpoints",
			"comparison", comparison.Name,
			"start", res.Start,
			"end", res.End)
		out.Alignment = &res
		baseTrack, compTrack = res.A, res.B
	}

	if opts.Truncate {
		n := min(baseTrack.Len(), compTrack.Len())
		s.logger.Debug("Truncated tracks",
			"comparison", comparison.Name,
			"basePoints", baseTrack.Len(),
			"comparisonPoints", compTrack.Len(),
			"to", n)
		baseTrack, compTrack = baseTrack.Truncate(n), compTrack.Truncate(n)
		out.Truncated = true
	}

	if opts.Resample {
		resampled, err := resample.InterpolateToMatchPoints(compTrack, baseTrack)
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		s.logger.Debug("Resampled comparison",
			"comparison", comparison.Name,
			"from", compTrack.Len(),
			"to", resampled.Len())
		out.Resampled = true
		compTrack = resampled
	}

	if opts.Smooth {
		window, iterations := opts.SmoothWindow, opts.SmoothIterations
		if window <= 0 {
			window = smooth.DefaultWindow
		}
		if iterations <= 0 {
			iterations = smooth.DefaultIterations
		}
		var err error
		if baseTrack, err = smooth.Elevations(baseTrack, window, iterations); err != nil {
			return nil, fmt.Errorf("smooth base elevations: %w", err)
		}
		if compTrack, err = smooth.Elevations(compTrack, window, iterations); err != nil {
			return nil, fmt.Errorf("smooth comparison elevations: %w", err)
		}
		s.logger.Debug("Smoothed elevations",
			"comparison", comparison.Name,
			"window", window,
			"iterations", iterations)
		out.Smoothed = true
	}

	res, err := syncengine.Run(opts.Strategy, baseTrack.Points(), compTrack.Points(), opts.Sync)
	if err != nil {
		return nil, err
	}
	out.Result = res
	return out, nil
}
