package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName identifies the meter used for comparison metrics.
const InstrumentationName = "github.com/gpxsync/trackalign/internal/compare"

// Outcome labels of a finished comparison.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Instruments records comparison counts and durations.
type Instruments struct {
	comparisons metric.Int64Counter
	duration    metric.Float64Histogram
	matchRatio  metric.Float64Histogram
}

// NewInstruments creates the comparison instruments on m.
func NewInstruments(m metric.Meter) (*Instruments, error) {
	var (
		in  Instruments
		err error
	)

	in.comparisons, err = m.Int64Counter(
		"trackalign.comparisons",
		metric.WithDescription("Comparisons run, by strategy and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating comparisons counter: %w", err)
	}

	in.duration, err = m.Float64Histogram(
		"trackalign.comparison.duration",
		metric.WithDescription("Time spent aligning, syncing and classifying one pair of tracks"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	in.matchRatio, err = m.Float64Histogram(
		"trackalign.comparison.match_ratio",
		metric.WithDescription("Share of comparison points within tolerance"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating match ratio histogram: %w", err)
	}

	return &in, nil
}

// RecordComparison counts one comparison and its duration.
// A nil receiver records nothing.
func (in *Instruments) RecordComparison(ctx context.Context, strategy, outcome string, elapsed time.Duration) {
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	)
	in.comparisons.Add(ctx, 1, attrs)
	in.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordMatchRatio records the tolerance match ratio of a classified comparison.
func (in *Instruments) RecordMatchRatio(ctx context.Context, strategy string, ratio float64) {
	if in == nil {
		return
	}
	in.matchRatio.Record(ctx, ratio, metric.WithAttributes(attribute.String("strategy", strategy)))
}
