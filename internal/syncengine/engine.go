// Package syncengine turns two recordings of the same route into a pair of
// profiles that can be compared sample by sample.
//
// Three strategies are available:
//   - start_sync trims both recordings to their closest pair of early points
//   - elevation_sync shifts the comparison along the distance axis to the
//     offset where the two elevation curves match best
//   - interpolate_elevations resamples the comparison elevations onto the
//     base distances
//
// Each strategy can also classify the comparison points against a distance
// tolerance, see package tolerance.
package syncengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gpxsync/trackalign/internal/tolerance"
	"github.com/gpxsync/trackalign/pkg/core"
)

// Strategy names a synchronisation strategy.
type Strategy string

const (
	StrategyStart       Strategy = "start_sync"
	StrategyElevation   Strategy = "elevation_sync"
	StrategyInterpolate Strategy = "interpolate_elevations"
)

// DefaultToleranceKm is the start_sync matching radius when no tolerance is requested.
const DefaultToleranceKm = 0.1

// ErrUnknownStrategy is returned for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown sync strategy")

// Options controls the optional tolerance classification.
type Options struct {
	// Classify enables the tolerance vector in the result.
	Classify    bool
	ToleranceKm float64
	Method      tolerance.Method
}

// WithTolerance returns options that classify with the given tolerance and method.
func WithTolerance(toleranceKm float64, method tolerance.Method) Options {
	return Options{Classify: true, ToleranceKm: toleranceKm, Method: method}
}

func (o Options) matchToleranceKm() float64 {
	if o.Classify {
		return o.ToleranceKm
	}
	return DefaultToleranceKm
}

// Result holds the synchronised profiles.
type Result struct {
	Strategy   Strategy
	Base       core.Profile
	Comparison core.Profile
	// Tolerance is nil unless Options.Classify was set.
	Tolerance core.ToleranceVector

	// set by start_sync
	BaseStart       int
	ComparisonStart int
	StartDistanceKm float64

	// set by elevation_sync
	ShiftSamples int
	ShiftKm      float64
}

// Func is the common signature of every strategy.
type Func func(base, comparison []core.GeoPoint, opts Options) (Result, error)

var strategies = map[Strategy]Func{
	StrategyStart:       StartSync,
	StrategyElevation:   ElevationSync,
	StrategyInterpolate: InterpolateElevations,
}

// Strategies lists the supported strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyElevation, StrategyStart, StrategyInterpolate}
}

// ParseStrategy converts a strategy name. An empty name selects elevation_sync.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		return StrategyElevation, nil
	}
	if _, ok := strategies[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Run executes the named strategy.
func Run(strategy Strategy, base, comparison []core.GeoPoint, opts Options) (Result, error) {
	fn, ok := strategies[strategy]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return fn(base, comparison, opts)
}

// classify fills res.Tolerance when requested. An empty method selects the
// standard one.
func classify(res Result, opts Options) (Result, error) {
	if !opts.Classify {
		return res, nil
	}
	method := opts.Method
	if method == "" {
		method = tolerance.MethodStandard
	}
	vec, err := tolerance.Classify(method, res.Base, res.Comparison, opts.ToleranceKm)
	if err != nil {
		return Result{}, err
	}
	res.Tolerance = vec
	return res, nil
}
