package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gpxsync/trackalign/internal/compare"
	"github.com/gpxsync/trackalign/internal/gpx"
	"github.com/gpxsync/trackalign/internal/syncengine"
	"github.com/gpxsync/trackalign/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeComparer records concurrency and fails for names listed in fail.
type fakeComparer struct {
	delay  time.Duration
	fail   map[string]bool
	onCall func(n int64)

	calls   atomic.Int64
	running atomic.Int64
	mu      sync.Mutex
	peak    int64
}

func (f *fakeComparer) Compare(ctx context.Context, base, comparison compare.Input, _ compare.Options) (*compare.Comparison, error) {
	n := f.calls.Add(1)
	cur := f.running.Add(1)
	defer f.running.Add(-1)

	f.mu.Lock()
	f.peak = max(f.peak, cur)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	time.Sleep(f.delay)

	if f.fail[comparison.Name] {
		return nil, fmt.Errorf("compare %s: %w", comparison.Name, core.ErrNoMatch)
	}
	return &compare.Comparison{BaseName: base.Name, ComparisonName: comparison.Name}, nil
}

func inputs(names ...string) []compare.Input {
	out := make([]compare.Input, len(names))
	for i, n := range names {
		out[i] = compare.Input{Name: n}
	}
	return out
}

func TestRun_KeepsInputOrder(t *testing.T) {
	f := &fakeComparer{delay: time.Millisecond}
	r := NewRunner(f, 3, discard)

	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	items, err := r.Run(context.Background(), compare.Input{Name: "base"}, inputs(names...), compare.Options{})
	require.NoError(t, err)
	require.Len(t, items, len(names))

	for i, it := range items {
		require.NoError(t, it.Err)
		assert.Equal(t, names[i], it.Name)
		assert.Equal(t, names[i], it.Comparison.ComparisonName)
		assert.Equal(t, "base", it.Comparison.BaseName)
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	f := &fakeComparer{delay: 5 * time.Millisecond}
	r := NewRunner(f, 2, discard)

	_, err := r.Run(context.Background(), compare.Input{}, inputs("a", "b", "c", "d", "e", "f"), compare.Options{})
	require.NoError(t, err)

	assert.Equal(t, int64(6), f.calls.Load())
	assert.LessOrEqual(t, f.peak, int64(2))
}

func TestRun_FailuresDoNotStopOthers(t *testing.T) {
	f := &fakeComparer{fail: map[string]bool{"b": true, "d": true}}
	r := NewRunner(f, 2, discard)

	items, err := r.Run(context.Background(), compare.Input{}, inputs("a", "b", "c", "d"), compare.Options{})
	require.NoError(t, err)

	failed := Failed(items)
	require.Len(t, failed, 2)
	assert.Equal(t, "b", failed[0].Name)
	assert.Equal(t, "d", failed[1].Name)
	assert.ErrorIs(t, failed[0].Err, core.ErrNoMatch)
	assert.NotNil(t, items[2].Comparison)
}

func TestRun_CancellationStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeComparer{onCall: func(n int64) {
		if n == 1 {
			cancel()
		}
	}}
	r := NewRunner(f, 1, discard)

	names := []string{"a", "b", "c", "d", "e"}
	items, err := r.Run(ctx, compare.Input{}, inputs(names...), compare.Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, items, len(names))

	assert.Less(t, f.calls.Load(), int64(len(names)))
	assert.ErrorIs(t, items[len(items)-1].Err, context.Canceled)
	assert.Equal(t, "e", items[len(items)-1].Name)
}

func TestNewRunner_DefaultWorkers(t *testing.T) {
	r := NewRunner(&fakeComparer{}, 0, discard)
	assert.Equal(t, DefaultWorkers, r.workers)
}

func line(n int, from float64) core.Track {
	points := make([]core.GeoPoint, n)
	for i := range points {
		points[i] = core.NewGeoPointWithElevation(0, from+float64(i)*0.0002, float64(200+i*i%11))
	}
	return core.NewTrack(points)
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.gpx")
	require.NoError(t, gpx.WriteFile(basePath, "base", line(25, 0)))

	var paths []string
	for i, n := range []int{20, 25, 30} {
		p := filepath.Join(dir, fmt.Sprintf("ride%d.gpx", i))
		require.NoError(t, gpx.WriteFile(p, "ride", line(n, 0)))
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "missing.gpx"))

	r := NewRunner(compare.NewService(discard, nil), 2, discard)
	items, err := r.RunFiles(context.Background(), basePath, paths, compare.Options{
		Strategy: syncengine.StrategyInterpolate,
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, it := range items[:3] {
		require.NoError(t, it.Err, "item %d", i)
		assert.Equal(t, "base.gpx", it.Comparison.BaseName)
		assert.Equal(t, 25, it.Comparison.Result.Comparison.Len())
	}
	assert.Equal(t, "missing.gpx", items[3].Name)
	assert.Error(t, items[3].Err)
}

func TestRunFiles_MissingBase(t *testing.T) {
	r := NewRunner(&fakeComparer{}, 1, discard)
	_, err := r.RunFiles(context.Background(), filepath.Join(t.TempDir(), "nope.gpx"), []string{"x.gpx"}, compare.Options{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
