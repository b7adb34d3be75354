// Package batch compares one base recording against many others concurrently.
package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gpxsync/trackalign/internal/compare"
	"github.com/gpxsync/trackalign/internal/trackfile"
	"github.com/gpxsync/trackalign/internal/logging"
	"github.com/gpxsync/trackalign/pkg/core"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a runner is created with fewer than one worker.
const DefaultWorkers = 4

// Comparer compares two named tracks.
type Comparer interface {
	Compare(ctx context.Context, base, comparison compare.Input, opts compare.Options) (*compare.Comparison, error)
}

// LoadFunc reads a track from a file.
type LoadFunc func(path string) (core.Track, error)

// Item is the outcome of one comparison of a batch.
type Item struct {
	Name       string
	Comparison *compare.Comparison
	Err        error
}

// Runner schedules comparisons on a bounded number of goroutines.
type Runner struct {
	comparer Comparer
	workers  int
	logger   logging.Logger
	load     LoadFunc
}

// NewRunner creates a runner backed by comparer. Files are read with trackfile.Load.
func NewRunner(comparer Comparer, workers int, logger logging.Logger) *Runner {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Runner{comparer: comparer, workers: workers, logger: logger, load: trackfile.Load}
}

// Run compares base with every input. Items are returned in input order.
// A failed comparison is reported in its item and does not stop the others.
// When ctx is cancelled no further comparisons are started, the items of the
// skipped inputs carry the context error and so does the returned error.
func (r *Runner) Run(ctx context.Context, base compare.Input, inputs []compare.Input, opts compare.Options) ([]Item, error) {
	return r.run(ctx, len(inputs), func(i int) string { return inputs[i].Name },
		func(ctx context.Context, i int) (*compare.Comparison, error) {
			return r.comparer.Compare(ctx, base, inputs[i], opts)
		})
}

// RunFiles loads basePath once and compares it with every file in paths.
func (r *Runner) RunFiles(ctx context.Context, basePath string, paths []string, opts compare.Options) ([]Item, error) {
	track, err := r.load(basePath)
	if err != nil {
		return nil, err
	}
	base := compare.Input{Name: filepath.Base(basePath), Track: track}

	return r.run(ctx, len(paths), func(i int) string { return filepath.Base(paths[i]) },
		func(ctx context.Context, i int) (*compare.Comparison, error) {
			track, err := r.load(paths[i])
			if err != nil {
				return nil, err
			}
			in := compare.Input{Name: filepath.Base(paths[i]), Track: track}
			return r.comparer.Compare(ctx, base, in, opts)
		})
}

func (r *Runner) run(ctx context.Context, n int, name func(int) string,
	fn func(context.Context, int) (*compare.Comparison, error),
) ([]Item, error) {
	items := make([]Item, n)
	for i := range items {
		items[i].Name = name(i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	scheduled := 0
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c, err := fn(gctx, i)
			items[i].Comparison = c
			items[i].Err = err
			return nil
		})
		scheduled++
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := scheduled; i < n; i++ {
			items[i].Err = err
		}
		r.logger.Warn("Batch cancelled", "scheduled", scheduled, "total", n)
		return items, fmt.Errorf("batch cancelled after %d of %d comparisons: %w", scheduled, n, err)
	}

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	r.logger.Info("Batch finished", "total", n, "failed", failed, "workers", r.workers)
	return items, nil
}

// Failed returns the items whose comparison failed.
func Failed(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}
