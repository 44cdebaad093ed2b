// Package inference drives repeated decomposition/alignment cycles over a
// resample plan and aggregates the per-unit outputs into significance,
// stability, and reliability statistics.
package inference

import (
	"context"

	"golang.org/x/sync/errgroup"

	"plskit/internal/errors"
)

// Executor maps a unit function over unit indices. Implementations may
// reorder execution but unit results are always stored by index, so result
// order matches index order. A unit error aborts the batch.
type Executor interface {
	Map(ctx context.Context, n int, unit func(ctx context.Context, i int) error) error
}

// Sequential runs units in index order on the calling goroutine. Unit
// errors identify the failing index.
type Sequential struct{}

func (Sequential) Map(ctx context.Context, n int, unit func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := unit(ctx, i); err != nil {
			return errors.Wrapf(err, "resample unit %d failed", i)
		}
	}
	return nil
}

// Parallel fans units out across a bounded pool of goroutines. Units share
// no mutable state; each writes only its own slot, so no locking is needed.
type Parallel struct {
	Workers int
}

func (p Parallel) Map(ctx context.Context, n int, unit func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := unit(gctx, i); err != nil {
				return errors.Wrapf(err, "resample unit %d failed", i)
			}
			return nil
		})
	}
	return g.Wait()
}

// ForWorkers selects the executor for a configured worker count, falling
// back to sequential execution when the count is one or fewer.
func ForWorkers(workers int) Executor {
	if workers <= 1 {
		return Sequential{}
	}
	return Parallel{Workers: workers}
}
