package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Waiter is implemented by every Future regardless of its value type.
type Waiter interface {
	Done() <-chan struct{}
	Err() error
}

// WaitAll blocks until every waiter has finished and returns the first
// error encountered, or ctx.Err() if ctx ends first.
// Nil waiters, including a nil *Future returned by a failed Submit or Call,
// count as finished without error.
func WaitAll(ctx context.Context, waiters ...Waiter) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range waiters {
		if w == nil {
			continue
		}

		g.Go(func() error {
			select {
			case <-w.Done():
				return w.Err()
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	return g.Wait()
}
