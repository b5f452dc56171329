package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/novbytes/sputil/limiter"
	"github.com/novbytes/sputil/lru"
	"github.com/novbytes/sputil/queue"
	"github.com/novbytes/sputil/sliceutil"
	"github.com/novbytes/sputil/taskrunner"
	"github.com/novbytes/sputil/timeutil"
	"github.com/novbytes/sputil/workpool"
)

// slowSquareDelay stands in for an expensive computation or remote call.
const slowSquareDelay = 200 * time.Millisecond

type demo struct {
	logger  *slog.Logger
	pool    *workpool.Pool
	runner  *taskrunner.Runner
	pacer   *limiter.Pacer
	cache   *lru.Cache[int, int]
	pending *queue.Queue[int]
	keys    int
}

func (d *demo) run(ctx context.Context, jobs int, rng *rand.Rand) error {
	defer timeutil.ScopeTimer(d.logger, "demo")()

	if err := d.warmup(ctx); err != nil {
		return err
	}

	ids := make([]int, jobs)
	for i := range ids {
		ids[i] = i
	}
	sliceutil.Shuffle(rng, ids)

	for _, id := range ids {
		d.pending.Push(id)
	}

	futures := make([]workpool.Waiter, 0, jobs)
	for range jobs {
		id, err := d.pending.PopContext(ctx)
		if err != nil {
			return err
		}

		if err := d.pacer.AcquireContext(ctx); err != nil {
			return err
		}

		f, err := workpool.Call(d.pool, func() (int, error) {
			return d.square(ctx, id%d.keys)
		})
		if err != nil {
			return err
		}
		futures = append(futures, f)

		d.logger.Debug("job submitted", slog.Int("job", id), slog.String("task", f.ID()))
	}

	if err := workpool.WaitAll(ctx, futures...); err != nil {
		return err
	}

	stats := d.cache.Stats()
	d.logger.Info("jobs finished",
		slog.Int("jobs", jobs),
		slog.Int("cached", stats.Entries),
		slog.Any("pool", d.pool.Stats()))

	return nil
}

// warmup fills the first half of the key space through the task runner.
func (d *demo) warmup(ctx context.Context) error {
	tasks := make([]taskrunner.Task, 0, d.keys/2)
	for key := range d.keys / 2 {
		tasks = append(tasks, taskrunner.Task{
			Name: fmt.Sprintf("warmup-%d", key),
			Run: func() error {
				_, err := d.square(ctx, key)
				return err
			},
		})
	}

	return d.runner.RunTasksFailFast(ctx, tasks)
}

func (d *demo) square(ctx context.Context, n int) (int, error) {
	return d.cache.GetOrLoad(ctx, n, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(slowSquareDelay):
			return n * n, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
}
