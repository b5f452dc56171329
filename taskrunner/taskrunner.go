// Package taskrunner executes batches of named tasks on a worker pool.
package taskrunner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/novbytes/sputil/workpool"
)

// Task represents a single asynchronous task.
type Task struct {
	Run  func() error
	Name string
}

// TaskPool is the subset of *workpool.Pool the Runner depends on.
type TaskPool interface {
	Submit(task func() error) (*workpool.Future[struct{}], error)
	Close()
}

// Runner is responsible for running tasks concurrently.
type Runner struct {
	taskPool TaskPool
}

// NewRunner creates a new Runner on top of taskPool.
func NewRunner(taskPool TaskPool) *Runner {
	return &Runner{
		taskPool: taskPool,
	}
}

// RunTasks executes tasks concurrently and waits for all of them.
// It returns the errors of the failed tasks in submission order, each
// prefixed with the task name. A nil slice means every task succeeded.
func (r *Runner) RunTasks(tasks []Task) []error {
	futures := r.submit(tasks)

	var errs []error
	for i, f := range futures {
		if f.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tasks[i].Name, f.err))
			continue
		}

		if _, err := f.future.Get(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tasks[i].Name, err))
		}
	}

	return errs
}

// RunTasksFailFast executes tasks concurrently and returns as soon as one
// of them fails, or ctx is done. Tasks already handed to the pool keep
// running; only the wait is cut short.
func (r *Runner) RunTasksFailFast(ctx context.Context, tasks []Task) error {
	futures := r.submit(tasks)
	for i, f := range futures {
		if f.err != nil {
			return fmt.Errorf("%s: %w", tasks[i].Name, f.err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, f := range futures {
		name := tasks[i].Name

		g.Go(func() error {
			_, err := f.future.Wait(gctx)
			switch {
			case err == nil:
				return nil
			case gctx.Err() != nil && err == gctx.Err():
				return err
			default:
				return fmt.Errorf("%s: %w", name, err)
			}
		})
	}

	return g.Wait()
}

// Close shuts the underlying pool down, waiting for queued tasks.
func (r *Runner) Close() {
	r.taskPool.Close()
}

type submitted struct {
	future *workpool.Future[struct{}]
	err    error
}

func (r *Runner) submit(tasks []Task) []submitted {
	out := make([]submitted, len(tasks))

	for i, task := range tasks {
		f, err := r.taskPool.Submit(task.Run)
		out[i] = submitted{future: f, err: err}
	}

	return out
}
