package taskrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/novbytes/sputil/workpool"
)

func newRunner(t *testing.T, workers int) *Runner {
	t.Helper()

	pool, err := workpool.New(workpool.WithWorkers(workers))
	require.NoError(t, err)

	r := NewRunner(pool)
	t.Cleanup(r.Close)

	return r
}

func TestRunTasksAllSucceed(t *testing.T) {
	r := newRunner(t, 4)

	var counter atomic.Int64
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = Task{
			Name: "inc",
			Run: func() error {
				counter.Inc()
				return nil
			},
		}
	}

	assert.Nil(t, r.RunTasks(tasks))
	assert.Equal(t, int64(20), counter.Load())
}

func TestRunTasksCollectsNamedErrors(t *testing.T) {
	r := newRunner(t, 2)

	errFetch := errors.New("fetch failed")

	errs := r.RunTasks([]Task{
		{Name: "ok", Run: func() error { return nil }},
		{Name: "fetch", Run: func() error { return errFetch }},
		{Name: "crash", Run: func() error { panic("bad input") }},
		{Name: "missing", Run: nil},
	})
	require.Len(t, errs, 3)

	assert.ErrorIs(t, errs[0], errFetch)
	assert.Equal(t, "fetch: fetch failed", errs[0].Error())

	var pe *workpool.PanicError
	assert.ErrorAs(t, errs[1], &pe)
	assert.Contains(t, errs[1].Error(), "crash: ")

	assert.ErrorIs(t, errs[2], workpool.ErrNilTask)
	assert.Contains(t, errs[2].Error(), "missing: ")
}

func TestRunTasksFailFast(t *testing.T) {
	r := newRunner(t, 4)

	errBoom := errors.New("boom")

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := r.RunTasksFailFast(context.Background(), []Task{
		{Name: "slow", Run: func() error {
			<-release
			return nil
		}},
		{Name: "broken", Run: func() error { return errBoom }},
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, "broken: boom", err.Error())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunTasksFailFastSuccess(t *testing.T) {
	r := newRunner(t, 2)

	var counter atomic.Int64
	err := r.RunTasksFailFast(context.Background(), []Task{
		{Name: "a", Run: func() error { counter.Inc(); return nil }},
		{Name: "b", Run: func() error { counter.Inc(); return nil }},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.Load())
}

func TestRunTasksFailFastContext(t *testing.T) {
	r := newRunner(t, 1)

	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.RunTasksFailFast(ctx, []Task{
		{Name: "stuck", Run: func() error {
			<-release
			return nil
		}},
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTasksAfterClose(t *testing.T) {
	pool, err := workpool.New(workpool.WithWorkers(1))
	require.NoError(t, err)

	r := NewRunner(pool)
	r.Close()

	errs := r.RunTasks([]Task{{Name: "late", Run: func() error { return nil }}})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], workpool.ErrPoolStopped)

	err = r.RunTasksFailFast(context.Background(), []Task{{Name: "late", Run: func() error { return nil }}})
	assert.ErrorIs(t, err, workpool.ErrPoolStopped)
}
