package workpool

import (
	"context"

	"github.com/rs/xid"
)

// Future is the result of a submitted task. It is completed exactly once,
// by the worker that runs the task, and may be read any number of times.
type Future[T any] struct {
	id    string
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		id:   xid.New().String(),
		done: make(chan struct{}),
	}
}

// ID returns a unique identifier of the task, as used in logs and spans.
func (f *Future[T]) ID() string {
	return f.id
}

// closedChan is returned by Done on a nil Future.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done returns a channel that is closed once the task has finished.
// A nil Future, as returned next to a Submit error, is always done.
func (f *Future[T]) Done() <-chan struct{} {
	if f == nil {
		return closedChan
	}
	return f.done
}

// Wait blocks until the task has finished or ctx is done.
// It returns the task's value and error, or ctx.Err().
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get blocks until the task has finished and returns its value and error.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// Err returns the task's error once it has finished, and nil before that
// or on a nil Future.
func (f *Future[T]) Err() error {
	if f == nil {
		return nil
	}

	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}
