// Package queue provides a generic blocking multi-producer/multi-consumer queue.
package queue

import (
	"context"
	"sync"

	"github.com/novbytes/sputil/internal/fifo"
)

// Queue is a concurrency safe FIFO queue of T values.
// The zero value is not usable, create one with New.
type Queue[T any] struct {
	mu    sync.Mutex
	items *fifo.Buffer[T]

	// ready is closed and replaced on every Push, waking all blocked consumers.
	ready chan struct{}

	metrics *Metrics
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	capacity int
	metrics  *Metrics
}

// WithCapacity preallocates room for n items. The queue still grows past n.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithMetrics reports queue depth and throughput to the given collector.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates an empty queue.
func New[T any](opts ...Option) *Queue[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Queue[T]{
		items:   fifo.New[T](o.capacity),
		ready:   make(chan struct{}),
		metrics: o.metrics,
	}
}

// Push inserts v at the tail of the queue and wakes blocked consumers.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items.Push(v)
	if q.metrics != nil {
		q.metrics.pushed.Inc()
		q.metrics.depth.Set(float64(q.items.Len()))
	}
	close(q.ready)
	q.ready = make(chan struct{})
	q.mu.Unlock()
}

// Pop removes and returns the head of the queue, blocking until an item is available.
func (q *Queue[T]) Pop() T {
	v, _ := q.PopContext(context.Background())
	return v
}

// PopContext is like Pop but gives up when ctx is done, returning ctx.Err().
// An item is only removed from the queue when it is returned.
func (q *Queue[T]) PopContext(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		v, ok := q.items.Pop()
		if ok {
			q.observePop()
		}
		ready := q.ready
		q.mu.Unlock()

		if ok {
			return v, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryPop removes and returns the head of the queue without blocking.
// found is false if the queue is empty.
func (q *Queue[T]) TryPop() (v T, found bool) {
	q.mu.Lock()
	v, found = q.items.Pop()
	if found {
		q.observePop()
	}
	q.mu.Unlock()

	return v, found
}

// Empty reports whether the queue is empty at the time of the call.
// The answer may be stale as soon as it is returned; use it for diagnostics only.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items at the time of the call.
// The answer may be stale as soon as it is returned; use it for diagnostics only.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len()
}

// observePop must be called with q.mu held.
func (q *Queue[T]) observePop() {
	if q.metrics == nil {
		return
	}

	q.metrics.popped.Inc()
	q.metrics.depth.Set(float64(q.items.Len()))
}
