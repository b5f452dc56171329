package workpool

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/atomic"

	"github.com/novbytes/sputil/internal/fifo"
)

// State is the lifecycle state of a Pool.
type State int

const (
	// StateRunning accepts and executes tasks.
	StateRunning State = iota
	// StateShuttingDown rejects new tasks and drains the queue.
	StateShuttingDown
	// StateTerminated means every worker has exited.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Pool runs submitted tasks on a fixed number of worker goroutines.
type Pool struct {
	workers int

	mu       sync.Mutex
	cond     *sync.Cond
	tasks    *fifo.Buffer[*task]
	shutdown bool

	wg        sync.WaitGroup
	closeOnce sync.Once
	finished  chan struct{}

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	active    atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
}

type task struct {
	id       string
	ctx      context.Context
	run      func(ctx context.Context) error
	enqueued time.Time
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	workers       int
	queueCapacity int
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *Metrics
}

// WithWorkers sets the number of workers. It defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithQueueCapacity preallocates room for n queued tasks. The queue still grows past n.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}

// WithLogger sets the logger for lifecycle events and task failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer starts a span around every task execution.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithMetrics reports pool activity to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New starts a pool and its workers.
func New(opts ...Option) (*Pool, error) {
	o := options{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}

	p := &Pool{
		workers:  o.workers,
		tasks:    fifo.New[*task](o.queueCapacity),
		finished: make(chan struct{}),
		logger:   o.logger,
		tracer:   o.tracer,
		metrics:  o.metrics,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work()
	}

	p.logger.Debug("worker pool started", slog.Int("workers", p.workers))

	return p, nil
}

// Submit queues task for execution. The returned Future completes with the
// task's error, or a *PanicError if it panicked.
func (p *Pool) Submit(task func() error) (*Future[struct{}], error) {
	if task == nil {
		return nil, ErrNilTask
	}

	return p.SubmitContext(context.Background(), func(context.Context) error {
		return task()
	})
}

// SubmitContext is like Submit but hands task a context derived from ctx
// that carries the task's span.
func (p *Pool) SubmitContext(ctx context.Context, task func(ctx context.Context) error) (*Future[struct{}], error) {
	if task == nil {
		return nil, ErrNilTask
	}

	return CallContext(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, task(ctx)
	})
}

// Call queues fn for execution on p and returns a Future of its result.
// It fails with ErrPoolStopped once Close has been called.
func Call[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	return CallContext(context.Background(), p, func(context.Context) (T, error) {
		return fn()
	})
}

// CallContext is like Call but runs fn with a context derived from ctx.
// That context carries the workpool.task span, so spans started by fn are
// its children. The pool does not drop a queued task when ctx ends; fn
// decides what to do with a done context.
func CallContext[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	f := newFuture[T]()

	err := p.enqueue(&task{
		id:  f.id,
		ctx: ctx,
		run: func(ctx context.Context) error {
			v, err := protect(func() (T, error) { return fn(ctx) })
			f.complete(v, err)
			return err
		},
		enqueued: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Close stops accepting tasks, lets the workers drain every queued task and
// waits for all of them to exit. It is safe to call Close more than once and
// from several goroutines; every call returns after the pool has terminated.
func (p *Pool) Close() {
	p.mu.Lock()
	wasRunning := !p.shutdown
	p.shutdown = true
	queued := p.tasks.Len()
	p.mu.Unlock()

	p.cond.Broadcast()

	if wasRunning {
		p.logger.Debug("worker pool shutting down", slog.Int("queued", queued))
	}

	p.closeOnce.Do(func() {
		p.wg.Wait()
		close(p.finished)
		p.logger.Debug("worker pool terminated", slog.Uint64("completed", p.completed.Load()))
	})
}

// Workers returns the fixed number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// State returns the lifecycle state of the pool.
func (p *Pool) State() State {
	select {
	case <-p.finished:
		return StateTerminated
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return StateShuttingDown
	}

	return StateRunning
}

func (p *Pool) enqueue(t *task) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		p.rejected.Inc()
		if p.metrics != nil {
			p.metrics.rejected.Inc()
		}
		return ErrPoolStopped
	}
	p.tasks.Push(t)
	if p.metrics != nil {
		p.metrics.queued.Set(float64(p.tasks.Len()))
	}
	p.mu.Unlock()

	p.cond.Signal()

	p.submitted.Inc()
	if p.metrics != nil {
		p.metrics.submitted.Inc()
	}

	return nil
}

// work is the worker loop. It exits once shutdown is set and the queue is empty.
func (p *Pool) work() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shutdown && p.tasks.Len() == 0 {
			p.cond.Wait()
		}
		t, ok := p.tasks.Pop()
		if ok && p.metrics != nil {
			p.metrics.queued.Set(float64(p.tasks.Len()))
		}
		p.mu.Unlock()

		if !ok {
			return
		}

		if p.metrics != nil {
			p.metrics.wait.Observe(time.Since(t.enqueued).Seconds())
		}

		p.execute(t)
	}
}

// execute runs t outside of the pool lock.
func (p *Pool) execute(t *task) {
	ctx, span := p.tracer.Start(t.ctx, "workpool.task",
		trace.WithAttributes(attribute.String("task.id", t.id)))
	defer span.End()

	p.active.Inc()
	if p.metrics != nil {
		p.metrics.active.Inc()
	}

	start := time.Now()
	err := t.run(ctx)
	elapsed := time.Since(start)

	p.active.Dec()
	p.completed.Inc()

	outcome := outcomeOK
	if err != nil {
		p.failed.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		outcome = outcomeError
		if pe, ok := err.(*PanicError); ok {
			outcome = outcomePanic
			p.logger.Warn("task panicked",
				slog.String("task", t.id),
				slog.Any("panic", pe.Value))
		} else {
			p.logger.Debug("task failed", slog.String("task", t.id), slog.Any("error", err))
		}
	}

	if p.metrics != nil {
		p.metrics.active.Dec()
		p.metrics.completed.WithLabelValues(outcome).Inc()
		p.metrics.duration.Observe(elapsed.Seconds())
	}
}

// protect runs fn, turning a panic into a *PanicError.
func protect[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn()
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	State     string `json:"state" msgpack:"state"`
	Workers   int    `json:"workers" msgpack:"workers"`
	Queued    int    `json:"queued" msgpack:"queued"`
	Active    int64  `json:"active" msgpack:"active"`
	Submitted uint64 `json:"submitted" msgpack:"submitted"`
	Completed uint64 `json:"completed" msgpack:"completed"`
	Failed    uint64 `json:"failed" msgpack:"failed"`
	Rejected  uint64 `json:"rejected" msgpack:"rejected"`
}

// Stats returns the current counters of the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := p.tasks.Len()
	p.mu.Unlock()

	return Stats{
		State:     p.State().String(),
		Workers:   p.workers,
		Queued:    queued,
		Active:    p.active.Load(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}
