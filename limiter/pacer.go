package limiter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Pacer spaces calls to at most a fixed number per second.
// Consecutive returns from Acquire are never closer together than MinDelay,
// no matter how many goroutines share the Pacer.
type Pacer struct {
	// lock is a single slot semaphore so that waiting for it can be cancelled.
	lock     chan struct{}
	minDelay time.Duration
	last     time.Time
}

// PacerOption configures a Pacer.
type PacerOption func(*pacerOptions)

type pacerOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report configuration warnings.
func WithLogger(logger *slog.Logger) PacerOption {
	return func(o *pacerOptions) {
		o.logger = logger
	}
}

// NewPacer creates a Pacer allowing callsPerSecond calls per second.
//
// The minimum delay is 1000ms / callsPerSecond in whole milliseconds, so any
// rate above 1000 calls per second yields a zero delay and the Pacer never
// waits. That case is logged as a warning, it is not an error.
//
// Construction counts as the previous call, so an Acquire right after
// NewPacer waits the full minimum delay.
func NewPacer(callsPerSecond int, opts ...PacerOption) (*Pacer, error) {
	if callsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: %d calls per second", ErrInvalidRate, callsPerSecond)
	}

	o := pacerOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	minDelay := time.Duration(1000/callsPerSecond) * time.Millisecond
	if minDelay == 0 {
		o.logger.Warn("pacer rate exceeds millisecond resolution, calls will not be throttled",
			slog.Int("calls_per_second", callsPerSecond))
	}

	return &Pacer{
		lock:     make(chan struct{}, 1),
		minDelay: minDelay,
		last:     time.Now(),
	}, nil
}

// MinDelay returns the enforced gap between consecutive calls.
func (p *Pacer) MinDelay() time.Duration {
	return p.minDelay
}

// Acquire blocks until the caller may proceed.
func (p *Pacer) Acquire() {
	_ = p.AcquireContext(context.Background())
}

// AcquireContext is like Acquire but returns ctx.Err() if ctx is done before
// the caller may proceed. A cancelled call does not count as a permitted call.
func (p *Pacer) AcquireContext(ctx context.Context) error {
	select {
	case p.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.lock }()

	if wait := p.minDelay - time.Since(p.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.last = time.Now()

	return nil
}
