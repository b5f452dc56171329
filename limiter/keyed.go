package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/novbytes/sputil/lru"
)

// RateLimit defines the maximum number of requests that can be made per time interval.
type RateLimit struct {
	Interval time.Duration
	MaxCount int
}

// KeyedLimiter keeps an independent token bucket per key, e.g. per user.
// Each bucket refills at MaxCount tokens per Interval and holds at most
// MaxCount tokens. Only the maxKeys most recently used keys are tracked;
// the state of older keys is dropped and they start again with a full bucket.
type KeyedLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewKeyedLimiter creates a limiter enforcing limit for at most maxKeys keys at a time.
func NewKeyedLimiter(limit RateLimit, maxKeys int) (*KeyedLimiter, error) {
	if limit.Interval <= 0 || limit.MaxCount <= 0 {
		return nil, fmt.Errorf("%w: %d per %s", ErrInvalidLimit, limit.MaxCount, limit.Interval)
	}

	limiters, err := lru.NewCache[string, *rate.Limiter](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("key cache: %w", err)
	}

	return &KeyedLimiter{
		limit:    rate.Limit(float64(limit.MaxCount) / limit.Interval.Seconds()),
		burst:    limit.MaxCount,
		limiters: limiters,
	}, nil
}

// Allow reports whether a request for key may happen now, consuming a token if so.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until a request for key may happen or ctx is done.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// NextActionTime returns the time when the next request for key will be allowed.
// Unknown keys are allowed immediately.
func (l *KeyedLimiter) NextActionTime(key string) time.Time {
	now := time.Now()

	lim, ok := l.limiters.Peek(key)
	if !ok {
		return now
	}

	tokens := lim.TokensAt(now)
	if tokens >= 1 {
		return now
	}

	wait := time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))

	return now.Add(wait)
}

// Len returns the number of keys currently tracked.
func (l *KeyedLimiter) Len() int {
	return l.limiters.Len()
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(key, lim)

	return lim
}
