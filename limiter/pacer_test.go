package limiter

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jitter absorbs timer and scheduler imprecision.
const jitter = 5 * time.Millisecond

func TestNewPacerInvalidRate(t *testing.T) {
	for _, cps := range []int{0, -5} {
		p, err := NewPacer(cps)
		require.ErrorIs(t, err, ErrInvalidRate)
		require.Nil(t, p)
	}
}

func TestPacerMinDelay(t *testing.T) {
	tests := []struct {
		cps  int
		want time.Duration
	}{
		{1, time.Second},
		{3, 333 * time.Millisecond},
		{5, 200 * time.Millisecond},
		{1000, time.Millisecond},
		{1001, 0},
	}

	for _, tt := range tests {
		p, err := NewPacer(tt.cps)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, p.MinDelay(), "cps=%d", tt.cps)
	}
}

func TestPacerSpacingSequential(t *testing.T) {
	p, err := NewPacer(5)
	require.NoError(t, err)

	const n = 4
	stamps := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		p.Acquire()
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < n; i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqualf(t, gap, 200*time.Millisecond-jitter, "gap %d was %s", i, gap)
	}
}

func TestPacerSpacingConcurrent(t *testing.T) {
	p, err := NewPacer(20) // 50ms
	require.NoError(t, err)

	const callers = 6

	var (
		mu     sync.Mutex
		stamps []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Acquire()
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	total := stamps[len(stamps)-1].Sub(stamps[0])
	assert.GreaterOrEqual(t, total, time.Duration(callers-1)*(50*time.Millisecond)-jitter)
}

func TestPacerFirstCallWaitsFromConstruction(t *testing.T) {
	p, err := NewPacer(10) // 100ms
	require.NoError(t, err)

	start := time.Now()
	p.Acquire()
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond-jitter)

	q, err := NewPacer(10)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	// The delay since construction has already passed.
	start = time.Now()
	q.Acquire()
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerZeroDelayWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p, err := NewPacer(5000, WithLogger(logger))
	require.NoError(t, err)
	require.Zero(t, p.MinDelay())
	assert.Contains(t, buf.String(), "will not be throttled")

	start := time.Now()
	for i := 0; i < 100; i++ {
		p.Acquire()
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerAcquireContextCancelled(t *testing.T) {
	p, err := NewPacer(1)
	require.NoError(t, err)

	// Pretend construction happened a second ago.
	p.last = time.Now().Add(-time.Second)
	require.NoError(t, p.AcquireContext(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.AcquireContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// The aborted call did not count, so the next wait is still measured
	// from the first permitted call.
	last := p.last
	require.NoError(t, p.AcquireContext(context.Background()))
	assert.GreaterOrEqual(t, p.last.Sub(last), time.Second-jitter)
}
