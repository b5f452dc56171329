package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New[string]()

	for _, v := range []string{"a", "b", "c"} {
		q.Push(v)
	}

	require.Equal(t, 3, q.Len())
	assert.Equal(t, "a", q.Pop())
	assert.Equal(t, "b", q.Pop())
	assert.Equal(t, "c", q.Pop())
	assert.True(t, q.Empty())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New[int]()

	got := make(chan int, 1)
	go func() {
		got <- q.Pop()
	}()

	select {
	case v := <-got:
		t.Fatalf("Pop returned %d on an empty queue", v)
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(42)

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestQueueTryPop(t *testing.T) {
	q := New[int]()

	_, found := q.TryPop()
	require.False(t, found)

	q.Push(7)
	v, found := q.TryPop()
	require.True(t, found)
	require.Equal(t, 7, v)
}

func TestQueuePopContextCancel(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.PopContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// A cancelled consumer must not swallow a later item.
	q.Push(1)
	v, found := q.TryPop()
	require.True(t, found)
	require.Equal(t, 1, v)
}

func TestQueueEachItemDeliveredOnce(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perProd   = 500
	)

	q := New[int]()

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)

	total := producers * perProd
	results := make(chan int, total)

	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v := q.Pop()
				if v < 0 {
					return
				}
				results <- v
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			for i := 0; i < perProd; i++ {
				q.Push(p*perProd + i)
			}
		}(p)
	}
	pwg.Wait()

	for i := 0; i < total; i++ {
		v := <-results
		mu.Lock()
		seen[v]++
		mu.Unlock()
	}

	for c := 0; c < consumers; c++ {
		q.Push(-1)
	}
	wg.Wait()

	require.Len(t, seen, total)
	for v, n := range seen {
		require.Equalf(t, 1, n, "item %d delivered %d times", v, n)
	}
}

func TestQueueMetrics(t *testing.T) {
	m := NewMetrics("test", "jobs")
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	q := New[int](WithMetrics(m), WithCapacity(4))
	q.Push(1)
	q.Push(2)
	q.Pop()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.popped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.depth))
}
