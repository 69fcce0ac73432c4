package harness

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl/bingo-sub000/pkg/builder"
	"github.com/hl/bingo-sub000/pkg/engine"
	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/value"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.NewDefault()
	rule, err := builder.NewRule(1, "active status",
		builder.WhenEqual("status", value.String("active")),
		builder.WithLogAction("matched"),
	).Build()
	require.NoError(t, err)
	require.NoError(t, eng.AddRule(rule))
	return eng
}

func drainResults(results <-chan Result) []Result {
	var out []Result
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestHarness_SubmitAndRun_CommitsAllFacts(t *testing.T) {
	eng := newTestEngine(t)
	h := New(eng, fact.NewSafeStore(), 4, 32, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results := make(chan Result, 16)
	var runErr error
	done := make(chan struct{})
	go func() {
		runErr = h.Run(ctx, results)
		close(done)
	}()

	for i := uint64(1); i <= 10; i++ {
		f := fact.NewFact(fact.ID(i), map[string]value.Value{"status": value.String("active")})
		require.NoError(t, h.Submit(ctx, f))
	}
	h.Close()

	collected := drainResults(results)
	<-done

	require.NoError(t, runErr)
	assert.Len(t, collected, 10)
	for _, r := range collected {
		assert.NoError(t, r.Err)
	}
}

func TestHarness_ConcurrentProducers(t *testing.T) {
	eng := newTestEngine(t)
	h := New(eng, fact.NewSafeStore(), 4, 64, 8)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results := make(chan Result, 64)
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx, results)
		close(done)
	}()

	var wg sync.WaitGroup
	for p := 0; p < 5; p++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				id := fact.ID(producer*100 + i + 1)
				f := fact.NewFact(id, map[string]value.Value{"status": value.String("active")})
				_ = h.Submit(ctx, f)
			}
		}(p)
	}
	wg.Wait()
	h.Close()

	collected := drainResults(results)
	<-done

	assert.Len(t, collected, 50)
}

func TestHarness_InvalidFactReportsError(t *testing.T) {
	eng := newTestEngine(t)
	h := New(eng, fact.NewSafeStore(), 2, 8, 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	results := make(chan Result, 4)
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx, results)
		close(done)
	}()

	require.NoError(t, h.Submit(ctx, &fact.Fact{ID: 0}))
	h.Close()

	collected := drainResults(results)
	<-done

	require.Len(t, collected, 1)
	assert.Error(t, collected[0].Err)
}

func TestHarness_CancelledContextStopsRun(t *testing.T) {
	eng := newTestEngine(t)
	h := New(eng, fact.NewSafeStore(), 2, 8, 2)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan Result, 4)
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx, results)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestQueue_PushPopSteal(t *testing.T) {
	q := NewQueue[int](2)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, 1))
	assert.True(t, q.TryPush(2))
	assert.False(t, q.TryPush(3))

	v, ok := q.Steal()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Steal()
	assert.False(t, ok)
}

func TestQueue_CloseDrainsBufferedItems(t *testing.T) {
	q := NewQueue[int](4)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, 1))
	require.NoError(t, q.Push(ctx, 2))
	q.Close()

	v, ok := q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop(ctx)
	assert.False(t, ok)
}
