package api_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

func newMockClock() *shared.MockClock {
	return shared.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestRateLimiter_SpacesDispatchStarts(t *testing.T) {
	for _, rps := range []float64{2, 4} {
		// Arrange
		clock := newMockClock()
		limiter := api.NewRateLimiter(rps, clock, nil, nil)
		ctx := context.Background()

		var mu sync.Mutex
		var starts []time.Time
		var results []<-chan error
		for i := 0; i < 5; i++ {
			results = append(results, limiter.Submit(ctx, func(ctx context.Context) error {
				mu.Lock()
				starts = append(starts, clock.Now())
				mu.Unlock()
				return nil
			}))
		}

		// Act
		for _, done := range results {
			require.NoError(t, <-done)
		}

		// Assert
		require.Len(t, starts, 5)
		minInterval := time.Duration(float64(time.Second) / rps)
		assert.Equal(t, minInterval, limiter.MinInterval())
		for i := 1; i < len(starts); i++ {
			assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), minInterval, "rps=%v dispatch %d", rps, i)
		}
	}
}

func TestRateLimiter_DispatchesInArrivalOrder(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(10, newMockClock(), nil, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	record := func(name string, work time.Duration) api.Operation {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			time.Sleep(work)
			return nil
		}
	}

	// Act - A is the slowest but still goes first
	a := limiter.Submit(ctx, record("A", 20*time.Millisecond))
	b := limiter.Submit(ctx, record("B", 0))
	c := limiter.Submit(ctx, record("C", 0))
	require.NoError(t, <-a)
	require.NoError(t, <-b)
	require.NoError(t, <-c)

	// Assert
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestRateLimiter_ReturnsOperationErrorUnchanged(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(10, newMockClock(), nil, nil)
	apiErr := &api.APIError{Status: 400, Code: 4204, Message: "bad"}

	// Act
	err := limiter.Enqueue(context.Background(), func(ctx context.Context) error {
		return apiErr
	})

	// Assert
	assert.Same(t, apiErr, err)
}

func TestRateLimiter_ClearQueueRejectsPendingOnly(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(10, newMockClock(), nil, nil)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	running := limiter.Submit(ctx, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	pending1 := limiter.Submit(ctx, func(ctx context.Context) error { return nil })
	pending2 := limiter.Submit(ctx, func(ctx context.Context) error { return nil })

	// Act
	rejected := limiter.ClearQueue()
	close(release)

	// Assert
	assert.Equal(t, 2, rejected)
	assert.ErrorIs(t, <-pending1, api.ErrQueueCleared)
	assert.ErrorIs(t, <-pending2, api.ErrQueueCleared)
	assert.NoError(t, <-running)
	assert.Equal(t, 0, limiter.Status().QueueLength)
}

func TestRateLimiter_SkipsCancelledItems(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(10, newMockClock(), nil, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	blocker := limiter.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	cancelled := limiter.Submit(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})

	// Act
	cancel()
	close(release)

	// Assert
	require.NoError(t, <-blocker)
	assert.True(t, errors.Is(<-cancelled, context.Canceled))
	assert.False(t, ran)
}

func TestRateLimiter_EnqueueReturnsWhenContextEndsWhilePending(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(100, nil, nil, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	blocker := limiter.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := make(chan struct{}, 1)

	// Act
	begin := time.Now()
	err := limiter.Enqueue(ctx, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})
	elapsed := time.Since(begin)

	// Assert
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, 0, limiter.Status().QueueLength)

	close(release)
	require.NoError(t, <-blocker)
	select {
	case <-ran:
		t.Fatal("withdrawn operation ran")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRateLimiter_EnqueueWaitsForRunningOperation(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(100, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	opErr := errors.New("stopped by caller")

	// Act
	err := limiter.Enqueue(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return opErr
	})

	// Assert
	assert.Same(t, opErr, err)
}

func TestRateLimiter_StatusAndListeners(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(2, newMockClock(), nil, nil)
	var mu sync.Mutex
	var seen []api.LimiterStatus
	unsubscribe := limiter.Subscribe(func(s api.LimiterStatus) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	limiter.Subscribe(func(api.LimiterStatus) { panic("listener failure") })

	// Act
	require.NoError(t, limiter.Enqueue(context.Background(), func(ctx context.Context) error { return nil }))
	unsubscribe()

	// Assert
	status := limiter.Status()
	assert.Equal(t, int64(1), status.TotalRequests)
	assert.Equal(t, 2.0, status.RequestsPerSecond)
	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, seen)
}

func TestRateLimiter_RecoversPanickingOperation(t *testing.T) {
	// Arrange
	limiter := api.NewRateLimiter(10, newMockClock(), nil, nil)

	// Act
	err := limiter.Enqueue(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	next := limiter.Enqueue(context.Background(), func(ctx context.Context) error { return nil })

	// Assert
	assert.ErrorContains(t, err, "boom")
	assert.NoError(t, next)
}
