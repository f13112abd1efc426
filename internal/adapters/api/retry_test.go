package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
)

func noJitterConfig(maxRetries int) api.RetryConfig {
	cfg := api.DefaultRetryConfig()
	cfg.MaxRetries = maxRetries
	cfg.JitterFraction = 0
	return cfg
}

func TestRetrier_ExhaustsAndReturnsLastError(t *testing.T) {
	// Arrange
	clock := newMockClock()
	retrier := api.NewRetrier(noJitterConfig(3), clock, nil, nil)
	attempts := 0
	var last error

	// Act
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		last = &api.APIError{Status: 503, Message: "unavailable"}
		return last
	})

	// Assert
	assert.Equal(t, 4, attempts)
	assert.Same(t, last, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestRetrier_NonRetryableFailsOnFirstAttempt(t *testing.T) {
	// Arrange
	clock := newMockClock()
	retrier := api.NewRetrier(noJitterConfig(3), clock, nil, nil)
	attempts := 0

	// Act
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return &api.APIError{Status: 400, Code: 4214, Message: "ship in transit"}
	})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, api.HasCode(err, 4214))
	assert.Empty(t, clock.Sleeps())
}

func TestRetrier_StopsAtFirstSuccess(t *testing.T) {
	// Arrange
	clock := newMockClock()
	retrier := api.NewRetrier(noJitterConfig(5), clock, nil, nil)
	attempts := 0

	// Act
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return &api.APIError{Kind: api.KindNetwork, Message: "dial tcp: refused"}
		}
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())
}

func TestRetrier_HonorsRetryAfterCappedAtMaxDelay(t *testing.T) {
	// Arrange
	clock := newMockClock()
	cfg := noJitterConfig(2)
	cfg.MaxDelay = 5 * time.Second
	retrier := api.NewRetrier(cfg, clock, nil, nil)
	attempts := 0

	// Act
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		switch attempts {
		case 1:
			return &api.APIError{Status: 429, RetryAfter: 1500 * time.Millisecond}
		case 2:
			return &api.APIError{Status: 429, RetryAfter: time.Minute}
		}
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 5 * time.Second}, clock.Sleeps())
}

func TestRetrier_RunsHookBeforeEachRetry(t *testing.T) {
	// Arrange
	retrier := api.NewRetrier(noJitterConfig(2), newMockClock(), nil, nil)
	hookCalls := 0
	retrier.SetBeforeRetry(func(ctx context.Context) error {
		hookCalls++
		return nil
	})

	// Act
	_ = retrier.Do(context.Background(), func(ctx context.Context) error {
		return &api.APIError{Status: 500}
	})

	// Assert
	assert.Equal(t, 2, hookCalls)
}

func TestRetrier_CancelledContextIsNotRetried(t *testing.T) {
	// Arrange
	retrier := api.NewRetrier(noJitterConfig(3), newMockClock(), nil, nil)
	attempts := 0

	// Act
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return context.Canceled
	})

	// Assert
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, attempts)
}

func TestRetryConfig_DelayGrowsAndCaps(t *testing.T) {
	cfg := api.RetryConfig{BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 8*time.Second, cfg.Delay(3))
	assert.Equal(t, 10*time.Second, cfg.Delay(4))
	assert.Equal(t, 10*time.Second, cfg.Delay(40))
}

func TestRetryConfig_Classification(t *testing.T) {
	cfg := api.DefaultRetryConfig()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &api.APIError{Status: 429}, true},
		{"bad gateway", &api.APIError{Status: 502}, true},
		{"timeout kind", &api.APIError{Kind: api.KindTimeout}, true},
		{"reset in message", errors.New("read: ECONNRESET"), true},
		{"bad request", &api.APIError{Status: 400, Code: 4000}, false},
		{"unauthorized", &api.APIError{Status: 401}, false},
		{"queue cleared", api.ErrQueueCleared, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.IsRetryable(tt.err))
		})
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	assert.NoError(t, api.DefaultRetryConfig().Validate())

	bad := api.DefaultRetryConfig()
	bad.BaseDelay = time.Minute
	assert.Error(t, bad.Validate())

	bad = api.DefaultRetryConfig()
	bad.JitterFraction = 2
	assert.Error(t, bad.Validate())
}
