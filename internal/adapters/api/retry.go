package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// RetryConfig tunes exponential backoff for transient failures
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RetryableStatuses []int
	RetryableKinds    []string
	// JitterFraction adds up to this share of the delay at random (0.3 = 30%)
	JitterFraction float64
}

// DefaultRetryConfig returns 3 retries from 1s up to 30s with 30% jitter
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RetryableStatuses: []int{429, 500, 502, 503, 504},
		RetryableKinds:    []string{KindNetwork, KindTimeout, KindConnReset},
		JitterFraction:    0.3,
	}
}

// Validate checks the configuration is usable
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("delays must be non-negative")
	}
	if c.MaxDelay > 0 && c.BaseDelay > c.MaxDelay {
		return fmt.Errorf("base delay %s exceeds max delay %s", c.BaseDelay, c.MaxDelay)
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		return fmt.Errorf("jitter fraction must be within [0, 1]")
	}
	return nil
}

// Delay returns min(base * 2^attempt, max) before jitter
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return c.MaxDelay
	}
	delay := c.BaseDelay * time.Duration(1<<attempt)
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// IsRetryable classifies err against the configured statuses and kinds
func (c RetryConfig) IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueCleared) {
		return false
	}

	if apiErr, ok := AsAPIError(err); ok {
		for _, status := range c.RetryableStatuses {
			if apiErr.Status != 0 && apiErr.Status == status {
				return true
			}
		}
		for _, kind := range c.RetryableKinds {
			if apiErr.Kind == kind {
				return true
			}
		}
	}

	msg := err.Error()
	for _, kind := range c.RetryableKinds {
		if strings.Contains(msg, kind) {
			return true
		}
	}
	return false
}

// Retrier runs an operation with exponential backoff on retryable failures
type Retrier struct {
	cfg         RetryConfig
	clock       shared.Clock
	random      func() float64
	beforeRetry func(ctx context.Context) error
	recorder    MetricsRecorder
	logger      *zap.Logger
}

// NewRetrier creates a retrier. If clock is nil, uses RealClock.
func NewRetrier(cfg RetryConfig, clock shared.Clock, recorder MetricsRecorder, logger *zap.Logger) *Retrier {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		cfg:      cfg,
		clock:    clock,
		random:   rand.Float64,
		recorder: recorder,
		logger:   logger,
	}
}

// SetBeforeRetry installs a hook run before every retry attempt
func (r *Retrier) SetBeforeRetry(fn func(ctx context.Context) error) {
	r.beforeRetry = fn
}

// Config returns the active configuration
func (r *Retrier) Config() RetryConfig {
	return r.cfg
}

// Do invokes op until it succeeds, fails with a non-retryable error, or
// MaxRetries retries have been spent. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	for attempt := 0; ; attempt++ {
		if attempt > 0 && r.beforeRetry != nil {
			if hookErr := r.beforeRetry(ctx); hookErr != nil {
				return hookErr
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}

		if attempt >= r.cfg.MaxRetries || !r.cfg.IsRetryable(err) {
			return err
		}

		delay := r.backoff(attempt, err)
		r.recorder.RecordAPIRetry(retryReason(err))
		r.logger.Warn("request-retry",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.cfg.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if sleepErr := r.clock.SleepContext(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
}

// backoff computes the delay before the next attempt. A Retry-After hint
// replaces the computed delay and gets no jitter.
func (r *Retrier) backoff(attempt int, err error) time.Duration {
	if hint := RetryAfter(err); hint > 0 {
		if r.cfg.MaxDelay > 0 && hint > r.cfg.MaxDelay {
			return r.cfg.MaxDelay
		}
		return hint
	}

	delay := r.cfg.Delay(attempt)
	if r.cfg.JitterFraction > 0 {
		delay += time.Duration(float64(delay) * r.cfg.JitterFraction * r.random())
	}
	return delay
}

func retryReason(err error) string {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return "error"
	}
	if apiErr.Kind != "" {
		return strings.ToLower(apiErr.Kind)
	}
	return fmt.Sprintf("status_%d", apiErr.Status)
}

// WithRetry runs op under cfg using a one-off Retrier
func WithRetry(ctx context.Context, clock shared.Clock, cfg RetryConfig, op Operation) error {
	return NewRetrier(cfg, clock, nil, nil).Do(ctx, op)
}
