package config

import "time"

// APIConfig holds SpaceTraders API client configuration
type APIConfig struct {
	// Base URL for SpaceTraders API
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Request timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Retry          RetryConfig          `mapstructure:"retry"`
	Pagination     PaginationConfig     `mapstructure:"pagination"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum dispatches per second
	Requests float64 `mapstructure:"requests" validate:"gt=0"`
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay" validate:"gtefield=BaseDelay"`
	RetryableStatuses []int         `mapstructure:"retryable_statuses" validate:"dive,min=400,max=599"`
	RetryableKinds    []string      `mapstructure:"retryable_kinds"`

	// Share of the delay added at random (0.3 = up to 30%)
	Jitter float64 `mapstructure:"jitter" validate:"min=0,max=1"`

	// Spend a limiter token before every retry attempt
	PaceRetries *bool `mapstructure:"pace_retries"`
}

// PaceRetriesEnabled reports the pace_retries setting, true when unset
func (r RetryConfig) PaceRetriesEnabled() bool {
	return r.PaceRetries == nil || *r.PaceRetries
}

// PaginationConfig holds listing defaults
type PaginationConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1,max=20"`
}

// CircuitBreakerConfig controls the optional breaker around API dispatches
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures int           `mapstructure:"max_failures" validate:"min=1"`
	Timeout     time.Duration `mapstructure:"timeout"`
}
