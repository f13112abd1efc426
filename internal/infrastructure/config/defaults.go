package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	setAPIDefaults(&cfg.API)

	// Cache defaults; per-category TTLs left unset use the cache's own table
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = 5 * time.Minute
	}

	// Fleet defaults
	if cfg.Fleet.ArrivalMargin == 0 {
		cfg.Fleet.ArrivalMargin = time.Second
	}
	if cfg.Fleet.CooldownMargin == 0 {
		cfg.Fleet.CooldownMargin = 500 * time.Millisecond
	}
	if cfg.Fleet.CooldownRetryDelay == 0 {
		cfg.Fleet.CooldownRetryDelay = 5 * time.Second
	}
	if cfg.Fleet.HistorySize == 0 {
		cfg.Fleet.HistorySize = 100
	}

	// Trading defaults
	if cfg.Trading.MinProfitMargin == 0 {
		cfg.Trading.MinProfitMargin = 10
	}
	if cfg.Trading.MaxTradesPerRun == 0 {
		cfg.Trading.MaxTradesPerRun = 10
	}
	if cfg.Trading.Interval == 0 {
		cfg.Trading.Interval = 60 * time.Second
	}
	if cfg.Trading.HistorySize == 0 {
		cfg.Trading.HistorySize = 50
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "skamkraft.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "skamkraft"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "skamkraft"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost:8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.EventBuffer == 0 {
		cfg.Server.EventBuffer = 64
	}
	if cfg.Server.PIDFile == "" {
		cfg.Server.PIDFile = "skamkraft.pid"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func setAPIDefaults(api *APIConfig) {
	if api.BaseURL == "" {
		api.BaseURL = "https://api.spacetraders.io/v2"
	}
	if api.Timeout == 0 {
		api.Timeout = 30 * time.Second
	}
	if api.RateLimit.Requests == 0 {
		api.RateLimit.Requests = 2
	}
	if api.Retry.MaxRetries == 0 {
		api.Retry.MaxRetries = 3
	}
	if api.Retry.BaseDelay == 0 {
		api.Retry.BaseDelay = time.Second
	}
	if api.Retry.MaxDelay == 0 {
		api.Retry.MaxDelay = 30 * time.Second
	}
	if len(api.Retry.RetryableStatuses) == 0 {
		api.Retry.RetryableStatuses = []int{429, 500, 502, 503, 504}
	}
	if len(api.Retry.RetryableKinds) == 0 {
		api.Retry.RetryableKinds = []string{"NETWORK_ERROR", "TIMEOUT", "ECONNRESET"}
	}
	if api.Retry.Jitter == 0 {
		api.Retry.Jitter = 0.3
	}
	if api.Pagination.PageSize == 0 {
		api.Pagination.PageSize = 20
	}
	if api.CircuitBreaker.MaxFailures == 0 {
		api.CircuitBreaker.MaxFailures = 5
	}
	if api.CircuitBreaker.Timeout == 0 {
		api.CircuitBreaker.Timeout = 30 * time.Second
	}
}
