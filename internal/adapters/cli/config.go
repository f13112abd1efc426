package cli

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/config"
)

const redacted = "****"

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, config.yaml and ST_* environment
variables are applied. Database credentials are masked.

Examples:
  skamkraft config show
  skamkraft config show --json
  ST_API_RATE_LIMIT_REQUESTS=1 skamkraft config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			masked := maskSecrets(*cfg)
			if jsonOutput {
				return printJSON(out(cmd), masked)
			}
			displayConfig(out(cmd), &masked)
			return nil
		},
	}
}

// maskSecrets returns a copy with the database password hidden
func maskSecrets(cfg config.Config) config.Config {
	if cfg.Database.Password != "" {
		cfg.Database.Password = redacted
	}
	if cfg.Database.URL != "" {
		if u, err := url.Parse(cfg.Database.URL); err == nil {
			cfg.Database.URL = u.Redacted()
		} else {
			cfg.Database.URL = redacted
		}
	}
	return cfg
}

func displayConfig(w io.Writer, cfg *config.Config) {
	table := newTable(w)

	section := func(name string) { fmt.Fprintf(table, "\n[%s]\t\n", name) }
	field := func(key string, value any) { fmt.Fprintf(table, "  %s\t%v\n", key, value) }

	section("api")
	field("base_url", cfg.API.BaseURL)
	field("timeout", cfg.API.Timeout)
	field("rate_limit.requests", cfg.API.RateLimit.Requests)
	field("retry.max_retries", cfg.API.Retry.MaxRetries)
	field("retry.base_delay", cfg.API.Retry.BaseDelay)
	field("retry.max_delay", cfg.API.Retry.MaxDelay)
	field("retry.jitter", cfg.API.Retry.Jitter)
	field("retry.retryable_statuses", joinInts(cfg.API.Retry.RetryableStatuses))
	field("retry.retryable_kinds", strings.Join(cfg.API.Retry.RetryableKinds, ","))
	field("retry.pace_retries", cfg.API.Retry.PaceRetriesEnabled())
	field("pagination.page_size", cfg.API.Pagination.PageSize)
	field("circuit_breaker.enabled", cfg.API.CircuitBreaker.Enabled)
	if cfg.API.CircuitBreaker.Enabled {
		field("circuit_breaker.max_failures", cfg.API.CircuitBreaker.MaxFailures)
		field("circuit_breaker.timeout", cfg.API.CircuitBreaker.Timeout)
	}

	section("cache")
	field("cleanup_interval", cfg.Cache.CleanupInterval)
	categories := make([]string, 0, len(cfg.Cache.TTL))
	for category := range cfg.Cache.TTL {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		field("ttl."+category, cfg.Cache.TTL[category])
	}

	section("fleet")
	field("arrival_margin", cfg.Fleet.ArrivalMargin)
	field("cooldown_margin", cfg.Fleet.CooldownMargin)
	field("cooldown_retry_delay", cfg.Fleet.CooldownRetryDelay)
	field("history_size", cfg.Fleet.HistorySize)

	section("trading")
	field("min_profit_margin", cfg.Trading.MinProfitMargin)
	field("max_trades_per_run", cfg.Trading.MaxTradesPerRun)
	field("interval", cfg.Trading.Interval)
	field("history_size", cfg.Trading.HistorySize)

	section("database")
	field("type", cfg.Database.Type)
	if cfg.Database.Type == "sqlite" {
		field("path", cfg.Database.Path)
	} else if cfg.Database.URL != "" {
		field("url", cfg.Database.URL)
	} else {
		field("host", cfg.Database.Host)
		field("port", cfg.Database.Port)
		field("user", cfg.Database.User)
		field("password", cfg.Database.Password)
		field("name", cfg.Database.Name)
		field("sslmode", cfg.Database.SSLMode)
	}

	section("logging")
	field("level", cfg.Logging.Level)
	field("format", cfg.Logging.Format)
	field("output", cfg.Logging.Output)
	if cfg.Logging.Output == "file" {
		field("file_path", cfg.Logging.FilePath)
	}

	section("server")
	field("address", cfg.Server.Address)
	field("request_timeout", cfg.Server.RequestTimeout)
	field("event_buffer", cfg.Server.EventBuffer)
	field("pid_file", cfg.Server.PIDFile)

	section("metrics")
	field("enabled", cfg.Metrics.Enabled)
	field("path", cfg.Metrics.Path)

	table.Flush()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
