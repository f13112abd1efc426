package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/metrics"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
	"github.com/andrescamacho/skamkraft-go/internal/application/session"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/config"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/database"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/logging"
)

// app is everything one command invocation runs on
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB
	session    *session.Session
	collectors *metrics.Collectors
}

type appOptions struct {
	// metrics registers the Prometheus collectors when metrics.enabled is set
	metrics bool
}

// openApp loads configuration, opens the durable store and builds a session
func openApp(opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	deps := session.Deps{
		Durable: persistence.NewGormKeyValueStore(db),
		Logger:  logger,
	}
	if opts.metrics && cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collectors, err := metrics.NewCollectors()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		a.collectors = collectors
		deps.Recorders = session.Recorders{
			API:     collectors.API,
			Cache:   collectors.Cache,
			Fleet:   collectors.Fleet,
			Trading: collectors.Trading,
		}
	}

	sess, err := session.New(cfg, deps)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	a.session = sess
	return a, nil
}

// authenticate loads the agent and fleet for the saved token
func (a *app) authenticate(ctx context.Context) error {
	if _, err := a.session.Initialize(ctx); err != nil {
		if errors.Is(err, api.ErrAuthRequired) {
			return fmt.Errorf("not logged in: run 'skamkraft login --token <token> --remember' first")
		}
		return err
	}
	return nil
}

// Close stops the session and releases the database
func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("database-close-failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// commandContext is cancelled on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp opens the app, authenticates unless anonymous is set, and runs fn
func withApp(anonymous bool, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if !anonymous {
		if err := a.authenticate(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// formatCredits formats credits with a thousands separator
func formatCredits(credits int64) string {
	return addThousandsSeparator(credits) + " cr"
}

// formatAmount formats a signed amount with an explicit sign
func formatAmount(amount int64) string {
	if amount > 0 {
		return "+" + addThousandsSeparator(amount)
	}
	return addThousandsSeparator(amount)
}

func addThousandsSeparator(n int64) string {
	if n < 0 {
		return "-" + addThousandsSeparator(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}
	return string(result)
}
