package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/httpserver"
	"github.com/andrescamacho/skamkraft-go/internal/adapters/metrics"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/pidfile"
)

const (
	shutdownTimeout  = 15 * time.Second
	terminateTimeout = 10 * time.Second
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		address string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session behind the status and task HTTP API",
		Long: `Log in with the saved token and keep the session running behind an HTTP API.

Endpoints:
  GET    /health          liveness
  GET    /ready           503 until the agent and fleet are loaded
  GET    /metrics         Prometheus metrics (metrics.enabled)
  GET    /status          agent, client, fleet and trading status
  GET    /tasks           active, pending and finished tasks
  POST   /tasks           queue a NAVIGATE, MINE or CONTRACT_DELIVERY task
  DELETE /tasks/{id}      cancel a pending task
  GET    /routes          ranked trade routes from scanned markets
  GET    /events          WebSocket stream of fleet events

Only one server runs per server.pid_file. Use --force to stop a running one.

Examples:
  skamkraft serve
  skamkraft serve --address 127.0.0.1:9090 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(appOptions{metrics: true})
			if err != nil {
				return err
			}
			defer a.Close()

			pf := pidfile.New(a.cfg.Server.PIDFile)
			if err := pf.Acquire(); err != nil {
				if !errors.Is(err, pidfile.ErrAlreadyRunning) || !force {
					return fmt.Errorf("%w\nUse --force to stop the running server", err)
				}
				a.logger.Warn("stopping-existing-server", zap.String("pid_file", pf.Path()))
				if err := pf.Terminate(terminateTimeout); err != nil {
					return fmt.Errorf("failed to stop running server: %w", err)
				}
				if err := pf.Acquire(); err != nil {
					return fmt.Errorf("failed to acquire PID file after stopping server: %w", err)
				}
			}
			defer func() {
				if err := pf.Release(); err != nil {
					a.logger.Warn("pid-file-release-failed", zap.Error(err))
				}
			}()

			ctx, cancel := commandContext()
			defer cancel()

			serverCfg := a.cfg.Server
			if cmd.Flags().Changed("address") {
				serverCfg.Address = address
			}

			var registry *prometheus.Registry
			if a.collectors != nil {
				registry = metrics.GetRegistry()
			}

			srv := httpserver.New(httpserver.Config{
				Address:        serverCfg.Address,
				ReadTimeout:    serverCfg.ReadTimeout,
				WriteTimeout:   serverCfg.WriteTimeout,
				RequestTimeout: serverCfg.RequestTimeout,
				EventBuffer:    serverCfg.EventBuffer,
				MetricsPath:    a.cfg.Metrics.Path,
				Session:        a.session,
				Registry:       registry,
				Logger:         a.logger,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			if err := a.authenticate(ctx); err != nil {
				shutdown(a.logger, srv)
				return err
			}
			srv.SetReady(true)

			agent, _ := a.session.Agent()
			fmt.Fprintf(out(cmd), "✓ Serving %s on http://%s (Ctrl+C to stop)\n", agent.Symbol, serverCfg.Address)

			select {
			case <-ctx.Done():
				a.logger.Info("shutdown-signal-received")
			case err := <-errCh:
				return err
			}

			shutdown(a.logger, srv)
			fmt.Fprintln(out(cmd), "✓ Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (default: server.address)")
	cmd.Flags().BoolVar(&force, "force", false, "Stop a running server first")
	return cmd
}

func shutdown(logger *zap.Logger, srv *httpserver.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http-server-shutdown-failed", zap.Error(err))
	}
}
