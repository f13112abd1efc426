package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/skamkraft-go/internal/application/trading"
	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
)

// NewTradeCommand creates the trade command
func NewTradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Find and run trade routes",
		Long: `Rank buy-low sell-high routes between the markets of a system and run them.

Examples:
  skamkraft trade routes --system X1-GZ7 --max 5
  skamkraft trade run --ship AGENT-2 --system X1-GZ7 --margin 15
  skamkraft trade run --ship AGENT-2 --system X1-GZ7 --auto --runs 10`,
	}

	cmd.AddCommand(newTradeRoutesCommand())
	cmd.AddCommand(newTradeRunCommand())
	return cmd
}

func newTradeRoutesCommand() *cobra.Command {
	var (
		systemSymbol string
		maxRoutes    int
		minMargin    float64
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Scan a system and list the best routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemSymbol == "" {
				return fmt.Errorf("--system flag is required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				bot := a.session.Trading()
				if _, err := bot.ScanMarkets(ctx, strings.ToUpper(systemSymbol)); err != nil {
					return fmt.Errorf("market scan failed: %w", err)
				}
				routes := domainTrading.FilterByMargin(bot.Routes(maxRoutes), minMargin)
				if jsonOutput {
					return printJSON(out(cmd), routes)
				}
				displayRoutes(cmd, routes)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&systemSymbol, "system", "", "System symbol (required)")
	cmd.Flags().IntVar(&maxRoutes, "max", 10, "Routes to list")
	cmd.Flags().Float64Var(&minMargin, "margin", 0, "Minimum profit margin in percent")
	return cmd
}

func displayRoutes(cmd *cobra.Command, routes []domainTrading.TradeRoute) {
	if len(routes) == 0 {
		fmt.Fprintln(out(cmd), "No profitable routes found")
		return
	}

	w := newTable(out(cmd))
	fmt.Fprintln(w, "GOOD\tBUY AT\tSELL AT\tBUY\tSELL\tPROFIT/U\tMARGIN\tVOLUME")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.1f%%\t%d\n",
			r.Good, r.BuyWaypoint, r.SellWaypoint, r.BuyPrice, r.SellPrice, r.ProfitPerUnit, r.ProfitMargin, r.TradeVolume)
	}
	w.Flush()
}

func newTradeRunCommand() *cobra.Command {
	var (
		shipSymbol   string
		systemSymbol string
		minMargin    float64
		maxRoutes    int
		interval     time.Duration
		auto         bool
		runs         int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the best route, once or in a loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" || systemSymbol == "" {
				return fmt.Errorf("--ship and --system flags are required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				tradingCfg := a.cfg.Trading
				opts := trading.AutoTradeOptions{
					MinProfitMargin: tradingCfg.MinProfitMargin,
					MaxTradesPerRun: tradingCfg.MaxTradesPerRun,
					Interval:        tradingCfg.Interval,
					MaxRuns:         runs,
				}
				if cmd.Flags().Changed("margin") {
					opts.MinProfitMargin = minMargin
				}
				if cmd.Flags().Changed("max") {
					opts.MaxTradesPerRun = maxRoutes
				}
				if cmd.Flags().Changed("interval") {
					opts.Interval = interval
				}

				system := strings.ToUpper(systemSymbol)
				bot := a.session.Trading()
				if !auto {
					result, err := bot.RunOnce(ctx, shipSymbol, system, opts)
					if errors.Is(err, domainTrading.ErrNoProfitableRoute) {
						fmt.Fprintf(out(cmd), "No route in %s meets a %.1f%% margin\n", system, opts.MinProfitMargin)
						return nil
					}
					if err != nil {
						return fmt.Errorf("trade failed: %w", err)
					}
					if jsonOutput {
						return printJSON(out(cmd), result)
					}
					fmt.Fprintf(out(cmd), "✓ Sold %d units for a profit of %s in %s\n",
						result.Units, formatAmount(result.Profit), result.Duration.Round(time.Second))
					return nil
				}

				if err := bot.StartAutoTrading(ctx, shipSymbol, system, opts); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Auto-trading %s in %s every %s (Ctrl+C to stop)\n", shipSymbol, system, opts.Interval)
				if err := bot.Wait(ctx); err != nil {
					bot.StopAutoTrading()
				}
				displayTradeStats(cmd, bot.Stats())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Trading ship symbol (required)")
	cmd.Flags().StringVar(&systemSymbol, "system", "", "System to trade in (required)")
	cmd.Flags().Float64Var(&minMargin, "margin", 0, "Minimum profit margin in percent (default: trading.min_profit_margin)")
	cmd.Flags().IntVar(&maxRoutes, "max", 0, "Routes considered per run (default: trading.max_trades_per_run)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Pause between runs (default: trading.interval)")
	cmd.Flags().BoolVar(&auto, "auto", false, "Keep trading until stopped")
	cmd.Flags().IntVar(&runs, "runs", 0, "Stop auto-trading after this many runs")
	return cmd
}

func displayTradeStats(cmd *cobra.Command, stats domainTrading.Stats) {
	if jsonOutput {
		_ = printJSON(out(cmd), stats)
		return
	}
	w := out(cmd)
	fmt.Fprintf(w, "\nTrades:        %d (%d successful, %.0f%%)\n", stats.TotalTrades, stats.SuccessfulTrades, stats.SuccessRate)
	fmt.Fprintf(w, "Total profit:  %s\n", formatAmount(stats.TotalProfit))
	fmt.Fprintf(w, "Average:       %s\n", formatAmount(stats.AverageProfit))
	fmt.Fprintf(w, "Markets:       %d\n", stats.MarketsScanned)
}
