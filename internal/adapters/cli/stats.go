package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
)

// NewStatsCommand creates the stats command with subcommands
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Profit and transaction statistics",
		Long: `Report on the recorded purchases, sales, refuels, ship purchases, contract
payments and extractions. Statistics are kept in the database and survive
restarts until 'skamkraft logout' or 'skamkraft stats reset'.

Examples:
  skamkraft stats summary
  skamkraft stats export --output stats.json
  skamkraft stats import stats.json
  skamkraft stats reset`,
	}

	cmd.AddCommand(newStatsSummaryCommand())
	cmd.AddCommand(newStatsExportCommand())
	cmd.AddCommand(newStatsImportCommand())
	cmd.AddCommand(newStatsResetCommand())

	return cmd
}

func newStatsSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, session figures, top goods and the last seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				summary := a.session.Ledger().Summary()
				if jsonOutput {
					return printJSON(out(cmd), summary)
				}
				displaySummary(out(cmd), summary)
				return nil
			})
		},
	}
}

func displaySummary(w io.Writer, s domainLedger.Summary) {
	fmt.Fprintln(w, "STATISTICS")
	fmt.Fprintln(w, "==========")
	fmt.Fprintf(w, "Start credits:  %s\n", formatCredits(s.StartCredits))
	fmt.Fprintf(w, "Transactions:   %d\n", s.TotalTransactions)
	fmt.Fprintf(w, "Revenue:        %s\n", formatCredits(s.TotalRevenue))
	fmt.Fprintf(w, "Expenses:       %s\n", formatCredits(s.TotalExpenses))
	fmt.Fprintf(w, "Profit:         %s\n", formatAmount(s.TotalProfit))

	fmt.Fprintln(w, "\nThis session")
	fmt.Fprintf(w, "  Duration:     %s\n", s.Session.Duration)
	fmt.Fprintf(w, "  Transactions: %d\n", s.Session.Transactions)
	fmt.Fprintf(w, "  Profit:       %s (%s/h)\n", formatAmount(s.Session.Profit), formatAmount(s.Session.ProfitPerHour))

	if len(s.TopGoods) > 0 {
		fmt.Fprintln(w, "\nTop goods")
		table := newTable(w)
		fmt.Fprintln(table, "  GOOD\tBOUGHT\tSOLD\tVOLUME\tPROFIT")
		for _, g := range s.TopGoods {
			fmt.Fprintf(table, "  %s\t%s\t%s\t%d\t%s\n",
				g.Good, addThousandsSeparator(g.Bought), addThousandsSeparator(g.Sold), g.Volume, formatAmount(g.Profit))
		}
		table.Flush()
	}

	if len(s.Daily) > 0 {
		fmt.Fprintln(w, "\nDaily")
		table := newTable(w)
		fmt.Fprintln(table, "  DATE\tREVENUE\tEXPENSES\tPROFIT\tTX")
		for _, d := range s.Daily {
			fmt.Fprintf(table, "  %s\t%s\t%s\t%s\t%d\n",
				d.Date, addThousandsSeparator(d.Revenue), addThousandsSeparator(d.Expenses), formatAmount(d.Profit), d.Transactions)
		}
		table.Flush()
	}
}

func newStatsExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the statistics document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				data, err := a.session.Ledger().ExportJSON()
				if err != nil {
					return fmt.Errorf("failed to export statistics: %w", err)
				}
				if output == "" || output == "-" {
					_, err = fmt.Fprintln(out(cmd), string(data))
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(out(cmd), "✓ Exported %d transactions to %s\n", len(a.session.Ledger().Transactions()), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default: stdout)")
	return cmd
}

func newStatsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the statistics with an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withApp(true, func(ctx context.Context, a *app) error {
				if err := a.session.Ledger().ImportJSON(ctx, raw); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "✓ Imported %d transactions\n", len(a.session.Ledger().Transactions()))
				return nil
			})
		},
	}
}

func newStatsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every recorded transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				if err := a.session.Ledger().Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), "✓ Statistics reset")
				return nil
			})
		},
	}
}
