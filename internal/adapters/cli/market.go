package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
)

// NewMarketCommand creates the market command
func NewMarketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Read market data",
	}

	cmd.AddCommand(newMarketScanCommand())
	return cmd
}

func newMarketScanCommand() *cobra.Command {
	var systemSymbol string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read every marketplace in a system",
		Long: `Read every marketplace waypoint in a system and list its trade goods.

Prices are only visible where one of your ships is present; other markets
list their goods without prices.

Example:
  skamkraft market scan --system X1-GZ7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemSymbol == "" {
				return fmt.Errorf("--system flag is required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				snapshots, err := a.session.Trading().ScanMarkets(ctx, strings.ToUpper(systemSymbol))
				if err != nil {
					return fmt.Errorf("market scan failed: %w", err)
				}
				if jsonOutput {
					return printJSON(out(cmd), snapshots)
				}
				displaySnapshots(cmd, snapshots)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&systemSymbol, "system", "", "System symbol (required)")
	return cmd
}

func displaySnapshots(cmd *cobra.Command, snapshots []domainTrading.MarketSnapshot) {
	if len(snapshots) == 0 {
		fmt.Fprintln(out(cmd), "No marketplaces found")
		return
	}

	w := newTable(out(cmd))
	fmt.Fprintln(w, "WAYPOINT\tGOOD\tBUY\tSELL\tVOLUME\tSUPPLY")
	for _, snap := range snapshots {
		if len(snap.Market.TradeGoods) == 0 {
			fmt.Fprintf(w, "%s\t(no prices: %d goods listed)\t\t\t\t\n", snap.Waypoint,
				len(snap.Market.Exports)+len(snap.Market.Imports)+len(snap.Market.Exchange))
			continue
		}
		for _, good := range snap.Market.TradeGoods {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				snap.Waypoint, good.Symbol, good.PurchasePrice, good.SellPrice, good.TradeVolume, good.Supply)
		}
	}
	w.Flush()
	fmt.Fprintf(out(cmd), "\n%d markets scanned\n", len(snapshots))
}
