package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
)

// NewFleetCommand creates the fleet command
func NewFleetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Inspect the managed fleet",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Summarise ships by role and navigation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				status := a.session.Fleet().Status()
				if jsonOutput {
					return printJSON(out(cmd), status)
				}
				displayFleetStatus(cmd, status)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Refresh every ship snapshot from the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				// Initialize already synced once; go around the cache for fresh state
				a.session.Cache().Clear()
				status, err := a.session.Fleet().SyncFleet(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "✓ Synced %d ships\n", status.TotalShips)
				return nil
			})
		},
	})

	return cmd
}

func displayFleetStatus(cmd *cobra.Command, status domainFleet.Status) {
	w := out(cmd)
	fmt.Fprintf(w, "Ships:          %d\n", status.TotalShips)
	fmt.Fprintf(w, "Idle:           %d\n", status.Idle)
	fmt.Fprintf(w, "Docked:         %d\n", status.ByStatus.Docked)
	fmt.Fprintf(w, "In orbit:       %d\n", status.ByStatus.InOrbit)
	fmt.Fprintf(w, "In transit:     %d\n", status.ByStatus.InTransit)
	fmt.Fprintf(w, "Pending tasks:  %d\n", status.PendingTasks)
	fmt.Fprintf(w, "Active tasks:   %d\n", status.ActiveTasks)

	if len(status.ByRole) == 0 {
		return
	}
	roles := make([]string, 0, len(status.ByRole))
	for role := range status.ByRole {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	fmt.Fprintln(w, "\nBy role:")
	table := newTable(w)
	for _, role := range roles {
		fmt.Fprintf(table, "  %s\t%d\n", role, status.ByRole[domainFleet.ShipRole(role)])
	}
	table.Flush()
}
