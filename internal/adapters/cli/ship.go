package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
)

// NewShipsCommand creates the ships command
func NewShipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ships",
		Short: "List the agent's ships",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every ship with role, location, cargo and fuel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				ships := a.session.Fleet().Ships()
				if jsonOutput {
					return printJSON(out(cmd), ships)
				}
				displayShips(cmd, ships)
				return nil
			})
		},
	})

	return cmd
}

func displayShips(cmd *cobra.Command, ships []domainFleet.ManagedShip) {
	if len(ships) == 0 {
		fmt.Fprintln(out(cmd), "No ships found")
		return
	}

	w := newTable(out(cmd))
	fmt.Fprintln(w, "SHIP\tROLE\tSTATUS\tLOCATION\tCARGO\tFUEL")
	for _, managed := range ships {
		s := managed.Ship
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d/%d\n",
			s.Symbol,
			managed.Role,
			s.Nav.Status,
			s.Nav.WaypointSymbol,
			s.Cargo.Units, s.Cargo.Capacity,
			s.Fuel.Current, s.Fuel.Capacity,
		)
	}
	w.Flush()
}

// NewShipCommand creates the ship command with its one-shot actions
func NewShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Run a single ship action",
		Long: `Run a single ship action directly against the API.

For actions that wait on arrival or cooldown use 'skamkraft task'.

Examples:
  skamkraft ship orbit --ship AGENT-1
  skamkraft ship dock --ship AGENT-1
  skamkraft ship navigate --ship AGENT-1 --destination X1-GZ7-B1`,
	}

	cmd.AddCommand(newShipOrbitCommand())
	cmd.AddCommand(newShipDockCommand())
	cmd.AddCommand(newShipNavigateCommand())

	return cmd
}

func newShipOrbitCommand() *cobra.Command {
	var shipSymbol string

	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Move a docked ship into orbit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" {
				return fmt.Errorf("--ship flag is required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				result, err := a.session.Client().OrbitShip(ctx, shipSymbol)
				if err != nil {
					return fmt.Errorf("orbit failed: %w", err)
				}
				fmt.Fprintf(out(cmd), "✓ %s is %s at %s\n", shipSymbol, result.Nav.Status, result.Nav.WaypointSymbol)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	return cmd
}

func newShipDockCommand() *cobra.Command {
	var shipSymbol string

	cmd := &cobra.Command{
		Use:   "dock",
		Short: "Dock a ship at its current waypoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" {
				return fmt.Errorf("--ship flag is required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				result, err := a.session.Client().DockShip(ctx, shipSymbol)
				if err != nil {
					return fmt.Errorf("dock failed: %w", err)
				}
				fmt.Fprintf(out(cmd), "✓ %s is %s at %s\n", shipSymbol, result.Nav.Status, result.Nav.WaypointSymbol)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	return cmd
}

func newShipNavigateCommand() *cobra.Command {
	var (
		shipSymbol  string
		destination string
	)

	cmd := &cobra.Command{
		Use:   "navigate",
		Short: "Send an orbiting ship to a waypoint in its system",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" {
				return fmt.Errorf("--ship flag is required")
			}
			if destination == "" {
				return fmt.Errorf("--destination flag is required")
			}
			return withApp(false, func(ctx context.Context, a *app) error {
				result, err := a.session.Client().NavigateShip(ctx, shipSymbol, destination)
				if err != nil {
					return fmt.Errorf("navigation failed: %w", err)
				}
				if jsonOutput {
					return printJSON(out(cmd), result)
				}

				w := out(cmd)
				fmt.Fprintln(w, "✓ Navigation started")
				fmt.Fprintf(w, "  Ship:         %s\n", shipSymbol)
				fmt.Fprintf(w, "  Destination:  %s\n", result.Nav.Route.Destination.Symbol)
				fmt.Fprintf(w, "  Fuel:         %d/%d\n", result.Fuel.Current, result.Fuel.Capacity)
				if arrival := result.ArrivalTime(); !arrival.IsZero() {
					fmt.Fprintf(w, "  Arrival:      %s (in %s)\n",
						arrival.Local().Format("15:04:05"),
						time.Until(arrival).Round(time.Second))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination waypoint symbol (required)")
	return cmd
}
