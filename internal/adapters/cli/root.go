package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skamkraft",
		Short: "SkamKraft - SpaceTraders client and fleet runner",
		Long: `SkamKraft talks to the SpaceTraders API through one rate-limited, cached
and retrying client. Commands run against a session built from config.yaml
and the token saved by 'skamkraft login --remember'.

Examples:
  skamkraft login --token $ST_TOKEN --remember
  skamkraft ships list
  skamkraft task mine --ship AGENT-1 --waypoint X1-GZ7-B4 --units 30
  skamkraft market scan --system X1-GZ7
  skamkraft trade routes --system X1-GZ7 --max 5
  skamkraft serve`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print results as JSON")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewRegisterCommand())
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewWhoamiCommand())
	rootCmd.AddCommand(NewShipsCommand())
	rootCmd.AddCommand(NewShipCommand())
	rootCmd.AddCommand(NewFleetCommand())
	rootCmd.AddCommand(NewTaskCommand())
	rootCmd.AddCommand(NewMarketCommand())
	rootCmd.AddCommand(NewTradeCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
