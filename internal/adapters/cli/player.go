package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/skamkraft-go/internal/application/auth"
	"github.com/andrescamacho/skamkraft-go/internal/domain/player"
)

// NewRegisterCommand creates the register command
func NewRegisterCommand() *cobra.Command {
	var (
		symbol   string
		faction  string
		email    string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new agent and log in with its token",
		Long: `Register a new agent with the SpaceTraders API.

The returned token is stored for this process, or saved to the database with
--remember so later commands reuse it.

Examples:
  skamkraft register --symbol SKAMKRAFT --faction COSMIC --remember
  skamkraft register --symbol SKAM-2 --faction GALACTIC --email me@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				return fmt.Errorf("--symbol flag is required")
			}
			if faction == "" {
				return fmt.Errorf("--faction flag is required")
			}

			return withApp(true, func(ctx context.Context, a *app) error {
				req := player.RegisterRequest{
					Symbol:  strings.ToUpper(symbol),
					Faction: strings.ToUpper(faction),
					Email:   email,
				}
				reg, err := a.session.Register(ctx, req, remember)
				if err != nil {
					return fmt.Errorf("registration failed: %w", err)
				}

				if jsonOutput {
					return printJSON(out(cmd), reg)
				}
				w := out(cmd)
				fmt.Fprintln(w, "✓ Agent registered")
				fmt.Fprintf(w, "  Agent:        %s\n", reg.Agent.Symbol)
				fmt.Fprintf(w, "  Headquarters: %s\n", reg.Agent.Headquarters)
				fmt.Fprintf(w, "  Credits:      %s\n", formatCredits(reg.Agent.Credits))
				fmt.Fprintf(w, "  Token:        %s\n", auth.Describe(reg.Token))
				if !remember {
					fmt.Fprintln(w, "\nThe token was not saved. Keep it safe and log in with --remember to reuse it.")
					fmt.Fprintln(w, reg.Token)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Agent symbol, 3 to 14 characters (required)")
	cmd.Flags().StringVar(&faction, "faction", "", "Starting faction, e.g. COSMIC (required)")
	cmd.Flags().StringVar(&email, "email", "", "Optional account email")
	cmd.Flags().BoolVar(&remember, "remember", false, "Save the token for later commands")

	return cmd
}

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		token    string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate a token and load the agent",
		Long: `Validate an agent token against the API, then load the agent and fleet.

Without --remember the token only lives for this command.

Examples:
  skamkraft login --token eyJhbGciOi... --remember`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token flag is required")
			}

			return withApp(true, func(ctx context.Context, a *app) error {
				agent, err := a.session.Login(ctx, token, remember)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}

				if jsonOutput {
					return printJSON(out(cmd), agent)
				}
				w := out(cmd)
				fmt.Fprintf(w, "✓ Logged in as %s (%s)\n", agent.Symbol, formatCredits(agent.Credits))
				fmt.Fprintf(w, "  Ships: %d\n", len(a.session.Fleet().Ships()))
				if !remember {
					fmt.Fprintln(w, "  Token not saved: pass --remember to stay logged in")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Agent token (required)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Save the token for later commands")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token and reset statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), "✓ Logged out")
				return nil
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the agent and the token claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				agent, _ := a.session.Agent()
				claims, claimsErr := a.session.Tokens().Claims(ctx)

				if jsonOutput {
					return printJSON(out(cmd), struct {
						Agent  *player.Agent `json:"agent"`
						Claims *auth.Claims  `json:"claims,omitempty"`
					}{agent, claims})
				}

				w := out(cmd)
				fmt.Fprintf(w, "Agent:        %s\n", agent.Symbol)
				fmt.Fprintf(w, "Faction:      %s\n", agent.StartingFaction)
				fmt.Fprintf(w, "Headquarters: %s\n", agent.Headquarters)
				fmt.Fprintf(w, "Credits:      %s\n", formatCredits(agent.Credits))
				fmt.Fprintf(w, "Ships:        %d\n", agent.ShipCount)
				if claimsErr != nil {
					fmt.Fprintf(w, "Claims:       unreadable (%v)\n", claimsErr)
					return nil
				}
				fmt.Fprintf(w, "Reset date:   %s\n", claims.ResetDate)
				if !claims.IssuedAt.IsZero() {
					fmt.Fprintf(w, "Issued at:    %s\n", claims.IssuedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}
