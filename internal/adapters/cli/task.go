package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/httpserver"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/config"
)

// NewTaskCommand creates the task command
func NewTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Queue fleet tasks",
		Long: `Queue navigation, mining and contract delivery tasks.

navigate, mine and deliver run the task queue in this process and return when
the task finishes. list and cancel talk to a running 'skamkraft serve'.

Examples:
  skamkraft task navigate --ship AGENT-1 --waypoint X1-GZ7-B1
  skamkraft task mine --ship AGENT-3 --waypoint X1-GZ7-AST --units 40
  skamkraft task deliver --ship AGENT-1 --contract cl1 --good IRON_ORE --units 30 --destination X1-GZ7-H2
  skamkraft task list
  skamkraft task cancel mine-5f0c...`,
	}

	cmd.AddCommand(newTaskNavigateCommand())
	cmd.AddCommand(newTaskMineCommand())
	cmd.AddCommand(newTaskDeliverCommand())
	cmd.AddCommand(newTaskListCommand())
	cmd.AddCommand(newTaskCancelCommand())

	return cmd
}

func newTaskNavigateCommand() *cobra.Command {
	var (
		shipSymbol string
		waypoint   string
		priority   int
	)

	cmd := &cobra.Command{
		Use:   "navigate",
		Short: "Fly a ship to a waypoint and wait for arrival",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" || waypoint == "" {
				return fmt.Errorf("--ship and --waypoint flags are required")
			}
			return runTask(cmd, func(a *app) (domainFleet.Task, error) {
				return a.session.Fleet().CreateNavigationTask(shipSymbol, waypoint, priority)
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	cmd.Flags().StringVar(&waypoint, "waypoint", "", "Destination waypoint (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Queue priority, higher runs first (default 5)")
	return cmd
}

func newTaskMineCommand() *cobra.Command {
	var (
		shipSymbol string
		waypoint   string
		units      int
		priority   int
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Extract at a waypoint until cargo is full or --units are mined",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" || waypoint == "" {
				return fmt.Errorf("--ship and --waypoint flags are required")
			}
			return runTask(cmd, func(a *app) (domainFleet.Task, error) {
				return a.session.Fleet().CreateMiningTask(shipSymbol, waypoint, units, priority)
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	cmd.Flags().StringVar(&waypoint, "waypoint", "", "Asteroid waypoint (required)")
	cmd.Flags().IntVar(&units, "units", 0, "Stop after this many units (default: until cargo is full)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Queue priority, higher runs first (default 5)")
	return cmd
}

func newTaskDeliverCommand() *cobra.Command {
	var (
		shipSymbol  string
		contractID  string
		good        string
		units       int
		destination string
		priority    int
	)

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Carry contract goods to the delivery waypoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shipSymbol == "" || contractID == "" || good == "" || destination == "" {
				return fmt.Errorf("--ship, --contract, --good and --destination flags are required")
			}
			return runTask(cmd, func(a *app) (domainFleet.Task, error) {
				return a.session.Fleet().CreateContractDeliveryTask(shipSymbol, contractID, strings.ToUpper(good), destination, units, priority)
			})
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Ship symbol (required)")
	cmd.Flags().StringVar(&contractID, "contract", "", "Contract id (required)")
	cmd.Flags().StringVar(&good, "good", "", "Trade symbol to deliver (required)")
	cmd.Flags().IntVar(&units, "units", 0, "Units to deliver (default: all carried)")
	cmd.Flags().StringVar(&destination, "destination", "", "Delivery waypoint (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Queue priority, higher runs first (default 8)")
	return cmd
}

// runTask queues one task and follows it until it is terminal
func runTask(cmd *cobra.Command, create func(a *app) (domainFleet.Task, error)) error {
	return withApp(false, func(ctx context.Context, a *app) error {
		w := out(cmd)
		unsubscribe := a.session.Fleet().Subscribe(func(ev domainFleet.Event) {
			if ev.Task != nil && !jsonOutput {
				fmt.Fprintf(w, "  %s  %-15s %s\n", ev.Timestamp.Local().Format("15:04:05"), ev.Type, ev.Task.ID)
			}
		})
		defer unsubscribe()

		task, err := create(a)
		if err != nil {
			return err
		}

		final, err := a.session.Fleet().WaitForTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("stopped waiting for %s: %w", task.ID, err)
		}
		if jsonOutput {
			return printJSON(w, final)
		}
		displayTask(w, final)
		if final.Status == domainFleet.TaskStatusFailed {
			return fmt.Errorf("task %s failed", final.ID)
		}
		return nil
	})
}

func displayTask(w io.Writer, task domainFleet.Task) {
	fmt.Fprintf(w, "\nTask:       %s\n", task.ID)
	fmt.Fprintf(w, "Type:       %s\n", task.Type)
	fmt.Fprintf(w, "Ship:       %s\n", task.ShipSymbol)
	fmt.Fprintf(w, "Status:     %s\n", task.Status)
	if task.Extracted > 0 {
		fmt.Fprintf(w, "Extracted:  %d units\n", task.Extracted)
	}
	if task.Delivered > 0 {
		fmt.Fprintf(w, "Delivered:  %d units\n", task.Delivered)
	}
	if task.StartedAt != nil && task.CompletedAt != nil {
		fmt.Fprintf(w, "Duration:   %s\n", task.CompletedAt.Sub(*task.StartedAt).Round(time.Second))
	}
	if task.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", task.Error)
	}
}

func newTaskListCommand() *cobra.Command {
	var (
		server string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the queue of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newDaemonClient(server)
			var tasks httpserver.TasksResponse
			if err := client.do(cmd.Context(), http.MethodGet, fmt.Sprintf("/tasks?limit=%d", limit), &tasks); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out(cmd), tasks)
			}

			w := newTable(out(cmd))
			fmt.Fprintln(w, "ID\tTYPE\tSHIP\tSTATUS\tPRIORITY")
			if tasks.Active != nil {
				printTaskRow(w, *tasks.Active)
			}
			for _, task := range tasks.Pending {
				printTaskRow(w, task)
			}
			for _, task := range tasks.History {
				printTaskRow(w, task)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (default: server.address from config)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Finished tasks to show")
	return cmd
}

func printTaskRow(w io.Writer, task domainFleet.Task) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", task.ID, task.Type, task.ShipSymbol, task.Status, task.Priority)
}

func newTaskCancelCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a pending task on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newDaemonClient(server)
			if err := client.do(cmd.Context(), http.MethodDelete, "/tasks/"+args[0], nil); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "✓ Task %s cancelled\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server address (default: server.address from config)")
	return cmd
}

// daemonClient calls the HTTP API of 'skamkraft serve'
type daemonClient struct {
	baseURL string
	http    *http.Client
}

func newDaemonClient(address string) *daemonClient {
	if address == "" {
		address = config.LoadConfigOrDefault(configPath).Server.Address
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return &daemonClient{
		baseURL: strings.TrimRight(address, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *daemonClient) do(ctx context.Context, method, path string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr httpserver.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
