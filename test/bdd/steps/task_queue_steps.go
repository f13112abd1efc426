package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/skamkraft-go/internal/application/fleet"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/test/helpers"
)

const stepTimeout = 5 * time.Second

// taskQueueContext drives a coordinator over the mock API
type taskQueueContext struct {
	clock *shared.MockClock
	api   *helpers.MockAPIClient
	coord *fleet.Coordinator

	// labels maps scenario names to task IDs and back
	labels map[string]string
	byID   map[string]string

	mu      sync.Mutex
	started []string

	release   func()
	createErr error
}

// InitializeTaskQueueScenario registers the task queue steps
func InitializeTaskQueueScenario(sc *godog.ScenarioContext) {
	c := &taskQueueContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if c.release != nil {
			c.release()
		}
		if c.coord != nil {
			c.coord.Close()
		}
		return ctx, nil
	})

	sc.Step(`^waypoints:$`, c.waypoints)
	sc.Step(`^a fleet with ships:$`, c.fleetWithShips)
	sc.Step(`^the worker is busy with task "([^"]*)" navigating "([^"]*)" to "([^"]*)"$`, c.workerIsBusy)
	sc.Step(`^navigation calls fail with "([^"]*)"$`, c.navigationCallsFail)

	sc.Step(`^I queue navigation tasks:$`, c.queueNavigationTasks)
	sc.Step(`^the worker is released$`, c.workerIsReleased)
	sc.Step(`^the queue drains$`, c.queueDrains)
	sc.Step(`^I create a "([^"]*)" task for "([^"]*)" at "([^"]*)" with (-?\d+) units$`, c.createTask)

	sc.Step(`^tasks should have started in order "([^"]*)"$`, c.tasksStartedInOrder)
	sc.Step(`^every task should be "([^"]*)"$`, c.everyTaskShouldBe)
	sc.Step(`^task "([^"]*)" should be "([^"]*)"$`, c.taskShouldBe)
	sc.Step(`^task "([^"]*)" should have priority (\d+)$`, c.taskShouldHavePriority)
	sc.Step(`^task "([^"]*)" should have an ID starting with "([^"]*)"$`, c.taskIDShouldStartWith)
	sc.Step(`^task "([^"]*)" should have error containing "([^"]*)"$`, c.taskErrorShouldContain)
	sc.Step(`^cancelling "([^"]*)" should succeed$`, c.cancellingShouldSucceed)
	sc.Step(`^cancelling "([^"]*)" should be refused$`, c.cancellingShouldBeRefused)
	sc.Step(`^the task should be rejected with "([^"]*)"$`, c.taskShouldBeRejected)
}

func (c *taskQueueContext) reset() {
	c.clock = shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c.api = helpers.NewMockAPIClient(c.clock)
	c.coord = fleet.NewCoordinator(c.api, fleet.Config{}, c.clock, nil, nil)
	c.labels = make(map[string]string)
	c.byID = make(map[string]string)
	c.started = nil
	c.release = nil
	c.createErr = nil

	c.coord.Subscribe(func(ev domainFleet.Event) {
		if ev.Type != domainFleet.EventTaskStarted || ev.Task == nil {
			return
		}
		c.mu.Lock()
		c.started = append(c.started, ev.Task.ID)
		c.mu.Unlock()
	})
}

func (c *taskQueueContext) waypoints(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		x, err := atoi(row["x"])
		if err != nil {
			return err
		}
		y, err := atoi(row["y"])
		if err != nil {
			return err
		}
		c.api.AddWaypoint(helpers.CreateTestWaypoint(row["symbol"], x, y))
	}
	return nil
}

func (c *taskQueueContext) fleetWithShips(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		ship := helpers.CreateTestShip(row["symbol"], row["waypoint"], navigation.NavStatus(row["status"]), 40)
		c.api.AddShip(ship)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	status, err := c.coord.SyncFleet(ctx)
	if err != nil {
		return fmt.Errorf("fleet sync failed: %w", err)
	}
	if status.TotalShips != len(rows) {
		return fmt.Errorf("expected %d ships after sync, got %d", len(rows), status.TotalShips)
	}
	return nil
}

// workerIsBusy holds the first navigation call so later tasks stay pending
func (c *taskQueueContext) workerIsBusy(label, ship, destination string) error {
	entered := make(chan struct{})
	hold := make(chan struct{})
	var firstCall, releaseOnce sync.Once

	c.api.SetHook("NavigateShip", func(string) {
		blocking := false
		firstCall.Do(func() { blocking = true })
		if blocking {
			close(entered)
			<-hold
		}
	})
	c.release = func() { releaseOnce.Do(func() { close(hold) }) }

	if err := c.queue(label, ship, destination, 0); err != nil {
		return err
	}

	select {
	case <-entered:
		return nil
	case <-time.After(stepTimeout):
		return fmt.Errorf("task %q never reached the navigation call", label)
	}
}

func (c *taskQueueContext) navigationCallsFail(message string) error {
	c.api.SetError("NavigateShip", errors.New(message))
	return nil
}

func (c *taskQueueContext) queue(label, ship, destination string, priority int) error {
	task, err := c.coord.CreateNavigationTask(ship, destination, priority)
	if err != nil {
		return fmt.Errorf("failed to queue %q: %w", label, err)
	}
	c.labels[label] = task.ID
	c.byID[task.ID] = label
	return nil
}

func (c *taskQueueContext) queueNavigationTasks(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		priority, err := atoi(row["priority"])
		if err != nil {
			return err
		}
		if err := c.queue(row["label"], row["ship"], row["destination"], priority); err != nil {
			return err
		}
	}
	return nil
}

func (c *taskQueueContext) workerIsReleased() error {
	if c.release == nil {
		return fmt.Errorf("the worker was not held")
	}
	c.release()
	return nil
}

func (c *taskQueueContext) queueDrains() error {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	if err := c.coord.WaitIdle(ctx); err != nil {
		return fmt.Errorf("queue did not drain: %w", err)
	}
	return nil
}

func (c *taskQueueContext) createTask(taskType, ship, waypoint string, units int) error {
	parsed, err := domainFleet.ParseTaskType(taskType)
	if err != nil {
		c.createErr = err
		return nil
	}

	params := domainFleet.TaskParams{Waypoint: waypoint}
	switch parsed {
	case domainFleet.TaskTypeMine:
		params.TargetUnits = units
	case domainFleet.TaskTypeContractDelivery:
		params.Units = units
	}

	task, err := domainFleet.NewTask(parsed, ship, params, 0, c.clock.Now())
	if err != nil {
		c.createErr = err
		return nil
	}
	c.createErr = c.coord.Enqueue(task)
	return nil
}

func (c *taskQueueContext) task(label string) (domainFleet.Task, error) {
	id, ok := c.labels[label]
	if !ok {
		return domainFleet.Task{}, fmt.Errorf("no task labelled %q", label)
	}
	task, ok := c.coord.Task(id)
	if !ok {
		return domainFleet.Task{}, fmt.Errorf("coordinator does not know task %q (%s)", label, id)
	}
	return task, nil
}

func (c *taskQueueContext) tasksStartedInOrder(list string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var got []string
	for _, id := range c.started {
		got = append(got, c.byID[id])
	}
	want := splitLabels(list)
	if strings.Join(got, ", ") != strings.Join(want, ", ") {
		return fmt.Errorf("expected start order %v, got %v", want, got)
	}
	return nil
}

func (c *taskQueueContext) everyTaskShouldBe(status string) error {
	for label := range c.labels {
		if err := c.taskShouldBe(label, status); err != nil {
			return err
		}
	}
	return nil
}

func (c *taskQueueContext) taskShouldBe(label, status string) error {
	task, err := c.task(label)
	if err != nil {
		return err
	}
	if string(task.Status) != status {
		return fmt.Errorf("expected task %q to be %s, got %s (%s)", label, status, task.Status, task.Error)
	}
	return nil
}

func (c *taskQueueContext) taskShouldHavePriority(label string, priority int) error {
	task, err := c.task(label)
	if err != nil {
		return err
	}
	if task.Priority != priority {
		return fmt.Errorf("expected priority %d, got %d", priority, task.Priority)
	}
	return nil
}

func (c *taskQueueContext) taskIDShouldStartWith(label, prefix string) error {
	task, err := c.task(label)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(task.ID, prefix) {
		return fmt.Errorf("expected ID with prefix %q, got %q", prefix, task.ID)
	}
	return nil
}

func (c *taskQueueContext) taskErrorShouldContain(label, fragment string) error {
	task, err := c.task(label)
	if err != nil {
		return err
	}
	if !strings.Contains(task.Error, fragment) {
		return fmt.Errorf("expected error containing %q, got %q", fragment, task.Error)
	}
	return nil
}

func (c *taskQueueContext) cancellingShouldSucceed(label string) error {
	if !c.coord.CancelTask(c.labels[label]) {
		return fmt.Errorf("expected task %q to be cancelled", label)
	}
	return nil
}

func (c *taskQueueContext) cancellingShouldBeRefused(label string) error {
	if c.coord.CancelTask(c.labels[label]) {
		return fmt.Errorf("expected cancelling task %q to be refused", label)
	}
	return nil
}

func (c *taskQueueContext) taskShouldBeRejected(message string) error {
	if c.createErr == nil {
		return fmt.Errorf("expected the task to be rejected with %q", message)
	}
	if !errors.Is(c.createErr, domainFleet.ErrInvalidTaskParams) && !errors.Is(c.createErr, domainFleet.ErrUnknownTaskType) {
		return fmt.Errorf("unexpected error kind: %w", c.createErr)
	}
	if !strings.Contains(c.createErr.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.createErr.Error())
	}
	if pending := c.coord.PendingTasks(); len(pending) > 0 {
		return fmt.Errorf("rejected task was queued: %v", pending)
	}
	return nil
}
