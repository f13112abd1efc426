package fleet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/application/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/application/ledger"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/test/helpers"
)

type harness struct {
	clock *shared.MockClock
	api   *helpers.MockAPIClient
	coord *fleet.Coordinator
}

func newHarness(t *testing.T, cfg fleet.Config) *harness {
	t.Helper()
	clock := shared.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	fake := helpers.NewMockAPIClient(clock)
	fake.AddWaypoint(helpers.CreateTestWaypoint("X1-A1", 0, 0))
	fake.AddWaypoint(helpers.CreateTestWaypoint("X1-B2", 30, 40))
	fake.AddWaypoint(helpers.CreateTestWaypoint("X1-AST", 6, 8))

	coord := fleet.NewCoordinator(fake, cfg, clock, nil, nil)
	t.Cleanup(coord.Close)
	return &harness{clock: clock, api: fake, coord: coord}
}

func (h *harness) wait(t *testing.T, taskID string) domainFleet.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	task, err := h.coord.WaitForTask(ctx, taskID)
	require.NoError(t, err)
	return task
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.coord.WaitIdle(ctx))
}

// gate blocks the first call of method until release is called
func gate(fake *helpers.MockAPIClient, method string) (entered <-chan struct{}, release func()) {
	in := make(chan struct{})
	out := make(chan struct{})
	var once sync.Once
	fake.SetHook(method, func(string) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(in)
			<-out
		}
	})
	var releaseOnce sync.Once
	return in, func() { releaseOnce.Do(func() { close(out) }) }
}

func TestSyncFleet_DetectsRolesAndPreservesState(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestMiner("NOVA-1", "X1-AST", 30))
	h.api.AddShip(helpers.CreateTestShip("NOVA-2", "X1-A1", navigation.NavStatusDocked, 40))

	// Act
	status, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)
	require.NoError(t, h.coord.AssignRole("NOVA-2", domainFleet.RoleHauler))
	_, err = h.coord.SyncFleet(ctx)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2, status.TotalShips)
	assert.Equal(t, 1, status.ByRole[domainFleet.RoleMiner])
	assert.Equal(t, 1, status.ByRole[domainFleet.RoleTrader])

	ship, ok := h.coord.Ship("NOVA-2")
	require.True(t, ok)
	assert.Equal(t, domainFleet.RoleHauler, ship.Role, "assigned role survives a resync")
	assert.Len(t, h.coord.ShipsByRole(domainFleet.RoleMiner), 1)
	assert.Len(t, h.coord.ShipsAtWaypoint("X1-A1"), 1)
	assert.Len(t, h.coord.IdleShips(), 2)
	assert.ErrorIs(t, h.coord.AssignRole("GHOST", domainFleet.RoleIdle), domainFleet.ErrShipNotFound)
}

func TestNavigateTask_OrbitsNavigatesAndWaitsForArrival(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusDocked, 40))
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)

	// Act
	task, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	assert.Equal(t, domainFleet.TaskStatusCompleted, done.Status)
	assert.Equal(t, 1, h.api.CallCount("OrbitShip"))
	assert.Equal(t, 1, h.api.CallCount("NavigateShip"))
	assert.Contains(t, h.clock.Sleeps(), 31*time.Second, "travel time plus arrival margin")

	ship, _ := h.coord.Ship("NOVA-1")
	assert.Equal(t, "X1-B2", ship.Ship.Location())
	assert.True(t, ship.Ship.InOrbit())
	assert.InDelta(t, 50.0, ship.Stats.DistanceTraveled, 0.001)
	assert.Equal(t, 1, ship.Stats.TasksCompleted)
	assert.Empty(t, ship.CurrentTaskID)
}

func TestNavigateTask_AlreadyAtTarget(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-B2", navigation.NavStatusInOrbit, 40))

	// Act
	task, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	assert.Equal(t, domainFleet.TaskStatusCompleted, done.Status)
	assert.Zero(t, h.api.CallCount("NavigateShip"))
}

func TestQueue_PriorityThenInsertionOrder(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	for _, s := range []string{"S-1", "S-2", "S-3", "S-4"} {
		h.api.AddShip(helpers.CreateTestShip(s, "X1-A1", navigation.NavStatusInOrbit, 10))
	}
	entered, release := gate(h.api, "GetShip")
	defer release()

	first, err := h.coord.CreateNavigationTask("S-1", "X1-A1", 1)
	require.NoError(t, err)
	<-entered

	// Act
	low, err := h.coord.CreateNavigationTask("S-2", "X1-A1", 0)
	require.NoError(t, err)
	highA, err := h.coord.CreateContractDeliveryTask("S-3", "c-1", "IRON_ORE", "X1-A1", 1, 0)
	require.NoError(t, err)
	highB, err := h.coord.CreateNavigationTask("S-4", "X1-A1", domainFleet.PriorityContractDelivery)
	require.NoError(t, err)

	pending := h.coord.PendingTasks()
	release()
	h.waitIdle(t)

	// Assert
	require.Len(t, pending, 3)
	assert.Equal(t, []string{highA.ID, highB.ID, low.ID}, []string{pending[0].ID, pending[1].ID, pending[2].ID})

	history := h.coord.History(0)
	require.Len(t, history, 4)
	// newest first
	assert.Equal(t, []string{low.ID, highB.ID, highA.ID, first.ID},
		[]string{history[0].ID, history[1].ID, history[2].ID, history[3].ID})
}

func TestSingleFlight_CurrentTaskReassignedToOldestPending(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 10))
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)

	entered, release := gate(h.api, "GetShip")
	defer release()

	first, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)
	<-entered
	second, err := h.coord.CreateNavigationTask("NOVA-1", "X1-A1", 0)
	require.NoError(t, err)
	third, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)

	var mu sync.Mutex
	currentAfter := map[string]string{}
	unsubscribe := h.coord.Subscribe(func(ev domainFleet.Event) {
		if ev.Type != domainFleet.EventTaskCompleted {
			return
		}
		ship, _ := h.coord.Ship("NOVA-1")
		mu.Lock()
		currentAfter[ev.Task.ID] = ship.CurrentTaskID
		mu.Unlock()
	})
	defer unsubscribe()

	// Act
	during, _ := h.coord.Ship("NOVA-1")
	release()
	h.waitIdle(t)

	// Assert
	assert.Equal(t, first.ID, during.CurrentTaskID)
	assert.Equal(t, 1, h.api.MaxConcurrent("NOVA-1"), "calls for one ship never overlap")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, second.ID, currentAfter[first.ID])
	assert.Equal(t, third.ID, currentAfter[second.ID])
	assert.Equal(t, "", currentAfter[third.ID])
}

func TestCancelTask_OnlyPending(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 10))
	h.api.AddShip(helpers.CreateTestShip("NOVA-2", "X1-A1", navigation.NavStatusInOrbit, 10))
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)

	entered, release := gate(h.api, "GetShip")
	defer release()

	running, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)
	<-entered
	pending, err := h.coord.CreateNavigationTask("NOVA-2", "X1-B2", 0)
	require.NoError(t, err)

	var cancelled []domainFleet.Event
	unsubscribe := h.coord.Subscribe(func(ev domainFleet.Event) {
		if ev.Type == domainFleet.EventTaskCancelled {
			cancelled = append(cancelled, ev)
		}
	})
	defer unsubscribe()

	// Act
	okRunning := h.coord.CancelTask(running.ID)
	okPending := h.coord.CancelTask(pending.ID)
	okAgain := h.coord.CancelTask(pending.ID)
	release()
	h.waitIdle(t)

	// Assert
	assert.False(t, okRunning, "in-progress tasks are not cancellable")
	assert.True(t, okPending)
	assert.False(t, okAgain)
	require.Len(t, cancelled, 1)

	task, ok := h.coord.Task(pending.ID)
	require.True(t, ok)
	assert.Equal(t, domainFleet.TaskStatusCancelled, task.Status)

	ship, _ := h.coord.Ship("NOVA-2")
	assert.Empty(t, ship.CurrentTaskID)
	assert.Equal(t, "X1-A1", ship.Ship.Location(), "cancelled task never ran")

	done, _ := h.coord.Task(running.ID)
	assert.Equal(t, domainFleet.TaskStatusCompleted, done.Status)
}

func TestMineTask_StopsWhenCargoFull(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestMiner("MINER-1", "X1-AST", 15))
	h.api.QueueExtractErrors(helpers.CooldownConflict())
	tracker := ledger.NewTracker(nil, h.clock, nil)
	h.coord.SetTransactionRecorder(tracker)

	// Act
	task, err := h.coord.CreateMiningTask("MINER-1", "X1-AST", 0, 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	require.Equal(t, domainFleet.TaskStatusCompleted, done.Status, done.Error)
	assert.Equal(t, 15, done.Extracted)
	assert.Equal(t, 4, h.api.CallCount("ExtractResources"), "one cooldown conflict then three extractions")

	sleeps := h.clock.Sleeps()
	assert.Contains(t, sleeps, 5*time.Second, "cooldown conflict retry delay")
	assert.Contains(t, sleeps, 70*time.Second+500*time.Millisecond, "cooldown plus margin")

	txs := tracker.Transactions()
	require.Len(t, txs, 3)
	for _, tx := range txs {
		assert.Equal(t, domainLedger.TransactionTypeExtraction, tx.Type)
		assert.Equal(t, "IRON_ORE", tx.TradeSymbol)
		assert.Equal(t, "X1-AST", tx.Waypoint)
	}
	ship, _ := h.coord.Ship("MINER-1")
	assert.True(t, ship.Ship.CargoFull())
}

func TestMineTask_StopsAtTargetUnits(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestMiner("MINER-1", "X1-A1", 100))

	// Act
	task, err := h.coord.CreateMiningTask("MINER-1", "X1-AST", 7, 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	require.Equal(t, domainFleet.TaskStatusCompleted, done.Status, done.Error)
	assert.Equal(t, 10, done.Extracted)
	assert.Equal(t, 2, h.api.CallCount("ExtractResources"))
	assert.Equal(t, 1, h.api.CallCount("NavigateShip"))
}

func TestMineTask_PollsShipWithoutCache(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestMiner("MINER-1", "X1-AST", 15))

	// Act
	task, err := h.coord.CreateMiningTask("MINER-1", "X1-AST", 0, 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	require.Equal(t, domainFleet.TaskStatusCompleted, done.Status, done.Error)
	extractions := h.api.CallCount("ExtractResources")
	assert.Equal(t, 3, extractions)
	assert.GreaterOrEqual(t, h.api.CallCount("FetchShip"), extractions+1, "every loop pass reads a fresh snapshot")
}

func TestMineTask_FailsOnOtherErrors(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestMiner("MINER-1", "X1-AST", 30))
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)
	h.api.QueueExtractErrors(&api.APIError{Status: 400, Code: 4205, Message: "no asteroid here"})

	var failed []domainFleet.Event
	var mu sync.Mutex
	unsubscribe := h.coord.Subscribe(func(ev domainFleet.Event) {
		if ev.Type == domainFleet.EventTaskFailed {
			mu.Lock()
			failed = append(failed, ev)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	// Act
	task, err := h.coord.CreateMiningTask("MINER-1", "X1-AST", 0, 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	assert.Equal(t, domainFleet.TaskStatusFailed, done.Status)
	assert.Contains(t, done.Error, "no asteroid here")

	ship, _ := h.coord.Ship("MINER-1")
	assert.Equal(t, 1, ship.Stats.TasksFailed)
	assert.Empty(t, ship.CurrentTaskID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 1)
	assert.Equal(t, task.ID, failed[0].Task.ID)
}

func TestContractDeliveryTask(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	ship := helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 40)
	ship.Cargo.Units = 12
	ship.Cargo.Inventory = []navigation.CargoItem{{Symbol: "IRON_ORE", Units: 12}}
	h.api.AddShip(ship)

	// Act
	task, err := h.coord.CreateContractDeliveryTask("NOVA-1", "c-42", "IRON_ORE", "X1-B2", 10, 0)
	require.NoError(t, err)
	done := h.wait(t, task.ID)

	// Assert
	require.Equal(t, domainFleet.TaskStatusCompleted, done.Status, done.Error)
	assert.Equal(t, 10, done.Delivered)
	assert.Equal(t, 1, h.api.CallCount("DockShip"))
	assert.Equal(t, 1, h.api.CallCount("DeliverContract"))
	managed, _ := h.coord.Ship("NOVA-1")
	assert.Equal(t, 2, managed.Ship.Cargo.Units)
}

func TestCreateTask_RejectsInvalidParams(t *testing.T) {
	h := newHarness(t, fleet.Config{})

	_, err := h.coord.CreateNavigationTask("NOVA-1", "", 0)
	assert.ErrorIs(t, err, domainFleet.ErrInvalidTaskParams)
	assert.Empty(t, h.coord.PendingTasks())
}

func TestHistory_IsBounded(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{HistorySize: 3})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 10))

	// Act
	var last domainFleet.Task
	for i := 0; i < 5; i++ {
		task, err := h.coord.CreateNavigationTask("NOVA-1", "X1-A1", 0)
		require.NoError(t, err)
		last = task
	}
	h.wait(t, last.ID)
	h.waitIdle(t)

	// Assert
	history := h.coord.History(0)
	require.Len(t, history, 3)
	assert.Equal(t, last.ID, history[0].ID)
	assert.Len(t, h.coord.History(2), 2)
}

func TestReset_ClearsFleetQueueAndHistory(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 10))
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)
	task, err := h.coord.CreateNavigationTask("NOVA-1", "X1-A1", 0)
	require.NoError(t, err)
	h.wait(t, task.ID)

	// Act
	h.coord.Reset()

	// Assert
	assert.Empty(t, h.coord.Ships())
	assert.Empty(t, h.coord.History(0))
	assert.Empty(t, h.coord.PendingTasks())
	assert.Equal(t, 0, h.coord.Status().TotalShips)

	// the coordinator keeps working after a reset
	again, err := h.coord.CreateNavigationTask("NOVA-1", "X1-A1", 0)
	require.NoError(t, err)
	assert.Equal(t, domainFleet.TaskStatusCompleted, h.wait(t, again.ID).Status)
}

func TestReset_InterruptsRunningTask(t *testing.T) {
	// Arrange
	h := newHarness(t, fleet.Config{})
	h.api.AddShip(helpers.CreateTestShip("NOVA-1", "X1-A1", navigation.NavStatusInOrbit, 10))
	entered, release := gate(h.api, "GetShip")

	_, err := h.coord.CreateNavigationTask("NOVA-1", "X1-B2", 0)
	require.NoError(t, err)
	<-entered

	// Act
	resetDone := make(chan struct{})
	go func() {
		h.coord.Reset()
		close(resetDone)
	}()
	release()

	// Assert
	select {
	case <-resetDone:
	case <-time.After(5 * time.Second):
		t.Fatal("reset did not return")
	}
	assert.Empty(t, h.coord.History(0))
}

func TestSelectShip_PrefersClosestIdle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newHarness(t, fleet.Config{})
	near := helpers.CreateTestShip("NEAR", "X1-AST", navigation.NavStatusInOrbit, 10)
	near.Nav.Route.Destination.X, near.Nav.Route.Destination.Y = 6, 8
	far := helpers.CreateTestShip("FAR", "X1-A1", navigation.NavStatusInOrbit, 10)
	h.api.AddShip(near)
	h.api.AddShip(far)
	_, err := h.coord.SyncFleet(ctx)
	require.NoError(t, err)

	// Act
	result, err := h.coord.SelectShip(ctx, "X1-B2", "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "NEAR", result.Ship.Symbol())
}

func TestWaitForTask_UnknownTask(t *testing.T) {
	h := newHarness(t, fleet.Config{})

	_, err := h.coord.WaitForTask(context.Background(), "nav-missing")
	assert.True(t, errors.Is(err, domainFleet.ErrTaskNotFound))
}
