package fleet

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// Config tunes the task handlers. Zero fields take the defaults.
type Config struct {
	ArrivalMargin      time.Duration
	CooldownMargin     time.Duration
	CooldownRetryDelay time.Duration
	HistorySize        int
}

// DefaultConfig returns the handler defaults
func DefaultConfig() Config {
	return Config{
		ArrivalMargin:      time.Second,
		CooldownMargin:     500 * time.Millisecond,
		CooldownRetryDelay: 5 * time.Second,
		HistorySize:        100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ArrivalMargin <= 0 {
		c.ArrivalMargin = d.ArrivalMargin
	}
	if c.CooldownMargin <= 0 {
		c.CooldownMargin = d.CooldownMargin
	}
	if c.CooldownRetryDelay <= 0 {
		c.CooldownRetryDelay = d.CooldownRetryDelay
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	return c
}

// Coordinator manages the fleet and runs queued tasks one at a time.
//
// A single worker goroutine drains the queue in priority order and exits
// when it is empty; enqueueing while idle starts a new one. Every wait in a
// handler is bound to the coordinator context, so Reset and Close interrupt
// running tasks at their next sleep.
type Coordinator struct {
	api      ShipAPI
	cfg      Config
	clock    shared.Clock
	recorder Recorder
	logger   *zap.Logger
	bus      *EventBus

	mu          sync.Mutex
	ships       map[string]*domainFleet.ManagedShip
	queue       taskQueue
	items       map[string]*queueItem
	seq         uint64
	active      *domainFleet.Task
	history     []*domainFleet.Task
	extractions domainLedger.ExtractionRecorder

	running bool
	idle    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator with an empty fleet
func NewCoordinator(api ShipAPI, cfg Config, clock shared.Clock, recorder Recorder, logger *zap.Logger) *Coordinator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	return &Coordinator{
		api:      api,
		cfg:      cfg.withDefaults(),
		clock:    clock,
		recorder: recorder,
		logger:   logger,
		bus:      NewEventBus(logger),
		ships:    make(map[string]*domainFleet.ManagedShip),
		items:    make(map[string]*queueItem),
		idle:     idle,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetTransactionRecorder makes the MINE handler record each extraction
func (c *Coordinator) SetTransactionRecorder(r domainLedger.ExtractionRecorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractions = r
}

// Events returns the fleet event bus
func (c *Coordinator) Events() *EventBus {
	return c.bus
}

// Subscribe registers a callback for every fleet event
func (c *Coordinator) Subscribe(fn func(domainFleet.Event)) func() {
	return c.bus.Subscribe(fn)
}

// SyncFleet fetches every ship page and merges the snapshots into the fleet.
// New ships get a detected role; known ships keep role, task and stats.
func (c *Coordinator) SyncFleet(ctx context.Context) (domainFleet.Status, error) {
	ships, err := c.api.GetAllShips(ctx)
	if err != nil {
		return domainFleet.Status{}, fmt.Errorf("failed to sync fleet: %w", err)
	}

	c.mu.Lock()
	for _, ship := range ships {
		if managed, ok := c.ships[ship.Symbol]; ok {
			managed.Refresh(ship)
			continue
		}
		c.ships[ship.Symbol] = domainFleet.NewManagedShip(ship)
	}
	total := len(c.ships)
	c.mu.Unlock()

	c.recorder.FleetSize(total)
	c.logger.Info("fleet-synced", zap.Int("ships", total))
	c.bus.Publish(domainFleet.Event{
		Type:      domainFleet.EventFleetSynced,
		ShipCount: total,
		Timestamp: c.clock.Now(),
	})

	return c.Status(), nil
}

// CreateNavigationTask queues a NAVIGATE task; priority 0 uses the default
func (c *Coordinator) CreateNavigationTask(shipSymbol, waypoint string, priority int) (domainFleet.Task, error) {
	return c.create(domainFleet.TaskTypeNavigate, shipSymbol, domainFleet.TaskParams{Waypoint: waypoint}, priority)
}

// CreateMiningTask queues a MINE task; targetUnits 0 mines until cargo is full
func (c *Coordinator) CreateMiningTask(shipSymbol, waypoint string, targetUnits, priority int) (domainFleet.Task, error) {
	return c.create(domainFleet.TaskTypeMine, shipSymbol, domainFleet.TaskParams{
		Waypoint:    waypoint,
		TargetUnits: targetUnits,
	}, priority)
}

// CreateContractDeliveryTask queues a CONTRACT_DELIVERY task
func (c *Coordinator) CreateContractDeliveryTask(shipSymbol, contractID, tradeSymbol, destination string, units, priority int) (domainFleet.Task, error) {
	return c.create(domainFleet.TaskTypeContractDelivery, shipSymbol, domainFleet.TaskParams{
		Waypoint:    destination,
		ContractID:  contractID,
		TradeSymbol: tradeSymbol,
		Units:       units,
	}, priority)
}

func (c *Coordinator) create(taskType domainFleet.TaskType, shipSymbol string, params domainFleet.TaskParams, priority int) (domainFleet.Task, error) {
	task, err := domainFleet.NewTask(taskType, shipSymbol, params, priority, c.clock.Now())
	if err != nil {
		return domainFleet.Task{}, err
	}
	if err := c.Enqueue(task); err != nil {
		return domainFleet.Task{}, err
	}
	return *task, nil
}

// Enqueue adds a PENDING task to the queue and makes sure a worker runs
func (c *Coordinator) Enqueue(task *domainFleet.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domainFleet.ErrInvalidTaskParams)
	}
	if task.Status != domainFleet.TaskStatusPending {
		return fmt.Errorf("cannot enqueue task in %s state", task.Status)
	}

	c.mu.Lock()
	if _, dup := c.items[task.ID]; dup {
		c.mu.Unlock()
		return fmt.Errorf("task %s is already queued", task.ID)
	}
	c.seq++
	item := &queueItem{task: task, seq: c.seq}
	heap.Push(&c.queue, item)
	c.items[task.ID] = item

	if ship, ok := c.ships[task.ShipSymbol]; ok && ship.CurrentTaskID == "" {
		ship.CurrentTaskID = task.ID
	}
	snapshot := *task
	ctx := c.startWorkerLocked()
	c.mu.Unlock()

	if ctx != nil {
		go c.run(ctx)
	}

	c.recorder.TaskQueued(string(task.Type))
	c.logger.Info("task-queued",
		zap.String("task_id", task.ID),
		zap.String("type", string(task.Type)),
		zap.String("ship", task.ShipSymbol),
		zap.Int("priority", task.Priority))
	c.publishTask(domainFleet.EventTaskQueued, &snapshot)
	return nil
}

// startWorkerLocked marks the worker running and returns its context, or nil
// when a worker is already draining the queue
func (c *Coordinator) startWorkerLocked() context.Context {
	if c.running {
		return nil
	}
	c.running = true
	c.idle = make(chan struct{})
	c.wg.Add(1)
	return c.ctx
}

// CancelTask cancels a PENDING task. It returns false when the task is
// unknown, running or already finished.
func (c *Coordinator) CancelTask(taskID string) bool {
	c.mu.Lock()
	item, ok := c.items[taskID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	heap.Remove(&c.queue, item.index)
	delete(c.items, taskID)
	task := item.task
	_ = task.Cancel(c.clock.Now())
	c.appendHistoryLocked(task)

	if ship, ok := c.ships[task.ShipSymbol]; ok && ship.CurrentTaskID == taskID {
		ship.CurrentTaskID = c.oldestPendingLocked(task.ShipSymbol)
	}
	snapshot := *task
	c.mu.Unlock()

	c.recorder.TaskFinished(string(task.Type), string(task.Status), 0)
	c.logger.Info("task-cancelled", zap.String("task_id", taskID))
	c.publishTask(domainFleet.EventTaskCancelled, &snapshot)
	return true
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		if c.queue.Len() == 0 || ctx.Err() != nil {
			c.running = false
			close(c.idle)
			c.mu.Unlock()
			return
		}

		item := heap.Pop(&c.queue).(*queueItem)
		task := item.task
		delete(c.items, task.ID)
		_ = task.Start(c.clock.Now())
		c.active = task
		if ship, ok := c.ships[task.ShipSymbol]; ok {
			ship.CurrentTaskID = task.ID
		}
		started := *task
		c.mu.Unlock()

		c.logger.Info("task-started",
			zap.String("task_id", task.ID),
			zap.String("type", string(task.Type)),
			zap.String("ship", task.ShipSymbol))
		c.publishTask(domainFleet.EventTaskStarted, &started)

		err := c.execute(ctx, task)
		c.finish(task, err)
	}
}

func (c *Coordinator) finish(task *domainFleet.Task, err error) {
	c.mu.Lock()
	now := c.clock.Now()
	ship := c.ships[task.ShipSymbol]

	if err == nil {
		_ = task.Complete(now)
		if ship != nil {
			ship.Stats.TasksCompleted++
		}
	} else {
		_ = task.Fail(err, now)
		if ship != nil {
			ship.Stats.TasksFailed++
		}
	}
	if ship != nil {
		ship.CurrentTaskID = c.oldestPendingLocked(task.ShipSymbol)
	}
	c.active = nil
	c.appendHistoryLocked(task)
	snapshot := *task
	c.mu.Unlock()

	duration := snapshot.Duration(now)
	c.recorder.TaskFinished(string(task.Type), string(task.Status), duration)

	if err != nil && isCanceled(err) {
		c.logger.Warn("task-interrupted",
			zap.String("task_id", task.ID),
			zap.String("ship", task.ShipSymbol))
		c.publishTask(domainFleet.EventTaskFailed, &snapshot)
		return
	}
	if err != nil {
		c.logger.Error("task-failed",
			zap.String("task_id", task.ID),
			zap.String("ship", task.ShipSymbol),
			zap.Duration("duration", duration),
			zap.Error(err))
		c.publishTask(domainFleet.EventTaskFailed, &snapshot)
		return
	}
	c.logger.Info("task-completed",
		zap.String("task_id", task.ID),
		zap.String("ship", task.ShipSymbol),
		zap.Duration("duration", duration))
	c.publishTask(domainFleet.EventTaskCompleted, &snapshot)
}

func (c *Coordinator) publishTask(eventType domainFleet.EventType, task *domainFleet.Task) {
	c.bus.Publish(domainFleet.Event{
		Type:       eventType,
		ShipSymbol: task.ShipSymbol,
		Task:       task,
		Error:      task.Error,
		Timestamp:  c.clock.Now(),
	})
}

func (c *Coordinator) oldestPendingLocked(shipSymbol string) string {
	var oldest *queueItem
	for _, item := range c.queue {
		if item.task.ShipSymbol != shipSymbol {
			continue
		}
		if oldest == nil || item.seq < oldest.seq {
			oldest = item
		}
	}
	if oldest == nil {
		return ""
	}
	return oldest.task.ID
}

func (c *Coordinator) appendHistoryLocked(task *domainFleet.Task) {
	c.history = append(c.history, task)
	if overflow := len(c.history) - c.cfg.HistorySize; overflow > 0 {
		c.history = append([]*domainFleet.Task(nil), c.history[overflow:]...)
	}
}

// WaitIdle blocks until the worker has drained the queue
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitForTask blocks until the task reaches a terminal state
func (c *Coordinator) WaitForTask(ctx context.Context, taskID string) (domainFleet.Task, error) {
	events, unsubscribe := c.bus.SubscribeChannel(64)
	defer unsubscribe()

	// events can be dropped on a full buffer, so the ticker re-checks state
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		task, ok := c.Task(taskID)
		if !ok {
			return domainFleet.Task{}, fmt.Errorf("%w: %s", domainFleet.ErrTaskNotFound, taskID)
		}
		if task.Status.IsTerminal() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-events:
		case <-ticker.C:
		}
	}
}

// Reset stops the worker, waits for it and forgets fleet, queue and history
func (c *Coordinator) Reset() {
	c.stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ships = make(map[string]*domainFleet.ManagedShip)
	c.queue = nil
	c.items = make(map[string]*queueItem)
	c.active = nil
	c.history = nil
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.logger.Info("fleet-reset")
}

// Close stops the worker and waits for it to exit
func (c *Coordinator) Close() {
	c.stop()
}

func (c *Coordinator) stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

// Ships returns copies of every managed ship ordered by symbol
func (c *Coordinator) Ships() []domainFleet.ManagedShip {
	return c.filter(func(*domainFleet.ManagedShip) bool { return true })
}

// Ship returns a copy of one managed ship
func (c *Coordinator) Ship(symbol string) (domainFleet.ManagedShip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ship, ok := c.ships[symbol]
	if !ok {
		return domainFleet.ManagedShip{}, false
	}
	return *ship, true
}

// IdleShips returns ships with no task, no cooldown and not in transit
func (c *Coordinator) IdleShips() []domainFleet.ManagedShip {
	return c.filter(func(s *domainFleet.ManagedShip) bool { return s.IsIdle() })
}

// ShipsAtWaypoint returns ships located at, or travelling to, waypoint
func (c *Coordinator) ShipsAtWaypoint(waypoint string) []domainFleet.ManagedShip {
	return c.filter(func(s *domainFleet.ManagedShip) bool { return s.Ship.Location() == waypoint })
}

// ShipsByRole returns ships with the given role
func (c *Coordinator) ShipsByRole(role domainFleet.ShipRole) []domainFleet.ManagedShip {
	return c.filter(func(s *domainFleet.ManagedShip) bool { return s.Role == role })
}

func (c *Coordinator) filter(keep func(*domainFleet.ManagedShip) bool) []domainFleet.ManagedShip {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domainFleet.ManagedShip, 0, len(c.ships))
	for _, ship := range c.ships {
		if keep(ship) {
			out = append(out, *ship)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ship.Symbol < out[j].Ship.Symbol })
	return out
}

// AssignRole overrides the detected role of a ship
func (c *Coordinator) AssignRole(symbol string, role domainFleet.ShipRole) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ship, ok := c.ships[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", domainFleet.ErrShipNotFound, symbol)
	}
	ship.Role = role
	c.logger.Info("role-assigned", zap.String("ship", symbol), zap.String("role", string(role)))
	return nil
}

// SelectShip picks the best idle ship for waypoint, preferring ships that
// already carry requiredCargo
func (c *Coordinator) SelectShip(ctx context.Context, waypoint, requiredCargo string) (domainFleet.SelectionResult, error) {
	wp, err := c.api.GetWaypoint(ctx, shared.ExtractSystemSymbol(waypoint), waypoint)
	if err != nil {
		return domainFleet.SelectionResult{}, fmt.Errorf("failed to get waypoint %s: %w", waypoint, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := make([]*domainFleet.ManagedShip, 0, len(c.ships))
	for _, ship := range c.ships {
		candidates = append(candidates, ship)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Ship.Symbol < candidates[j].Ship.Symbol })

	result, err := domainFleet.SelectOptimalShip(candidates, domainFleet.Target{Symbol: wp.Symbol, X: wp.X, Y: wp.Y}, requiredCargo)
	if err != nil {
		return domainFleet.SelectionResult{}, err
	}
	selected := *result.Ship
	result.Ship = &selected
	return *result, nil
}

// Task finds a task among pending, active and recent history
func (c *Coordinator) Task(taskID string) (domainFleet.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[taskID]; ok {
		return *item.task, true
	}
	if c.active != nil && c.active.ID == taskID {
		return *c.active, true
	}
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].ID == taskID {
			return *c.history[i], true
		}
	}
	return domainFleet.Task{}, false
}

// ActiveTask returns the task the worker is executing
func (c *Coordinator) ActiveTask() (domainFleet.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return domainFleet.Task{}, false
	}
	return *c.active, true
}

// PendingTasks returns queued tasks in execution order
func (c *Coordinator) PendingTasks() []domainFleet.Task {
	c.mu.Lock()
	ordered := make(taskQueue, len(c.queue))
	copy(ordered, c.queue)
	out := make([]domainFleet.Task, 0, len(ordered))
	sort.Slice(ordered, ordered.Less)
	for _, item := range ordered {
		out = append(out, *item.task)
	}
	c.mu.Unlock()
	return out
}

// History returns up to limit finished tasks, newest first. limit <= 0
// returns all of them.
func (c *Coordinator) History(limit int) []domainFleet.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domainFleet.Task, 0, n)
	for i := len(c.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *c.history[i])
	}
	return out
}

// Status summarises ships and task counts
func (c *Coordinator) Status() domainFleet.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	ships := make([]*domainFleet.ManagedShip, 0, len(c.ships))
	for _, ship := range c.ships {
		ships = append(ships, ship)
	}
	status := domainFleet.Summarize(ships)
	status.PendingTasks = c.queue.Len()
	if c.active != nil {
		status.ActiveTasks = 1
	}
	return status
}

// isCanceled reports whether err comes from the coordinator shutting down
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
