package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the handler that executes a task
type TaskType string

const (
	TaskTypeNavigate         TaskType = "NAVIGATE"
	TaskTypeMine             TaskType = "MINE"
	TaskTypeContractDelivery TaskType = "CONTRACT_DELIVERY"
)

// ParseTaskType parses a string into a TaskType
func ParseTaskType(s string) (TaskType, error) {
	switch t := TaskType(s); t {
	case TaskTypeNavigate, TaskTypeMine, TaskTypeContractDelivery:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskType, s)
	}
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	// TaskStatusPending indicates the task is queued but not started
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusInProgress indicates the worker is executing the task
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusCompleted indicates the handler finished successfully
	TaskStatusCompleted TaskStatus = "COMPLETED"

	// TaskStatusFailed indicates the handler returned an error
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusCancelled indicates the task was removed before it started
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// IsTerminal returns true for COMPLETED, FAILED and CANCELLED
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Default priorities; higher runs first
const (
	PriorityNavigate         = 5
	PriorityMine             = 5
	PriorityContractDelivery = 8
)

// TaskParams carries the handler inputs. Which fields are required depends
// on the task type.
type TaskParams struct {
	Waypoint    string `json:"waypoint,omitempty"`
	TargetUnits int    `json:"targetUnits,omitempty"`
	ContractID  string `json:"contractId,omitempty"`
	TradeSymbol string `json:"tradeSymbol,omitempty"`
	Units       int    `json:"units,omitempty"`
}

// Task is a unit of work for one ship. ID, Type, ShipSymbol and Params never
// change after creation; the transition methods move Status forward and
// stamp the lifecycle times.
type Task struct {
	ID          string     `json:"id"`
	Type        TaskType   `json:"type"`
	ShipSymbol  string     `json:"shipSymbol"`
	Params      TaskParams `json:"params"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Extracted   int        `json:"extracted,omitempty"`
	Delivered   int        `json:"delivered,omitempty"`
}

// NewTask validates params for taskType and builds a PENDING task.
// A priority of zero selects the default for the type.
func NewTask(taskType TaskType, shipSymbol string, params TaskParams, priority int, now time.Time) (*Task, error) {
	if shipSymbol == "" {
		return nil, fmt.Errorf("%w: ship symbol is required", ErrInvalidTaskParams)
	}

	var prefix string
	var defaultPriority int
	switch taskType {
	case TaskTypeNavigate:
		if params.Waypoint == "" {
			return nil, fmt.Errorf("%w: navigate requires a waypoint", ErrInvalidTaskParams)
		}
		prefix, defaultPriority = "nav", PriorityNavigate
	case TaskTypeMine:
		if params.Waypoint == "" {
			return nil, fmt.Errorf("%w: mine requires a waypoint", ErrInvalidTaskParams)
		}
		if params.TargetUnits < 0 {
			return nil, fmt.Errorf("%w: target units cannot be negative", ErrInvalidTaskParams)
		}
		prefix, defaultPriority = "mine", PriorityMine
	case TaskTypeContractDelivery:
		if params.Waypoint == "" || params.ContractID == "" || params.TradeSymbol == "" {
			return nil, fmt.Errorf("%w: delivery requires contract, trade symbol and destination", ErrInvalidTaskParams)
		}
		if params.Units <= 0 {
			return nil, fmt.Errorf("%w: delivery units must be positive", ErrInvalidTaskParams)
		}
		prefix, defaultPriority = "contract", PriorityContractDelivery
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	if priority == 0 {
		priority = defaultPriority
	}

	return &Task{
		ID:         prefix + "-" + uuid.New().String(),
		Type:       taskType,
		ShipSymbol: shipSymbol,
		Params:     params,
		Priority:   priority,
		Status:     TaskStatusPending,
		CreatedAt:  now,
	}, nil
}

// NewNavigateTask creates a NAVIGATE task with the default priority
func NewNavigateTask(shipSymbol, waypoint string, now time.Time) (*Task, error) {
	return NewTask(TaskTypeNavigate, shipSymbol, TaskParams{Waypoint: waypoint}, 0, now)
}

// NewMineTask creates a MINE task; targetUnits 0 mines until cargo is full
func NewMineTask(shipSymbol, waypoint string, targetUnits int, now time.Time) (*Task, error) {
	return NewTask(TaskTypeMine, shipSymbol, TaskParams{Waypoint: waypoint, TargetUnits: targetUnits}, 0, now)
}

// NewContractDeliveryTask creates a CONTRACT_DELIVERY task
func NewContractDeliveryTask(shipSymbol, contractID, tradeSymbol string, units int, destination string, now time.Time) (*Task, error) {
	return NewTask(TaskTypeContractDelivery, shipSymbol, TaskParams{
		Waypoint:    destination,
		ContractID:  contractID,
		TradeSymbol: tradeSymbol,
		Units:       units,
	}, 0, now)
}

// Start transitions from PENDING to IN_PROGRESS
func (t *Task) Start(now time.Time) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot start task from %s state", t.Status)
	}
	t.Status = TaskStatusInProgress
	t.StartedAt = &now
	return nil
}

// Complete transitions from IN_PROGRESS to COMPLETED
func (t *Task) Complete(now time.Time) error {
	if t.Status != TaskStatusInProgress {
		return fmt.Errorf("cannot complete task from %s state", t.Status)
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

// Fail transitions from IN_PROGRESS to FAILED and records the error message
func (t *Task) Fail(err error, now time.Time) error {
	if t.Status != TaskStatusInProgress {
		return fmt.Errorf("cannot fail task from %s state", t.Status)
	}
	t.Status = TaskStatusFailed
	t.CompletedAt = &now
	if err != nil {
		t.Error = err.Error()
	}
	return nil
}

// Cancel transitions from PENDING to CANCELLED. Running tasks cannot be cancelled.
func (t *Task) Cancel(now time.Time) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot cancel task from %s state", t.Status)
	}
	t.Status = TaskStatusCancelled
	t.CompletedAt = &now
	return nil
}

// Duration is the time spent in progress; zero while pending
func (t *Task) Duration(now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := now
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt)
}
