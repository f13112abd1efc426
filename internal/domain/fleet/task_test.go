package fleet_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewTask_AssignsPrefixedIDsAndDefaults(t *testing.T) {
	// Act
	nav, err := fleet.NewNavigateTask("NOVA-1", "X1-A1", now)
	require.NoError(t, err)
	mine, err := fleet.NewMineTask("NOVA-1", "X1-A2", 30, now)
	require.NoError(t, err)
	deliver, err := fleet.NewContractDeliveryTask("NOVA-1", "c-1", "IRON_ORE", 10, "X1-B1", now)
	require.NoError(t, err)

	// Assert
	assert.Regexp(t, `^nav-[0-9a-f-]{36}$`, nav.ID)
	assert.Regexp(t, `^mine-[0-9a-f-]{36}$`, mine.ID)
	assert.Regexp(t, `^contract-[0-9a-f-]{36}$`, deliver.ID)
	assert.Equal(t, fleet.PriorityNavigate, nav.Priority)
	assert.Equal(t, fleet.PriorityMine, mine.Priority)
	assert.Equal(t, fleet.PriorityContractDelivery, deliver.Priority)
	assert.Equal(t, fleet.TaskStatusPending, nav.Status)
	assert.Equal(t, now, nav.CreatedAt)
}

func TestNewTask_ValidatesParams(t *testing.T) {
	tests := []struct {
		name     string
		taskType fleet.TaskType
		ship     string
		params   fleet.TaskParams
		want     error
	}{
		{"missing ship", fleet.TaskTypeNavigate, "", fleet.TaskParams{Waypoint: "X1-A1"}, fleet.ErrInvalidTaskParams},
		{"navigate without waypoint", fleet.TaskTypeNavigate, "S", fleet.TaskParams{}, fleet.ErrInvalidTaskParams},
		{"mine negative target", fleet.TaskTypeMine, "S", fleet.TaskParams{Waypoint: "X1-A1", TargetUnits: -1}, fleet.ErrInvalidTaskParams},
		{"delivery without contract", fleet.TaskTypeContractDelivery, "S", fleet.TaskParams{Waypoint: "X1-A1", TradeSymbol: "G", Units: 1}, fleet.ErrInvalidTaskParams},
		{"delivery zero units", fleet.TaskTypeContractDelivery, "S", fleet.TaskParams{Waypoint: "X1-A1", ContractID: "c", TradeSymbol: "G"}, fleet.ErrInvalidTaskParams},
		{"unknown type", fleet.TaskType("SCOUT"), "S", fleet.TaskParams{Waypoint: "X1-A1"}, fleet.ErrUnknownTaskType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fleet.NewTask(tt.taskType, tt.ship, tt.params, 0, now)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewTask_ExplicitPriority(t *testing.T) {
	task, err := fleet.NewTask(fleet.TaskTypeNavigate, "NOVA-1", fleet.TaskParams{Waypoint: "X1-A1"}, 9, now)
	require.NoError(t, err)
	assert.Equal(t, 9, task.Priority)
}

func TestTask_Lifecycle(t *testing.T) {
	// Arrange
	task, err := fleet.NewNavigateTask("NOVA-1", "X1-A1", now)
	require.NoError(t, err)

	// Act & Assert
	require.Error(t, task.Complete(now), "cannot complete a pending task")

	require.NoError(t, task.Start(now.Add(time.Second)))
	assert.Equal(t, fleet.TaskStatusInProgress, task.Status)
	require.Error(t, task.Cancel(now), "running tasks cannot be cancelled")

	require.NoError(t, task.Complete(now.Add(4*time.Second)))
	assert.Equal(t, fleet.TaskStatusCompleted, task.Status)
	assert.True(t, task.Status.IsTerminal())
	assert.Equal(t, 3*time.Second, task.Duration(now.Add(time.Hour)))
	require.Error(t, task.Start(now))
}

func TestTask_FailRecordsMessage(t *testing.T) {
	// Arrange
	task, err := fleet.NewMineTask("NOVA-1", "X1-A1", 0, now)
	require.NoError(t, err)
	require.NoError(t, task.Start(now))

	// Act
	err = task.Fail(errors.New("ship is not in orbit"), now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, fleet.TaskStatusFailed, task.Status)
	assert.Equal(t, "ship is not in orbit", task.Error)
	require.NotNil(t, task.CompletedAt)
}

func TestTask_CancelPending(t *testing.T) {
	task, err := fleet.NewNavigateTask("NOVA-1", "X1-A1", now)
	require.NoError(t, err)

	require.NoError(t, task.Cancel(now))
	assert.Equal(t, fleet.TaskStatusCancelled, task.Status)
	assert.Equal(t, time.Duration(0), task.Duration(now))
}

func TestParseTaskType(t *testing.T) {
	typ, err := fleet.ParseTaskType("MINE")
	require.NoError(t, err)
	assert.Equal(t, fleet.TaskTypeMine, typ)

	_, err = fleet.ParseTaskType("mine")
	assert.ErrorIs(t, err, fleet.ErrUnknownTaskType)
}
