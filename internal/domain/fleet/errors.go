package fleet

import "errors"

var (
	// ErrUnknownTaskType is returned for a task type without a handler
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInvalidTaskParams is returned when a task is missing required parameters
	ErrInvalidTaskParams = errors.New("invalid task parameters")

	// ErrTaskNotFound is returned when no task has the given id
	ErrTaskNotFound = errors.New("task not found")

	// ErrShipNotFound is returned when the fleet does not manage the ship
	ErrShipNotFound = errors.New("ship not found in fleet")

	// ErrNoShipAvailable is returned when no ship qualifies for selection
	ErrNoShipAvailable = errors.New("no ship available")
)
