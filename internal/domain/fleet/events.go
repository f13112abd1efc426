package fleet

import "time"

// EventType names a fleet event
type EventType string

const (
	EventTaskQueued    EventType = "TASK_QUEUED"
	EventTaskStarted   EventType = "TASK_STARTED"
	EventTaskCompleted EventType = "TASK_COMPLETED"
	EventTaskFailed    EventType = "TASK_FAILED"
	EventTaskCancelled EventType = "TASK_CANCELLED"
	EventFleetSynced   EventType = "FLEET_SYNCED"
)

// Event is published to fleet subscribers. Task is a copy taken at publish
// time; ShipCount is set for FLEET_SYNCED.
type Event struct {
	Type       EventType `json:"type"`
	ShipSymbol string    `json:"shipSymbol,omitempty"`
	Task       *Task     `json:"task,omitempty"`
	ShipCount  int       `json:"shipCount,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
