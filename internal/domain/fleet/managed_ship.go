package fleet

import "github.com/andrescamacho/skamkraft-go/internal/domain/navigation"

// ShipStats accumulates per-ship task outcomes
type ShipStats struct {
	TasksCompleted   int     `json:"tasksCompleted"`
	TasksFailed      int     `json:"tasksFailed"`
	CreditsEarned    int64   `json:"creditsEarned"`
	DistanceTraveled float64 `json:"distanceTraveled"`
}

// ManagedShip is a ship under fleet control. Ship is the latest snapshot;
// Role, CurrentTaskID and Stats survive re-syncs.
type ManagedShip struct {
	Ship          navigation.Ship `json:"ship"`
	Role          ShipRole        `json:"role"`
	CurrentTaskID string          `json:"currentTaskId,omitempty"`
	Stats         ShipStats       `json:"stats"`
}

// NewManagedShip wraps a first-seen snapshot and detects its role
func NewManagedShip(ship navigation.Ship) *ManagedShip {
	return &ManagedShip{
		Ship: ship,
		Role: DetectRole(&ship),
	}
}

// Symbol returns the ship symbol
func (m *ManagedShip) Symbol() string {
	return m.Ship.Symbol
}

// IsIdle is true when the ship has no task, is not travelling and has no
// active cooldown
func (m *ManagedShip) IsIdle() bool {
	return m.CurrentTaskID == "" && !m.Ship.InTransit() && m.Ship.Cooldown.RemainingSeconds <= 0
}

// Refresh replaces the snapshot and keeps role, task and stats
func (m *ManagedShip) Refresh(ship navigation.Ship) {
	m.Ship = ship
}
