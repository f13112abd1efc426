package fleet

// NavBreakdown counts ships per navigation state
type NavBreakdown struct {
	InTransit  int `json:"inTransit"`
	Docked     int `json:"docked"`
	InOrbit    int `json:"inOrbit"`
	OnCooldown int `json:"onCooldown"`
}

// Status is the fleet overview
type Status struct {
	TotalShips   int              `json:"totalShips"`
	ByRole       map[ShipRole]int `json:"byRole"`
	ByStatus     NavBreakdown     `json:"byStatus"`
	Idle         int              `json:"idle"`
	PendingTasks int              `json:"pendingTasks"`
	ActiveTasks  int              `json:"activeTasks"`
}

// Summarize counts ships by role and navigation state. Task counts are
// filled in by the caller who owns the queue.
func Summarize(ships []*ManagedShip) Status {
	status := Status{
		TotalShips: len(ships),
		ByRole:     make(map[ShipRole]int),
	}
	for _, ship := range ships {
		status.ByRole[ship.Role]++

		switch {
		case ship.Ship.InTransit():
			status.ByStatus.InTransit++
		case ship.Ship.IsDocked():
			status.ByStatus.Docked++
		case ship.Ship.InOrbit():
			status.ByStatus.InOrbit++
		}
		if ship.Ship.Cooldown.RemainingSeconds > 0 {
			status.ByStatus.OnCooldown++
		}
		if ship.IsIdle() {
			status.Idle++
		}
	}
	return status
}
