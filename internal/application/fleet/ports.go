package fleet

import (
	"context"
	"time"

	"github.com/andrescamacho/skamkraft-go/internal/domain/contract"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
)

// ShipAPI is the slice of the SpaceTraders client the coordinator drives
type ShipAPI interface {
	GetAllShips(ctx context.Context) ([]navigation.Ship, error)
	GetShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error)
	FetchShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error)
	OrbitShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error)
	DockShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error)
	NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error)
	ExtractResources(ctx context.Context, shipSymbol string, survey *navigation.Survey) (*navigation.ExtractionResult, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*contract.DeliverResult, error)
	GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*system.Waypoint, error)
}

// Recorder receives task lifecycle events for observability
type Recorder interface {
	TaskQueued(taskType string)
	TaskFinished(taskType, status string, duration time.Duration)
	FleetSize(ships int)
}

type noopRecorder struct{}

func (noopRecorder) TaskQueued(string)                          {}
func (noopRecorder) TaskFinished(string, string, time.Duration) {}
func (noopRecorder) FleetSize(int)                              {}
