package trading

import (
	"context"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
)

// MarketAPI is the slice of the SpaceTraders client the bot drives
type MarketAPI interface {
	ListWaypoints(ctx context.Context, systemSymbol string, query api.WaypointQuery) (*api.Page[system.Waypoint], error)
	GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*market.Market, error)
	GetShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error)
	OrbitShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error)
	DockShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error)
	NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error)
	PurchaseCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error)
	SellCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error)
}

// Recorder receives trade outcomes for observability
type Recorder interface {
	MarketsScanned(count int)
	TradeCompleted(good string, profit int64)
	TradeFailed(good string)
}

type noopRecorder struct{}

func (noopRecorder) MarketsScanned(int)           {}
func (noopRecorder) TradeCompleted(string, int64) {}
func (noopRecorder) TradeFailed(string)           {}
