package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shipyard"
)

func shipPath(shipSymbol, action string) string {
	if action == "" {
		return "/my/ships/" + shipSymbol
	}
	return fmt.Sprintf("/my/ships/%s/%s", shipSymbol, action)
}

// ListShips retrieves one page of the agent's ships
func (c *SpaceTradersClient) ListShips(ctx context.Context, page, limit int) (*Page[navigation.Ship], error) {
	endpoint := "/my/ships?" + pageQuery(page, limit)
	result, err := getPage[navigation.Ship](ctx, c, endpoint, RequestOptions{}, &CacheConfig{Category: cache.CategoryShips})
	if err != nil {
		return nil, fmt.Errorf("failed to list ships: %w", err)
	}
	return result, nil
}

// GetAllShips pages through /my/ships until the reported total is reached.
// An empty page ends the listing.
func (c *SpaceTradersClient) GetAllShips(ctx context.Context) ([]navigation.Ship, error) {
	var ships []navigation.Ship
	for page := 1; ; page++ {
		result, err := c.ListShips(ctx, page, c.pageSize)
		if err != nil {
			return nil, err
		}
		if len(result.Items) == 0 {
			break
		}
		ships = append(ships, result.Items...)

		limit := result.Meta.Limit
		if limit <= 0 {
			limit = c.pageSize
		}
		if page*limit >= result.Meta.Total {
			break
		}
	}
	return ships, nil
}

// GetShip retrieves a ship snapshot (cached under ships)
func (c *SpaceTradersClient) GetShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error) {
	ship, err := getData[navigation.Ship](ctx, c, shipPath(shipSymbol, ""), RequestOptions{}, &CacheConfig{Category: cache.CategoryShips})
	if err != nil {
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}
	return &ship, nil
}

// FetchShip retrieves a ship bypassing the cache, for loops that poll its
// cooldown or cargo
func (c *SpaceTradersClient) FetchShip(ctx context.Context, shipSymbol string) (*navigation.Ship, error) {
	ship, err := getData[navigation.Ship](ctx, c, shipPath(shipSymbol, ""), RequestOptions{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ship: %w", err)
	}
	return &ship, nil
}

// OrbitShip moves a docked ship into orbit
func (c *SpaceTradersClient) OrbitShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.NavResult](ctx, c, shipPath(shipSymbol, "orbit"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to orbit ship: %w", err)
	}
	return &result, nil
}

// DockShip docks a ship at its current waypoint
func (c *SpaceTradersClient) DockShip(ctx context.Context, shipSymbol string) (*navigation.NavResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.NavResult](ctx, c, shipPath(shipSymbol, "dock"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dock ship: %w", err)
	}
	return &result, nil
}

type waypointBody struct {
	WaypointSymbol string `json:"waypointSymbol"`
}

// NavigateShip starts travel to a waypoint in the same system
func (c *SpaceTradersClient) NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.NavigateResult](ctx, c, shipPath(shipSymbol, "navigate"), waypointBody{waypointSymbol})
	if err != nil {
		return nil, fmt.Errorf("failed to navigate ship: %w", err)
	}
	return &result, nil
}

// WarpShip warps to a waypoint in another system
func (c *SpaceTradersClient) WarpShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.NavigateResult](ctx, c, shipPath(shipSymbol, "warp"), waypointBody{waypointSymbol})
	if err != nil {
		return nil, fmt.Errorf("failed to warp ship: %w", err)
	}
	return &result, nil
}

// JumpShip jumps through a jump gate
func (c *SpaceTradersClient) JumpShip(ctx context.Context, shipSymbol, waypointSymbol string) (*navigation.NavigateResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.NavigateResult](ctx, c, shipPath(shipSymbol, "jump"), waypointBody{waypointSymbol})
	if err != nil {
		return nil, fmt.Errorf("failed to jump ship: %w", err)
	}
	return &result, nil
}

// RefuelShip refuels a docked ship. units <= 0 fills the tank.
func (c *SpaceTradersClient) RefuelShip(ctx context.Context, shipSymbol string, units int, fromCargo bool) (*navigation.RefuelResult, error) {
	defer c.invalidateShip(shipSymbol)

	body := map[string]any{}
	if units > 0 {
		body["units"] = units
	}
	if fromCargo {
		body["fromCargo"] = true
	}
	var payload any
	if len(body) > 0 {
		payload = body
	}

	result, err := postData[navigation.RefuelResult](ctx, c, shipPath(shipSymbol, "refuel"), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to refuel ship: %w", err)
	}
	return &result, nil
}

// ExtractResources mines at the current waypoint, optionally with a survey
func (c *SpaceTradersClient) ExtractResources(ctx context.Context, shipSymbol string, survey *navigation.Survey) (*navigation.ExtractionResult, error) {
	defer c.invalidateShip(shipSymbol)

	var body any
	if survey != nil {
		body = map[string]any{"survey": survey}
	}
	result, err := postData[navigation.ExtractionResult](ctx, c, shipPath(shipSymbol, "extract"), body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract resources: %w", err)
	}
	return &result, nil
}

// SiphonResources siphons gas at the current waypoint
func (c *SpaceTradersClient) SiphonResources(ctx context.Context, shipSymbol string) (*navigation.ExtractionResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.ExtractionResult](ctx, c, shipPath(shipSymbol, "siphon"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to siphon resources: %w", err)
	}
	return &result, nil
}

type cargoBody struct {
	Symbol string `json:"symbol"`
	Units  int    `json:"units"`
}

// SellCargo sells cargo at the docked market
func (c *SpaceTradersClient) SellCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error) {
	defer c.invalidateCategories(cache.CategoryAgent)
	defer c.invalidateShip(shipSymbol)
	result, err := postData[market.TradeResult](ctx, c, shipPath(shipSymbol, "sell"), cargoBody{tradeSymbol, units})
	if err != nil {
		return nil, fmt.Errorf("failed to sell cargo: %w", err)
	}
	return &result, nil
}

// PurchaseCargo buys cargo at the docked market
func (c *SpaceTradersClient) PurchaseCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*market.TradeResult, error) {
	defer c.invalidateCategories(cache.CategoryAgent)
	defer c.invalidateShip(shipSymbol)
	result, err := postData[market.TradeResult](ctx, c, shipPath(shipSymbol, "purchase"), cargoBody{tradeSymbol, units})
	if err != nil {
		return nil, fmt.Errorf("failed to purchase cargo: %w", err)
	}
	return &result, nil
}

// TransferCargo moves cargo to another ship at the same waypoint
func (c *SpaceTradersClient) TransferCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int, targetShip string) (*navigation.TransferResult, error) {
	defer c.invalidateShip(targetShip)
	defer c.invalidateShip(shipSymbol)
	body := map[string]any{"tradeSymbol": tradeSymbol, "units": units, "shipSymbol": targetShip}
	result, err := postData[navigation.TransferResult](ctx, c, shipPath(shipSymbol, "transfer"), body)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer cargo: %w", err)
	}
	return &result, nil
}

// JettisonCargo discards cargo
func (c *SpaceTradersClient) JettisonCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) (*navigation.CargoResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.CargoResult](ctx, c, shipPath(shipSymbol, "jettison"), cargoBody{tradeSymbol, units})
	if err != nil {
		return nil, fmt.Errorf("failed to jettison cargo: %w", err)
	}
	return &result, nil
}

// CreateSurvey surveys the current waypoint
func (c *SpaceTradersClient) CreateSurvey(ctx context.Context, shipSymbol string) (*navigation.SurveyResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.SurveyResult](ctx, c, shipPath(shipSymbol, "survey"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	return &result, nil
}

// CreateChart charts the current waypoint
func (c *SpaceTradersClient) CreateChart(ctx context.Context, shipSymbol string) (*navigation.ChartResult, error) {
	defer c.invalidateCategories(cache.CategoryWaypoints)
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.ChartResult](ctx, c, shipPath(shipSymbol, "chart"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return &result, nil
}

// ScanSystems scans nearby systems
func (c *SpaceTradersClient) ScanSystems(ctx context.Context, shipSymbol string) (*navigation.ScanResult, error) {
	return c.scan(ctx, shipSymbol, "systems")
}

// ScanWaypoints scans nearby waypoints
func (c *SpaceTradersClient) ScanWaypoints(ctx context.Context, shipSymbol string) (*navigation.ScanResult, error) {
	return c.scan(ctx, shipSymbol, "waypoints")
}

// ScanShips scans nearby ships
func (c *SpaceTradersClient) ScanShips(ctx context.Context, shipSymbol string) (*navigation.ScanResult, error) {
	return c.scan(ctx, shipSymbol, "ships")
}

func (c *SpaceTradersClient) scan(ctx context.Context, shipSymbol, target string) (*navigation.ScanResult, error) {
	defer c.invalidateShip(shipSymbol)
	result, err := postData[navigation.ScanResult](ctx, c, shipPath(shipSymbol, "scan/"+target), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", target, err)
	}
	return &result, nil
}

// SetFlightMode changes how the ship travels
func (c *SpaceTradersClient) SetFlightMode(ctx context.Context, shipSymbol string, mode shared.FlightMode) (*navigation.NavResult, error) {
	defer c.invalidateShip(shipSymbol)

	var resp envelope[navigation.ShipNav]
	opts := RequestOptions{Method: http.MethodPatch, Body: map[string]string{"flightMode": mode.String()}}
	if err := c.Request(ctx, shipPath(shipSymbol, "nav"), opts, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to set flight mode: %w", err)
	}
	return &navigation.NavResult{Nav: resp.Data}, nil
}

// GetCooldown retrieves the ship's active cooldown. No cooldown yields a zero value.
func (c *SpaceTradersClient) GetCooldown(ctx context.Context, shipSymbol string) (*navigation.Cooldown, error) {
	cooldown, err := getData[navigation.Cooldown](ctx, c, shipPath(shipSymbol, "cooldown"), RequestOptions{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}
	return &cooldown, nil
}

// PurchaseShip buys a ship at a shipyard waypoint
func (c *SpaceTradersClient) PurchaseShip(ctx context.Context, shipType, waypointSymbol string) (*shipyard.PurchaseResult, error) {
	defer c.invalidateCategories(cache.CategoryAgent, cache.CategoryShips)
	body := map[string]string{"shipType": shipType, "waypointSymbol": waypointSymbol}
	result, err := postData[shipyard.PurchaseResult](ctx, c, "/my/ships", body)
	if err != nil {
		return nil, fmt.Errorf("failed to purchase ship: %w", err)
	}
	return &result, nil
}
