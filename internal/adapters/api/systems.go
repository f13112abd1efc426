package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shipyard"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
)

// WaypointQuery filters a waypoint listing
type WaypointQuery struct {
	Page   int
	Limit  int
	Traits []string
	Type   string
}

func waypointPath(systemSymbol, waypointSymbol, resource string) string {
	path := fmt.Sprintf("/systems/%s/waypoints/%s", systemSymbol, waypointSymbol)
	if resource != "" {
		path += "/" + resource
	}
	return path
}

// ListSystems retrieves one page of systems
func (c *SpaceTradersClient) ListSystems(ctx context.Context, page, limit int) (*Page[system.System], error) {
	result, err := getPage[system.System](ctx, c, "/systems?"+pageQuery(page, limit), RequestOptions{}, &CacheConfig{Category: cache.CategorySystems})
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	return result, nil
}

// GetSystem retrieves a system
func (c *SpaceTradersClient) GetSystem(ctx context.Context, systemSymbol string) (*system.System, error) {
	result, err := getData[system.System](ctx, c, "/systems/"+systemSymbol, RequestOptions{}, &CacheConfig{Category: cache.CategorySystems})
	if err != nil {
		return nil, fmt.Errorf("failed to get system: %w", err)
	}
	return &result, nil
}

// ListWaypoints retrieves one page of waypoints in a system
func (c *SpaceTradersClient) ListWaypoints(ctx context.Context, systemSymbol string, query WaypointQuery) (*Page[system.Waypoint], error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = c.pageSize
	}

	endpoint := fmt.Sprintf("/systems/%s/waypoints?%s", systemSymbol, pageQuery(query.Page, query.Limit))
	if len(query.Traits) > 0 {
		endpoint += "&traits=" + url.QueryEscape(strings.Join(query.Traits, ","))
	}
	if query.Type != "" {
		endpoint += "&type=" + url.QueryEscape(query.Type)
	}

	result, err := getPage[system.Waypoint](ctx, c, endpoint, RequestOptions{}, &CacheConfig{Category: cache.CategoryWaypoints})
	if err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	return result, nil
}

// GetWaypoint retrieves a waypoint
func (c *SpaceTradersClient) GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*system.Waypoint, error) {
	result, err := getData[system.Waypoint](ctx, c, waypointPath(systemSymbol, waypointSymbol, ""), RequestOptions{}, &CacheConfig{Category: cache.CategoryWaypoints})
	if err != nil {
		return nil, fmt.Errorf("failed to get waypoint: %w", err)
	}
	return &result, nil
}

// GetMarket retrieves a market. Trade goods are only present with a ship docked there.
func (c *SpaceTradersClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*market.Market, error) {
	result, err := getData[market.Market](ctx, c, waypointPath(systemSymbol, waypointSymbol, "market"), RequestOptions{}, &CacheConfig{Category: cache.CategoryMarkets})
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return &result, nil
}

// GetShipyard retrieves a shipyard
func (c *SpaceTradersClient) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*shipyard.Shipyard, error) {
	result, err := getData[shipyard.Shipyard](ctx, c, waypointPath(systemSymbol, waypointSymbol, "shipyard"), RequestOptions{}, &CacheConfig{Category: cache.CategoryShipyards})
	if err != nil {
		return nil, fmt.Errorf("failed to get shipyard: %w", err)
	}
	return &result, nil
}

// GetJumpGate retrieves the connections of a jump gate
func (c *SpaceTradersClient) GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol string) (*system.JumpGate, error) {
	result, err := getData[system.JumpGate](ctx, c, waypointPath(systemSymbol, waypointSymbol, "jump-gate"), RequestOptions{}, &CacheConfig{Category: cache.CategorySystems})
	if err != nil {
		return nil, fmt.Errorf("failed to get jump gate: %w", err)
	}
	return &result, nil
}

// GetConstruction retrieves a construction site. Never cached since supply changes it.
func (c *SpaceTradersClient) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*system.Construction, error) {
	result, err := getData[system.Construction](ctx, c, waypointPath(systemSymbol, waypointSymbol, "construction"), RequestOptions{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get construction: %w", err)
	}
	return &result, nil
}

// SupplyConstructionResult is returned after supplying a construction site
type SupplyConstructionResult struct {
	Construction system.Construction `json:"construction"`
	Cargo        struct {
		Capacity int `json:"capacity"`
		Units    int `json:"units"`
	} `json:"cargo"`
}

// SupplyConstruction delivers materials from a docked ship
func (c *SpaceTradersClient) SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int) (*SupplyConstructionResult, error) {
	defer c.invalidateShip(shipSymbol)

	var resp envelope[SupplyConstructionResult]
	opts := RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units},
	}
	if err := c.Request(ctx, waypointPath(systemSymbol, waypointSymbol, "construction/supply"), opts, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to supply construction: %w", err)
	}
	return &resp.Data, nil
}
