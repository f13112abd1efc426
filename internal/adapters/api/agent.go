package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/player"
)

// GetAgent retrieves the authenticated agent (cached under agent)
func (c *SpaceTradersClient) GetAgent(ctx context.Context) (*player.Agent, error) {
	agent, err := getData[player.Agent](ctx, c, "/my/agent", RequestOptions{}, &CacheConfig{Category: cache.CategoryAgent})
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// FetchAgent retrieves the agent bypassing the cache, used to check a token
func (c *SpaceTradersClient) FetchAgent(ctx context.Context) (*player.Agent, error) {
	agent, err := getData[player.Agent](ctx, c, "/my/agent", RequestOptions{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}
	return &agent, nil
}

// GetStatus retrieves the public server status
func (c *SpaceTradersClient) GetStatus(ctx context.Context) (*player.ServerStatus, error) {
	var status player.ServerStatus
	if err := c.Request(ctx, "/", RequestOptions{SkipAuth: true}, nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get server status: %w", err)
	}
	return &status, nil
}

// Register creates a new agent and returns its token
func (c *SpaceTradersClient) Register(ctx context.Context, req player.RegisterRequest) (*player.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp envelope[player.Registration]
	opts := RequestOptions{Method: http.MethodPost, Body: req, SkipAuth: true}
	if err := c.Request(ctx, "/register", opts, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}
	return &resp.Data, nil
}

// ListFactions retrieves one page of factions (no auth)
func (c *SpaceTradersClient) ListFactions(ctx context.Context, page, limit int) (*Page[player.Faction], error) {
	endpoint := "/factions?" + pageQuery(page, limit)
	result, err := getPage[player.Faction](ctx, c, endpoint, RequestOptions{SkipAuth: true}, &CacheConfig{Category: cache.CategoryFactions})
	if err != nil {
		return nil, fmt.Errorf("failed to list factions: %w", err)
	}
	return result, nil
}

// GetFaction retrieves a faction (no auth)
func (c *SpaceTradersClient) GetFaction(ctx context.Context, symbol string) (*player.Faction, error) {
	faction, err := getData[player.Faction](ctx, c, "/factions/"+symbol, RequestOptions{SkipAuth: true}, &CacheConfig{Category: cache.CategoryFactions})
	if err != nil {
		return nil, fmt.Errorf("failed to get faction: %w", err)
	}
	return &faction, nil
}
