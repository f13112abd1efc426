package api

import (
	"context"
	"fmt"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/contract"
)

// ListContracts retrieves one page of the agent's contracts
func (c *SpaceTradersClient) ListContracts(ctx context.Context, page, limit int) (*Page[contract.Contract], error) {
	endpoint := "/my/contracts?" + pageQuery(page, limit)
	result, err := getPage[contract.Contract](ctx, c, endpoint, RequestOptions{}, &CacheConfig{Category: cache.CategoryContracts})
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return result, nil
}

// GetContract retrieves a contract by id
func (c *SpaceTradersClient) GetContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	result, err := getData[contract.Contract](ctx, c, "/my/contracts/"+contractID, RequestOptions{}, &CacheConfig{Category: cache.CategoryContracts})
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &result, nil
}

// AcceptContract accepts a contract and collects the acceptance payment
func (c *SpaceTradersClient) AcceptContract(ctx context.Context, contractID string) (*contract.ActionResult, error) {
	defer c.invalidateCategories(cache.CategoryContracts, cache.CategoryAgent)
	result, err := postData[contract.ActionResult](ctx, c, fmt.Sprintf("/my/contracts/%s/accept", contractID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to accept contract: %w", err)
	}
	return &result, nil
}

// DeliverContract hands over cargo from a docked ship
func (c *SpaceTradersClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*contract.DeliverResult, error) {
	defer c.invalidateCategories(cache.CategoryContracts)
	defer c.invalidateShip(shipSymbol)
	body := map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units}
	result, err := postData[contract.DeliverResult](ctx, c, fmt.Sprintf("/my/contracts/%s/deliver", contractID), body)
	if err != nil {
		return nil, fmt.Errorf("failed to deliver contract: %w", err)
	}
	return &result, nil
}

// FulfillContract completes a contract and collects the final payment
func (c *SpaceTradersClient) FulfillContract(ctx context.Context, contractID string) (*contract.ActionResult, error) {
	defer c.invalidateCategories(cache.CategoryContracts, cache.CategoryAgent)
	result, err := postData[contract.ActionResult](ctx, c, fmt.Sprintf("/my/contracts/%s/fulfill", contractID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fulfill contract: %w", err)
	}
	return &result, nil
}

// NegotiateContract asks the faction at the ship's waypoint for a new contract
func (c *SpaceTradersClient) NegotiateContract(ctx context.Context, shipSymbol string) (*contract.Contract, error) {
	defer c.invalidateCategories(cache.CategoryContracts)
	result, err := postData[struct {
		Contract contract.Contract `json:"contract"`
	}](ctx, c, shipPath(shipSymbol, "negotiate/contract"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to negotiate contract: %w", err)
	}
	return &result.Contract, nil
}
