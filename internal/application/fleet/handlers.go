package fleet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

func (c *Coordinator) execute(ctx context.Context, task *domainFleet.Task) error {
	switch task.Type {
	case domainFleet.TaskTypeNavigate:
		return c.navigateTo(ctx, task.ShipSymbol, task.Params.Waypoint)
	case domainFleet.TaskTypeMine:
		return c.mine(ctx, task)
	case domainFleet.TaskTypeContractDelivery:
		return c.deliver(ctx, task)
	default:
		return fmt.Errorf("%w: %s", domainFleet.ErrUnknownTaskType, task.Type)
	}
}

// navigateTo moves a ship to waypoint and returns once it has arrived
func (c *Coordinator) navigateTo(ctx context.Context, shipSymbol, waypoint string) error {
	ship, err := c.refreshShip(ctx, shipSymbol)
	if err != nil {
		return err
	}

	if ship.InTransit() {
		if err := c.waitForArrival(ctx, ship.ArrivalTime()); err != nil {
			return err
		}
		if ship, err = c.refreshShip(ctx, shipSymbol); err != nil {
			return err
		}
	}
	if ship.Location() == waypoint && !ship.InTransit() {
		return nil
	}

	if ship.IsDocked() {
		if _, err := c.api.OrbitShip(ctx, shipSymbol); err != nil {
			return fmt.Errorf("failed to orbit %s: %w", shipSymbol, err)
		}
	}

	result, err := c.api.NavigateShip(ctx, shipSymbol, waypoint)
	if err != nil {
		return fmt.Errorf("failed to navigate %s to %s: %w", shipSymbol, waypoint, err)
	}

	c.mu.Lock()
	if managed, ok := c.ships[shipSymbol]; ok {
		managed.Ship.Nav = result.Nav
		managed.Ship.Fuel = result.Fuel
		managed.Stats.DistanceTraveled += result.Nav.Route.Distance()
	}
	c.mu.Unlock()

	c.logger.Info("ship-navigating",
		zap.String("ship", shipSymbol),
		zap.String("destination", waypoint),
		zap.Time("arrival", result.ArrivalTime()))

	if err := c.waitForArrival(ctx, result.ArrivalTime()); err != nil {
		return err
	}
	_, err = c.refreshShip(ctx, shipSymbol)
	return err
}

// waitForArrival sleeps until arrival plus the arrival margin
func (c *Coordinator) waitForArrival(ctx context.Context, arrival time.Time) error {
	if arrival.IsZero() {
		return nil
	}
	wait := shared.WaitUntil(c.clock.Now(), arrival, c.cfg.ArrivalMargin)
	if wait == 0 {
		return nil
	}
	return c.clock.SleepContext(ctx, wait)
}

// mine extracts at the target until the cargo hold is full or the target
// unit count is reached
func (c *Coordinator) mine(ctx context.Context, task *domainFleet.Task) error {
	symbol := task.ShipSymbol
	target := task.Params.TargetUnits

	if err := c.navigateTo(ctx, symbol, task.Params.Waypoint); err != nil {
		return err
	}

	ship, err := c.refreshShip(ctx, symbol)
	if err != nil {
		return err
	}
	if ship.IsDocked() {
		if _, err := c.api.OrbitShip(ctx, symbol); err != nil {
			return fmt.Errorf("failed to orbit %s: %w", symbol, err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// cooldowns can be shorter than the ships cache TTL
		ship, err := c.reloadShip(ctx, symbol)
		if err != nil {
			return err
		}
		if ship.CargoFull() {
			return nil
		}
		if target > 0 && c.extracted(task) >= target {
			return nil
		}

		if remaining := ship.Cooldown.Remaining(); remaining > 0 {
			if err := c.clock.SleepContext(ctx, remaining+c.cfg.CooldownMargin); err != nil {
				return err
			}
			continue
		}

		result, err := c.api.ExtractResources(ctx, symbol, nil)
		if err != nil {
			if api.HasCode(err, api.CodeCooldownConflict) {
				c.logger.Debug("extraction-cooldown-conflict", zap.String("ship", symbol))
				if err := c.clock.SleepContext(ctx, c.cfg.CooldownRetryDelay); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("extraction failed for %s: %w", symbol, err)
		}

		c.recordExtraction(ctx, task, ship.Location(), result)
	}
}

func (c *Coordinator) recordExtraction(ctx context.Context, task *domainFleet.Task, waypoint string, result *navigation.ExtractionResult) {
	yield := result.Yield()

	c.mu.Lock()
	task.Extracted += yield.Units
	extracted := task.Extracted
	if managed, ok := c.ships[task.ShipSymbol]; ok {
		managed.Ship.Cargo = result.Cargo
		managed.Ship.Cooldown = result.Cooldown
	}
	recorder := c.extractions
	c.mu.Unlock()

	c.logger.Info("resources-extracted",
		zap.String("ship", task.ShipSymbol),
		zap.String("good", yield.Symbol),
		zap.Int("units", yield.Units),
		zap.Int("total", extracted))

	if recorder == nil {
		return
	}
	if _, err := recorder.RecordExtraction(ctx, task.ShipSymbol, yield.Symbol, yield.Units, waypoint); err != nil {
		c.logger.Warn("extraction-record-failed", zap.String("ship", task.ShipSymbol), zap.Error(err))
	}
}

func (c *Coordinator) extracted(task *domainFleet.Task) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return task.Extracted
}

// deliver brings contract goods to the destination and hands them over
func (c *Coordinator) deliver(ctx context.Context, task *domainFleet.Task) error {
	p := task.Params
	symbol := task.ShipSymbol

	if err := c.navigateTo(ctx, symbol, p.Waypoint); err != nil {
		return err
	}
	if _, err := c.api.DockShip(ctx, symbol); err != nil {
		return fmt.Errorf("failed to dock %s: %w", symbol, err)
	}

	result, err := c.api.DeliverContract(ctx, p.ContractID, symbol, p.TradeSymbol, p.Units)
	if err != nil {
		return fmt.Errorf("failed to deliver %s for contract %s: %w", p.TradeSymbol, p.ContractID, err)
	}

	c.mu.Lock()
	task.Delivered = p.Units
	if managed, ok := c.ships[symbol]; ok {
		managed.Ship.Cargo.Units = result.Cargo.Units
	}
	c.mu.Unlock()

	c.logger.Info("contract-delivered",
		zap.String("ship", symbol),
		zap.String("contract", p.ContractID),
		zap.String("good", p.TradeSymbol),
		zap.Int("units", p.Units))
	return nil
}

// refreshShip fetches a ship and stores the snapshot, adding it to the fleet
// when unknown
func (c *Coordinator) refreshShip(ctx context.Context, symbol string) (*navigation.Ship, error) {
	ship, err := c.api.GetShip(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get ship %s: %w", symbol, err)
	}
	return c.storeShip(symbol, ship), nil
}

// reloadShip is refreshShip without the response cache
func (c *Coordinator) reloadShip(ctx context.Context, symbol string) (*navigation.Ship, error) {
	ship, err := c.api.FetchShip(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ship %s: %w", symbol, err)
	}
	return c.storeShip(symbol, ship), nil
}

func (c *Coordinator) storeShip(symbol string, ship *navigation.Ship) *navigation.Ship {
	c.mu.Lock()
	if managed, ok := c.ships[symbol]; ok {
		managed.Refresh(*ship)
	} else {
		managed := domainFleet.NewManagedShip(*ship)
		if c.active != nil && c.active.ShipSymbol == symbol {
			managed.CurrentTaskID = c.active.ID
		}
		c.ships[symbol] = managed
	}
	c.mu.Unlock()

	return ship
}
