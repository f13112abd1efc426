package fleet

import (
	"fmt"
	"math"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// SelectionResult contains the result of ship selection
type SelectionResult struct {
	Ship     *ManagedShip
	Distance float64
	Reason   string // why this ship was selected, e.g. "has cargo", "closest"
}

// Target is the location ships are selected for
type Target struct {
	Symbol string
	X, Y   int
}

// SelectOptimalShip picks a ship for target among idle candidates.
//
// Business Rules:
// 1. Ships already holding requiredCargo win, closest first
// 2. Ships in transit or with a current task are skipped
// 3. Otherwise the closest ship by Euclidean distance
func SelectOptimalShip(ships []*ManagedShip, target Target, requiredCargo string) (*SelectionResult, error) {
	if len(ships) == 0 {
		return nil, fmt.Errorf("%w: fleet is empty", ErrNoShipAvailable)
	}

	var closest, closestWithCargo *ManagedShip
	minDistance, minCargoDistance := math.MaxFloat64, math.MaxFloat64

	for _, ship := range ships {
		if !ship.IsIdle() {
			continue
		}

		x, y := ship.Ship.Position()
		distance := shared.Distance(x, y, target.X, target.Y)

		if requiredCargo != "" && ship.Ship.CargoUnitsOf(requiredCargo) > 0 && distance < minCargoDistance {
			minCargoDistance = distance
			closestWithCargo = ship
		}
		if distance < minDistance {
			minDistance = distance
			closest = ship
		}
	}

	if closestWithCargo != nil {
		return &SelectionResult{
			Ship:     closestWithCargo,
			Distance: minCargoDistance,
			Reason:   fmt.Sprintf("has %s in cargo (priority)", requiredCargo),
		}, nil
	}
	if closest == nil {
		return nil, fmt.Errorf("%w: every ship is busy or in transit", ErrNoShipAvailable)
	}

	return &SelectionResult{
		Ship:     closest,
		Distance: minDistance,
		Reason:   fmt.Sprintf("closest by distance (%.2f units)", minDistance),
	}, nil
}
