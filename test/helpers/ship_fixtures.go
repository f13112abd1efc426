package helpers

import (
	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
)

// CreateTestShip builds a ship at waypoint with sensible defaults
func CreateTestShip(symbol, waypoint string, status navigation.NavStatus, cargoCapacity int) navigation.Ship {
	return navigation.Ship{
		Symbol: symbol,
		Registration: navigation.ShipRegistration{
			Name:          symbol,
			FactionSymbol: "COSMIC",
			Role:          "COMMAND",
		},
		Nav: navigation.ShipNav{
			SystemSymbol:   shared.ExtractSystemSymbol(waypoint),
			WaypointSymbol: waypoint,
			Status:         status,
			FlightMode:     string(shared.FlightModeCruise),
			Route: navigation.ShipRoute{
				Origin:      navigation.RouteEndpoint{Symbol: waypoint},
				Destination: navigation.RouteEndpoint{Symbol: waypoint},
			},
		},
		Frame: navigation.ShipComponent{Symbol: "FRAME_FRIGATE"},
		Cargo: navigation.ShipCargo{Capacity: cargoCapacity},
		Fuel:  navigation.ShipFuel{Current: 400, Capacity: 400},
	}
}

// CreateTestMiner builds a ship carrying a mining laser
func CreateTestMiner(symbol, waypoint string, cargoCapacity int) navigation.Ship {
	ship := CreateTestShip(symbol, waypoint, navigation.NavStatusInOrbit, cargoCapacity)
	ship.Frame.Symbol = "FRAME_MINER"
	ship.Mounts = []navigation.ShipMount{{Symbol: "MOUNT_MINING_LASER_I", Strength: 10}}
	return ship
}

// CreateTestWaypoint builds a waypoint at x, y with optional traits
func CreateTestWaypoint(symbol string, x, y int, traits ...string) system.Waypoint {
	wp := system.Waypoint{
		Symbol:       symbol,
		Type:         "PLANET",
		SystemSymbol: shared.ExtractSystemSymbol(symbol),
		X:            x,
		Y:            y,
	}
	for _, t := range traits {
		wp.Traits = append(wp.Traits, system.Trait{Symbol: t, Name: t})
	}
	return wp
}

// CreateTestTradeGood builds a trade good listing
func CreateTestTradeGood(symbol string, purchasePrice, sellPrice, volume int) market.TradeGood {
	return market.TradeGood{
		Symbol:        symbol,
		Type:          "EXCHANGE",
		TradeVolume:   volume,
		Supply:        "MODERATE",
		PurchasePrice: purchasePrice,
		SellPrice:     sellPrice,
	}
}
