package cache

import "time"

// Category groups cache entries that share a default TTL and can be
// invalidated together
type Category string

const (
	CategorySystems   Category = "systems"
	CategoryWaypoints Category = "waypoints"
	CategoryMarkets   Category = "markets"
	CategoryShipyards Category = "shipyards"
	CategoryAgent     Category = "agent"
	CategoryContracts Category = "contracts"
	CategoryShips     Category = "ships"
	CategoryFactions  Category = "factions"
	CategoryDefault   Category = "default"
)

// DefaultTTLs maps each category to how long its entries stay fresh.
// Reference data lives for hours, ship state for seconds.
func DefaultTTLs() map[Category]time.Duration {
	return map[Category]time.Duration{
		CategorySystems:   time.Hour,
		CategoryWaypoints: 30 * time.Minute,
		CategoryMarkets:   60 * time.Second,
		CategoryShipyards: 5 * time.Minute,
		CategoryAgent:     30 * time.Second,
		CategoryContracts: 60 * time.Second,
		CategoryShips:     10 * time.Second,
		CategoryFactions:  24 * time.Hour,
		CategoryDefault:   60 * time.Second,
	}
}

// DefaultCleanupInterval is how often the sweep removes expired entries
const DefaultCleanupInterval = 5 * time.Minute
