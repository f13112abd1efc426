package config

import "time"

// CacheConfig holds response cache settings. TTL keys are category names
// (systems, waypoints, markets, shipyards, agent, contracts, ships,
// factions, default).
type CacheConfig struct {
	CleanupInterval time.Duration            `mapstructure:"cleanup_interval"`
	TTL             map[string]time.Duration `mapstructure:"ttl" validate:"dive,keys,oneof=systems waypoints markets shipyards agent contracts ships factions default,endkeys,min=0"`
}
