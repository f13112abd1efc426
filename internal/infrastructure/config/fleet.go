package config

import "time"

// FleetConfig tunes the task coordinator waits
type FleetConfig struct {
	// Added after a route's arrival time before acting
	ArrivalMargin time.Duration `mapstructure:"arrival_margin"`

	// Added after a cooldown's remaining time before extracting
	CooldownMargin time.Duration `mapstructure:"cooldown_margin"`

	// Wait after a cooldown conflict (code 4000) before extracting again
	CooldownRetryDelay time.Duration `mapstructure:"cooldown_retry_delay"`

	HistorySize int `mapstructure:"history_size" validate:"min=1"`
}
