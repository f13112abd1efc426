package config

import "time"

// ServerConfig holds the status server settings used by serve
type ServerConfig struct {
	Address        string        `mapstructure:"address" validate:"required,hostname_port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Per-client buffer of the /events stream
	EventBuffer int `mapstructure:"event_buffer" validate:"min=1"`

	// Single-instance lock for serve
	PIDFile string `mapstructure:"pid_file"`
}
