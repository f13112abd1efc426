package config

import "time"

// TradingConfig holds auto-trading defaults
type TradingConfig struct {
	MinProfitMargin float64       `mapstructure:"min_profit_margin" validate:"min=0"`
	MaxTradesPerRun int           `mapstructure:"max_trades_per_run" validate:"min=1"`
	Interval        time.Duration `mapstructure:"interval"`
	HistorySize     int           `mapstructure:"history_size" validate:"min=1"`
}
