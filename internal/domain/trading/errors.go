package trading

import "errors"

var (
	// ErrNoProfitableRoute indicates no route met the minimum margin
	ErrNoProfitableRoute = errors.New("no profitable trade route found")

	// ErrNoCargoSpace indicates the ship cannot carry any unit of the route good
	ErrNoCargoSpace = errors.New("no cargo space available")

	// ErrAutoTradingRunning indicates an auto-trading loop is already active
	ErrAutoTradingRunning = errors.New("auto-trading is already running")
)
