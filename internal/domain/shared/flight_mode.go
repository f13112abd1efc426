package shared

import (
	"fmt"
	"strings"
)

// FlightMode is the ship navigation speed profile accepted by the API
type FlightMode string

const (
	FlightModeCruise  FlightMode = "CRUISE"
	FlightModeDrift   FlightMode = "DRIFT"
	FlightModeBurn    FlightMode = "BURN"
	FlightModeStealth FlightMode = "STEALTH"
)

var flightModes = map[FlightMode]struct{}{
	FlightModeCruise:  {},
	FlightModeDrift:   {},
	FlightModeBurn:    {},
	FlightModeStealth: {},
}

// ParseFlightMode normalizes and validates a flight mode name
func ParseFlightMode(s string) (FlightMode, error) {
	mode := FlightMode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := flightModes[mode]; !ok {
		return "", NewValidationError("flightMode", fmt.Sprintf("unknown flight mode %q", s))
	}
	return mode, nil
}

func (f FlightMode) String() string {
	return string(f)
}
