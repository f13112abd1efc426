package navigation

import (
	"strings"
	"time"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// NavStatus is the navigation state reported by the API for a ship
type NavStatus string

const (
	NavStatusInTransit NavStatus = "IN_TRANSIT"
	NavStatusInOrbit   NavStatus = "IN_ORBIT"
	NavStatusDocked    NavStatus = "DOCKED"
)

// Ship is a snapshot of a ship as returned by /my/ships
type Ship struct {
	Symbol       string           `json:"symbol"`
	Registration ShipRegistration `json:"registration"`
	Nav          ShipNav          `json:"nav"`
	Frame        ShipComponent    `json:"frame"`
	Engine       ShipEngine       `json:"engine"`
	Modules      []ShipComponent  `json:"modules"`
	Mounts       []ShipMount      `json:"mounts"`
	Cargo        ShipCargo        `json:"cargo"`
	Fuel         ShipFuel         `json:"fuel"`
	Cooldown     Cooldown         `json:"cooldown"`
}

type ShipRegistration struct {
	Name          string `json:"name"`
	FactionSymbol string `json:"factionSymbol"`
	Role          string `json:"role"`
}

type ShipNav struct {
	SystemSymbol   string    `json:"systemSymbol"`
	WaypointSymbol string    `json:"waypointSymbol"`
	Route          ShipRoute `json:"route"`
	Status         NavStatus `json:"status"`
	FlightMode     string    `json:"flightMode"`
}

type ShipRoute struct {
	Origin        RouteEndpoint `json:"origin"`
	Destination   RouteEndpoint `json:"destination"`
	DepartureTime string        `json:"departureTime"`
	Arrival       string        `json:"arrival"`
}

type RouteEndpoint struct {
	Symbol       string `json:"symbol"`
	Type         string `json:"type"`
	SystemSymbol string `json:"systemSymbol"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

// ShipComponent covers frames and modules, which share the same shape
type ShipComponent struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity,omitempty"`
}

type ShipEngine struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Speed  int    `json:"speed"`
}

type ShipMount struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Strength int      `json:"strength,omitempty"`
	Deposits []string `json:"deposits,omitempty"`
}

type ShipCargo struct {
	Capacity  int         `json:"capacity"`
	Units     int         `json:"units"`
	Inventory []CargoItem `json:"inventory"`
}

type CargoItem struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       int    `json:"units"`
}

type ShipFuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
	Consumed *struct {
		Amount    int    `json:"amount"`
		Timestamp string `json:"timestamp"`
	} `json:"consumed,omitempty"`
}

// Cooldown is the per-ship delay the server enforces between actions
type Cooldown struct {
	ShipSymbol       string `json:"shipSymbol"`
	TotalSeconds     int    `json:"totalSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Expiration       string `json:"expiration,omitempty"`
}

// Remaining returns the cooldown still active as a duration
func (c Cooldown) Remaining() time.Duration {
	if c.RemainingSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RemainingSeconds) * time.Second
}

func (s *Ship) IsDocked() bool {
	return s.Nav.Status == NavStatusDocked
}

func (s *Ship) InOrbit() bool {
	return s.Nav.Status == NavStatusInOrbit
}

func (s *Ship) InTransit() bool {
	return s.Nav.Status == NavStatusInTransit
}

// Location is the waypoint the ship is at, or travelling to while in transit
func (s *Ship) Location() string {
	return s.Nav.WaypointSymbol
}

func (s *Ship) CargoFull() bool {
	return s.Cargo.Capacity > 0 && s.Cargo.Units >= s.Cargo.Capacity
}

// CargoSpace returns the free cargo units
func (s *Ship) CargoSpace() int {
	free := s.Cargo.Capacity - s.Cargo.Units
	if free < 0 {
		return 0
	}
	return free
}

// CargoUnitsOf returns the units held of a trade symbol
func (s *Ship) CargoUnitsOf(symbol string) int {
	for _, item := range s.Cargo.Inventory {
		if item.Symbol == symbol {
			return item.Units
		}
	}
	return 0
}

// HasMount reports whether any mount symbol contains one of the markers
func (s *Ship) HasMount(markers ...string) bool {
	for _, mount := range s.Mounts {
		for _, marker := range markers {
			if strings.Contains(mount.Symbol, marker) {
				return true
			}
		}
	}
	return false
}

// ArrivalTime parses the route arrival; zero time when absent or malformed
func (s *Ship) ArrivalTime() time.Time {
	if s.Nav.Route.Arrival == "" {
		return time.Time{}
	}
	t, err := shared.ParseTimestamp(s.Nav.Route.Arrival)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Position returns the coordinates of the route destination, which is the
// current waypoint once the ship has arrived
func (s *Ship) Position() (int, int) {
	return s.Nav.Route.Destination.X, s.Nav.Route.Destination.Y
}

// Distance is the straight-line length of a route
func (r ShipRoute) Distance() float64 {
	return shared.Distance(r.Origin.X, r.Origin.Y, r.Destination.X, r.Destination.Y)
}

// NavigateResult is returned by navigate, warp and jump
type NavigateResult struct {
	Nav  ShipNav  `json:"nav"`
	Fuel ShipFuel `json:"fuel"`
}

// ArrivalTime parses the arrival of the new route
func (r *NavigateResult) ArrivalTime() time.Time {
	t, err := shared.ParseTimestamp(r.Nav.Route.Arrival)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NavResult is returned by orbit, dock and flight mode changes
type NavResult struct {
	Nav ShipNav `json:"nav"`
}
