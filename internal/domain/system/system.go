package system

// System is a star system with its waypoints
type System struct {
	Symbol       string           `json:"symbol"`
	SectorSymbol string           `json:"sectorSymbol"`
	Type         string           `json:"type"`
	X            int              `json:"x"`
	Y            int              `json:"y"`
	Waypoints    []SystemWaypoint `json:"waypoints"`
	Factions     []struct {
		Symbol string `json:"symbol"`
	} `json:"factions"`
}

type SystemWaypoint struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Waypoint is a navigable location within a system
type Waypoint struct {
	Symbol              string  `json:"symbol"`
	Type                string  `json:"type"`
	SystemSymbol        string  `json:"systemSymbol"`
	X                   int     `json:"x"`
	Y                   int     `json:"y"`
	Orbits              string  `json:"orbits,omitempty"`
	Traits              []Trait `json:"traits"`
	IsUnderConstruction bool    `json:"isUnderConstruction"`
}

type Trait struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	TraitMarketplace = "MARKETPLACE"
	TraitShipyard    = "SHIPYARD"
)

// HasTrait reports whether the waypoint carries the trait symbol
func (w *Waypoint) HasTrait(symbol string) bool {
	for _, t := range w.Traits {
		if t.Symbol == symbol {
			return true
		}
	}
	return false
}

// JumpGate lists the systems reachable from a jump gate
type JumpGate struct {
	Symbol      string   `json:"symbol"`
	Connections []string `json:"connections"`
}

// Construction tracks the materials a construction site still needs
type Construction struct {
	Symbol     string `json:"symbol"`
	IsComplete bool   `json:"isComplete"`
	Materials  []struct {
		TradeSymbol string `json:"tradeSymbol"`
		Required    int    `json:"required"`
		Fulfilled   int    `json:"fulfilled"`
	} `json:"materials"`
}
