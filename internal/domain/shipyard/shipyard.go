package shipyard

import "encoding/json"

// Shipyard lists ship types for sale at a waypoint
type Shipyard struct {
	Symbol          string     `json:"symbol"`
	ShipTypes       []ShipType `json:"shipTypes"`
	Ships           []Listing  `json:"ships,omitempty"`
	ModificationFee int        `json:"modificationsFee"`
}

type ShipType struct {
	Type string `json:"type"`
}

// Listing is a purchasable ship, only visible while a ship is present
type Listing struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PurchasePrice int    `json:"purchasePrice"`
	Supply        string `json:"supply"`
}

// Price returns the listed purchase price for a ship type
func (s *Shipyard) Price(shipType string) (int, bool) {
	for _, l := range s.Ships {
		if l.Type == shipType {
			return l.PurchasePrice, true
		}
	}
	return 0, false
}

// PurchaseResult is returned when a ship is bought. Ship is kept raw so
// this package stays free of navigation types.
type PurchaseResult struct {
	Agent struct {
		Symbol  string `json:"symbol"`
		Credits int64  `json:"credits"`
	} `json:"agent"`
	Ship        json.RawMessage `json:"ship"`
	Transaction struct {
		ShipSymbol     string `json:"shipSymbol"`
		ShipType       string `json:"shipType"`
		WaypointSymbol string `json:"waypointSymbol"`
		Price          int    `json:"price"`
		Timestamp      string `json:"timestamp"`
	} `json:"transaction"`
}
