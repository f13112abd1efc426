package navigation

// Survey is a server-issued hint improving extraction yield at a waypoint
type Survey struct {
	Signature  string          `json:"signature"`
	Symbol     string          `json:"symbol"`
	Deposits   []SurveyDeposit `json:"deposits"`
	Expiration string          `json:"expiration"`
	Size       string          `json:"size"`
}

type SurveyDeposit struct {
	Symbol string `json:"symbol"`
}

// ExtractionYield is the good and units produced by one extraction
type ExtractionYield struct {
	Symbol string `json:"symbol"`
	Units  int    `json:"units"`
}

// ExtractionResult is returned by extract and siphon
type ExtractionResult struct {
	Extraction struct {
		ShipSymbol string          `json:"shipSymbol"`
		Yield      ExtractionYield `json:"yield"`
	} `json:"extraction"`
	Siphon *struct {
		ShipSymbol string          `json:"shipSymbol"`
		Yield      ExtractionYield `json:"yield"`
	} `json:"siphon,omitempty"`
	Cooldown Cooldown  `json:"cooldown"`
	Cargo    ShipCargo `json:"cargo"`
}

// Yield returns whichever of extraction or siphon yield was reported
func (r *ExtractionResult) Yield() ExtractionYield {
	if r.Siphon != nil {
		return r.Siphon.Yield
	}
	return r.Extraction.Yield
}

type SurveyResult struct {
	Cooldown Cooldown `json:"cooldown"`
	Surveys  []Survey `json:"surveys"`
}

type CargoResult struct {
	Cargo ShipCargo `json:"cargo"`
}

type TransferResult struct {
	Cargo       ShipCargo `json:"cargo"`
	TargetCargo ShipCargo `json:"targetCargo"`
}

type RefuelResult struct {
	Fuel        ShipFuel       `json:"fuel"`
	Transaction map[string]any `json:"transaction"`
}

type ChartResult struct {
	Chart    map[string]any `json:"chart"`
	Waypoint map[string]any `json:"waypoint"`
}

type ScanResult struct {
	Cooldown  Cooldown         `json:"cooldown"`
	Systems   []map[string]any `json:"systems,omitempty"`
	Waypoints []map[string]any `json:"waypoints,omitempty"`
	Ships     []map[string]any `json:"ships,omitempty"`
}
