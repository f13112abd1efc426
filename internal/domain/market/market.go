package market

// Market describes the goods traded at a waypoint.
// TradeGoods is only populated while a ship is present at the waypoint.
type Market struct {
	Symbol       string        `json:"symbol"`
	Exports      []Good        `json:"exports"`
	Imports      []Good        `json:"imports"`
	Exchange     []Good        `json:"exchange"`
	TradeGoods   []TradeGood   `json:"tradeGoods,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

type Good struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TradeGood prices follow the API's ship-centric naming:
// PurchasePrice is what a ship pays to buy one unit,
// SellPrice is what a ship receives when selling one unit.
type TradeGood struct {
	Symbol        string `json:"symbol"`
	Type          string `json:"type,omitempty"`
	TradeVolume   int    `json:"tradeVolume"`
	Supply        string `json:"supply,omitempty"`
	Activity      string `json:"activity,omitempty"`
	PurchasePrice int    `json:"purchasePrice"`
	SellPrice     int    `json:"sellPrice"`
}

// Good returns the trade good with the given symbol
func (m *Market) Good(symbol string) (TradeGood, bool) {
	for _, g := range m.TradeGoods {
		if g.Symbol == symbol {
			return g, true
		}
	}
	return TradeGood{}, false
}

// Transaction is a market transaction as reported by buy and sell calls
type Transaction struct {
	WaypointSymbol string `json:"waypointSymbol"`
	ShipSymbol     string `json:"shipSymbol"`
	TradeSymbol    string `json:"tradeSymbol"`
	Type           string `json:"type"`
	Units          int    `json:"units"`
	PricePerUnit   int    `json:"pricePerUnit"`
	TotalPrice     int    `json:"totalPrice"`
	Timestamp      string `json:"timestamp"`
}

// TradeResult is returned by purchase and sell calls
type TradeResult struct {
	Agent struct {
		Symbol  string `json:"symbol"`
		Credits int64  `json:"credits"`
	} `json:"agent"`
	Cargo struct {
		Capacity int `json:"capacity"`
		Units    int `json:"units"`
	} `json:"cargo"`
	Transaction Transaction `json:"transaction"`
}
