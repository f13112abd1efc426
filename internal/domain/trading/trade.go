package trading

import "time"

// TradeRecord is one executed buy-and-sell cycle
type TradeRecord struct {
	Timestamp    time.Time     `json:"timestamp"`
	ShipSymbol   string        `json:"shipSymbol"`
	Good         string        `json:"good"`
	BuyWaypoint  string        `json:"buyWaypoint"`
	SellWaypoint string        `json:"sellWaypoint"`
	Units        int           `json:"units"`
	BuyTotal     int64         `json:"buyTotal"`
	SellTotal    int64         `json:"sellTotal"`
	Profit       int64         `json:"profit"`
	Duration     time.Duration `json:"duration"`
}

// TradeResult is the outcome of a trade attempt. Failed attempts carry Error
// and are not added to the history.
type TradeResult struct {
	Success  bool          `json:"success"`
	Profit   int64         `json:"profit"`
	Units    int           `json:"units"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Stats aggregates the trade history
type Stats struct {
	TotalProfit      int64   `json:"totalProfit"`
	TotalTrades      int     `json:"totalTrades"`
	SuccessfulTrades int     `json:"successfulTrades"`
	SuccessRate      float64 `json:"successRate"`
	AverageProfit    int64   `json:"averageProfit"`
	MarketsScanned   int     `json:"marketsScanned"`
	IsRunning        bool    `json:"isRunning"`
}

// Summarize computes stats over history. A trade counts as successful when it
// made a profit.
func Summarize(history []TradeRecord) Stats {
	var s Stats
	for _, t := range history {
		s.TotalProfit += t.Profit
		if t.Profit > 0 {
			s.SuccessfulTrades++
		}
	}
	s.TotalTrades = len(history)
	if s.TotalTrades > 0 {
		s.SuccessRate = float64(s.SuccessfulTrades) / float64(s.TotalTrades) * 100
		s.AverageProfit = s.TotalProfit / int64(s.TotalTrades)
	}
	return s
}
