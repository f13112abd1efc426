package ledger

import "context"

// ExtractionRecorder records mined units
type ExtractionRecorder interface {
	RecordExtraction(ctx context.Context, shipSymbol, tradeSymbol string, units int, waypoint string) (Transaction, error)
}

// TradeRecorder records market purchases and sales
type TradeRecorder interface {
	RecordPurchase(ctx context.Context, shipSymbol, tradeSymbol string, units int, totalPrice int64, waypoint string) (Transaction, error)
	RecordSale(ctx context.Context, shipSymbol, tradeSymbol string, units int, totalPrice int64, waypoint string) (Transaction, error)
}
