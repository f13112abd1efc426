package trading

import (
	"fmt"
	"time"

	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
)

// MarketSnapshot is a market observed at a waypoint at a point in time.
// Prices are only present when a ship was at the waypoint during the scan.
type MarketSnapshot struct {
	Waypoint  string        `json:"waypoint"`
	System    string        `json:"system"`
	Market    market.Market `json:"market"`
	ScannedAt time.Time     `json:"scannedAt"`
}

// TradeRoute is a single-hop buy-here sell-there opportunity for one good.
//
// Prices are from the ship's perspective:
//   - BuyPrice: what the ship pays at BuyWaypoint (market purchasePrice)
//   - SellPrice: what the ship receives at SellWaypoint (market sellPrice)
type TradeRoute struct {
	Good          string  `json:"good"`
	BuyWaypoint   string  `json:"buyWaypoint"`
	SellWaypoint  string  `json:"sellWaypoint"`
	BuyPrice      int     `json:"buyPrice"`
	SellPrice     int     `json:"sellPrice"`
	ProfitPerUnit int     `json:"profitPerUnit"`
	ProfitMargin  float64 `json:"profitMargin"`
	BuySupply     string  `json:"buySupply,omitempty"`
	SellSupply    string  `json:"sellSupply,omitempty"`
	TradeVolume   int     `json:"tradeVolume"`
	Score         int     `json:"score"`
}

// NewTradeRoute pairs a listing at the buy market with the same good at the
// sell market. Returns an error when no profit is possible.
func NewTradeRoute(buyWaypoint string, buy market.TradeGood, sellWaypoint string, sell market.TradeGood) (TradeRoute, error) {
	if buy.Symbol != sell.Symbol {
		return TradeRoute{}, fmt.Errorf("goods differ: %s vs %s", buy.Symbol, sell.Symbol)
	}
	if buyWaypoint == sellWaypoint {
		return TradeRoute{}, fmt.Errorf("buy and sell waypoint are both %s", buyWaypoint)
	}
	if sell.SellPrice <= buy.PurchasePrice {
		return TradeRoute{}, fmt.Errorf("no profit: sell price (%d) <= buy price (%d)", sell.SellPrice, buy.PurchasePrice)
	}

	profit := sell.SellPrice - buy.PurchasePrice
	volume := min(buy.TradeVolume, sell.TradeVolume)

	var margin float64
	if buy.PurchasePrice > 0 {
		margin = float64(profit) / float64(buy.PurchasePrice) * 100
	}

	return TradeRoute{
		Good:          buy.Symbol,
		BuyWaypoint:   buyWaypoint,
		SellWaypoint:  sellWaypoint,
		BuyPrice:      buy.PurchasePrice,
		SellPrice:     sell.SellPrice,
		ProfitPerUnit: profit,
		ProfitMargin:  margin,
		BuySupply:     buy.Supply,
		SellSupply:    sell.Supply,
		TradeVolume:   volume,
		Score:         profit * volume,
	}, nil
}

// MeetsMargin reports whether the profit margin reaches minMargin percent
func (r TradeRoute) MeetsMargin(minMargin float64) bool {
	return r.ProfitMargin >= minMargin
}

// EstimatedProfit is the profit for carrying units along the route
func (r TradeRoute) EstimatedProfit(units int) int {
	return r.ProfitPerUnit * units
}

func (r TradeRoute) String() string {
	return fmt.Sprintf("%s %s -> %s (+%d/u, %.2f%%)", r.Good, r.BuyWaypoint, r.SellWaypoint, r.ProfitPerUnit, r.ProfitMargin)
}
