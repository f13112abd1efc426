package trading_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/domain/market"
	"github.com/andrescamacho/skamkraft-go/internal/domain/trading"
)

func snapshot(waypoint string, goods ...market.TradeGood) trading.MarketSnapshot {
	return trading.MarketSnapshot{
		Waypoint: waypoint,
		System:   "X1-TEST",
		Market:   market.Market{Symbol: waypoint, TradeGoods: goods},
	}
}

func good(symbol string, purchase, sell, volume int) market.TradeGood {
	return market.TradeGood{Symbol: symbol, PurchasePrice: purchase, SellPrice: sell, TradeVolume: volume}
}

func TestFindBestTradeRoutes_RouteFields(t *testing.T) {
	// Arrange
	snapshots := []trading.MarketSnapshot{
		snapshot("X1-A1", good("FUEL", 50, 45, 10)),
		snapshot("X1-B2", good("FUEL", 80, 75, 20)),
	}

	// Act
	routes := trading.FindBestTradeRoutes(snapshots, 10)

	// Assert
	require.Len(t, routes, 1)
	r := routes[0]
	assert.Equal(t, "X1-A1", r.BuyWaypoint)
	assert.Equal(t, "X1-B2", r.SellWaypoint)
	assert.Equal(t, 50, r.BuyPrice)
	assert.Equal(t, 75, r.SellPrice)
	assert.Equal(t, 25, r.ProfitPerUnit)
	assert.Equal(t, 10, r.TradeVolume)
	assert.Equal(t, 250, r.Score)
	assert.InDelta(t, 50.0, r.ProfitMargin, 0.001)
	assert.Equal(t, 250, r.EstimatedProfit(10))
}

func TestFindBestTradeRoutes_OnlyPositiveProfit(t *testing.T) {
	snapshots := []trading.MarketSnapshot{
		snapshot("X1-A1", good("COPPER", 30, 25, 10)),
		snapshot("X1-B2", good("COPPER", 31, 29, 10)),
	}

	routes := trading.FindBestTradeRoutes(snapshots, 0)

	assert.Empty(t, routes)
}

func TestFindBestTradeRoutes_SkipsSameWaypointAndMissingGoods(t *testing.T) {
	snapshots := []trading.MarketSnapshot{
		snapshot("X1-A1", good("GOLD", 10, 100, 5)),
		snapshot("X1-B2", good("SILVER", 10, 100, 5)),
		snapshot("X1-C3"),
	}

	assert.Empty(t, trading.FindBestTradeRoutes(snapshots, 10))
}

func TestFindBestTradeRoutes_DeterministicTiebreakAndLimit(t *testing.T) {
	// Arrange: three routes with the same score
	snapshots := []trading.MarketSnapshot{
		snapshot("X1-B2", good("ALPHA", 10, 5, 10), good("BETA", 10, 5, 10)),
		snapshot("X1-A1", good("ALPHA", 10, 5, 10), good("BETA", 10, 5, 10)),
		snapshot("X1-C3", good("ALPHA", 20, 20, 10)),
	}

	// Act
	all := trading.FindBestTradeRoutes(snapshots, 0)
	top := trading.FindBestTradeRoutes(snapshots, 2)

	// Assert
	require.Len(t, all, 2)
	for _, r := range all {
		assert.Equal(t, 100, r.Score)
		assert.Equal(t, "X1-C3", r.SellWaypoint)
	}
	assert.Equal(t, "X1-A1", all[0].BuyWaypoint, "ties ordered by buy waypoint")
	assert.Equal(t, "X1-B2", all[1].BuyWaypoint)
	assert.Equal(t, all, top)
	assert.Len(t, trading.FindBestTradeRoutes(snapshots, 1), 1)
}

func TestFindBestTradeRoutes_Ordering(t *testing.T) {
	// Arrange
	snapshots := []trading.MarketSnapshot{
		snapshot("X1-A1", good("IRON_ORE", 10, 8, 100), good("FUEL", 50, 45, 10)),
		snapshot("X1-B2", good("IRON_ORE", 20, 18, 40), good("FUEL", 80, 75, 20)),
	}

	// Act
	routes := trading.FindBestTradeRoutes(snapshots, 10)

	// Assert: IRON_ORE 8*40 = 320 beats FUEL 25*10 = 250
	require.Len(t, routes, 2)
	assert.Equal(t, "IRON_ORE", routes[0].Good)
	assert.Equal(t, 320, routes[0].Score)
	assert.Equal(t, "FUEL", routes[1].Good)
	assert.Equal(t, 250, routes[1].Score)
}

func TestFilterByMargin(t *testing.T) {
	routes := []trading.TradeRoute{
		{Good: "A", ProfitMargin: 5},
		{Good: "B", ProfitMargin: 10},
		{Good: "C", ProfitMargin: 42},
	}

	kept := trading.FilterByMargin(routes, 10)

	require.Len(t, kept, 2)
	assert.Equal(t, "B", kept[0].Good)
	assert.Equal(t, "C", kept[1].Good)
}

func TestNewTradeRoute_RejectsUnprofitable(t *testing.T) {
	_, err := trading.NewTradeRoute("X1-A1", good("GOLD", 10, 9, 5), "X1-B2", good("GOLD", 12, 10, 5))
	assert.Error(t, err)

	_, err = trading.NewTradeRoute("X1-A1", good("GOLD", 10, 9, 5), "X1-A1", good("GOLD", 12, 20, 5))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	history := []trading.TradeRecord{
		{Profit: 300},
		{Profit: -100},
		{Profit: 400},
		{Profit: 0},
	}

	stats := trading.Summarize(history)

	assert.Equal(t, int64(600), stats.TotalProfit)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.SuccessfulTrades)
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.001)
	assert.Equal(t, int64(150), stats.AverageProfit)
	assert.Zero(t, trading.Summarize(nil).SuccessRate)
}
