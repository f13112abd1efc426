package trading_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/skamkraft-go/internal/application/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/application/trading"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/domain/navigation"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
	"github.com/andrescamacho/skamkraft-go/test/helpers"
)

type countingRecorder struct {
	mu        sync.Mutex
	scanned   int
	completed int
	failed    int
}

func (r *countingRecorder) MarketsScanned(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanned += n
}

func (r *countingRecorder) TradeCompleted(string, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *countingRecorder) TradeFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

type botHarness struct {
	clock    *shared.MockClock
	api      *helpers.MockAPIClient
	bot      *trading.Bot
	recorder *countingRecorder
	tracker  *ledger.Tracker
}

// newBotHarness seeds two markets with one profitable IRON_ORE route from
// X1-A1 (buy at 10) to X1-B2 (sell at 18) and a docked trader at X1-A1
func newBotHarness(t *testing.T, cfg trading.Config) *botHarness {
	t.Helper()
	clock := shared.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	fake := helpers.NewMockAPIClient(clock)
	fake.AddMarket(helpers.CreateTestWaypoint("X1-A1", 0, 0),
		helpers.CreateTestTradeGood("IRON_ORE", 10, 8, 40),
		helpers.CreateTestTradeGood("FUEL", 70, 65, 20))
	fake.AddMarket(helpers.CreateTestWaypoint("X1-B2", 30, 40),
		helpers.CreateTestTradeGood("IRON_ORE", 20, 18, 40),
		helpers.CreateTestTradeGood("FUEL", 72, 68, 20))
	fake.AddShip(helpers.CreateTestShip("TRADER-1", "X1-A1", navigation.NavStatusDocked, 30))

	recorder := &countingRecorder{}
	tracker := ledger.NewTracker(nil, clock, nil)
	bot := trading.NewBot(fake, cfg, clock, recorder, nil)
	bot.SetTransactionRecorder(tracker)
	t.Cleanup(bot.StopAutoTrading)

	return &botHarness{clock: clock, api: fake, bot: bot, recorder: recorder, tracker: tracker}
}

func TestScanMarkets_PagesAndSkipsUnreadableMarkets(t *testing.T) {
	// Arrange
	h := newBotHarness(t, trading.Config{PageSize: 1})
	h.api.AddWaypoint(helpers.CreateTestWaypoint("X1-C3", 5, 5, system.TraitMarketplace))
	h.api.AddWaypoint(helpers.CreateTestWaypoint("X1-D4", 9, 9))

	// Act
	scanned, err := h.bot.ScanMarkets(context.Background(), "X1")

	// Assert
	require.NoError(t, err)
	assert.Len(t, scanned, 2, "X1-C3 has no readable market")
	assert.Equal(t, 3, h.api.CallCount("ListWaypoints"), "three marketplaces at page size one")
	assert.Equal(t, 3, h.api.CallCount("GetMarket"))

	snapshots := h.bot.Snapshots()
	require.Len(t, snapshots, 2)
	assert.Equal(t, "X1-A1", snapshots[0].Waypoint)
	assert.Equal(t, h.clock.Now(), snapshots[0].ScannedAt)
	assert.Equal(t, 2, h.recorder.scanned)
}

func TestRoutes_RankedOverScannedMarkets(t *testing.T) {
	h := newBotHarness(t, trading.Config{})
	_, err := h.bot.ScanMarkets(context.Background(), "X1")
	require.NoError(t, err)

	routes := h.bot.Routes(10)

	require.NotEmpty(t, routes)
	assert.Equal(t, "IRON_ORE", routes[0].Good)
	assert.Equal(t, "X1-A1", routes[0].BuyWaypoint)
	assert.Equal(t, "X1-B2", routes[0].SellWaypoint)
	for _, r := range routes {
		assert.Positive(t, r.ProfitPerUnit)
	}
}

func TestExecuteTrade_BuysTravelsSellsAndRecords(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newBotHarness(t, trading.Config{})
	_, err := h.bot.ScanMarkets(ctx, "X1")
	require.NoError(t, err)
	route := h.bot.Routes(1)[0]
	startCredits := h.api.Credits()

	// Act
	result, err := h.bot.ExecuteTrade(ctx, "TRADER-1", route, 0)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 30, result.Units, "limited by cargo space")
	assert.Equal(t, int64(30*18-30*10), result.Profit)
	assert.Equal(t, startCredits+result.Profit, h.api.Credits())
	assert.Contains(t, h.clock.Sleeps(), 31*time.Second)

	txs := h.tracker.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, domainLedger.TransactionTypePurchase, txs[0].Type)
	assert.Equal(t, int64(300), txs[0].TotalPrice)
	assert.Equal(t, "X1-A1", txs[0].Waypoint)
	assert.Equal(t, domainLedger.TransactionTypeSale, txs[1].Type)
	assert.Equal(t, int64(540), txs[1].TotalPrice)
	assert.Equal(t, int64(240), h.tracker.TotalProfit())

	history := h.bot.History(0)
	require.Len(t, history, 1)
	assert.Equal(t, "IRON_ORE", history[0].Good)
	assert.Equal(t, result.Duration, history[0].Duration)

	stats := h.bot.Stats()
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.SuccessfulTrades)
	assert.Equal(t, int64(240), stats.TotalProfit)
	assert.Equal(t, 2, stats.MarketsScanned)
	assert.Equal(t, 1, h.recorder.completed)
}

func TestExecuteTrade_MaxUnitsCapsPurchase(t *testing.T) {
	ctx := context.Background()
	h := newBotHarness(t, trading.Config{})
	_, err := h.bot.ScanMarkets(ctx, "X1")
	require.NoError(t, err)

	result, err := h.bot.ExecuteTrade(ctx, "TRADER-1", h.bot.Routes(1)[0], 7)

	require.NoError(t, err)
	assert.Equal(t, 7, result.Units)
	assert.Equal(t, int64(7*8), result.Profit)
}

func TestExecuteTrade_FailsWithoutCargoSpace(t *testing.T) {
	// Arrange
	ctx := context.Background()
	h := newBotHarness(t, trading.Config{})
	full := helpers.CreateTestShip("FULL-1", "X1-A1", navigation.NavStatusDocked, 10)
	full.Cargo.Units = 10
	full.Cargo.Inventory = []navigation.CargoItem{{Symbol: "FUEL", Units: 10}}
	h.api.AddShip(full)
	_, err := h.bot.ScanMarkets(ctx, "X1")
	require.NoError(t, err)

	// Act
	result, err := h.bot.ExecuteTrade(ctx, "FULL-1", h.bot.Routes(1)[0], 0)

	// Assert
	assert.ErrorIs(t, err, domainTrading.ErrNoCargoSpace)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, h.api.CallCount("PurchaseCargo"))
	assert.Empty(t, h.bot.History(0))
	assert.Equal(t, 1, h.recorder.failed)
}

func TestRunOnce_NoProfitableRoute(t *testing.T) {
	h := newBotHarness(t, trading.Config{})

	// IRON_ORE margin is 80%, nothing reaches 100%
	_, err := h.bot.RunOnce(context.Background(), "TRADER-1", "X1", trading.AutoTradeOptions{MinProfitMargin: 100})

	assert.ErrorIs(t, err, domainTrading.ErrNoProfitableRoute)
	assert.Zero(t, h.api.CallCount("PurchaseCargo"))
}

func TestAutoTrading_RunsUntilMaxRuns(t *testing.T) {
	// Arrange
	h := newBotHarness(t, trading.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Act
	require.NoError(t, h.bot.StartAutoTrading(ctx, "TRADER-1", "X1", trading.AutoTradeOptions{MaxRuns: 2}))
	require.NoError(t, h.bot.Wait(ctx))

	// Assert
	assert.False(t, h.bot.IsRunning())
	assert.Len(t, h.bot.History(0), 2)
	assert.Contains(t, h.clock.Sleeps(), 60*time.Second, "default interval between runs")
}

func TestAutoTrading_SingleLoopAndStop(t *testing.T) {
	// Arrange
	h := newBotHarness(t, trading.Config{})
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.api.SetHook("ListWaypoints", func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	// Act
	require.NoError(t, h.bot.StartAutoTrading(context.Background(), "TRADER-1", "X1", trading.AutoTradeOptions{}))
	<-entered
	second := h.bot.StartAutoTrading(context.Background(), "TRADER-1", "X1", trading.AutoTradeOptions{})
	running := h.bot.IsRunning()
	close(release)
	h.bot.StopAutoTrading()

	// Assert
	assert.ErrorIs(t, second, domainTrading.ErrAutoTradingRunning)
	assert.True(t, running)
	assert.False(t, h.bot.IsRunning())
	assert.False(t, h.bot.Stats().IsRunning)
}

func TestHistory_NewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	h := newBotHarness(t, trading.Config{HistorySize: 2})
	_, err := h.bot.ScanMarkets(ctx, "X1")
	require.NoError(t, err)
	route := h.bot.Routes(1)[0]

	for _, units := range []int{1, 2, 3} {
		_, err := h.bot.ExecuteTrade(ctx, "TRADER-1", route, units)
		require.NoError(t, err)
	}

	history := h.bot.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].Units)
	assert.Equal(t, 2, history[1].Units)
	assert.Len(t, h.bot.History(1), 1)
}

func TestReset_ForgetsMarketsAndHistory(t *testing.T) {
	ctx := context.Background()
	h := newBotHarness(t, trading.Config{})
	_, err := h.bot.ScanMarkets(ctx, "X1")
	require.NoError(t, err)

	h.bot.Reset()

	assert.Empty(t, h.bot.Snapshots())
	assert.Empty(t, h.bot.Routes(10))
}
