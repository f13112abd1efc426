package trading

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
	"github.com/andrescamacho/skamkraft-go/internal/domain/system"
	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
)

// Config tunes the bot
type Config struct {
	// ArrivalMargin is added to every arrival wait
	ArrivalMargin time.Duration
	// PageSize is the waypoint page size used while scanning
	PageSize int
	// HistorySize bounds the in-memory trade history
	HistorySize int
}

// DefaultConfig returns the bot defaults
func DefaultConfig() Config {
	return Config{
		ArrivalMargin: time.Second,
		PageSize:      20,
		HistorySize:   1000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ArrivalMargin <= 0 {
		c.ArrivalMargin = d.ArrivalMargin
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	return c
}

// AutoTradeOptions controls one auto-trading loop
type AutoTradeOptions struct {
	MinProfitMargin float64
	MaxTradesPerRun int
	Interval        time.Duration
	// MaxRuns stops the loop after that many scan cycles; 0 runs until stopped
	MaxRuns int
}

// DefaultAutoTradeOptions returns a 10% margin, 10 routes per run and a one
// minute interval
func DefaultAutoTradeOptions() AutoTradeOptions {
	return AutoTradeOptions{
		MinProfitMargin: 10,
		MaxTradesPerRun: 10,
		Interval:        60 * time.Second,
	}
}

func (o AutoTradeOptions) withDefaults() AutoTradeOptions {
	d := DefaultAutoTradeOptions()
	if o.MinProfitMargin <= 0 {
		o.MinProfitMargin = d.MinProfitMargin
	}
	if o.MaxTradesPerRun <= 0 {
		o.MaxTradesPerRun = d.MaxTradesPerRun
	}
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	return o
}

// Bot scans markets, ranks trade routes and runs buy-travel-sell cycles
type Bot struct {
	api      MarketAPI
	cfg      Config
	clock    shared.Clock
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	markets map[string]domainTrading.MarketSnapshot
	history []domainTrading.TradeRecord
	ledger  domainLedger.TradeRecorder

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewBot creates a bot. A nil clock uses the real clock, a nil recorder and
// logger are no-ops.
func NewBot(marketAPI MarketAPI, cfg Config, clock shared.Clock, recorder Recorder, logger *zap.Logger) *Bot {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      marketAPI,
		cfg:      cfg.withDefaults(),
		clock:    clock,
		recorder: recorder,
		logger:   logger.Named("trading"),
		markets:  make(map[string]domainTrading.MarketSnapshot),
	}
}

// SetTransactionRecorder makes every purchase and sale land in r
func (b *Bot) SetTransactionRecorder(r domainLedger.TradeRecorder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger = r
}

// ScanMarkets pages through the MARKETPLACE waypoints of a system and fetches
// each market. Markets that cannot be read are logged and skipped.
func (b *Bot) ScanMarkets(ctx context.Context, systemSymbol string) ([]domainTrading.MarketSnapshot, error) {
	waypoints, err := b.marketplaces(ctx, systemSymbol)
	if err != nil {
		return nil, err
	}
	b.logger.Info("markets-found", zap.String("system", systemSymbol), zap.Int("count", len(waypoints)))

	scanned := make([]domainTrading.MarketSnapshot, 0, len(waypoints))
	for _, wp := range waypoints {
		if err := ctx.Err(); err != nil {
			return scanned, err
		}
		mk, err := b.api.GetMarket(ctx, systemSymbol, wp.Symbol)
		if err != nil {
			b.logger.Warn("market-scan-failed", zap.String("waypoint", wp.Symbol), zap.Error(err))
			continue
		}
		snap := domainTrading.MarketSnapshot{
			Waypoint:  wp.Symbol,
			System:    systemSymbol,
			Market:    *mk,
			ScannedAt: b.clock.Now(),
		}
		b.mu.Lock()
		b.markets[wp.Symbol] = snap
		b.mu.Unlock()
		scanned = append(scanned, snap)
		b.logger.Debug("market-scanned", zap.String("waypoint", wp.Symbol), zap.Int("goods", len(mk.TradeGoods)))
	}

	b.recorder.MarketsScanned(len(scanned))
	return scanned, nil
}

func (b *Bot) marketplaces(ctx context.Context, systemSymbol string) ([]system.Waypoint, error) {
	var all []system.Waypoint
	for page := 1; ; page++ {
		result, err := b.api.ListWaypoints(ctx, systemSymbol, api.WaypointQuery{
			Page:   page,
			Limit:  b.cfg.PageSize,
			Traits: []string{system.TraitMarketplace},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list marketplaces in %s: %w", systemSymbol, err)
		}
		all = append(all, result.Items...)
		if len(result.Items) == 0 || page*b.cfg.PageSize >= result.Meta.Total {
			return all, nil
		}
	}
}

// Snapshots returns every stored market snapshot ordered by waypoint
func (b *Bot) Snapshots() []domainTrading.MarketSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domainTrading.MarketSnapshot, 0, len(b.markets))
	for _, snap := range b.markets {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Waypoint < out[j].Waypoint })
	return out
}

// Routes ranks routes over the stored snapshots
func (b *Bot) Routes(maxRoutes int) []domainTrading.TradeRoute {
	return domainTrading.FindBestTradeRoutes(b.Snapshots(), maxRoutes)
}

// ExecuteTrade flies ship to the buy market, buys, flies to the sell market
// and sells. The unit count is the smallest of maxUnits (when positive), the
// free cargo space and the route trade volume. The returned result is always
// populated; on failure Success is false and the error is also returned.
func (b *Bot) ExecuteTrade(ctx context.Context, shipSymbol string, route domainTrading.TradeRoute, maxUnits int) (domainTrading.TradeResult, error) {
	start := b.clock.Now()
	b.logger.Info("trade-started",
		zap.String("ship", shipSymbol),
		zap.String("good", route.Good),
		zap.String("buy", route.BuyWaypoint),
		zap.String("sell", route.SellWaypoint))

	record, err := b.trade(ctx, shipSymbol, route, maxUnits)
	duration := b.clock.Now().Sub(start)
	if err != nil {
		b.recorder.TradeFailed(route.Good)
		b.logger.Error("trade-failed",
			zap.String("ship", shipSymbol),
			zap.String("good", route.Good),
			zap.Error(err))
		return domainTrading.TradeResult{Duration: duration, Error: err.Error()}, err
	}

	record.Timestamp = b.clock.Now()
	record.Duration = duration
	b.mu.Lock()
	b.history = append(b.history, record)
	if overflow := len(b.history) - b.cfg.HistorySize; overflow > 0 {
		b.history = append([]domainTrading.TradeRecord(nil), b.history[overflow:]...)
	}
	b.mu.Unlock()

	b.recorder.TradeCompleted(route.Good, record.Profit)
	b.logger.Info("trade-completed",
		zap.String("ship", shipSymbol),
		zap.String("good", route.Good),
		zap.Int("units", record.Units),
		zap.Int64("profit", record.Profit),
		zap.Duration("duration", duration))

	return domainTrading.TradeResult{
		Success:  true,
		Profit:   record.Profit,
		Units:    record.Units,
		Duration: duration,
	}, nil
}

func (b *Bot) trade(ctx context.Context, shipSymbol string, route domainTrading.TradeRoute, maxUnits int) (domainTrading.TradeRecord, error) {
	ship, err := b.api.GetShip(ctx, shipSymbol)
	if err != nil {
		return domainTrading.TradeRecord{}, fmt.Errorf("failed to get ship %s: %w", shipSymbol, err)
	}
	if ship.InTransit() {
		if err := b.waitForArrival(ctx, ship.ArrivalTime()); err != nil {
			return domainTrading.TradeRecord{}, err
		}
	}

	if ship.Location() != route.BuyWaypoint {
		if err := b.travel(ctx, shipSymbol, route.BuyWaypoint, ship.IsDocked()); err != nil {
			return domainTrading.TradeRecord{}, err
		}
	}
	if _, err := b.api.DockShip(ctx, shipSymbol); err != nil {
		return domainTrading.TradeRecord{}, fmt.Errorf("failed to dock at %s: %w", route.BuyWaypoint, err)
	}

	units := ship.CargoSpace()
	if route.TradeVolume > 0 {
		units = min(units, route.TradeVolume)
	}
	if maxUnits > 0 {
		units = min(units, maxUnits)
	}
	if units <= 0 {
		return domainTrading.TradeRecord{}, domainTrading.ErrNoCargoSpace
	}

	bought, err := b.api.PurchaseCargo(ctx, shipSymbol, route.Good, units)
	if err != nil {
		return domainTrading.TradeRecord{}, fmt.Errorf("failed to purchase %d %s: %w", units, route.Good, err)
	}
	buyTotal := int64(bought.Transaction.TotalPrice)
	b.recordTrade(ctx, domainLedger.TransactionTypePurchase, shipSymbol, route.Good, units, buyTotal, route.BuyWaypoint)

	if err := b.travel(ctx, shipSymbol, route.SellWaypoint, true); err != nil {
		return domainTrading.TradeRecord{}, err
	}
	if _, err := b.api.DockShip(ctx, shipSymbol); err != nil {
		return domainTrading.TradeRecord{}, fmt.Errorf("failed to dock at %s: %w", route.SellWaypoint, err)
	}

	sold, err := b.api.SellCargo(ctx, shipSymbol, route.Good, units)
	if err != nil {
		return domainTrading.TradeRecord{}, fmt.Errorf("failed to sell %d %s: %w", units, route.Good, err)
	}
	sellTotal := int64(sold.Transaction.TotalPrice)
	b.recordTrade(ctx, domainLedger.TransactionTypeSale, shipSymbol, route.Good, units, sellTotal, route.SellWaypoint)

	return domainTrading.TradeRecord{
		ShipSymbol:   shipSymbol,
		Good:         route.Good,
		BuyWaypoint:  route.BuyWaypoint,
		SellWaypoint: route.SellWaypoint,
		Units:        units,
		BuyTotal:     buyTotal,
		SellTotal:    sellTotal,
		Profit:       sellTotal - buyTotal,
	}, nil
}

// travel orbits when needed, navigates and waits for arrival
func (b *Bot) travel(ctx context.Context, shipSymbol, destination string, orbit bool) error {
	if orbit {
		if _, err := b.api.OrbitShip(ctx, shipSymbol); err != nil {
			return fmt.Errorf("failed to orbit %s: %w", shipSymbol, err)
		}
	}
	result, err := b.api.NavigateShip(ctx, shipSymbol, destination)
	if err != nil {
		return fmt.Errorf("failed to navigate %s to %s: %w", shipSymbol, destination, err)
	}
	b.logger.Info("trade-navigating",
		zap.String("ship", shipSymbol),
		zap.String("destination", destination),
		zap.Time("arrival", result.ArrivalTime()))
	return b.waitForArrival(ctx, result.ArrivalTime())
}

func (b *Bot) waitForArrival(ctx context.Context, arrival time.Time) error {
	if arrival.IsZero() {
		return nil
	}
	wait := shared.WaitUntil(b.clock.Now(), arrival, b.cfg.ArrivalMargin)
	if wait == 0 {
		return nil
	}
	return b.clock.SleepContext(ctx, wait)
}

func (b *Bot) recordTrade(ctx context.Context, txType domainLedger.TransactionType, shipSymbol, good string, units int, total int64, waypoint string) {
	b.mu.Lock()
	recorder := b.ledger
	b.mu.Unlock()
	if recorder == nil {
		return
	}

	var err error
	if txType == domainLedger.TransactionTypePurchase {
		_, err = recorder.RecordPurchase(ctx, shipSymbol, good, units, total, waypoint)
	} else {
		_, err = recorder.RecordSale(ctx, shipSymbol, good, units, total, waypoint)
	}
	if err != nil {
		b.logger.Warn("trade-record-failed", zap.String("ship", shipSymbol), zap.Error(err))
	}
}

// RunOnce scans the system and executes the best route meeting the margin.
// Returns ErrNoProfitableRoute when nothing qualifies.
func (b *Bot) RunOnce(ctx context.Context, shipSymbol, systemSymbol string, opts AutoTradeOptions) (domainTrading.TradeResult, error) {
	opts = opts.withDefaults()

	if _, err := b.ScanMarkets(ctx, systemSymbol); err != nil {
		return domainTrading.TradeResult{}, err
	}
	routes := domainTrading.FilterByMargin(b.Routes(opts.MaxTradesPerRun), opts.MinProfitMargin)
	if len(routes) == 0 {
		return domainTrading.TradeResult{}, domainTrading.ErrNoProfitableRoute
	}

	best := routes[0]
	b.logger.Info("best-route",
		zap.String("good", best.Good),
		zap.Float64("margin", best.ProfitMargin),
		zap.Int("score", best.Score))
	return b.ExecuteTrade(ctx, shipSymbol, best, 0)
}

// StartAutoTrading runs RunOnce for ship in the background, sleeping
// opts.Interval between runs, until StopAutoTrading, ctx cancellation or
// opts.MaxRuns cycles.
func (b *Bot) StartAutoTrading(ctx context.Context, shipSymbol, systemSymbol string, opts AutoTradeOptions) error {
	opts = opts.withDefaults()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return domainTrading.ErrAutoTradingRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b.running = true
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.autoTrade(loopCtx, shipSymbol, systemSymbol, opts, b.done)

	b.logger.Info("auto-trading-started",
		zap.String("ship", shipSymbol),
		zap.String("system", systemSymbol),
		zap.Float64("min_margin", opts.MinProfitMargin),
		zap.Duration("interval", opts.Interval))
	return nil
}

func (b *Bot) autoTrade(ctx context.Context, shipSymbol, systemSymbol string, opts AutoTradeOptions, done chan struct{}) {
	defer func() {
		b.mu.Lock()
		b.running = false
		b.cancel = nil
		b.mu.Unlock()
		close(done)
		b.logger.Info("auto-trading-stopped", zap.String("ship", shipSymbol))
	}()

	for run := 1; ; run++ {
		_, err := b.RunOnce(ctx, shipSymbol, systemSymbol, opts)
		switch {
		case err == nil:
		case errors.Is(err, domainTrading.ErrNoProfitableRoute):
			b.logger.Info("no-profitable-route", zap.String("system", systemSymbol))
		case ctx.Err() != nil:
			return
		default:
			b.logger.Error("auto-trading-error", zap.Error(err))
		}

		if opts.MaxRuns > 0 && run >= opts.MaxRuns {
			return
		}
		if err := b.clock.SleepContext(ctx, opts.Interval); err != nil {
			return
		}
	}
}

// StopAutoTrading cancels the loop and waits for the current run to return
func (b *Bot) StopAutoTrading() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wait blocks until the auto-trading loop exits or ctx is done
func (b *Bot) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether an auto-trading loop is active
func (b *Bot) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Stats summarizes the trade history
func (b *Bot) Stats() domainTrading.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := domainTrading.Summarize(b.history)
	stats.MarketsScanned = len(b.markets)
	stats.IsRunning = b.running
	return stats
}

// History returns up to limit trades, newest first. limit <= 0 means 50.
func (b *Bot) History(limit int) []domainTrading.TradeRecord {
	if limit <= 0 {
		limit = 50
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(limit, len(b.history))
	out := make([]domainTrading.TradeRecord, 0, n)
	for i := len(b.history) - 1; i >= len(b.history)-n; i-- {
		out = append(out, b.history[i])
	}
	return out
}

// Reset stops auto-trading and forgets markets and history
func (b *Bot) Reset() {
	b.StopAutoTrading()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markets = make(map[string]domainTrading.MarketSnapshot)
	b.history = nil
}
