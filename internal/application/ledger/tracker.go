package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

const (
	// StorageKey holds the statistics blob in the durable store
	StorageKey = "st_statistics"

	// MaxTransactions bounds the blob; the oldest entries are dropped first
	MaxTransactions = 10000

	defaultDailyDays = 7
	defaultTopGoods  = 10
	summaryTopGoods  = 5
)

type storedState struct {
	StartCredits int64                      `json:"startCredits"`
	Transactions []domainLedger.Transaction `json:"transactions"`
}

// Tracker records economic events and derives profit reports from them.
// The whole history is persisted as one JSON blob after every change.
type Tracker struct {
	mu           sync.Mutex
	store        persistence.KeyValueStore
	clock        shared.Clock
	logger       *zap.Logger
	transactions []domainLedger.Transaction
	startCredits int64
	sessionStart time.Time
}

// NewTracker creates a tracker over store. Call Load to restore history.
func NewTracker(store persistence.KeyValueStore, clock shared.Clock, logger *zap.Logger) *Tracker {
	if store == nil {
		store = persistence.NewMemoryStore()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:        store,
		clock:        clock,
		logger:       logger,
		sessionStart: clock.Now(),
	}
}

// Load restores the persisted history. A corrupt blob is discarded.
func (t *Tracker) Load(ctx context.Context) error {
	raw, ok, err := t.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.transactions = nil
	t.startCredits = 0
	if !ok {
		return nil
	}

	var state storedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.logger.Warn("statistics-load-failed", zap.Error(err))
		return nil
	}
	t.startCredits = state.StartCredits
	t.transactions = state.Transactions
	return nil
}

// SetStartCredits records the baseline balance once
func (t *Tracker) SetStartCredits(ctx context.Context, credits int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.startCredits != 0 {
		return nil
	}
	t.startCredits = credits
	return t.saveLocked(ctx)
}

// StartCredits returns the baseline balance
func (t *Tracker) StartCredits() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startCredits
}

// Record stamps and appends a transaction
func (t *Tracker) Record(ctx context.Context, tx domainLedger.Transaction) (domainLedger.Transaction, error) {
	tx.ID = domainLedger.NewTransactionID()
	tx.Timestamp = t.clock.Now()
	if err := tx.Validate(); err != nil {
		return domainLedger.Transaction{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.transactions = append(t.transactions, tx)
	if overflow := len(t.transactions) - MaxTransactions; overflow > 0 {
		t.transactions = append([]domainLedger.Transaction(nil), t.transactions[overflow:]...)
	}
	return tx, t.saveLocked(ctx)
}

// RecordPurchase records cargo bought at a market
func (t *Tracker) RecordPurchase(ctx context.Context, shipSymbol, tradeSymbol string, units int, totalPrice int64, waypoint string) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:         domainLedger.TransactionTypePurchase,
		ShipSymbol:   shipSymbol,
		TradeSymbol:  tradeSymbol,
		Units:        units,
		PricePerUnit: domainLedger.PerUnit(totalPrice, units),
		TotalPrice:   totalPrice,
		Waypoint:     waypoint,
	})
}

// RecordSale records cargo sold at a market
func (t *Tracker) RecordSale(ctx context.Context, shipSymbol, tradeSymbol string, units int, totalPrice int64, waypoint string) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:         domainLedger.TransactionTypeSale,
		ShipSymbol:   shipSymbol,
		TradeSymbol:  tradeSymbol,
		Units:        units,
		PricePerUnit: domainLedger.PerUnit(totalPrice, units),
		TotalPrice:   totalPrice,
		Waypoint:     waypoint,
	})
}

// RecordRefuel records fuel bought for a ship
func (t *Tracker) RecordRefuel(ctx context.Context, shipSymbol string, units int, totalPrice int64, waypoint string) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:       domainLedger.TransactionTypeRefuel,
		ShipSymbol: shipSymbol,
		Units:      units,
		TotalPrice: totalPrice,
		Waypoint:   waypoint,
	})
}

// RecordShipPurchase records a ship bought at a shipyard
func (t *Tracker) RecordShipPurchase(ctx context.Context, shipSymbol, shipType string, totalPrice int64, waypoint string) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:       domainLedger.TransactionTypeShipPurchase,
		ShipSymbol: shipSymbol,
		ShipType:   shipType,
		TotalPrice: totalPrice,
		Waypoint:   waypoint,
	})
}

// RecordContractPayment records an onAccepted or onFulfilled payout
func (t *Tracker) RecordContractPayment(ctx context.Context, contractID, paymentType string, amount int64) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:        domainLedger.TransactionTypeContractPayment,
		ContractID:  contractID,
		PaymentType: paymentType,
		TotalPrice:  amount,
	})
}

// RecordExtraction records mined units
func (t *Tracker) RecordExtraction(ctx context.Context, shipSymbol, tradeSymbol string, units int, waypoint string) (domainLedger.Transaction, error) {
	return t.Record(ctx, domainLedger.Transaction{
		Type:        domainLedger.TransactionTypeExtraction,
		ShipSymbol:  shipSymbol,
		TradeSymbol: tradeSymbol,
		Units:       units,
		Waypoint:    waypoint,
	})
}

// Transactions returns a copy of the history, oldest first
func (t *Tracker) Transactions() []domainLedger.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) TotalProfit() int64   { return domainLedger.TotalProfit(t.Transactions()) }
func (t *Tracker) TotalRevenue() int64  { return domainLedger.TotalRevenue(t.Transactions()) }
func (t *Tracker) TotalExpenses() int64 { return domainLedger.TotalExpenses(t.Transactions()) }

// DailyStats reports the last days calendar days; days <= 0 means 7
func (t *Tracker) DailyStats(days int) []domainLedger.DailyStat {
	if days <= 0 {
		days = defaultDailyDays
	}
	return domainLedger.DailyStats(t.Transactions(), t.clock.Now(), days)
}

// MostProfitableGoods ranks goods; limit <= 0 means 10
func (t *Tracker) MostProfitableGoods(limit int) []domainLedger.GoodStat {
	if limit <= 0 {
		limit = defaultTopGoods
	}
	return domainLedger.MostProfitableGoods(t.Transactions(), limit)
}

// ShipStats ranks ships by profit
func (t *Tracker) ShipStats() []domainLedger.ShipStat {
	return domainLedger.ShipStats(t.Transactions())
}

// SessionStats reports activity since the tracker was created or reset
func (t *Tracker) SessionStats() domainLedger.SessionStats {
	t.mu.Lock()
	txs := t.snapshotLocked()
	start := t.sessionStart
	t.mu.Unlock()

	return domainLedger.Session(txs, start, t.clock.Now())
}

// Summary builds the global report
func (t *Tracker) Summary() domainLedger.Summary {
	t.mu.Lock()
	txs := t.snapshotLocked()
	start := t.sessionStart
	credits := t.startCredits
	t.mu.Unlock()

	now := t.clock.Now()
	return domainLedger.Summary{
		TotalTransactions: len(txs),
		TotalRevenue:      domainLedger.TotalRevenue(txs),
		TotalExpenses:     domainLedger.TotalExpenses(txs),
		TotalProfit:       domainLedger.TotalProfit(txs),
		StartCredits:      credits,
		Session:           domainLedger.Session(txs, start, now),
		TopGoods:          domainLedger.MostProfitableGoods(txs, summaryTopGoods),
		Daily:             domainLedger.DailyStats(txs, now, defaultDailyDays),
		ByCategory:        domainLedger.CategoryBreakdown(txs),
	}
}

// Export returns the portable document
func (t *Tracker) Export() domainLedger.ExportData {
	t.mu.Lock()
	defer t.mu.Unlock()

	return domainLedger.ExportData{
		Version:      domainLedger.ExportVersion,
		ExportDate:   t.clock.Now(),
		StartCredits: t.startCredits,
		Transactions: t.snapshotLocked(),
	}
}

// ExportJSON encodes Export
func (t *Tracker) ExportJSON() ([]byte, error) {
	data := t.Export()
	return json.MarshalIndent(data, "", "  ")
}

// Import replaces the whole history with data
func (t *Tracker) Import(ctx context.Context, data domainLedger.ExportData) error {
	if err := data.CheckVersion(); err != nil {
		return err
	}
	for i := range data.Transactions {
		if err := data.Transactions[i].Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.startCredits = data.StartCredits
	t.transactions = append([]domainLedger.Transaction(nil), data.Transactions...)
	return t.saveLocked(ctx)
}

// ImportJSON decodes raw and imports it
func (t *Tracker) ImportJSON(ctx context.Context, raw []byte) error {
	var data domainLedger.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to decode statistics: %w", err)
	}
	return t.Import(ctx, data)
}

// Reset forgets everything and restarts the session clock
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transactions = nil
	t.startCredits = 0
	t.sessionStart = t.clock.Now()
	if err := t.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to delete statistics: %w", err)
	}
	t.logger.Info("statistics-reset")
	return nil
}

func (t *Tracker) snapshotLocked() []domainLedger.Transaction {
	out := make([]domainLedger.Transaction, len(t.transactions))
	copy(out, t.transactions)
	return out
}

func (t *Tracker) saveLocked(ctx context.Context) error {
	raw, err := json.Marshal(storedState{
		StartCredits: t.startCredits,
		Transactions: t.transactions,
	})
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := t.store.Set(ctx, StorageKey, string(raw)); err != nil {
		t.logger.Error("statistics-save-failed", zap.Error(err))
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}
