package ledger

import (
	"fmt"
	"sort"
	"time"
)

// ExportVersion is the only blob version Import accepts
const ExportVersion = 1

// DailyStat aggregates one UTC calendar day
type DailyStat struct {
	Date         string `json:"date"`
	Revenue      int64  `json:"revenue"`
	Expenses     int64  `json:"expenses"`
	Profit       int64  `json:"profit"`
	Transactions int    `json:"transactions"`
	Extractions  int    `json:"extractions"`
	Sales        int    `json:"sales"`
	Purchases    int    `json:"purchases"`
}

// GoodStat aggregates market trades of one trade symbol
type GoodStat struct {
	Good   string `json:"good"`
	Bought int64  `json:"bought"`
	Sold   int64  `json:"sold"`
	Volume int    `json:"volume"`
	Profit int64  `json:"profit"`
}

// ShipStat aggregates the transactions of one ship
type ShipStat struct {
	Ship         string `json:"ship"`
	Revenue      int64  `json:"revenue"`
	Expenses     int64  `json:"expenses"`
	Profit       int64  `json:"profit"`
	Transactions int    `json:"transactions"`
	Extractions  int    `json:"extractions"`
}

// SessionStats summarises the transactions since the session started
type SessionStats struct {
	Duration      string `json:"duration"`
	Transactions  int    `json:"transactions"`
	Revenue       int64  `json:"revenue"`
	Expenses      int64  `json:"expenses"`
	Profit        int64  `json:"profit"`
	ProfitPerHour int64  `json:"profitPerHour"`
}

// Summary is the global report
type Summary struct {
	TotalTransactions int                `json:"totalTransactions"`
	TotalRevenue      int64              `json:"totalRevenue"`
	TotalExpenses     int64              `json:"totalExpenses"`
	TotalProfit       int64              `json:"totalProfit"`
	StartCredits      int64              `json:"startCredits"`
	Session           SessionStats       `json:"session"`
	TopGoods          []GoodStat         `json:"topGoods"`
	Daily             []DailyStat        `json:"daily"`
	ByCategory        map[Category]int64 `json:"byCategory"`
}

// ExportData is the portable statistics document
type ExportData struct {
	Version      int           `json:"version"`
	ExportDate   time.Time     `json:"exportDate"`
	StartCredits int64         `json:"startCredits"`
	Transactions []Transaction `json:"transactions"`
}

// CheckVersion rejects documents from another format version
func (d *ExportData) CheckVersion() error {
	if d.Version != ExportVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	return nil
}

// TotalRevenue sums sales and contract payments
func TotalRevenue(txs []Transaction) int64 {
	var sum int64
	for i := range txs {
		if txs[i].IsIncome() {
			sum += txs[i].TotalPrice
		}
	}
	return sum
}

// TotalExpenses sums purchases, refuels and ship purchases
func TotalExpenses(txs []Transaction) int64 {
	var sum int64
	for i := range txs {
		if txs[i].IsExpense() {
			sum += txs[i].TotalPrice
		}
	}
	return sum
}

// TotalProfit is revenue minus expenses
func TotalProfit(txs []Transaction) int64 {
	var sum int64
	for i := range txs {
		sum += txs[i].SignedAmount()
	}
	return sum
}

// DailyStats groups transactions newer than now-days by UTC date, newest first
func DailyStats(txs []Transaction, now time.Time, days int) []DailyStat {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	byDate := make(map[string]*DailyStat)

	for i := range txs {
		tx := &txs[i]
		if tx.Timestamp.Before(cutoff) {
			continue
		}
		key := tx.Timestamp.UTC().Format("2006-01-02")
		day, ok := byDate[key]
		if !ok {
			day = &DailyStat{Date: key}
			byDate[key] = day
		}
		day.Transactions++

		switch {
		case tx.IsIncome():
			day.Revenue += tx.TotalPrice
			day.Sales++
		case tx.IsExpense():
			day.Expenses += tx.TotalPrice
			day.Purchases++
		case tx.Type == TransactionTypeExtraction:
			day.Extractions++
		}
		day.Profit = day.Revenue - day.Expenses
	}

	out := make([]DailyStat, 0, len(byDate))
	for _, day := range byDate {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// MostProfitableGoods ranks trade symbols by sold minus bought
func MostProfitableGoods(txs []Transaction, limit int) []GoodStat {
	byGood := make(map[string]*GoodStat)

	for i := range txs {
		tx := &txs[i]
		if tx.TradeSymbol == "" {
			continue
		}
		stat, ok := byGood[tx.TradeSymbol]
		if !ok {
			stat = &GoodStat{Good: tx.TradeSymbol}
			byGood[tx.TradeSymbol] = stat
		}
		switch tx.Type {
		case TransactionTypePurchase:
			stat.Bought += tx.TotalPrice
			stat.Volume += tx.Units
		case TransactionTypeSale:
			stat.Sold += tx.TotalPrice
			stat.Volume += tx.Units
		}
		stat.Profit = stat.Sold - stat.Bought
	}

	out := make([]GoodStat, 0, len(byGood))
	for _, stat := range byGood {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Good < out[j].Good
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ShipStats ranks ships by profit. Only sales count as ship revenue and only
// purchases and refuels as ship expenses.
func ShipStats(txs []Transaction) []ShipStat {
	byShip := make(map[string]*ShipStat)

	for i := range txs {
		tx := &txs[i]
		if tx.ShipSymbol == "" {
			continue
		}
		stat, ok := byShip[tx.ShipSymbol]
		if !ok {
			stat = &ShipStat{Ship: tx.ShipSymbol}
			byShip[tx.ShipSymbol] = stat
		}
		stat.Transactions++

		switch tx.Type {
		case TransactionTypeSale:
			stat.Revenue += tx.TotalPrice
		case TransactionTypePurchase, TransactionTypeRefuel:
			stat.Expenses += tx.TotalPrice
		case TransactionTypeExtraction:
			stat.Extractions++
		}
		stat.Profit = stat.Revenue - stat.Expenses
	}

	out := make([]ShipStat, 0, len(byShip))
	for _, stat := range byShip {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Ship < out[j].Ship
	})
	return out
}

// Session computes the stats of transactions at or after start
func Session(txs []Transaction, start, now time.Time) SessionStats {
	var stats SessionStats
	for i := range txs {
		tx := &txs[i]
		if tx.Timestamp.Before(start) {
			continue
		}
		stats.Transactions++
		switch {
		case tx.IsIncome():
			stats.Revenue += tx.TotalPrice
		case tx.IsExpense():
			stats.Expenses += tx.TotalPrice
		}
	}
	stats.Profit = stats.Revenue - stats.Expenses

	elapsed := now.Sub(start)
	if elapsed > 0 {
		stats.ProfitPerHour = int64(float64(stats.Profit) / elapsed.Hours())
	}
	stats.Duration = FormatDuration(elapsed)
	return stats
}

// CategoryBreakdown sums TotalPrice per cash flow category
func CategoryBreakdown(txs []Transaction) map[Category]int64 {
	out := make(map[Category]int64)
	for i := range txs {
		category := txs[i].Category()
		if category.IsIncome() || category.IsExpense() {
			out[category] += txs[i].TotalPrice
		}
	}
	return out
}

// FormatDuration renders "1h 5m", "5m 3s" or "3s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	seconds := int(d%time.Minute) / int(time.Second)

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
