package ledger

import (
	"fmt"
	"time"
)

// Transaction is one recorded economic event. Transactions are immutable
// once recorded.
type Transaction struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Type         TransactionType `json:"type"`
	ShipSymbol   string          `json:"shipSymbol,omitempty"`
	TradeSymbol  string          `json:"good,omitempty"`
	Units        int             `json:"units,omitempty"`
	PricePerUnit int64           `json:"pricePerUnit,omitempty"`
	TotalPrice   int64           `json:"totalPrice"`
	Waypoint     string          `json:"waypoint,omitempty"`
	ShipType     string          `json:"shipType,omitempty"`
	ContractID   string          `json:"contractId,omitempty"`
	PaymentType  string          `json:"paymentType,omitempty"`
}

// Payment types of contract payouts
const (
	PaymentOnAccepted  = "onAccepted"
	PaymentOnFulfilled = "onFulfilled"
)

// Validate checks that the transaction satisfies its invariants
func (t *Transaction) Validate() error {
	if err := ValidateTransactionID(t.ID); err != nil {
		return &ErrInvalidTransaction{Field: "id", Reason: err.Error()}
	}
	if !t.Type.IsValid() {
		return &ErrInvalidTransaction{
			Field:  "type",
			Reason: fmt.Sprintf("invalid transaction type: %s", t.Type),
		}
	}
	if t.Timestamp.IsZero() {
		return &ErrInvalidTransaction{Field: "timestamp", Reason: "timestamp is required"}
	}
	if t.TotalPrice < 0 {
		return &ErrInvalidTransaction{Field: "total_price", Reason: "total price cannot be negative"}
	}
	if t.Units < 0 {
		return &ErrInvalidTransaction{Field: "units", Reason: "units cannot be negative"}
	}
	return nil
}

// Category returns the cash flow category of the transaction type
func (t *Transaction) Category() Category {
	return TypeToCategoryMap[t.Type]
}

// IsIncome returns true if the transaction brings credits in
func (t *Transaction) IsIncome() bool {
	return t.Category().IsIncome()
}

// IsExpense returns true if the transaction spends credits
func (t *Transaction) IsExpense() bool {
	return t.Category().IsExpense()
}

// SignedAmount is TotalPrice for income, minus TotalPrice for expenses and
// zero for extractions
func (t *Transaction) SignedAmount() int64 {
	switch {
	case t.IsIncome():
		return t.TotalPrice
	case t.IsExpense():
		return -t.TotalPrice
	default:
		return 0
	}
}

// String provides a human-readable representation
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction[%s, type=%s, ship=%s, amount=%d]",
		t.ID, t.Type, t.ShipSymbol, t.SignedAmount())
}

// PerUnit divides total by units, zero when units is not positive
func PerUnit(total int64, units int) int64 {
	if units <= 0 {
		return 0
	}
	return total / int64(units)
}
