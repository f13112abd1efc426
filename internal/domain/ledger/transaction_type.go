package ledger

import "fmt"

// TransactionType represents the kind of recorded event
type TransactionType string

const (
	// TransactionTypePurchase represents buying cargo at a market
	TransactionTypePurchase TransactionType = "PURCHASE"

	// TransactionTypeSale represents selling cargo at a market
	TransactionTypeSale TransactionType = "SALE"

	// TransactionTypeRefuel represents a ship refueling operation
	TransactionTypeRefuel TransactionType = "REFUEL"

	// TransactionTypeShipPurchase represents buying a new ship
	TransactionTypeShipPurchase TransactionType = "SHIP_PURCHASE"

	// TransactionTypeContractPayment represents a contract payout on accept or fulfil
	TransactionTypeContractPayment TransactionType = "CONTRACT_PAYMENT"

	// TransactionTypeExtraction records mined units; it moves no credits
	TransactionTypeExtraction TransactionType = "EXTRACTION"
)

// AllTransactionTypes returns all valid transaction types
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypePurchase,
		TransactionTypeSale,
		TransactionTypeRefuel,
		TransactionTypeShipPurchase,
		TransactionTypeContractPayment,
		TransactionTypeExtraction,
	}
}

// String returns the string representation of the TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	_, ok := TypeToCategoryMap[t]
	return ok
}

// ToCategory maps the transaction type to its category
func (t TransactionType) ToCategory() (Category, error) {
	category, exists := TypeToCategoryMap[t]
	if !exists {
		return "", fmt.Errorf("unknown transaction type: %s", t)
	}
	return category, nil
}

// ParseTransactionType parses a string into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
	return t, nil
}
