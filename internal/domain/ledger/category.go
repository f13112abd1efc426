package ledger

import "fmt"

// Category represents the cash flow category for reporting
type Category string

const (
	CategoryFuelCosts       Category = "FUEL_COSTS"
	CategoryTradingRevenue  Category = "TRADING_REVENUE"
	CategoryTradingCosts    Category = "TRADING_COSTS"
	CategoryShipInvestments Category = "SHIP_INVESTMENTS"
	CategoryContractRevenue Category = "CONTRACT_REVENUE"

	// CategoryProduction carries no credits (extractions)
	CategoryProduction Category = "PRODUCTION"
)

// TypeToCategoryMap maps transaction types to their categories
var TypeToCategoryMap = map[TransactionType]Category{
	TransactionTypeRefuel:          CategoryFuelCosts,
	TransactionTypePurchase:        CategoryTradingCosts,
	TransactionTypeSale:            CategoryTradingRevenue,
	TransactionTypeShipPurchase:    CategoryShipInvestments,
	TransactionTypeContractPayment: CategoryContractRevenue,
	TransactionTypeExtraction:      CategoryProduction,
}

// String returns the string representation of the Category
func (c Category) String() string {
	return string(c)
}

// IsIncome returns true if the category represents income
func (c Category) IsIncome() bool {
	switch c {
	case CategoryTradingRevenue, CategoryContractRevenue:
		return true
	default:
		return false
	}
}

// IsExpense returns true if the category represents an expense or investment
func (c Category) IsExpense() bool {
	switch c {
	case CategoryFuelCosts, CategoryTradingCosts, CategoryShipInvestments:
		return true
	default:
		return false
	}
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range TypeToCategoryMap {
		if known == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category: %s", s)
}
