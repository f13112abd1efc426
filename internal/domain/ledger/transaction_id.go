package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const transactionIDPrefix = "tx-"

// NewTransactionID generates a tx-<uuid> identifier
func NewTransactionID() string {
	return transactionIDPrefix + uuid.New().String()
}

// ValidateTransactionID checks the tx-<uuid> format
func ValidateTransactionID(id string) error {
	if id == "" {
		return fmt.Errorf("transaction_id cannot be empty")
	}
	if !strings.HasPrefix(id, transactionIDPrefix) {
		return fmt.Errorf("transaction_id must start with %q", transactionIDPrefix)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, transactionIDPrefix)); err != nil {
		return fmt.Errorf("invalid transaction_id format: %w", err)
	}
	return nil
}
