package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion rejects an import whose version is not ExportVersion
	ErrUnsupportedVersion = errors.New("unsupported data version")
)

// ErrInvalidTransaction represents validation errors for transactions
type ErrInvalidTransaction struct {
	Field  string
	Reason string
}

func (e *ErrInvalidTransaction) Error() string {
	return fmt.Sprintf("invalid transaction: %s - %s", e.Field, e.Reason)
}
