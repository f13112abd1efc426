package player

import (
	"encoding/json"
	"strings"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// RegisterRequest is the body sent to /register
type RegisterRequest struct {
	Symbol  string `json:"symbol"`
	Faction string `json:"faction"`
	Email   string `json:"email,omitempty"`
}

// Validate checks the agent symbol length and faction the API requires
func (r RegisterRequest) Validate() error {
	symbol := strings.TrimSpace(r.Symbol)
	if len(symbol) < 3 || len(symbol) > 14 {
		return shared.NewValidationError("symbol", "must be between 3 and 14 characters")
	}
	if strings.TrimSpace(r.Faction) == "" {
		return shared.NewValidationError("faction", "is required")
	}
	return nil
}

// Registration is the payload returned by a successful registration.
// Ships, contract and faction are kept raw since callers only display them.
type Registration struct {
	Agent    Agent           `json:"agent"`
	Token    string          `json:"token"`
	Contract json.RawMessage `json:"contract,omitempty"`
	Faction  json.RawMessage `json:"faction,omitempty"`
	Ships    json.RawMessage `json:"ships,omitempty"`
}
