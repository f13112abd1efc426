package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/api"
	"github.com/andrescamacho/skamkraft-go/internal/domain/player"
)

// Claims is the readable part of a SpaceTraders agent token
type Claims struct {
	Identifier string    `json:"identifier"`
	Version    string    `json:"version,omitempty"`
	ResetDate  string    `json:"resetDate,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	IssuedAt   time.Time `json:"issuedAt,omitempty"`
}

type tokenClaims struct {
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
	ResetDate  string `json:"reset_date"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the token payload without verifying its signature.
// The signing key belongs to the game server, so this is for display only.
func ParseClaims(token string) (*Claims, error) {
	var parsed tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	claims := &Claims{
		Identifier: parsed.Identifier,
		Version:    parsed.Version,
		ResetDate:  parsed.ResetDate,
		Subject:    parsed.Subject,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// Claims parses the current token
func (m *TokenManager) Claims(ctx context.Context) (*Claims, error) {
	token, ok := m.Token(ctx)
	if !ok {
		return nil, api.ErrAuthRequired
	}
	return ParseClaims(token)
}

// AgentFetcher reads the agent behind the current token without the cache
type AgentFetcher interface {
	FetchAgent(ctx context.Context) (*player.Agent, error)
}

// Validate checks the token against the server. A 401 clears the token and
// reports false with no error; other failures are returned as-is and leave
// the token in place.
func (m *TokenManager) Validate(ctx context.Context, fetcher AgentFetcher) (bool, error) {
	if !m.IsAuthenticated(ctx) {
		return false, nil
	}

	if _, err := fetcher.FetchAgent(ctx); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthError() {
			m.ClearToken(ctx)
			return false, nil
		}
		return false, err
	}
	return true, nil
}
