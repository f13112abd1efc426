package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
)

// Storage keys shared by both tiers
const (
	TokenKey    = "st_token"
	RememberKey = "st_remember"
	LegacyKey   = "token"
)

var (
	// ErrInvalidToken rejects an empty or blank token
	ErrInvalidToken = errors.New("invalid token")
)

// EventKind names a token state change
type EventKind string

const (
	EventSet     EventKind = "set"
	EventCleared EventKind = "cleared"
)

// TokenEvent is published on every token state change
type TokenEvent struct {
	Kind          EventKind
	Authenticated bool
}

// TokenManager owns the bearer token. It keeps a memory copy and persists an
// obfuscated form in the session tier, or in the durable tier when the
// caller asked to be remembered.
type TokenManager struct {
	mu        sync.Mutex
	token     string
	session   persistence.KeyValueStore
	durable   persistence.KeyValueStore
	listeners map[int]func(TokenEvent)
	nextID    int
	logger    *zap.Logger
}

// NewTokenManager creates a manager over the two storage tiers.
// A nil tier falls back to a fresh MemoryStore.
func NewTokenManager(session, durable persistence.KeyValueStore, logger *zap.Logger) *TokenManager {
	if session == nil {
		session = persistence.NewMemoryStore()
	}
	if durable == nil {
		durable = persistence.NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		session:   session,
		durable:   durable,
		listeners: make(map[int]func(TokenEvent)),
		logger:    logger,
	}
}

// SetToken stores token. With persist the encoded token and the remember
// flag go to the durable tier and the session copy is removed; without it
// the session tier holds the token and durable copies are removed.
func (m *TokenManager) SetToken(ctx context.Context, token string, persist bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	err := m.storeLocked(ctx, token, persist)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.logger.Info("token-set", zap.Bool("persist", persist), zap.String("token", Describe(token)))
	m.notify(TokenEvent{Kind: EventSet, Authenticated: true})
	return nil
}

func (m *TokenManager) storeLocked(ctx context.Context, token string, persist bool) error {
	m.token = token
	encoded := encode(token)

	if persist {
		if err := m.durable.Set(ctx, TokenKey, encoded); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		if err := m.durable.Set(ctx, RememberKey, "true"); err != nil {
			return fmt.Errorf("failed to persist remember flag: %w", err)
		}
		if err := m.session.Delete(ctx, TokenKey); err != nil {
			return fmt.Errorf("failed to clear session token: %w", err)
		}
		return nil
	}

	if err := m.session.Set(ctx, TokenKey, encoded); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	if err := m.durable.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear durable token: %w", err)
	}
	if err := m.durable.Delete(ctx, RememberKey); err != nil {
		return fmt.Errorf("failed to clear remember flag: %w", err)
	}
	return nil
}

// Token returns the current token: memory first, then the session tier,
// then the durable tier when the remember flag is set. A stored value that
// fails to decode clears every tier.
func (m *TokenManager) Token(ctx context.Context) (string, bool) {
	m.mu.Lock()
	token, ok, corrupt := m.lookupLocked(ctx)
	if corrupt {
		m.clearLocked(ctx)
	}
	m.mu.Unlock()

	if corrupt {
		m.logger.Error("token-decode-failed")
		m.notify(TokenEvent{Kind: EventCleared, Authenticated: false})
	}
	return token, ok
}

func (m *TokenManager) lookupLocked(ctx context.Context) (token string, ok bool, corrupt bool) {
	if m.token != "" {
		return m.token, true, false
	}

	encoded, found := m.read(ctx, m.session, TokenKey)
	if !found {
		if remember, _ := m.read(ctx, m.durable, RememberKey); remember == "true" {
			encoded, found = m.read(ctx, m.durable, TokenKey)
		}
	}
	if !found || encoded == "" {
		return "", false, false
	}

	decoded, err := decode(encoded)
	if err != nil || strings.TrimSpace(decoded) == "" {
		return "", false, true
	}
	m.token = decoded
	return decoded, true, false
}

func (m *TokenManager) read(ctx context.Context, store persistence.KeyValueStore, key string) (string, bool) {
	value, ok, err := store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("token-store-read-failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return value, ok
}

// IsAuthenticated reports whether a token is available
func (m *TokenManager) IsAuthenticated(ctx context.Context) bool {
	_, ok := m.Token(ctx)
	return ok
}

// ClearToken wipes the memory copy, both tiers and the legacy slot
func (m *TokenManager) ClearToken(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.logger.Info("token-cleared")
	m.notify(TokenEvent{Kind: EventCleared, Authenticated: false})
}

func (m *TokenManager) clearLocked(ctx context.Context) {
	m.token = ""
	m.remove(ctx, m.session, TokenKey)
	m.remove(ctx, m.durable, TokenKey)
	m.remove(ctx, m.durable, RememberKey)
	m.remove(ctx, m.durable, LegacyKey)
}

func (m *TokenManager) remove(ctx context.Context, store persistence.KeyValueStore, key string) {
	if err := store.Delete(ctx, key); err != nil {
		m.logger.Warn("token-store-delete-failed", zap.String("key", key), zap.Error(err))
	}
}

// MigrateLegacy imports a plain token from the legacy durable slot when no
// current token exists. The legacy slot is deleted after a successful
// import. Returns true when a token was migrated.
func (m *TokenManager) MigrateLegacy(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if _, ok, _ := m.lookupLocked(ctx); ok {
		m.mu.Unlock()
		return false, nil
	}

	legacy, found := m.read(ctx, m.durable, LegacyKey)
	legacy = strings.TrimSpace(legacy)
	if !found || legacy == "" {
		m.mu.Unlock()
		return false, nil
	}

	if err := m.storeLocked(ctx, legacy, true); err != nil {
		m.mu.Unlock()
		return false, err
	}
	m.remove(ctx, m.durable, LegacyKey)
	m.mu.Unlock()

	m.logger.Info("token-migrated", zap.String("token", Describe(legacy)))
	m.notify(TokenEvent{Kind: EventSet, Authenticated: true})
	return true, nil
}

// Subscribe registers fn for token events; call the returned func to stop
func (m *TokenManager) Subscribe(fn func(TokenEvent)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *TokenManager) notify(event TokenEvent) {
	m.mu.Lock()
	listeners := make([]func(TokenEvent), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("token-listener-panic", zap.Any("panic", r))
				}
			}()
			fn(event)
		}()
	}
}

// encode reverses the token bytes and base64-encodes them. This only keeps
// the token from being read at a glance; it is not encryption.
func encode(token string) string {
	return base64.StdEncoding.EncodeToString(reverse([]byte(token)))
}

func decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return string(reverse(raw)), nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// Describe masks a token for logs, keeping only its ends
func Describe(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
