package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyValueStore is a string key-value tier. Get reports a missing key with
// ok=false and a nil error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a process-lifetime KeyValueStore
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns the stored keys, used by tests and diagnostics
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	return keys
}

// GormKeyValueStore implements KeyValueStore on the kv_entries table
type GormKeyValueStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormKeyValueStore creates a new GORM key-value store
func NewGormKeyValueStore(db *gorm.DB) *GormKeyValueStore {
	return &GormKeyValueStore{db: db, now: time.Now}
}

// Get retrieves a value by key
func (r *GormKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model KeyValueModel
	result := r.db.WithContext(ctx).Where("entry_key = ?", key).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %s: %w", key, result.Error)
	}
	return model.Value, true, nil
}

// Set creates or replaces a value
func (r *GormKeyValueStore) Set(ctx context.Context, key, value string) error {
	model := KeyValueModel{Key: key, Value: value, UpdatedAt: r.now().UTC()}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to set key %s: %w", key, result.Error)
	}
	return nil
}

// Delete removes a key; deleting a missing key is not an error
func (r *GormKeyValueStore) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&KeyValueModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, result.Error)
	}
	return nil
}
