package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

// Entry is one cached value
type Entry struct {
	Data     any
	StoredAt time.Time
	TTL      time.Duration
	Category Category
}

// expired reports whether the entry is past its TTL at now.
// A TTL of zero or less is always expired.
func (e *Entry) expired(now time.Time) bool {
	if e.TTL <= 0 {
		return true
	}
	return now.Sub(e.StoredAt) > e.TTL
}

// Stats is a point-in-time summary of cache activity
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Sets          int64   `json:"sets"`
	Invalidations int64   `json:"invalidations"`
	Size          int     `json:"size"`
	HitRate       float64 `json:"hitRate"`
}

// Config holds per-category TTLs and the sweep interval
type Config struct {
	TTLs            map[Category]time.Duration
	CleanupInterval time.Duration
}

// Service is a TTL key-value cache with category-based invalidation
type Service struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	ttls     map[Category]time.Duration
	interval time.Duration
	stats    Stats
	clock    shared.Clock
	recorder Recorder
	logger   *zap.Logger
}

// NewService creates a cache. Missing TTLs fall back to DefaultTTLs.
// If clock is nil, uses RealClock; if recorder is nil, events are dropped.
func NewService(cfg Config, clock shared.Clock, recorder Recorder, logger *zap.Logger) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ttls := DefaultTTLs()
	for category, ttl := range cfg.TTLs {
		ttls[category] = ttl
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	return &Service{
		entries:  make(map[string]*Entry),
		ttls:     ttls,
		interval: interval,
		clock:    clock,
		recorder: recorder,
		logger:   logger,
	}
}

// TTL returns the default TTL of a category
func (s *Service) TTL(category Category) time.Duration {
	if ttl, ok := s.ttls[category]; ok {
		return ttl
	}
	return s.ttls[CategoryDefault]
}

// GenerateKey builds the composite key category:endpoint:serialized-params
func GenerateKey(category Category, endpoint string, params any) string {
	serialized := `""`
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			serialized = string(b)
		}
	}
	return fmt.Sprintf("%s:%s:%s", category, endpoint, serialized)
}

// Get returns the value if present and fresh. Expired entries are evicted.
func (s *Service) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		s.recorder.Miss()
		return nil, false
	}

	if entry.expired(s.clock.Now()) {
		delete(s.entries, key)
		s.stats.Misses++
		s.recorder.Miss()
		s.recorder.Size(len(s.entries))
		return nil, false
	}

	s.stats.Hits++
	s.recorder.Hit(entry.Category)
	return entry.Data, true
}

// Set stores data with the category's default TTL
func (s *Service) Set(key string, data any, category Category) {
	s.SetWithTTL(key, data, category, s.TTL(category))
}

// SetWithTTL stores data with an explicit TTL, overwriting any existing entry
func (s *Service) SetWithTTL(key string, data any, category Category, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &Entry{
		Data:     data,
		StoredAt: s.clock.Now(),
		TTL:      ttl,
		Category: category,
	}
	s.stats.Sets++
	s.recorder.Set(category)
	s.recorder.Size(len(s.entries))
}

// Has reports whether a fresh entry exists without touching hit counters
func (s *Service) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return ok && !entry.expired(s.clock.Now())
}

// Invalidate removes every key containing pattern and returns how many
func (s *Service) Invalidate(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.Contains(key, pattern) {
			delete(s.entries, key)
			removed++
		}
	}
	s.afterInvalidate(removed)
	return removed
}

// InvalidateCategory removes every entry stored under category
func (s *Service) InvalidateCategory(category Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.Category == category {
			delete(s.entries, key)
			removed++
		}
	}
	s.afterInvalidate(removed)
	return removed
}

// afterInvalidate must be called with mu held
func (s *Service) afterInvalidate(removed int) {
	s.stats.Invalidations += int64(removed)
	s.recorder.Invalidated(removed)
	s.recorder.Size(len(s.entries))
}

// Clear drops every entry. Counters are kept.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.recorder.Size(0)
}

// Cleanup removes all expired entries and returns how many were removed
func (s *Service) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.recorder.Size(len(s.entries))
	return removed
}

// Start runs the periodic sweep until ctx is done
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Cleanup(); removed > 0 {
				s.logger.Debug("cache-sweep", zap.Int("removed", removed))
			}
		}
	}
}

// Size returns the number of stored entries, fresh or not
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns counters and the current hit rate
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Size = len(s.entries)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// GetOrFetch returns the cached value for key or calls fetch and caches its result.
// Fetch errors are returned unchanged and nothing is stored.
func (s *Service) GetOrFetch(ctx context.Context, key string, category Category, fetch func(ctx context.Context) (any, error)) (any, error) {
	if data, ok := s.Get(key); ok {
		return data, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.Set(key, data, category)
	return data, nil
}
