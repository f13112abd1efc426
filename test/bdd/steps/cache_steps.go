package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
	"github.com/andrescamacho/skamkraft-go/internal/domain/shared"
)

type cacheContext struct {
	clock    *shared.MockClock
	cache    *cache.Service
	removed  int
	upstream int
}

// InitializeCacheScenario registers the response cache steps
func InitializeCacheScenario(sc *godog.ScenarioContext) {
	c := &cacheContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.clock = shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		c.cache = nil
		c.removed = 0
		c.upstream = 0
		return ctx, nil
	})

	sc.Step(`^a response cache with TTLs:$`, c.responseCacheWithTTLs)
	sc.Step(`^cached entries:$`, c.cachedEntries)

	sc.Step(`^(\d+) seconds pass$`, c.secondsPass)
	sc.Step(`^I invalidate the "([^"]*)" category$`, c.invalidateCategory)
	sc.Step(`^I invalidate keys matching "([^"]*)"$`, c.invalidateMatching)
	sc.Step(`^I fetch "([^"]*)" in "([^"]*)" twice returning "([^"]*)"$`, c.fetchTwice)
	sc.Step(`^I fetch "([^"]*)" in "([^"]*)" and upstream fails$`, c.fetchFailing)

	sc.Step(`^"([^"]*)" should be cached with value "([^"]*)"$`, c.shouldBeCached)
	sc.Step(`^"([^"]*)" should not be cached$`, c.shouldNotBeCached)
	sc.Step(`^(\d+) entr(?:y|ies) should have been removed$`, c.entriesRemoved)
	sc.Step(`^upstream should have been called (\d+) times?$`, c.upstreamCalled)
	sc.Step(`^the cache stats should show:$`, c.cacheStatsShouldShow)
}

func (c *cacheContext) responseCacheWithTTLs(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}

	ttls := make(map[cache.Category]time.Duration, len(rows))
	for _, row := range rows {
		ttl, err := time.ParseDuration(row["ttl"])
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", row["ttl"], err)
		}
		ttls[cache.Category(row["category"])] = ttl
	}

	c.cache = cache.NewService(cache.Config{TTLs: ttls}, c.clock, nil, nil)
	return nil
}

func (c *cacheContext) cachedEntries(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		c.cache.Set(row["key"], row["value"], cache.Category(row["category"]))
	}
	return nil
}

func (c *cacheContext) secondsPass(seconds int) error {
	c.clock.Advance(time.Duration(seconds) * time.Second)
	return nil
}

func (c *cacheContext) invalidateCategory(category string) error {
	c.removed = c.cache.InvalidateCategory(cache.Category(category))
	return nil
}

func (c *cacheContext) invalidateMatching(pattern string) error {
	c.removed = c.cache.Invalidate(pattern)
	return nil
}

func (c *cacheContext) fetch(key, category string, fetch func(context.Context) (any, error)) (any, error) {
	return c.cache.GetOrFetch(context.Background(), key, cache.Category(category), func(ctx context.Context) (any, error) {
		c.upstream++
		return fetch(ctx)
	})
}

func (c *cacheContext) fetchTwice(key, category, value string) error {
	for i := 0; i < 2; i++ {
		got, err := c.fetch(key, category, func(context.Context) (any, error) { return value, nil })
		if err != nil {
			return err
		}
		if got != value {
			return fmt.Errorf("fetch %d returned %v, expected %q", i+1, got, value)
		}
	}
	return nil
}

func (c *cacheContext) fetchFailing(key, category string) error {
	upstreamErr := errors.New("upstream unavailable")
	_, err := c.fetch(key, category, func(context.Context) (any, error) { return nil, upstreamErr })
	if !errors.Is(err, upstreamErr) {
		return fmt.Errorf("expected the upstream error, got %v", err)
	}
	return nil
}

func (c *cacheContext) shouldBeCached(key, value string) error {
	got, ok := c.cache.Get(key)
	if !ok {
		return fmt.Errorf("expected %q to be cached", key)
	}
	if got != value {
		return fmt.Errorf("expected %q to hold %q, got %v", key, value, got)
	}
	return nil
}

func (c *cacheContext) shouldNotBeCached(key string) error {
	if c.cache.Has(key) {
		return fmt.Errorf("expected %q to be gone", key)
	}
	return nil
}

func (c *cacheContext) entriesRemoved(count int) error {
	if c.removed != count {
		return fmt.Errorf("expected %d entries removed, got %d", count, c.removed)
	}
	return nil
}

func (c *cacheContext) upstreamCalled(count int) error {
	if c.upstream != count {
		return fmt.Errorf("expected %d upstream calls, got %d", count, c.upstream)
	}
	return nil
}

func (c *cacheContext) cacheStatsShouldShow(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	want := rows[0]
	stats := c.cache.Stats()

	for name, got := range map[string]int64{"hits": stats.Hits, "misses": stats.Misses, "sets": stats.Sets} {
		value, ok := want[name]
		if !ok {
			continue
		}
		expected, err := atoi(value)
		if err != nil {
			return err
		}
		if got != int64(expected) {
			return fmt.Errorf("expected %d %s, got %d", expected, name, got)
		}
	}
	return nil
}
