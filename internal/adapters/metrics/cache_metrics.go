package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/cache"
)

// CacheMetricsCollector records response cache activity
type CacheMetricsCollector struct {
	hits          *prometheus.CounterVec
	misses        prometheus.Counter
	sets          *prometheus.CounterVec
	invalidations prometheus.Counter
	size          prometheus.Gauge
}

// NewCacheMetricsCollector creates a new cache metrics collector
func NewCacheMetricsCollector() *CacheMetricsCollector {
	return &CacheMetricsCollector{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Cache hits by category",
			},
			[]string{"category"},
		),
		misses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Cache misses, including expired entries",
			},
		),
		sets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "sets_total",
				Help:      "Entries stored by category",
			},
			[]string{"category"},
		),
		invalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "invalidated_entries_total",
				Help:      "Entries removed by invalidation",
			},
		),
		size: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Entries currently stored",
			},
		),
	}
}

// Register registers all cache metrics with the Prometheus registry
func (c *CacheMetricsCollector) Register() error {
	return register(c.hits, c.misses, c.sets, c.invalidations, c.size)
}

func (c *CacheMetricsCollector) Hit(category cache.Category) {
	c.hits.WithLabelValues(string(category)).Inc()
}

func (c *CacheMetricsCollector) Miss() {
	c.misses.Inc()
}

func (c *CacheMetricsCollector) Set(category cache.Category) {
	c.sets.WithLabelValues(string(category)).Inc()
}

func (c *CacheMetricsCollector) Invalidated(count int) {
	c.invalidations.Add(float64(count))
}

func (c *CacheMetricsCollector) Size(entries int) {
	c.size.Set(float64(entries))
}
