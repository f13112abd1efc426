package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace for all metrics
	namespace = "skamkraft"
	// Subsystem for client metrics
	subsystem = "client"
)

// Registry is the global Prometheus registry for all metrics.
// Nil until InitRegistry is called; collectors skip registration then.
var Registry *prometheus.Registry

// InitRegistry creates a fresh registry with the Go runtime and process
// collectors. Should be called once at startup when metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// GetRegistry returns the global Prometheus registry, nil when disabled
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

func register(metrics ...prometheus.Collector) error {
	if Registry == nil {
		return nil
	}
	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Collectors bundles every collector a session wires into its components
type Collectors struct {
	API     *APIMetricsCollector
	Cache   *CacheMetricsCollector
	Fleet   *FleetMetricsCollector
	Trading *TradingMetricsCollector
}

// NewCollectors creates all collectors and registers them with Registry
func NewCollectors() (*Collectors, error) {
	c := &Collectors{
		API:     NewAPIMetricsCollector(),
		Cache:   NewCacheMetricsCollector(),
		Fleet:   NewFleetMetricsCollector(),
		Trading: NewTradingMetricsCollector(),
	}
	for _, r := range []interface{ Register() error }{c.API, c.Cache, c.Fleet, c.Trading} {
		if err := r.Register(); err != nil {
			return nil, err
		}
	}
	return c, nil
}
