package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FleetMetricsCollector records task queue throughput
type FleetMetricsCollector struct {
	tasksQueued   *prometheus.CounterVec
	tasksFinished *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	fleetSize     prometheus.Gauge
}

// NewFleetMetricsCollector creates a new fleet metrics collector
func NewFleetMetricsCollector() *FleetMetricsCollector {
	return &FleetMetricsCollector{
		tasksQueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fleet",
				Name:      "tasks_queued_total",
				Help:      "Tasks queued by type",
			},
			[]string{"type"},
		),

		// Terminal transitions, including cancellations
		tasksFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fleet",
				Name:      "tasks_finished_total",
				Help:      "Tasks reaching a terminal state by type and status",
			},
			[]string{"type", "status"},
		),

		// Mining runs include cooldowns, so buckets reach an hour
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fleet",
				Name:      "task_duration_seconds",
				Help:      "Task execution duration distribution",
				Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"type"},
		),

		fleetSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "fleet",
				Name:      "ships",
				Help:      "Ships known after the last fleet sync",
			},
		),
	}
}

// Register registers all fleet metrics with the Prometheus registry
func (c *FleetMetricsCollector) Register() error {
	return register(c.tasksQueued, c.tasksFinished, c.taskDuration, c.fleetSize)
}

func (c *FleetMetricsCollector) TaskQueued(taskType string) {
	c.tasksQueued.WithLabelValues(taskType).Inc()
}

// TaskFinished counts the terminal status; only executed tasks are timed
func (c *FleetMetricsCollector) TaskFinished(taskType, status string, duration time.Duration) {
	c.tasksFinished.WithLabelValues(taskType, status).Inc()
	if duration > 0 {
		c.taskDuration.WithLabelValues(taskType).Observe(duration.Seconds())
	}
}

func (c *FleetMetricsCollector) FleetSize(ships int) {
	c.fleetSize.Set(float64(ships))
}
