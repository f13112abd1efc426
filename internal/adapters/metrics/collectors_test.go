package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAPIMetricsCollector_CacheLookupsAndQueue(t *testing.T) {
	c := NewAPIMetricsCollector()

	c.RecordCacheBypass(true)
	c.RecordCacheBypass(true)
	c.RecordCacheBypass(false)
	c.RecordQueueLength(4)
	c.RecordAPIRequest("POST", "/my/ships/{ship}/sell", 201, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.apiCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.apiCacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.apiQueueLength))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.apiRequestsTotal.WithLabelValues("POST", "/my/ships/{ship}/sell", "201")))
}

func TestFleetMetricsCollector_TaskFinished(t *testing.T) {
	c := NewFleetMetricsCollector()

	c.TaskFinished("NAVIGATE", "COMPLETED", 31*time.Second)
	c.TaskFinished("NAVIGATE", "CANCELLED", 0)
	c.FleetSize(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksFinished.WithLabelValues("NAVIGATE", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksFinished.WithLabelValues("NAVIGATE", "CANCELLED")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.taskDuration), "cancelled task is not timed")
	assert.Equal(t, 3.0, testutil.ToFloat64(c.fleetSize))
}

func TestTradingMetricsCollector_NetProfitCanDecrease(t *testing.T) {
	c := NewTradingMetricsCollector()

	c.TradeCompleted("IRON_ORE", 240)
	c.TradeCompleted("FUEL", -40)
	c.TradeFailed("FUEL")
	c.MarketsScanned(5)

	assert.Equal(t, 200.0, testutil.ToFloat64(c.netProfit))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tradesTotal.WithLabelValues("FUEL", "failure")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.marketsScanned))
}

func TestCacheMetricsCollector(t *testing.T) {
	c := NewCacheMetricsCollector()

	c.Miss()
	c.Miss()
	c.Invalidated(3)
	c.Size(7)
	c.Set("market")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.misses))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.invalidations))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.size))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sets.WithLabelValues("market")))
}
