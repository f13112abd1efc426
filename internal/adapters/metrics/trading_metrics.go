package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TradingMetricsCollector records trade outcomes and profitability
type TradingMetricsCollector struct {
	marketsScanned prometheus.Gauge
	tradesTotal    *prometheus.CounterVec
	tradeProfit    *prometheus.HistogramVec
	netProfit      prometheus.Gauge
}

// NewTradingMetricsCollector creates a new trading metrics collector
func NewTradingMetricsCollector() *TradingMetricsCollector {
	return &TradingMetricsCollector{
		marketsScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "trading",
				Name:      "markets_scanned",
				Help:      "Markets read during the last scan",
			},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "trading",
				Name:      "trades_total",
				Help:      "Trade attempts by good and result",
			},
			[]string{"good", "result"},
		),
		tradeProfit: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "trading",
				Name:      "trade_profit_credits",
				Help:      "Profit per completed trade",
				Buckets:   []float64{-1000, 0, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"good"},
		),
		// Gauge rather than counter: losing trades decrease it
		netProfit: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "trading",
				Name:      "net_profit_credits",
				Help:      "Cumulative profit of completed trades",
			},
		),
	}
}

// Register registers all trading metrics with the Prometheus registry
func (c *TradingMetricsCollector) Register() error {
	return register(c.marketsScanned, c.tradesTotal, c.tradeProfit, c.netProfit)
}

func (c *TradingMetricsCollector) MarketsScanned(count int) {
	c.marketsScanned.Set(float64(count))
}

func (c *TradingMetricsCollector) TradeCompleted(good string, profit int64) {
	c.tradesTotal.WithLabelValues(good, "success").Inc()
	c.tradeProfit.WithLabelValues(good).Observe(float64(profit))
	c.netProfit.Add(float64(profit))
}

func (c *TradingMetricsCollector) TradeFailed(good string) {
	c.tradesTotal.WithLabelValues(good, "failure").Inc()
}
