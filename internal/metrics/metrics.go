package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gungnir"

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds the engine's process metrics.
type Collector struct {
	// Order flow
	OrdersTotal  *prometheus.CounterVec
	TradesTotal  prometheus.Counter
	TradedVolume prometheus.Counter
	RejectsTotal prometheus.Counter
	ParseErrors  prometheus.Counter

	// Book state
	RestingOrders prometheus.Gauge
	PriceLevels   prometheus.Gauge

	// Transport
	SessionsActive prometheus.Gauge
}

// Get returns the singleton collector, registering it on first use.
func Get() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
		collector.register()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{}

	c.OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "total",
			Help:      "Orders accepted by the gateway",
		},
		[]string{"side", "type"},
	)
	c.TradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "total",
			Help:      "Executions emitted by the engine",
		},
	)
	c.TradedVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "volume",
			Help:      "Total traded quantity",
		},
	)
	c.RejectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "rejects",
			Help:      "Rejects emitted by the gateway or engine",
		},
	)
	c.ParseErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "parse_errors",
			Help:      "Input lines that failed to parse",
		},
	)
	c.RestingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "book",
			Name:      "resting_orders",
			Help:      "Orders currently resting in the book",
		},
	)
	c.PriceLevels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "book",
			Name:      "price_levels",
			Help:      "Non-empty price levels across both sides",
		},
	)
	c.SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "net",
			Name:      "sessions_active",
			Help:      "Connected client sessions",
		},
	)

	return c
}

func (c *Collector) register() {
	prometheus.MustRegister(
		c.OrdersTotal,
		c.TradesTotal,
		c.TradedVolume,
		c.RejectsTotal,
		c.ParseErrors,
		c.RestingOrders,
		c.PriceLevels,
		c.SessionsActive,
	)
}

// Handler serves the registered metrics over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
