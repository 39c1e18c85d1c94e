package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. It satisfies
// listcache.Recorder.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheErrors        *prometheus.CounterVec
	Hydrations         *prometheus.CounterVec
	HydrationRows      *prometheus.GaugeVec
	HydrationDuration  *prometheus.HistogramVec
	ConsistencyRepairs *prometheus.CounterVec

	// Business metrics
	OrdersPlaced prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace.
// Each collector owns its registry, so tests can create as many as needed.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"list"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"list"},
		),
		CacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Cache operations that failed and were skipped or served from the store",
			},
			[]string{"list", "operation"},
		),
		Hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hydrations_total",
				Help:      "Number of full list hydrations from the primary store",
			},
			[]string{"list"},
		),
		HydrationRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_hydration_rows",
				Help:      "Rows loaded by the last hydration of a list",
			},
			[]string{"list"},
		),
		HydrationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_hydration_duration_seconds",
				Help:      "Hydration duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"list"},
		),
		ConsistencyRepairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_consistency_repairs_total",
				Help:      "Lists dropped after diverging from the primary store",
			},
			[]string{"list"},
		),
		OrdersPlaced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_placed_total",
				Help:      "Total number of orders placed",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheHits,
		c.CacheMisses,
		c.CacheErrors,
		c.Hydrations,
		c.HydrationRows,
		c.HydrationDuration,
		c.ConsistencyRepairs,
		c.OrdersPlaced,
	)

	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) CacheHit(list string)  { c.CacheHits.WithLabelValues(list).Inc() }
func (c *Collector) CacheMiss(list string) { c.CacheMisses.WithLabelValues(list).Inc() }

func (c *Collector) CacheError(list, operation string) {
	c.CacheErrors.WithLabelValues(list, operation).Inc()
}

func (c *Collector) Hydrated(list string, rows int, duration time.Duration) {
	c.Hydrations.WithLabelValues(list).Inc()
	c.HydrationRows.WithLabelValues(list).Set(float64(rows))
	c.HydrationDuration.WithLabelValues(list).Observe(duration.Seconds())
}

func (c *Collector) ConsistencyRepair(list string) {
	c.ConsistencyRepairs.WithLabelValues(list).Inc()
}

// OrderPlaced counts a placed order
func (c *Collector) OrderPlaced() { c.OrdersPlaced.Inc() }
