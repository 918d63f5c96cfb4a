// Package metrics exposes the town's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/town-engine/internal/sim"
)

// Collector holds the metrics for one process. Each collector has its own
// registry so tests can build as many as they like.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	// Simulation
	Events *prometheus.CounterVec

	// Cognition
	CognitionCalls    *prometheus.CounterVec
	CognitionDuration *prometheus.HistogramVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Simulation events by type",
			},
			[]string{"type"},
		),
		CognitionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cognition_calls_total",
				Help:      "Cognition calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CognitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cognition_duration_seconds",
				Help:      "Cognition call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"kind"},
		),
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
	}

	c.registry.MustRegister(
		c.Events,
		c.CognitionCalls,
		c.CognitionDuration,
		c.HTTPRequests,
		c.HTTPDuration,
		prometheus.NewGoCollector(),
	)
	return c
}

// Publish counts ev. It makes Collector a sim.Sink.
func (c *Collector) Publish(ev sim.Event) {
	c.Events.WithLabelValues(string(ev.Type)).Inc()
}

// ObserveCognition records one guarded cognition call. Calls refused without
// reaching the model are counted but not timed.
func (c *Collector) ObserveCognition(kind, outcome string, d time.Duration) {
	c.CognitionCalls.WithLabelValues(kind, outcome).Inc()
	if d > 0 {
		c.CognitionDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// ObserveHTTP records one served request. route should be a pattern, not a raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Gauge registers a gauge read from fn at scrape time.
func (c *Collector) Gauge(name, help string, fn func() float64) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
