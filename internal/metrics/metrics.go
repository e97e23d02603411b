// Package metrics provides Prometheus instrumentation for the control plane.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route operations are single HTTP round trips to a local engine.
var routeBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0}

// Collector holds all Prometheus metrics for the control plane.
type Collector struct {
	// EngineUp is 1 while the supervisor owns a running engine process.
	EngineUp prometheus.Gauge

	EngineStartsTotal prometheus.Counter
	EngineStopsTotal  prometheus.Counter
	RouteOpsTotal     *prometheus.CounterVec

	RouteOpDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewCollector creates a metrics collector with all metrics registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		EngineUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snigate",
			Subsystem: "engine",
			Name:      "up",
			Help:      "Whether a routing engine process is currently running (1=yes, 0=no)",
		}),
		EngineStartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snigate",
			Subsystem: "engine",
			Name:      "starts_total",
			Help:      "Total number of engine process launches",
		}),
		EngineStopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snigate",
			Subsystem: "engine",
			Name:      "stops_total",
			Help:      "Total number of engine stop requests",
		}),
		RouteOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snigate",
			Name:      "route_operations_total",
			Help:      "Total number of route operations against the engine API",
		}, []string{"operation", "result"}),
		RouteOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snigate",
			Name:      "route_operation_duration_seconds",
			Help:      "Route operation latency in seconds",
			Buckets:   routeBuckets,
		}, []string{"operation"}),

		registry: reg,
	}

	reg.MustRegister(
		c.EngineUp,
		c.EngineStartsTotal,
		c.EngineStopsTotal,
		c.RouteOpsTotal,
		c.RouteOpDuration,
	)

	return c
}

// Handler returns an HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
