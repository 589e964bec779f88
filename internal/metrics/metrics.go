// Package metrics provides Prometheus metrics for a cluster node.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a node.
type Metrics struct {
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	CacheEvictedTotal  prometheus.Counter
	CacheSize          prometheus.Gauge
	RingNodesActive    prometheus.Gauge
	ForwardsTotal      *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandapouch_rpc_requests_total",
				Help: "Total number of RPC requests by operation and status.",
			},
			[]string{"op", "status"},
		),
		RPCRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pandapouch_rpc_request_duration_seconds",
				Help:    "RPC request processing duration by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pandapouch_cache_hits_total",
				Help: "Total number of in-memory cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pandapouch_cache_misses_total",
				Help: "Total number of in-memory cache misses that fell through to the durable store.",
			},
		),
		CacheEvictedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pandapouch_cache_evicted_total",
				Help: "Total number of entries evicted from the in-memory cache.",
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pandapouch_cache_size",
				Help: "Current number of entries held in the in-memory cache.",
			},
		),
		RingNodesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pandapouch_ring_nodes_active",
				Help: "Current number of member nodes in the hash ring.",
			},
		),
		ForwardsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandapouch_forwards_total",
				Help: "Total number of requests forwarded to a peer owner, by operation and status.",
			},
			[]string{"op", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pandapouch_errors_total",
				Help: "Total errors by module and kind.",
			},
			[]string{"module", "kind"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RPCRequestsTotal)
	reg.MustRegister(m.RPCRequestDuration)
	reg.MustRegister(m.CacheHitsTotal)
	reg.MustRegister(m.CacheMissesTotal)
	reg.MustRegister(m.CacheEvictedTotal)
	reg.MustRegister(m.CacheSize)
	reg.MustRegister(m.RingNodesActive)
	reg.MustRegister(m.ForwardsTotal)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRPC increments the RPC request counter for op/status.
func (m *Metrics) RecordRPC(op, status string) {
	m.RPCRequestsTotal.WithLabelValues(op, status).Inc()
}

// ObserveRPCDuration records RPC processing duration for op.
func (m *Metrics) ObserveRPCDuration(op string, seconds float64) {
	m.RPCRequestDuration.WithLabelValues(op).Observe(seconds)
}

// RecordForward increments the forward counter for op/status.
func (m *Metrics) RecordForward(op, status string) {
	m.ForwardsTotal.WithLabelValues(op, status).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, kind string) {
	m.ErrorsTotal.WithLabelValues(module, kind).Inc()
}

// SetCacheSize sets the current cache entry count gauge.
func (m *Metrics) SetCacheSize(n float64) {
	m.CacheSize.Set(n)
}

// SetRingNodesActive sets the current ring membership gauge.
func (m *Metrics) SetRingNodesActive(n float64) {
	m.RingNodesActive.Set(n)
}
