package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/batchlens/batchlens/pkg/domain"
)

// Metrics bundles the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// CacheHits and CacheMisses count lookups in the per-filter query
	// result cache.
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	snapshotRevision prometheus.Gauge
	snapshotBatches  prometheus.Gauge
}

// New creates the collector set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchlens_http_requests_total",
				Help: "HTTP requests served, by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "batchlens_http_request_duration_seconds",
				Help:    "HTTP request latency, by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "batchlens_query_cache_hits_total",
				Help: "Statistics queries answered from the result cache.",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "batchlens_query_cache_misses_total",
				Help: "Statistics queries recomputed on a cache miss.",
			},
		),
		snapshotRevision: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchlens_snapshot_revision",
				Help: "Revision of the currently published dataset snapshot.",
			},
		),
		snapshotBatches: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchlens_snapshot_batches",
				Help: "Batches in the currently published dataset snapshot.",
			},
		),
	}

	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Handler returns the /metrics exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSnapshot records snapshot bookkeeping after a swap.
func (m *Metrics) ObserveSnapshot(rev uint64, counts domain.Counts) {
	m.snapshotRevision.Set(float64(rev))
	m.snapshotBatches.Set(float64(counts.Batches))
}

// RegisterClientCount exposes a live WebSocket client count backed by
// fn.
func (m *Metrics) RegisterClientCount(fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "batchlens_ws_clients",
			Help: "Currently connected WebSocket clients.",
		},
		fn,
	))
}

// Instrument wraps next, counting and timing its requests under route.
// Do not wrap endpoints that hijack the connection (WebSocket); the
// recorder hides the Hijacker interface.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code for labelling.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
