// Package metrics exposes Prometheus collectors for catalog activity and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onlyhate/internal/catalog"
)

const namespace = "onlyhate"

// Counter reports collection sizes.
type Counter interface {
	Counts() map[catalog.Kind]int
}

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	counts    Counter
	mutations *prometheus.CounterVec
	resynced  *prometheus.CounterVec
	entities  *prometheus.GaugeVec
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New registers the collectors. With a nil counts the entity gauges stay empty.
func New(counts Counter) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		counts:   counts,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_mutations_total",
			Help:      "Committed catalog writes by collection and operation.",
		}, []string{"kind", "op"}),
		resynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_resynced_rows_total",
			Help:      "Rows whose copied artist or release names were rewritten after a rename.",
		}, []string{"kind"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entities",
			Help:      "Current number of entities per collection.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.mutations, m.resynced, m.entities, m.requests, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.refreshEntities()
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CatalogChanged implements catalog.Observer.
func (m *Metrics) CatalogChanged(ev catalog.Event) {
	if ev.Op != catalog.OpRestore {
		m.mutations.WithLabelValues(string(ev.Kind), string(ev.Op)).Inc()
	}
	if ev.Resynced > 0 {
		m.resynced.WithLabelValues(string(ev.Kind)).Add(float64(ev.Resynced))
	}
	m.refreshEntities()
}

func (m *Metrics) refreshEntities() {
	if m.counts == nil {
		return
	}
	for kind, n := range m.counts.Counts() {
		m.entities.WithLabelValues(string(kind)).Set(float64(n))
	}
}

// Instrument records request counts and latency. Routes are labelled by the
// ServeMux pattern that matched, so ids do not blow up cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
