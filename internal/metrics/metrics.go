// Package metrics exposes Prometheus collectors for the layout cache, the
// HTTP API and the event stream.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arbor"

// Metrics owns one registry and the collectors registered on it. It
// implements layoutcache.Recorder.
type Metrics struct {
	reg *prometheus.Registry

	cacheRequests  *prometheus.CounterVec
	rebuildSeconds *prometheus.HistogramVec
	graphNodes     *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpSeconds  *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout_cache",
			Name:      "requests_total",
			Help:      "Layout cache lookups by slot and result (hit, miss).",
		}, []string{"key", "result"}),
		rebuildSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout_cache",
			Name:      "rebuild_duration_seconds",
			Help:      "Time to build and lay out the graph on a cache miss.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"key"}),
		graphNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout_cache",
			Name:      "graph_nodes",
			Help:      "Node count of the most recent build per slot.",
		}, []string{"key"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func slot(key string) string {
	if key == "" {
		return "default"
	}
	return key
}

// CacheHit records a layout cache hit.
func (m *Metrics) CacheHit(key string) {
	m.cacheRequests.WithLabelValues(slot(key), "hit").Inc()
}

// CacheMiss records a layout cache miss.
func (m *Metrics) CacheMiss(key string) {
	m.cacheRequests.WithLabelValues(slot(key), "miss").Inc()
}

// Rebuilt records one graph build.
func (m *Metrics) Rebuilt(key string, nodes int, took time.Duration) {
	m.rebuildSeconds.WithLabelValues(slot(key)).Observe(took.Seconds())
	m.graphNodes.WithLabelValues(slot(key)).Set(float64(nodes))
}

// ObserveClients exports fn as the number of connected event-stream clients.
func (m *Metrics) ObserveClients(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "clients",
		Help:      "Connected Server-Sent Events clients.",
	}, func() float64 { return float64(fn()) }))
}

// Middleware records request counts and latency labelled by chi route
// pattern. Unmatched requests are labelled "unmatched".
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		m.httpSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
