package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles prometheus collectors used by the edge server.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
	AssetCacheHits     prometheus.Counter
	AssetCacheMisses   prometheus.Counter
	AssetChanges       prometheus.Counter
	AssetsMissing      prometheus.Gauge

	registry *prometheus.Registry
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rcm_dashboard_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rcm_dashboard_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_dashboard_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
		AssetCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_dashboard_asset_cache_hits_total",
			Help: "Static asset reads answered from the cache.",
		}),
		AssetCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_dashboard_asset_cache_misses_total",
			Help: "Static asset reads that went to the asset source.",
		}),
		AssetChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rcm_dashboard_asset_changes_total",
			Help: "Changes observed under the asset root.",
		}),
		AssetsMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rcm_dashboard_required_assets_missing",
			Help: "Number of required assets currently missing.",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.RateLimitDropped,
		m.AssetCacheHits,
		m.AssetCacheMisses,
		m.AssetChanges,
		m.AssetsMissing,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded: every static path shares one label.
func normalizeRoute(path string) string {
	switch path {
	case "/api/health", "/api/kpi-data", "/api/people-data", "/healthz", "/readyz", "/metrics":
		return path
	default:
		return "static"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
