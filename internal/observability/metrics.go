package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results recorded on auth_logins_total
const (
	LoginSucceeded = "success"
	LoginRejected  = "rejected"
	LoginInvalid   = "invalid_identity"
	LoginError     = "error"
)

// Directory outcomes recorded on directory_resolutions_total
const (
	ResolutionCreated   = "created"
	ResolutionUpdated   = "updated"
	ResolutionUnchanged = "unchanged"
	ResolutionRaced     = "race_recovered"
	ResolutionFailed    = "failed"
)

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	logins       *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	sessions     prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Completed login callbacks by result",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "directory_resolutions_total",
			Help: "External identity resolutions by outcome",
		}, []string{"outcome"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessions_established_total",
			Help: "Sessions established since start",
		}),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.logins,
		m.resolutions,
		m.sessions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLogin counts a login callback outcome
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// RecordResolution counts a directory resolution outcome
func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// RecordSession counts an established session
func (m *Metrics) RecordSession() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// Middleware records request count and latency labelled by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
