package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec
	AuthzDenialsTotal   *prometheus.CounterVec
	ConfigFaultsTotal   prometheus.Counter

	// Role mutation metrics
	RoleChangesTotal *prometheus.CounterVec

	// Audit metrics
	AuditEventsTotal *prometheus.CounterVec

	// Rate limit metrics
	RateLimitRejectionsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulletin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_authz_decisions_total",
				Help: "Authorization gate decisions by permission and outcome",
			},
			[]string{"resource", "action", "outcome"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_authz_denials_total",
				Help: "Authorization denials by missing permission",
			},
			[]string{"permission"},
		),
		ConfigFaultsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bulletin_authz_configuration_faults_total",
				Help: "Requests denied because the identity carried an unrecognized role",
			},
		),
		RoleChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_role_changes_total",
				Help: "Successful role mutations by new role",
			},
			[]string{"new_role"},
		),
		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_audit_events_total",
				Help: "Audit events recorded by outcome",
			},
			[]string{"outcome"},
		),
		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulletin_ratelimit_rejections_total",
				Help: "Requests rejected by rate limiting",
			},
			[]string{"limiter"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.AuthzDenialsTotal,
		m.ConfigFaultsTotal,
		m.RoleChangesTotal,
		m.AuditEventsTotal,
		m.RateLimitRejectionsTotal,
	)

	return m
}

// Handler returns the prometheus scrape handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records a gate decision outcome. The outcome is one
// of "allowed", "denied", or "configuration_fault".
func (m *Metrics) ObserveDecision(resource, action, outcome string) {
	m.AuthzDecisionsTotal.WithLabelValues(resource, action, outcome).Inc()
}

// HTTPMiddleware instruments HTTP handlers with request count and duration
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
