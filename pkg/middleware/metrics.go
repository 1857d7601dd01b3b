package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/metalens/internal/errors"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "metalens").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request and analysis duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "metalens",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	activeSessions   prometheus.Gauge
	sessionEvents    *prometheus.CounterVec
	patchesSent      prometheus.Counter
	toastsShown      *prometheus.CounterVec
	autoReleases     prometheus.Counter
	wsErrors         *prometheus.CounterVec
}

// NewMetrics registers the metalens collectors. Registering twice on the
// same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			counterOpts("http_requests_total", "Total HTTP requests by route, method and status"),
			[]string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),

		analysesTotal: factory.NewCounterVec(
			counterOpts("analyses_total", "Total page analyses by outcome"),
			[]string{"outcome"}),

		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "analysis_duration_seconds",
			Help:        "Page fetch and analysis duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active live sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionEvents: factory.NewCounterVec(
			counterOpts("session_events_total", "Live session events by type and status"),
			[]string{"type", "status"}),

		patchesSent: factory.NewCounter(
			counterOpts("patches_sent_total", "Total number of patches sent to clients")),

		toastsShown: factory.NewCounterVec(
			counterOpts("toasts_shown_total", "Notifications shown by severity"),
			[]string{"severity"}),

		autoReleases: factory.NewCounter(
			counterOpts("busy_auto_releases_total", "Busy states cleared by the safety ceiling")),

		wsErrors: factory.NewCounterVec(
			counterOpts("websocket_errors_total", "Total WebSocket errors by type"),
			[]string{"type"}),
	}
}

// Handler records request count and duration labelled by chi route
// pattern, so path parameters do not explode cardinality.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, statusClass(status)).Inc()
	})
}

// routePattern returns the matched chi pattern, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordAnalysis records one finished analysis. err decides the outcome
// label: "success" or the error category.
func (m *Metrics) RecordAnalysis(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.analysisDuration.Observe(d.Seconds())
	m.analysesTotal.WithLabelValues(categorizeError(err)).Inc()
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	if err == nil {
		return "success"
	}
	switch errors.CodeOf(err) {
	case errors.CodeInvalidURL, errors.CodeEmptyURL:
		return "invalid_url"
	case errors.CodeTimeout:
		return "timeout"
	case errors.CodeConnect:
		return "connect"
	case errors.CodeHTTPStatus:
		return "http_status"
	default:
		return "internal"
	}
}

// RecordSessionEvent records one handled live-session event.
func (m *Metrics) RecordSessionEvent(eventType string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sessionEvents.WithLabelValues(eventType, status).Inc()
}

// RecordPatches records the number of patches sent.
func (m *Metrics) RecordPatches(count int) {
	if m == nil {
		return
	}
	m.patchesSent.Add(float64(count))
}

// RecordSessionOpen records a new live session.
func (m *Metrics) RecordSessionOpen() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// RecordSessionClose records a live session ending.
func (m *Metrics) RecordSessionClose() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RecordToast records a shown notification.
func (m *Metrics) RecordToast(severity string) {
	if m == nil {
		return
	}
	m.toastsShown.WithLabelValues(severity).Inc()
}

// RecordAutoRelease records a busy state cleared by its ceiling.
func (m *Metrics) RecordAutoRelease() {
	if m == nil {
		return
	}
	m.autoReleases.Inc()
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(errorType).Inc()
}
