package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/metalens/internal/errors"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsConfig(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "metalens" {
		t.Errorf("default Namespace: got %q", config.Namespace)
	}

	labels := prometheus.Labels{"env": "test"}
	for _, opt := range []MetricsOption{
		WithNamespace("custom"),
		WithSubsystem("web"),
		WithConstLabels(labels),
		WithBuckets([]float64{0.1, 1}),
	} {
		opt(&config)
	}
	if config.Namespace != "custom" || config.Subsystem != "web" || config.ConstLabels["env"] != "test" || len(config.Buckets) != 2 {
		t.Errorf("options not applied: %+v", config)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Get("/empty", func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/api/analyses/a", "/api/analyses/b", "/api/analyses/missing", "/empty"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	route := "/api/analyses/{id}"
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues(route, "GET", "2xx")); got != 2 {
		t.Errorf("2xx count: got %v, want 2", got)
	}
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues(route, "GET", "4xx")); got != 1 {
		t.Errorf("4xx count: got %v, want 1", got)
	}
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("/empty", "GET", "2xx")); got != 1 {
		t.Errorf("handler without a write should count as 2xx: got %v", got)
	}
	if got := metricHistogramCount(t, m.requestDuration.WithLabelValues(route, "GET")); got != 3 {
		t.Errorf("duration samples: got %d, want 3", got)
	}
}

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.RecordAnalysis(200*time.Millisecond, nil)
	m.RecordAnalysis(time.Second, errors.New(errors.CodeTimeout))
	m.RecordAnalysis(time.Second, fmt.Errorf("wrapped: %w", errors.New(errors.CodeConnect)))
	m.RecordSessionOpen()
	m.RecordSessionOpen()
	m.RecordSessionClose()
	m.RecordSessionEvent("submit", nil)
	m.RecordSessionEvent("submit", fmt.Errorf("boom"))
	m.RecordPatches(7)
	m.RecordToast("error")
	m.RecordAutoRelease()
	m.RecordWebSocketError("read")

	checks := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"analyses success", m.analysesTotal.WithLabelValues("success"), 1},
		{"analyses timeout", m.analysesTotal.WithLabelValues("timeout"), 1},
		{"analyses connect", m.analysesTotal.WithLabelValues("connect"), 1},
		{"events ok", m.sessionEvents.WithLabelValues("submit", "success"), 1},
		{"events error", m.sessionEvents.WithLabelValues("submit", "error"), 1},
		{"patches", m.patchesSent, 7},
		{"toasts", m.toastsShown.WithLabelValues("error"), 1},
		{"auto releases", m.autoReleases, 1},
		{"ws errors", m.wsErrors.WithLabelValues("read"), 1},
	}
	for _, c := range checks {
		if got := metricCounterValue(t, c.c); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
	if got := metricGaugeValue(t, m.activeSessions); got != 1 {
		t.Errorf("active sessions: got %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.analysisDuration); got != 3 {
		t.Errorf("analysis samples: got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordAnalysis(time.Second, nil)
	m.RecordSessionOpen()
	m.RecordSessionClose()
	m.RecordSessionEvent("x", nil)
	m.RecordPatches(1)
	m.RecordToast("info")
	m.RecordAutoRelease()
	m.RecordWebSocketError("x")

	called := false
	h := m.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil metrics handler should pass through")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{errors.New(errors.CodeEmptyURL), "invalid_url"},
		{errors.New(errors.CodeInvalidURL), "invalid_url"},
		{errors.New(errors.CodeHTTPStatus).Args(500, "Internal Server Error"), "http_status"},
		{fmt.Errorf("plain"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
