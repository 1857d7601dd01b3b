// Package middleware provides HTTP middleware and recorders for metalens.
//
// This package includes:
//   - Prometheus metrics for HTTP requests, analyses and live sessions
//   - OpenTelemetry tracing with one server span per request
//
// # Prometheus Metrics
//
// Metrics are registered once per registry and shared by the router and
// the live sessions:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("metalens"))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.Handler())
//
// Collected series (namespace "metalens"):
//   - metalens_http_requests_total{route,method,status}
//   - metalens_http_request_duration_seconds{route,method}
//   - metalens_analyses_total{outcome}
//   - metalens_analysis_duration_seconds
//   - metalens_active_sessions
//   - metalens_session_events_total{type,status}
//   - metalens_patches_sent_total
//   - metalens_toasts_shown_total{severity}
//   - metalens_busy_auto_releases_total
//   - metalens_websocket_errors_total{type}
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
//
// # OpenTelemetry
//
//	r.Use(middleware.Tracing(
//	    middleware.WithTracerName("metalens"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The tracer comes from the global provider; configure it with
// otel.SetTracerProvider before building the router.
package middleware
