package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/metalens/internal/config"
	"github.com/vango-dev/metalens/internal/store"
	"github.com/vango-dev/metalens/pkg/middleware"
	"github.com/vango-dev/metalens/pkg/pref"
	"github.com/vango-dev/metalens/pkg/seo"
	"github.com/vango-dev/metalens/pkg/toast"
)

// Analyzer fetches and scores a page.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*seo.Result, error)
}

// Store persists analyses and preferences.
type Store interface {
	pref.Store
	SaveAnalysis(ctx context.Context, res *seo.Result) error
	RecentAnalyses(ctx context.Context, limit int) ([]store.Summary, error)
	Analysis(ctx context.Context, id string) (*seo.Result, error)
	DomainStats(ctx context.Context, domain string) (*store.DomainStats, error)
}

// Exporter archives a rendered analysis.
type Exporter interface {
	Export(ctx context.Context, res *seo.Result) ([]string, error)
}

// Server is the metalens HTTP server.
type Server struct {
	config   *config.Config
	analyzer Analyzer
	store    Store
	exporter Exporter
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	upgrader   websocket.Upgrader
	sessions   *Manager
	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables history, the stats API and persisted preferences.
func WithStore(st Store) Option {
	return func(s *Server) { s.store = st }
}

// WithExporter enables report export.
func WithExporter(e Exporter) Option {
	return func(s *Server) { s.exporter = e }
}

// WithMetrics enables Prometheus instrumentation. g serves /metrics;
// nil means prometheus.DefaultGatherer.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server. A nil config uses defaults.
func New(cfg *config.Config, analyzer Analyzer, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Server{
		config:   cfg,
		analyzer: analyzer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil && s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.logger = s.logger.With("component", "server")
	s.sessions = NewManager(cfg.Server.MaxSessions)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Sessions returns the live session registry.
func (s *Server) Sessions() *Manager { return s.sessions }

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", "address", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every live session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down", "sessions", s.sessions.Count())
	s.sessions.CloseAll()
	return s.httpServer.Shutdown(ctx)
}

// analyze runs one analysis, records it and saves it when a store is
// configured. A failed save is logged; the result is still returned.
func (s *Server) analyze(ctx context.Context, rawURL string) (*seo.Result, error) {
	start := time.Now()
	res, err := s.analyzer.Analyze(ctx, rawURL)
	s.metrics.RecordAnalysis(time.Since(start), err)
	if err != nil {
		s.logger.Info("analysis failed", "url", rawURL, "error", err)
		return nil, err
	}
	s.logger.Info("analysis complete",
		"url", res.URL,
		"score", res.Score(),
		"elapsed", res.Elapsed)

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, res); err != nil {
			s.logger.Warn("save analysis failed", "id", res.ID, "error", err)
		}
	}
	return res, nil
}

func (s *Server) feedbackPolicy() toast.Policy {
	fb := s.config.Feedback
	return toast.Policy{
		Info:    fb.InfoDelay,
		Success: fb.SuccessDelay,
		Warning: fb.WarningDelay,
		Error:   fb.ErrorDelay,
	}
}

// checkOrigin accepts same-origin upgrades, or any origin when
// AllowAllOrigins is set.
func (s *Server) checkOrigin(r *http.Request) bool {
	if s.config.Server.AllowAllOrigins {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || sameHost(origin, r.Host)
}

// sameHost reports whether origin names host.
func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
