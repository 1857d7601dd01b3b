package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/metalens/pkg/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Handler)
	r.Use(middleware.Tracing(
		middleware.WithTracerName("metalens/server"),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	))

	r.NotFound(s.handleNotFound)

	r.Get("/", s.handlePage)
	r.Post("/analyze", s.handleAnalyzeForm)
	r.Get("/ws", s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Get(ClientPath, s.serveClient)
	r.Head(ClientPath, s.serveClient)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(s.corsOptions()))
		r.Post("/analyze", s.apiAnalyze)
		r.Get("/analyses", s.apiRecent)
		r.Get("/analyses/{id}", s.apiAnalysis)
		r.Get("/analyses/{id}/report", s.apiReport)
		r.Post("/analyses/{id}/export", s.apiExport)
		r.Get("/domains/{domain}", s.apiDomain)
	})

	return r
}

func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.config.Server.AllowAllOrigins {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return sameHost(origin, r.Host)
		}
	}
	return opts
}
