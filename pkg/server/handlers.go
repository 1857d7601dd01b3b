package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/internal/report"
	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/pref"
	"github.com/vango-dev/metalens/pkg/sched"
	"github.com/vango-dev/metalens/pkg/toast"
)

// clientCookie identifies a browser across sessions, so its theme
// preference survives reloads.
const clientCookie = "metalens_client"

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 64 << 10

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	owner := ensureClientID(w, r)
	doc := newPage(s.loadTheme(r.Context(), owner))
	s.writeHTML(w, http.StatusOK, doc)
}

// handleAnalyzeForm is the no-JavaScript fallback of the live submit.
// The page is rendered once, so notification timers never fire.
func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	owner := ensureClientID(w, r)
	doc := newPage(s.loadTheme(r.Context(), owner))
	notes := toast.New(doc, sched.NewManual(time.Now()),
		toast.WithPolicy(s.feedbackPolicy()),
		toast.WithLogger(s.logger))

	target := strings.TrimSpace(r.FormValue("url"))
	_ = doc.SetAttr(inputID, "value", target)

	if target == "" {
		markInvalid(doc)
		notes.Error(errors.UserMessage(errors.New(errors.CodeEmptyURL)))
		doc.Flush()
		s.writeHTML(w, http.StatusBadRequest, doc)
		return
	}

	res, err := s.analyze(r.Context(), target)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeInvalidURL, errors.CodeEmptyURL:
			markInvalid(doc)
		}
		notes.Error(errors.UserMessage(err))
		doc.Flush()
		s.writeHTML(w, statusFor(err), doc)
		return
	}

	if err := renderResult(doc, res); err != nil {
		s.logger.Error("render result failed", "id", res.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	_ = doc.AddClass(inputID, validClass)
	notes.Success("Analysis complete!")
	doc.Flush()
	s.writeHTML(w, http.StatusOK, doc)
}

// handleNotFound renders the index page with a 404 status. Unknown API
// paths get a JSON error instead.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusNotFound, errorBody(
			errors.Newf(errors.CategoryValidation, "no route for %s %s", r.Method, r.URL.Path)))
		return
	}
	owner := ensureClientID(w, r)
	s.writeHTML(w, http.StatusNotFound, newPage(s.loadTheme(r.Context(), owner)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	}
	status := http.StatusOK
	if p, ok := s.store.(interface{ PingContext(context.Context) error }); ok {
		if err := p.PingContext(r.Context()); err != nil {
			s.logger.Warn("health check: store unavailable", "error", err)
			body["status"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidURL).WithDetail("request body must be JSON: {\"url\": \"...\"}"))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, errors.New(errors.CodeEmptyURL))
		return
	}
	res, err := s.analyze(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiRecent(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody(
				errors.Newf(errors.CategoryValidation, "invalid limit %q", v)))
			return
		}
		limit = n
	}
	list, err := s.store.RecentAnalyses(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	res, err := s.store.Analysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiReport(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(report.FormatMarkdown)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(
			errors.Newf(errors.CategoryValidation, "%v", err)))
		return
	}

	res, err := s.store.Analysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := report.Render(format, res)
	if err != nil {
		writeError(w, errors.New(errors.CodeExport).Wrap(err))
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(
			errors.New(errors.CodeExport).WithDetail("No export bucket is configured.")))
		return
	}
	res, err := s.store.Analysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	keys, err := s.exporter.Export(r.Context(), res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": res.ID, "keys": keys})
}

func (s *Server) apiDomain(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	stats, err := s.store.DomainStats(r.Context(), strings.ToLower(chi.URLParam(r, "domain")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store != nil {
		return true
	}
	writeJSON(w, http.StatusServiceUnavailable, errorBody(
		errors.New(errors.CodeStoreOpen).WithDetail("History is disabled.")))
	return false
}

// loadTheme returns owner's stored theme, or light.
func (s *Server) loadTheme(ctx context.Context, owner string) pref.Theme {
	theme := pref.NewTheme(pref.WithLogger(s.logger))
	if s.store == nil || owner == "" {
		return theme.Get()
	}
	if err := theme.Bind(ctx, s.store, owner); err != nil {
		s.logger.Warn("load theme failed", "owner", owner, "error", err)
	}
	return theme.Get()
}

func (s *Server) writeHTML(w http.ResponseWriter, status int, doc *dom.Document) {
	var buf bytes.Buffer
	if err := writePage(&buf, doc); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// clientID returns the client cookie value, or "" when absent or
// malformed.
func clientID(r *http.Request) string {
	c, err := r.Cookie(clientCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func ensureClientID(w http.ResponseWriter, r *http.Request) string {
	if id := clientID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(e *errors.Error) map[string]any {
	return map[string]any{"error": e}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(errors.FromError(err, errors.CodeInternal)))
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeInvalidURL, errors.CodeEmptyURL:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeTimeout:
		return http.StatusGatewayTimeout
	case errors.CodeConnect, errors.CodeHTTPStatus, errors.CodeExport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func contentType(f report.Format) string {
	switch f {
	case report.FormatJSON:
		return "application/json"
	case report.FormatYAML:
		return "application/yaml; charset=utf-8"
	case report.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case report.FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
