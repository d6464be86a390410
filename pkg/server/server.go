package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/gauge"
	"github.com/elonfeng/lens/pkg/present"
	"github.com/elonfeng/lens/pkg/render"
	"github.com/elonfeng/lens/pkg/score"
	"github.com/elonfeng/lens/pkg/service"
)

const maxBody = 4 << 20

// RequestIDHeader carries the per-request id, echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// Analyzer turns an article URL into an analysis result.
type Analyzer interface {
	Analyze(ctx context.Context, articleURL string) (*analysis.Result, error)
}

// Server provides the HTTP API.
type Server struct {
	router   *chi.Mux
	analyzer Analyzer
	opts     analysis.Options
	log      logrus.FieldLogger
	port     int
}

// New creates a new HTTP server. analyzer may be nil, in which case
// /api/v1/analyze answers 503.
func New(analyzer Analyzer, opts analysis.Options, port int, log logrus.FieldLogger) *Server {
	if port == 0 {
		port = 8080
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		router:   chi.NewRouter(),
		analyzer: analyzer,
		opts:     opts,
		log:      log,
		port:     port,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.requestID)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/tables", s.handleTables)
		r.Get("/tables/{name}", s.handleTable)
		r.Get("/gauges/{kind}", s.handleGauge)
		r.Post("/present", s.handlePresent)
		r.Post("/analyze", s.handleAnalyze)
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("lens server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	}
}

type ctxKey struct{}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		entry := s.log.WithField("request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, entry)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logFrom(r).WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start).Round(time.Microsecond),
		}).Info("request")
	})
}

func logFrom(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(ctxKey{}).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	names := bucket.Names()
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  names,
		"count": len(names),
	})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := bucket.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown table %q", name)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    t.Name(),
		"domain":  map[string]any{"name": t.Domain().Name, "min": t.Domain().Min, "max": t.Domain().Max},
		"buckets": t.Buckets(),
	})
}

func (s *Server) handleGauge(w http.ResponseWriter, r *http.Request) {
	kind := gauge.Kind(chi.URLParam(r, "kind"))
	v, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "score query parameter must be a number"})
		return
	}

	enc, err := gauge.Encode(kind, v)
	var oor *score.OutOfRangeError
	switch {
	case errors.As(err, &oor):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "kind": "out_of_range"})
	case err != nil:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, enc)
	}
}

func (s *Server) handlePresent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}

	res, err := analysis.Adapt(body, s.opts)
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}
	s.writeReport(w, r, present.Build(res))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "analysis service not configured"})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"url\": \"...\"}"})
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		writeAnalysisError(w, r, err)
		return
	}
	s.writeReport(w, r, present.Build(res))
}

// writeReport answers JSON, or a rendered page for ?format=html.
func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, rep *present.Report) {
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.HTML(w, rep); err != nil {
			logFrom(r).WithError(err).Error("render report")
		}
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		se   *analysis.SchemaError
		ve   *analysis.ValidationError
		stat *service.StatusError
	)
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "kind": "schema", "field": se.Field})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "kind": "validation", "field": ve.Field})
	case errors.Is(err, service.ErrInvalidURL):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "kind": "invalid_url"})
	case errors.As(err, &stat):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "kind": "upstream", "upstream_status": stat.Code})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing to answer.
	default:
		logFrom(r).WithError(err).Error("analyze")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "kind": "upstream"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
