// Package api exposes the router, repository scoring and the task table over
// HTTP using chi.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/pathway/agent/scout"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/store"
)

const maxBodyBytes = 1 << 20

// Asker routes queries. *router.Router satisfies it.
type Asker interface {
	Route(ctx context.Context, req router.Request) (*core.State, error)
}

// RepoScorer fetches and scores repositories. *scout.Scout satisfies it.
type RepoScorer interface {
	Score(ctx context.Context, repo string) (scout.RepoScore, error)
}

// Options configures a Server.
type Options struct {
	Scorer RepoScorer
	// Sink backs the task endpoints. Wrap it in store.Validating so bad
	// records are rejected with 400.
	Sink           store.Sink
	Logger         logging.Logger
	DefaultAthlete string
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	asker   Asker
	scorer  RepoScorer
	sink    store.Sink
	athlete string
	timeout time.Duration
	logger  *logging.StructuredLogger
}

// NewServer builds a Server around asker.
func NewServer(asker Asker, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}, RequestTimeout: 2 * time.Minute}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		asker:   asker,
		scorer:  opts.Scorer,
		sink:    opts.Sink,
		athlete: opts.DefaultAthlete,
		timeout: opts.RequestTimeout,
		logger:  logging.NewStructured(opts.Logger).WithComponent("api"),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.ask)
		r.Post("/score", s.score)
		r.Post("/tasks", s.createTask)
		r.Get("/tasks", s.listTasks)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/health" {
			return
		}
		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type errorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		resp.Field = ve.Field
		resp.Constraint = ve.Constraint
	case errors.Is(err, store.ErrUnknownTable):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrCollaboratorUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "status", status, "error", err.Error())
	}
	writeJSON(w, resp, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Field: "body", Constraint: "required"}
		}
		return &core.ValidationError{Field: "body", Constraint: fmt.Sprintf("valid JSON: %v", err)}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
