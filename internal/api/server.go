// Package api exposes the render queue over HTTP: submit a compiled graph,
// poll job status, cancel. The service pairs with a worker draining the same
// job store, so a montage daemon can serve renders for remote editors.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"montage/internal/logging"
	"montage/internal/renderer"
	"montage/internal/renderjob"
	"montage/internal/services"
)

// Server hosts the render queue endpoints over an adapter.
type Server struct {
	adapter renderer.Adapter
	store   *renderjob.Store
	logger  *slog.Logger
}

// NewServer constructs the HTTP server.
func NewServer(adapter renderer.Adapter, store *renderjob.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		adapter: adapter,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "api"),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleSubmit)
			r.Get("/", s.handleList)
			r.Get("/{jobID}", s.handleStatus)
			r.Post("/{jobID}/cancel", s.handleCancel)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req renderer.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Graph == nil {
		writeError(w, http.StatusBadRequest, "graph is required")
		return
	}
	job, err := s.adapter.Submit(r.Context(), req.Graph, renderer.SubmitOptions{
		ProjectName:     req.ProjectName,
		SnapshotVersion: req.SnapshotVersion,
		OutputPath:      req.OutputPath,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, renderer.PayloadFromJob(job))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.adapter.Status(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderer.PayloadFromJob(job))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	job, err := s.adapter.Cancel(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderer.PayloadFromJob(job))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var filter []renderjob.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := renderjob.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status "+raw)
			return
		}
		filter = append(filter, status)
	}
	jobs, err := s.store.List(r.Context(), filter...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payloads := make([]renderer.JobPayload, 0, len(jobs))
	for _, job := range jobs {
		payloads = append(payloads, renderer.PayloadFromJob(job))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyTimeline),
		errors.Is(err, services.ErrIncompleteTimeline),
		errors.Is(err, services.ErrMissingSource),
		errors.Is(err, services.ErrConstraintViolation),
		errors.Is(err, services.ErrOutOfBounds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
