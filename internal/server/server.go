// Package server exposes a read-only HTTP surface over a running search:
// job status (queue depth + result count), result listings, health, and
// Prometheus metrics.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motiq/motiq/internal/queue"
	"github.com/motiq/motiq/internal/results"
)

// Server serves the HTTP API. It holds shared read handles only; all
// mutation goes through the CLI and the worker loop.
type Server struct {
	queue   queue.Queue
	results *results.Store
}

// New creates a server over the shared queue and result store.
func New(q queue.Queue, rs *results.Store) *Server {
	return &Server{queue: q, results: rs}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/jobs/{job}", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/results", s.handleResults)
	})
	return r
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("http server listening", "addr", addr)
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse reports job progress. The search has no explicit end
// signal; depth draining to zero is how completion is observed.
type statusResponse struct {
	Job     string `json:"job"`
	Depth   int64  `json:"queue_depth"`
	Results int64  `json:"results"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")

	depth, err := s.queue.Depth(r.Context(), job)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	count, err := s.results.CountJob(r.Context(), job)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Job: job, Depth: depth, Results: count})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")

	records, err := s.results.ScanJob(r.Context(), job)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	mappings := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		mappings = append(mappings, rec.Candidate)
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job, "results": mappings})
}
