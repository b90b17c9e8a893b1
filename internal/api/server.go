// Package api exposes a small read-only status surface over HTTP:
// liveness plus the recent job history.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/store"
)

// Server serves the status API.
type Server struct {
	logger    zerolog.Logger
	store     *store.Store
	startTime time.Time
	http      *http.Server
}

// NewServer creates the status server.
func NewServer(logger zerolog.Logger, st *store.Store, port int) *Server {
	s := &Server{
		logger:    logger.With().Str("component", "api").Logger(),
		store:     st,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/jobs", s.handleJobs)

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	return s
}

// Start serves until the listener closes. Blocking; run in a goroutine.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("status api listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		UptimeS: int64(time.Since(s.startTime).Seconds()),
	})
}

type jobResponse struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Output     string `json:"output,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.store.List(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list jobs")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list jobs"})
		return
	}

	resp := make([]jobResponse, len(recs))
	for i, rec := range recs {
		resp[i] = jobResponse{
			ID:         rec.ID,
			Source:     rec.Source,
			Output:     rec.Output,
			Status:     rec.Status,
			Error:      rec.Error,
			StartedAt:  rec.StartedAt.Format(time.RFC3339),
			FinishedAt: rec.FinishedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": resp})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
