// Package api exposes the HTTP control surface for submitting, inspecting
// and cancelling jobs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"mediagrab/internal/job"
	"mediagrab/internal/monitoring"
	"mediagrab/pkg/types"
)

// JobService is the part of the job manager the API needs.
type JobService interface {
	Submit(chatID int64, mode types.Mode, seeds []string) (string, error)
	Cancel(chatID int64) error
	Status(chatID int64) (job.Status, error)
}

// Server is the control HTTP server.
type Server struct {
	jobs   JobService
	logger zerolog.Logger
	http   *http.Server
}

// New creates a server listening on addr.
func New(addr string, jobs JobService, logger zerolog.Logger) *Server {
	s := &Server{
		jobs:   jobs,
		logger: logger.With().Str("component", "api").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/jobs", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/jobs/{chatID}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/jobs/{chatID}", s.handleCancel).Methods(http.MethodDelete)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Handler returns the configured router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("control api listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type submitRequest struct {
	ChatID int64    `json:"chat_id"`
	Mode   string   `json:"mode"`
	URLs   []string `json:"urls"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.ChatID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "chat_id is required"})
		return
	}
	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "urls is required"})
		return
	}
	mode, err := types.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.jobs.Submit(req.ChatID, mode, req.URLs)
	if err != nil {
		if errors.Is(err, job.ErrBusy) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info().
		Int64("chat_id", req.ChatID).
		Str("mode", req.Mode).
		Str("job_id", id).
		Msg("job accepted")
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: id})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDVar(w, r)
	if !ok {
		return
	}

	status, err := s.jobs.Status(chatID)
	if err != nil {
		if errors.Is(err, job.ErrNoActiveJob) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDVar(w, r)
	if !ok {
		return
	}

	if err := s.jobs.Cancel(chatID); err != nil {
		if errors.Is(err, job.ErrNoActiveJob) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info().Int64("chat_id", chatID).Msg("cancellation requested")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func chatIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["chatID"]
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
