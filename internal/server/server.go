// Package server exposes the capture pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"focusflow/internal/config"
	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// CaptureService is the pipeline surface the server forwards to.
type CaptureService interface {
	Capture(ctx context.Context, req types.CaptureRequest) (*types.CaptureResponse, error)
	Clarify(ctx context.Context, req types.ClarifyRequest) (*types.CaptureResponse, error)
}

// Server wraps the HTTP listener and routes.
type Server struct {
	svc        CaptureService
	httpServer *http.Server
}

// New builds the server with its routes bound.
func New(cfg config.ServerConfig, svc CaptureService) *Server {
	s := &Server{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/capture", s.handleCapture)
	mux.HandleFunc("POST /v1/clarify", s.handleClarify)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Server("listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Server("shutting down")
	return s.httpServer.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req types.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	resp, err := s.svc.Capture(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	logging.API("capture ok: task=%s steps=%d needs_clarification=%v",
		resp.TaskID, resp.Breakdown.TotalSteps, resp.NeedsClarification)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	var req types.ClarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	resp, err := s.svc.Clarify(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	logging.API("clarify ok: task=%s unknown=%d", resp.TaskID, resp.Breakdown.UnknownCount)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps pipeline errors onto HTTP status codes. Unrecognized errors
// become opaque 500s; internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, types.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "task not found"})
	case errors.Is(err, types.ErrServiceBusy):
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service busy, retry shortly"})
	default:
		logging.Get(logging.CategoryServer).Error("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Error("failed to encode response: %v", err)
	}
}
