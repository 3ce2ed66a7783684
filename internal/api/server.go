// Package api exposes the session boundary over HTTP: one endpoint to
// submit a dialogue turn, one to reset a session, one health probe.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/plarroque/cephalo/internal/pipeline"
)

type Server struct {
	router *chi.Mux
	engine *pipeline.Engine
	port   int
}

type turnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func NewServer(engine *pipeline.Engine, port int) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		engine: engine,
		port:   port,
	}

	router.Get("/health", s.health)
	router.Post("/api/v1/turn", s.turn)
	router.Post("/api/v1/sessions/{id}/reset", s.reset)
	router.Get("/api/v1/sessions/{id}", s.session)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.engine.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		slog.Error("turn failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "turn processing failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.engine.Reset(id)
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "reset"})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.engine.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
