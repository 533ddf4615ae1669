// Package fatwa exposes the question-answering pipeline over HTTP.
package fatwa

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/xamsadine/backend/internal/model/fatwa"
	"github.com/xamsadine/backend/internal/service/pipeline"
)

// Handler serves the session and message endpoints.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	log          *zap.Logger
}

// New creates the fatwa HTTP handler.
func New(orchestrator *pipeline.Orchestrator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{orchestrator: orchestrator, log: log}
}

// RegisterRoutes mounts the fatwa endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/fatwa/session", h.handleCreateSession)
	r.Post("/fatwa/messages", h.handleSubmitMessage)
	r.Get("/fatwa/sessions/{sessionID}", h.handleGetSession)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	if r.Body != nil {
		// An empty body is allowed; the session falls back to the
		// deployment default language.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	session, err := h.orchestrator.CreateSession(r.Context(), payload.Language)
	if err != nil {
		h.log.Error("failed to create session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if payload.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := h.orchestrator.SubmitMessage(r.Context(), payload.SessionID, payload.Text)
	if err != nil {
		h.log.Error("turn aborted", zap.String("session", payload.SessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	status := http.StatusOK
	if reply.Code == pipeline.CodeSessionNotFound {
		status = http.StatusNotFound
	}
	respondJSON(w, status, reply)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.orchestrator.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.log.Error("failed to load session", zap.String("session", sessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
