package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildmart/buildmart-server/internal/session"
)

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ValidationError(w, "invalid JSON body")
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			ValidationError(w, "mode must be scripted or assistant; language must be en or hi")
			return
		}
	}

	mode := session.Mode(req.Mode)
	if req.Mode == "" {
		mode = session.ModeScripted
	}

	id, messages, err := h.sessions.Open(r.Context(), mode, req.Language)
	if err != nil {
		APIError(w, h.logger.Zap(), err)
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsOpened.Inc()
		h.metrics.SessionsActive.Set(float64(h.sessions.ActiveCount()))
	}

	JSON(w, http.StatusCreated, OpenSessionResponse{SessionID: id, Messages: messages})
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ValidationError(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		ValidationError(w, "body is required and limited to 2000 characters")
		return
	}

	messages, err := h.sessions.Submit(r.Context(), sessionID, req.Body, req.Voice)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ChatTurnsTotal.WithLabelValues("unknown", "error").Inc()
		}
		APIError(w, h.logger.Zap(), err)
		return
	}

	if h.metrics != nil {
		h.metrics.ChatTurnsTotal.WithLabelValues("session", "ok").Inc()
	}

	JSON(w, http.StatusOK, TranscriptResponse{SessionID: sessionID, Messages: messages})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.sessions.Transcript(r.Context(), sessionID)
	if err != nil {
		APIError(w, h.logger.Zap(), err)
		return
	}

	JSON(w, http.StatusOK, TranscriptResponse{SessionID: sessionID, Messages: messages})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.Close(r.Context(), sessionID); err != nil {
		APIError(w, h.logger.Zap(), err)
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsClosed.Inc()
		h.metrics.SessionsActive.Set(float64(h.sessions.ActiveCount()))
	}

	JSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) handleRFQLinks(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	profile, err := h.sessions.Profile(r.Context(), sessionID)
	if err != nil {
		APIError(w, h.logger.Zap(), err)
		return
	}

	JSON(w, http.StatusOK, h.rfq.Build(profile))
}
