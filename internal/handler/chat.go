package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
)

// handleChat is the stateless proxy endpoint: the caller sends its own
// transcript and gets one assistant reply. Validation failures never reach
// the upstream model.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ValidationError(w, "request body must be a JSON object with a messages array")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		ValidationError(w, "messages must be a non-empty array of {role, content} entries")
		return
	}

	transcript := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		sender := domain.SenderUser
		if m.Role == "assistant" {
			sender = domain.SenderBot
		}
		transcript = append(transcript, domain.Message{Sender: sender, Body: m.Content})
	}

	language := req.Language
	if language == "" {
		language = domain.DefaultLanguage
	}

	start := time.Now()
	reply, err := h.assistant.Reply(r.Context(), transcript, language)
	if h.metrics != nil {
		code := "ok"
		if err != nil {
			code = string(apperrors.GetCode(err))
		}
		h.metrics.ObserveAssistantCall(code, time.Since(start))
	}
	if err != nil {
		APIError(w, h.logger.Zap(), err)
		return
	}

	JSON(w, http.StatusOK, ChatResponse{Message: reply})
}
