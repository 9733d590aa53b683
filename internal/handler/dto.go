package handler

import "github.com/buildmart/buildmart-server/internal/domain"

// ChatMessage is one transcript entry in a proxy chat request.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatRequest is the body of the stateless proxy endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
	Language string        `json:"language" validate:"omitempty,bcp47_language_tag"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Message string `json:"message"`
}

// OpenSessionRequest starts a chat session.
type OpenSessionRequest struct {
	Mode     string `json:"mode" validate:"omitempty,oneof=scripted assistant"`
	Language string `json:"language" validate:"omitempty,oneof=en hi"`
}

// OpenSessionResponse returns the new session and its greeting.
type OpenSessionResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// SubmitMessageRequest posts a user message into a session.
type SubmitMessageRequest struct {
	Body  string `json:"body" validate:"required,max=2000"`
	Voice bool   `json:"voice"`
}

// TranscriptResponse returns the session transcript.
type TranscriptResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// CategoriesResponse lists the material catalog.
type CategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}
