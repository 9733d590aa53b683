// Package domain contains the core types for conversations, profiles, and the
// material catalog.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

const (
	// SenderUser marks a message typed (or spoken) by the visitor.
	SenderUser Sender = "user"
	// SenderBot marks a message produced by the dialogue engine or assistant.
	SenderBot Sender = "bot"
)

// Message is a single entry in a conversation transcript. The transcript is
// append-only; messages are never edited or removed while a session is open.
type Message struct {
	ID         string    `json:"id"`
	Sender     Sender    `json:"sender"`
	Body       string    `json:"body"`
	Language   string    `json:"language,omitempty"`
	VoiceInput bool      `json:"voice_input,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(sender Sender, body, language string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Body:      body,
		Language:  language,
		CreatedAt: time.Now().UTC(),
	}
}
