// Package session manages chat sessions: transcript ownership, dialogue
// pacing, persistence, and the handoff between scripted and assistant modes.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildmart/buildmart-server/internal/dialogue"
	"github.com/buildmart/buildmart-server/internal/domain"
)

// Mode selects how bot replies are produced for a session.
type Mode string

const (
	// ModeScripted drives replies from the template-based state machine.
	ModeScripted Mode = "scripted"
	// ModeAssistant drives replies from the upstream chat model.
	ModeAssistant Mode = "assistant"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeScripted || m == ModeAssistant
}

// Snapshot is the persistable state of a session. It is what the store
// serializes; live coordination state (locks, timers) never leaves the
// manager.
type Snapshot struct {
	ID           string                 `json:"id"`
	Mode         Mode                   `json:"mode"`
	Conversation *dialogue.Conversation `json:"conversation"`
	Transcript   []domain.Message       `json:"transcript"`
	Closed       bool                   `json:"closed"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// session is the live, in-memory form of a chat session.
type session struct {
	// mu serializes all turns for the session. A user message and the
	// replies it produces are appended under one hold of the lock, so the
	// transcript always shows each user message before its own replies.
	mu sync.Mutex

	snap Snapshot

	// epoch increments when the session closes; pending delayed replies
	// carry the epoch they were scheduled under and discard themselves if
	// it has moved on.
	epoch uint64

	timers []*time.Timer
}

func newSession(mode Mode, language string, conv *dialogue.Conversation) *session {
	now := time.Now().UTC()
	conv.Profile.Language = language
	return &session{
		snap: Snapshot{
			ID:           uuid.NewString(),
			Mode:         mode,
			Conversation: conv,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// append adds a message to the transcript. Caller must hold mu.
func (s *session) append(msg domain.Message) {
	s.snap.Transcript = append(s.snap.Transcript, msg)
	s.snap.UpdatedAt = time.Now().UTC()
}

// transcriptCopy returns a copy safe to use outside the lock. Caller must
// hold mu.
func (s *session) transcriptCopy() []domain.Message {
	out := make([]domain.Message, len(s.snap.Transcript))
	copy(out, s.snap.Transcript)
	return out
}
