package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a completed conversation distilled into a sales lead. Leads are
// archived when a session that captured at least a name closes.
type Lead struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    string     `json:"session_id"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	Category     CategoryID `json:"category"`
	Requirements []string   `json:"requirements"`
	Language     string     `json:"language"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewLead builds a lead from a captured profile.
func NewLead(sessionID string, p Profile) *Lead {
	return &Lead{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Name:         p.DisplayName(),
		Location:     p.DisplayLocation(),
		Category:     p.Category,
		Requirements: p.Requirements,
		Language:     p.Language,
		CreatedAt:    time.Now().UTC(),
	}
}
