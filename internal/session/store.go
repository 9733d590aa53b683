package session

import (
	"context"
	"sync"
	"time"

	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
)

// Store persists session snapshots so sessions survive process restarts and
// can be shared between replicas.
type Store interface {
	// Save writes a snapshot, replacing any previous one for the same ID.
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns the snapshot for id, or ErrSessionNotFound.
	Load(ctx context.Context, id string) (*Snapshot, error)
	// Delete removes the snapshot for id. Deleting a missing ID is not an
	// error.
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the default single-process store.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store. Entries older than ttl are
// treated as gone; a zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Save stores a copy of the snapshot.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{snap: *snap}
	entry.snap.Transcript = make([]domain.Message, len(snap.Transcript))
	copy(entry.snap.Transcript, snap.Transcript)
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries[snap.ID] = entry
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *MemoryStore) Load(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return nil, apperrors.ErrSessionNotFound
	}

	snap := entry.snap
	snap.Transcript = make([]domain.Message, len(entry.snap.Transcript))
	copy(snap.Transcript, entry.snap.Transcript)
	return &snap, nil
}

// Delete removes the snapshot for id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
