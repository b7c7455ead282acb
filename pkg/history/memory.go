package history

import (
	"context"
	"sync"
)

// MemoryStore keeps archived turns in process memory. Suitable for tests
// and single-instance deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string][]Entry
	maxEntries int
}

// NewMemoryStore creates an in-memory store keeping at most maxEntries
// per session (0 means unbounded).
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string][]Entry),
		maxEntries: maxEntries,
	}
}

// Append implements Store
func (s *MemoryStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if sessionID == "" {
		return errorRegistry.New(ErrEmptySessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := append(s.sessions[sessionID], entries...)
	if s.maxEntries > 0 && len(stored) > s.maxEntries {
		stored = stored[len(stored)-s.maxEntries:]
	}
	s.sessions[sessionID] = stored
	return nil
}

// List implements Store
func (s *MemoryStore) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sessions[sessionID]
	if len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	out := make([]Entry, len(stored))
	copy(out, stored)
	return out, nil
}

// Clear implements Store
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
