package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// sessionEntry holds a deep copy of a snapshot for storage.
type sessionEntry struct {
	data []byte
}

// SessionStore is an in-memory implementation of negotiation.Store.
type SessionStore struct {
	sessions map[string]*sessionEntry
	mu       sync.RWMutex
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

// Save persists a session snapshot, replacing any prior snapshot.
func (s *SessionStore) Save(ctx context.Context, state negotiation.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[state.SessionID] = &sessionEntry{data: data}
	return nil
}

// Load retrieves a session snapshot by ID.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (negotiation.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return negotiation.SessionState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return negotiation.SessionState{}, negotiation.ErrSessionNotFound
	}

	var state negotiation.SessionState
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return negotiation.SessionState{}, err
	}

	return state, nil
}

// List returns all stored session IDs in sorted order.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Delete removes a session snapshot.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return negotiation.ErrSessionNotFound
	}

	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of stored snapshots.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Ensure SessionStore implements negotiation.Store
var _ negotiation.Store = (*SessionStore)(nil)
