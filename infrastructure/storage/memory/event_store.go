// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

// EventStore is an in-memory implementation of event.Store.
type EventStore struct {
	events      map[string][]event.Event // sessionID -> events
	subscribers map[string][]chan event.Event
	sequences   map[string]uint64 // sessionID -> last sequence
	mu          sync.RWMutex
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events:      make(map[string][]event.Event),
		subscribers: make(map[string][]chan event.Event),
		sequences:   make(map[string]uint64),
	}
}

// Append persists one or more events atomically.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Group events by session ID
	bySession := make(map[string][]event.Event)
	for _, e := range events {
		bySession[e.SessionID] = append(bySession[e.SessionID], e)
	}

	for sessionID, sessionEvents := range bySession {
		seq := s.sequences[sessionID]

		for i := range sessionEvents {
			if sessionEvents[i].ID == "" {
				sessionEvents[i].ID = uuid.New().String()
			}

			seq++
			sessionEvents[i].Sequence = seq

			if sessionEvents[i].Type == "" {
				return event.ErrInvalidEvent
			}
		}

		s.events[sessionID] = append(s.events[sessionID], sessionEvents...)
		s.sequences[sessionID] = seq

		// Notify subscribers
		if subs, ok := s.subscribers[sessionID]; ok {
			for _, sub := range subs {
				for _, e := range sessionEvents {
					select {
					case sub <- e:
					default:
						// Channel full, skip (non-blocking)
					}
				}
			}
		}
	}

	return nil
}

// LoadEvents retrieves all events for a session in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.events[sessionID]
	if !ok {
		return []event.Event{}, nil
	}

	// Return a copy to prevent mutation
	result := make([]event.Event, len(events))
	copy(result, events)
	return result, nil
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.events[sessionID]
	if !ok {
		return []event.Event{}, nil
	}

	var result []event.Event
	for _, e := range events {
		if e.Sequence >= fromSeq {
			result = append(result, e)
		}
	}

	return result, nil
}

// Subscribe returns a channel that receives new events for a session.
func (s *EventStore) Subscribe(ctx context.Context, sessionID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan event.Event, 100)
	s.subscribers[sessionID] = append(s.subscribers[sessionID], ch)

	go func() {
		<-ctx.Done()
		s.unsubscribe(sessionID, ch)
	}()

	return ch, nil
}

// unsubscribe removes a subscriber channel.
func (s *EventStore) unsubscribe(sessionID string, ch chan event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[sessionID]
	for i, sub := range subs {
		if sub == ch {
			s.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(s.subscribers[sessionID]) == 0 {
		delete(s.subscribers, sessionID)
	}
}

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, sessionID string, opts event.QueryOptions) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.events[sessionID]
	if !ok {
		return []event.Event{}, nil
	}

	var result []event.Event
	for _, e := range events {
		if !s.matchesQuery(e, opts) {
			continue
		}
		result = append(result, e)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []event.Event{}, nil
		}
		result = result[opts.Offset:]
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// matchesQuery checks if an event matches the query options.
func (s *EventStore) matchesQuery(e event.Event, opts event.QueryOptions) bool {
	if len(opts.Types) > 0 {
		found := false
		for _, t := range opts.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	ts := e.Timestamp.Unix()
	if opts.FromTime > 0 && ts < opts.FromTime {
		return false
	}
	if opts.ToTime > 0 && ts > opts.ToTime {
		return false
	}

	return true
}

// CountEvents returns the number of events for a session.
func (s *EventStore) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.events[sessionID])), nil
}

// ListSessions returns all session IDs with events in the store.
func (s *EventStore) ListSessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.events))
	for sessionID := range s.events {
		sessions = append(sessions, sessionID)
	}

	return sessions, nil
}

// PruneEvents removes events before a sequence number.
func (s *EventStore) PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.events[sessionID]
	if !ok {
		return nil
	}

	var kept []event.Event
	for _, e := range events {
		if e.Sequence >= beforeSeq {
			kept = append(kept, e)
		}
	}
	s.events[sessionID] = kept

	return nil
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, subs := range s.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}

	s.events = make(map[string][]event.Event)
	s.subscribers = make(map[string][]chan event.Event)
	s.sequences = make(map[string]uint64)
}

// DeleteSession removes all events for a specific session.
func (s *EventStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if subs, ok := s.subscribers[sessionID]; ok {
		for _, ch := range subs {
			close(ch)
		}
		delete(s.subscribers, sessionID)
	}

	delete(s.events, sessionID)
	delete(s.sequences, sessionID)

	return nil
}

// Len returns the total number of events across all sessions.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, events := range s.events {
		count += len(events)
	}
	return count
}

// Ensure EventStore implements event.Store, event.Querier, and event.Pruner
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
	_ event.Pruner  = (*EventStore)(nil)
)
