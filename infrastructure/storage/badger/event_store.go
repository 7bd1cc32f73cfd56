package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

// EventStore is a BadgerDB-backed implementation of event.Store.
type EventStore struct {
	db          *badger.DB
	keyPrefix   string
	subscribers map[string][]chan event.Event
	mu          sync.RWMutex
	gcStop      chan struct{}
	gcWg        sync.WaitGroup
}

// NewEventStore creates a new BadgerDB event store with the given configuration.
func NewEventStore(cfg Config, opts ...Option) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &EventStore{
		db:          db,
		keyPrefix:   cfg.KeyPrefix,
		subscribers: make(map[string][]chan event.Event),
		gcStop:      make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// NewEventStoreFromDB creates an event store from an existing BadgerDB database.
func NewEventStoreFromDB(db *badger.DB, keyPrefix string) *EventStore {
	return &EventStore{
		db:          db,
		keyPrefix:   keyPrefix,
		subscribers: make(map[string][]chan event.Event),
		gcStop:      make(chan struct{}),
	}
}

// startGC runs value log garbage collection on a ticker.
func (s *EventStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				// Rerun until no log files need rewriting
				for s.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

// Key format: prefix:events:sessionID:sequence (8 bytes, big-endian)
func (s *EventStore) eventKey(sessionID string, seq uint64) []byte {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return append([]byte(s.keyPrefix+"events:"+sessionID+":"), seqBytes...)
}

// Key format: prefix:seq:sessionID for storing sequence counter
func (s *EventStore) seqKey(sessionID string) []byte {
	return []byte(s.keyPrefix + "seq:" + sessionID)
}

// Append persists one or more events atomically.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	bySession := make(map[string][]event.Event)
	for _, e := range events {
		bySession[e.SessionID] = append(bySession[e.SessionID], e)
	}

	var processed []event.Event

	err := s.db.Update(func(txn *badger.Txn) error {
		for sessionID, sessionEvents := range bySession {
			var seq uint64
			seqKey := s.seqKey(sessionID)

			item, err := txn.Get(seqKey)
			if err == nil {
				err = item.Value(func(val []byte) error {
					if len(val) == 8 {
						seq = binary.BigEndian.Uint64(val)
					}
					return nil
				})
				if err != nil {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			for i := range sessionEvents {
				e := &sessionEvents[i]

				if e.ID == "" {
					e.ID = uuid.New().String()
				}

				seq++
				e.Sequence = seq

				if e.Type == "" {
					return event.ErrInvalidEvent
				}

				data, err := json.Marshal(e)
				if err != nil {
					return err
				}

				if err := txn.Set(s.eventKey(sessionID, seq), data); err != nil {
					return err
				}

				processed = append(processed, *e)
			}

			seqBytes := make([]byte, 8)
			binary.BigEndian.PutUint64(seqBytes, seq)
			if err := txn.Set(seqKey, seqBytes); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.notifySubscribers(processed)

	return nil
}

// LoadEvents retrieves all events for a session in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "events:" + sessionID + ":")
	var events []event.Event

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var e event.Event
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue // Skip malformed entries
			}

			events = append(events, e)
		}

		return nil
	})

	return events, err
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startKey := s.eventKey(sessionID, fromSeq)
	prefix := []byte(s.keyPrefix + "events:" + sessionID + ":")
	var events []event.Event

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(startKey); it.Valid(); it.Next() {
			item := it.Item()

			var e event.Event
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue
			}

			events = append(events, e)
		}

		return nil
	})

	return events, err
}

// Subscribe returns a channel that receives new events for a session.
func (s *EventStore) Subscribe(ctx context.Context, sessionID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ch := make(chan event.Event, 100)
	s.subscribers[sessionID] = append(s.subscribers[sessionID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(sessionID, ch)
	}()

	return ch, nil
}

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

func (s *EventStore) notifySubscribers(events []event.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range events {
		subs, ok := s.subscribers[e.SessionID]
		if !ok {
			continue
		}

		for _, ch := range subs {
			select {
			case ch <- e:
			default:
				// Channel full, skip
			}
		}
	}
}

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, sessionID string, opts event.QueryOptions) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "events:" + sessionID + ":")
	var events []event.Event
	skip := opts.Offset
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix

		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var e event.Event
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue
			}

			if len(opts.Types) > 0 {
				found := false
				for _, t := range opts.Types {
					if e.Type == t {
						found = true
						break
					}
				}
				if !found {
					continue
				}
			}

			ts := e.Timestamp.Unix()
			if opts.FromTime > 0 && ts < opts.FromTime {
				continue
			}
			if opts.ToTime > 0 && ts > opts.ToTime {
				continue
			}

			if skip > 0 {
				skip--
				continue
			}

			events = append(events, e)
			count++

			if opts.Limit > 0 && count >= opts.Limit {
				break
			}
		}

		return nil
	})

	return events, err
}

// CountEvents returns the number of events for a session.
func (s *EventStore) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(s.keyPrefix + "events:" + sessionID + ":")
	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}

		return nil
	})

	return count, err
}

// ListSessions returns all session IDs with events in the store.
func (s *EventStore) ListSessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "seq:")
	prefixLen := len(prefix)
	var sessions []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			sessions = append(sessions, string(key[prefixLen:]))
		}

		return nil
	})

	return sessions, err
}

// PruneEvents removes events before a sequence number.
func (s *EventStore) PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for seq := uint64(1); seq < beforeSeq; seq++ {
			err := txn.Delete(s.eventKey(sessionID, seq))
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// DeleteSession removes all events for a specific session.
func (s *EventStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if subs, ok := s.subscribers[sessionID]; ok {
		for _, ch := range subs {
			close(ch)
		}
		delete(s.subscribers, sessionID)
	}
	s.mu.Unlock()

	prefix := []byte(s.keyPrefix + "events:" + sessionID + ":")
	if err := s.db.DropPrefix(prefix); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.seqKey(sessionID))
	})
}

// Close closes the database and all subscriber channels.
func (s *EventStore) Close() error {
	close(s.gcStop)
	s.gcWg.Wait()

	s.mu.Lock()
	for _, subs := range s.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	s.subscribers = make(map[string][]chan event.Event)
	s.mu.Unlock()

	return s.db.Close()
}

// DB returns the underlying BadgerDB database.
func (s *EventStore) DB() *badger.DB {
	return s.db
}

// Ensure EventStore implements the storage interfaces
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
	_ event.Pruner  = (*EventStore)(nil)
)
