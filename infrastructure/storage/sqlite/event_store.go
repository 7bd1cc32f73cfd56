package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

// EventStore is a SQLite-backed implementation of event.Store.
type EventStore struct {
	db          *sql.DB
	subscribers map[string][]chan event.Event
	mu          sync.RWMutex
}

// NewEventStore creates a new SQLite event store with the given configuration.
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
		subscribers: make(map[string][]chan event.Event),
	}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewEventStoreFromDB creates an event store from an existing database connection.
func NewEventStoreFromDB(db *sql.DB) (*EventStore, error) {
	s := &EventStore{
		db:          db,
		subscribers: make(map[string][]chan event.Event),
	}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the events table if it doesn't exist.
func (s *EventStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_events_session_seq ON events(session_id, sequence);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	return nil
}

// Append persists one or more events atomically.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (id, session_id, type, sequence, timestamp, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()

	// Group events by session ID for sequence assignment
	bySession := make(map[string][]event.Event)
	for _, e := range events {
		bySession[e.SessionID] = append(bySession[e.SessionID], e)
	}

	// Get current sequence numbers for each session
	sequences := make(map[string]uint64)
	for sessionID := range bySession {
		var maxSeq sql.NullInt64
		err := tx.QueryRowContext(ctx,
			"SELECT MAX(sequence) FROM events WHERE session_id = ?",
			sessionID,
		).Scan(&maxSeq)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if maxSeq.Valid {
			sequences[sessionID] = uint64(maxSeq.Int64)
		}
	}

	var processed []event.Event
	for sessionID, sessionEvents := range bySession {
		seq := sequences[sessionID]

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

			_, err = stmt.ExecContext(ctx,
				e.ID, e.SessionID, string(e.Type), e.Sequence, e.Timestamp.Unix(), data, now,
			)
			if err != nil {
				return err
			}

			processed = append(processed, *e)
		}
	}

	if err := tx.Commit(); err != nil {
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

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM events WHERE session_id = ? ORDER BY sequence",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM events WHERE session_id = ? AND sequence >= ? ORDER BY sequence",
		sessionID, fromSeq,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// scanEvents deserializes event rows, skipping malformed entries.
func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		var e event.Event
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}

		events = append(events, e)
	}

	return events, rows.Err()
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

	query := "SELECT data FROM events WHERE session_id = ?"
	args := []interface{}{sessionID}

	if len(opts.Types) > 0 {
		placeholders := ""
		for i, t := range opts.Types {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, string(t))
		}
		query += " AND type IN (" + placeholders + ")"
	}

	if opts.FromTime > 0 {
		query += " AND timestamp >= ?"
		args = append(args, opts.FromTime)
	}
	if opts.ToTime > 0 {
		query += " AND timestamp <= ?"
		args = append(args, opts.ToTime)
	}

	query += " ORDER BY sequence"

	// SQLite requires LIMIT when using OFFSET
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// CountEvents returns the number of events for a session.
func (s *EventStore) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE session_id = ?",
		sessionID,
	).Scan(&count)

	return count, err
}

// ListSessions returns all session IDs with events in the store.
func (s *EventStore) ListSessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT session_id FROM events ORDER BY session_id",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []string
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, err
		}
		sessions = append(sessions, sessionID)
	}

	return sessions, rows.Err()
}

// PruneEvents removes events before a sequence number.
func (s *EventStore) PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM events WHERE session_id = ? AND sequence < ?",
		sessionID, beforeSeq,
	)
	return err
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

	_, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE session_id = ?", sessionID)
	return err
}

// Close closes the database connection and all subscriber channels.
func (s *EventStore) Close() error {
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

// DB returns the underlying database connection.
func (s *EventStore) DB() *sql.DB {
	return s.db
}

// Ensure EventStore implements the storage interfaces
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
	_ event.Pruner  = (*EventStore)(nil)
)
