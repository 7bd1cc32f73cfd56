package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

// EventStore is a PostgreSQL-backed implementation of event.Store.
type EventStore struct {
	pool        *pgxpool.Pool
	schema      string
	subscribers map[string][]chan event.Event
	mu          sync.RWMutex
}

// NewEventStore creates a new PostgreSQL event store.
func NewEventStore(pool *pgxpool.Pool, schema string) *EventStore {
	if schema == "" {
		schema = "public"
	}
	return &EventStore{
		pool:        pool,
		schema:      schema,
		subscribers: make(map[string][]chan event.Event),
	}
}

// tableName returns the fully qualified table name.
func (s *EventStore) tableName() string {
	return fmt.Sprintf("%s.events", s.schema)
}

// snapshotTableName returns the fully qualified snapshot table name.
func (s *EventStore) snapshotTableName() string {
	return fmt.Sprintf("%s.snapshots", s.schema)
}

// Migrate creates the events and snapshots tables if they do not exist.
func (s *EventStore) Migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			payload JSONB,
			sequence BIGINT NOT NULL,
			version INT NOT NULL DEFAULT 1,
			UNIQUE (session_id, sequence)
		);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON %s (session_id);
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT PRIMARY KEY,
			sequence BIGINT NOT NULL,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, s.tableName(), s.tableName(), s.snapshotTableName())

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return s.wrapError(err)
	}

	return nil
}

// Append persists one or more events atomically.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.wrapError(err)
	}
	defer tx.Rollback(ctx)

	// Get current max sequence for each session
	sequences := make(map[string]uint64)
	for _, e := range events {
		if _, ok := sequences[e.SessionID]; !ok {
			var maxSeq *uint64
			err := tx.QueryRow(ctx,
				fmt.Sprintf("SELECT MAX(sequence) FROM %s WHERE session_id = $1", s.tableName()),
				e.SessionID,
			).Scan(&maxSeq)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return s.wrapError(err)
			}
			if maxSeq != nil {
				sequences[e.SessionID] = *maxSeq
			}
		}
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, type, timestamp, payload, sequence, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.tableName())

	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.New().String()
		}

		sequences[events[i].SessionID]++
		events[i].Sequence = sequences[events[i].SessionID]

		if events[i].Type == "" {
			return event.ErrInvalidEvent
		}

		if events[i].Version == 0 {
			events[i].Version = 1
		}

		_, err := tx.Exec(ctx, insertQuery,
			events[i].ID,
			events[i].SessionID,
			string(events[i].Type),
			events[i].Timestamp,
			events[i].Payload,
			events[i].Sequence,
			events[i].Version,
		)
		if err != nil {
			return s.wrapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return s.wrapError(err)
	}

	s.notifySubscribers(events)

	return nil
}

// LoadEvents retrieves all events for a session in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, type, timestamp, payload, sequence, version
		FROM %s
		WHERE session_id = $1
		ORDER BY sequence ASC
	`, s.tableName())

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, type, timestamp, payload, sequence, version
		FROM %s
		WHERE session_id = $1 AND sequence >= $2
		ORDER BY sequence ASC
	`, s.tableName())

	rows, err := s.pool.Query(ctx, query, sessionID, fromSeq)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// Subscribe returns a channel that receives new events for a session.
func (s *EventStore) Subscribe(ctx context.Context, sessionID string) (<-chan event.Event, error) {
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

// Query retrieves events matching the given options.
func (s *EventStore) Query(ctx context.Context, sessionID string, opts event.QueryOptions) ([]event.Event, error) {
	query, args := s.buildQuerySQL(sessionID, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// CountEvents returns the number of events for a session.
func (s *EventStore) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, s.tableName())

	var count int64
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&count)
	if err != nil {
		return 0, s.wrapError(err)
	}

	return count, nil
}

// ListSessions returns all session IDs with events in the store.
func (s *EventStore) ListSessions(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT session_id FROM %s ORDER BY session_id`, s.tableName())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, s.wrapError(err)
		}
		sessions = append(sessions, sessionID)
	}

	return sessions, rows.Err()
}

// SaveSnapshot persists a snapshot of session state at a sequence number.
func (s *EventStore) SaveSnapshot(ctx context.Context, sessionID string, sequence uint64, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, sequence, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET sequence = $2, data = $3, created_at = NOW()
	`, s.snapshotTableName())

	_, err := s.pool.Exec(ctx, query, sessionID, sequence, data)
	if err != nil {
		return s.wrapError(err)
	}

	return nil
}

// LoadSnapshot retrieves the latest snapshot for a session.
func (s *EventStore) LoadSnapshot(ctx context.Context, sessionID string) ([]byte, uint64, error) {
	query := fmt.Sprintf(`
		SELECT data, sequence FROM %s WHERE session_id = $1
	`, s.snapshotTableName())

	var data []byte
	var sequence uint64

	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&data, &sequence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, event.ErrSnapshotNotFound
		}
		return nil, 0, s.wrapError(err)
	}

	return data, sequence, nil
}

// PruneEvents removes events before a sequence number.
func (s *EventStore) PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE session_id = $1 AND sequence < $2
	`, s.tableName())

	_, err := s.pool.Exec(ctx, query, sessionID, beforeSeq)
	if err != nil {
		return s.wrapError(err)
	}

	return nil
}

// DeleteSession removes all events and snapshots for a specific session.
func (s *EventStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if subs, ok := s.subscribers[sessionID]; ok {
		for _, ch := range subs {
			close(ch)
		}
		delete(s.subscribers, sessionID)
	}
	s.mu.Unlock()

	_, err := s.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.tableName()),
		sessionID,
	)
	if err != nil {
		return s.wrapError(err)
	}

	_, err = s.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.snapshotTableName()),
		sessionID,
	)
	if err != nil {
		return s.wrapError(err)
	}

	return nil
}

// buildQuerySQL constructs the SELECT query for querying events.
func (s *EventStore) buildQuerySQL(sessionID string, opts event.QueryOptions) (string, []any) {
	args := []any{sessionID}
	argNum := 1
	conditions := []string{"session_id = $1"}

	if len(opts.Types) > 0 {
		argNum++
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		conditions = append(conditions, fmt.Sprintf("type = ANY($%d)", argNum))
	}

	if opts.FromTime > 0 {
		argNum++
		args = append(args, opts.FromTime)
		conditions = append(conditions, fmt.Sprintf("EXTRACT(EPOCH FROM timestamp) >= $%d", argNum))
	}

	if opts.ToTime > 0 {
		argNum++
		args = append(args, opts.ToTime)
		conditions = append(conditions, fmt.Sprintf("EXTRACT(EPOCH FROM timestamp) <= $%d", argNum))
	}

	query := fmt.Sprintf(`
		SELECT id, session_id, type, timestamp, payload, sequence, version
		FROM %s
		WHERE %s
		ORDER BY sequence ASC
	`, s.tableName(), joinConditions(conditions))

	if opts.Limit > 0 {
		argNum++
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", argNum)
	}

	if opts.Offset > 0 {
		argNum++
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", argNum)
	}

	return query, args
}

// joinConditions joins SQL conditions with AND.
func joinConditions(conditions []string) string {
	result := ""
	for i, c := range conditions {
		if i > 0 {
			result += " AND "
		}
		result += c
	}
	return result
}

// scanEvents scans rows into Event structs.
func (s *EventStore) scanEvents(rows pgx.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		var e event.Event
		var eventType string

		err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&eventType,
			&e.Timestamp,
			&e.Payload,
			&e.Sequence,
			&e.Version,
		)
		if err != nil {
			return nil, err
		}

		e.Type = event.Type(eventType)
		events = append(events, e)
	}

	return events, rows.Err()
}

// notifySubscribers sends events to all subscribers.
func (s *EventStore) notifySubscribers(events []event.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range events {
		if subs, ok := s.subscribers[e.SessionID]; ok {
			for _, ch := range subs {
				select {
				case ch <- e:
				default:
					// Channel full, skip
				}
			}
		}
	}
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

// wrapError wraps database errors with domain errors.
func (s *EventStore) wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(event.ErrOperationTimeout, err)
	}

	return errors.Join(event.ErrConnectionFailed, err)
}

// Ensure EventStore implements the storage interfaces
var (
	_ event.Store       = (*EventStore)(nil)
	_ event.Querier     = (*EventStore)(nil)
	_ event.Snapshotter = (*EventStore)(nil)
	_ event.Pruner      = (*EventStore)(nil)
)
