package event

import "context"

// Store defines the interface for event persistence. Implementations may be
// in-memory, SQLite, BadgerDB, Redis, PostgreSQL, or any other backend.
type Store interface {
	// Append persists one or more events atomically. Events are assigned
	// sequence numbers in order of appearance.
	Append(ctx context.Context, events ...Event) error

	// LoadEvents retrieves all events for a session in sequence order.
	LoadEvents(ctx context.Context, sessionID string) ([]Event, error)

	// LoadEventsFrom retrieves events starting from a specific sequence
	// number. This enables incremental replay from a known checkpoint.
	LoadEventsFrom(ctx context.Context, sessionID string, fromSeq uint64) ([]Event, error)

	// Subscribe returns a channel that receives new events for a session.
	// The channel is closed when the context is cancelled.
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, error)
}

// QueryOptions configures event queries.
type QueryOptions struct {
	// Types filters to specific event types (empty means all).
	Types []Type

	// FromTime filters events after this unix timestamp.
	FromTime int64

	// ToTime filters events before this unix timestamp.
	ToTime int64

	// Limit is the maximum number of events to return (0 = no limit).
	Limit int

	// Offset is the number of events to skip.
	Offset int
}

// Querier is an optional interface for stores that support advanced queries.
type Querier interface {
	// Query retrieves events matching the given options.
	Query(ctx context.Context, sessionID string, opts QueryOptions) ([]Event, error)

	// CountEvents returns the number of events for a session.
	CountEvents(ctx context.Context, sessionID string) (int64, error)

	// ListSessions returns all session IDs with events in the store.
	ListSessions(ctx context.Context) ([]string, error)
}

// Snapshotter is an optional interface for stores that support state
// snapshots. A snapshot lets replay resume from a checkpoint instead of
// the start of the stream.
type Snapshotter interface {
	// SaveSnapshot persists a snapshot of session state at a sequence number.
	SaveSnapshot(ctx context.Context, sessionID string, sequence uint64, data []byte) error

	// LoadSnapshot retrieves the latest snapshot for a session. Returns
	// ErrSnapshotNotFound when none exists.
	LoadSnapshot(ctx context.Context, sessionID string) ([]byte, uint64, error)
}

// Pruner is an optional interface for stores that support event pruning.
type Pruner interface {
	// PruneEvents removes events before a sequence number.
	PruneEvents(ctx context.Context, sessionID string, beforeSeq uint64) error
}
