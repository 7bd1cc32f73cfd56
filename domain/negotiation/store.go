package negotiation

import "context"

// Store persists session snapshots for later inspection. Implementations
// may be in-memory or any backing database.
type Store interface {
	// Save persists a session snapshot, replacing any prior snapshot for
	// the same session ID.
	Save(ctx context.Context, state SessionState) error

	// Load retrieves a session snapshot by ID. Returns ErrSessionNotFound
	// when absent.
	Load(ctx context.Context, sessionID string) (SessionState, error)

	// List returns all stored session IDs.
	List(ctx context.Context) ([]string, error)

	// Delete removes a session snapshot.
	Delete(ctx context.Context, sessionID string) error
}
