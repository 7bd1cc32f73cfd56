package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/negotiate-go/application"
	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/sqlite"
)

// inspectOptions holds options for the inspect command.
type inspectOptions struct {
	storePath  string
	sessionID  string
	eventTypes []string
	limit      int
	offset     int
	outputJSON bool
	replay     bool
}

// newInspectCmd creates the inspect command.
func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect persisted negotiation sessions",
		Long: `Inspect the event streams persisted by a sqlite event store.

Without --session, lists the stored sessions. With --session, dumps that
session's event stream in sequence order. With --replay, folds the stream
back into a session snapshot instead of printing raw events.

Examples:
  # List stored sessions
  negotiate inspect --store events.db

  # Dump one session's event stream
  negotiate inspect --store events.db --session 2f1c...

  # Only offers, as JSON
  negotiate inspect --store events.db --session 2f1c... --type offer.proposed --json

  # Rebuild the terminal snapshot from the stream
  negotiate inspect --store events.db --session 2f1c... --replay`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspectStore(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.storePath, "store", "", "Path to the sqlite event store (required)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session to inspect (empty lists sessions)")
	cmd.Flags().StringSliceVar(&opts.eventTypes, "type", nil, "Filter by event type (repeatable)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum events to print (0 = all)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Events to skip")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.replay, "replay", false, "Rebuild the session snapshot from the stream")

	_ = cmd.MarkFlagRequired("store")

	return cmd
}

// inspectStore opens the store and dispatches to the requested view.
func (a *App) inspectStore(ctx context.Context, opts *inspectOptions) error {
	store, err := sqlite.NewEventStore(sqlite.DefaultConfig(), sqlite.WithDSN(opts.storePath))
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if opts.sessionID == "" {
		return a.listSessions(ctx, store)
	}
	if opts.replay {
		return a.replaySession(ctx, store, opts)
	}
	return a.dumpEvents(ctx, store, opts)
}

// listSessions prints every session in the store.
func (a *App) listSessions(ctx context.Context, store *sqlite.EventStore) error {
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintf(a.stdout, "No sessions stored.\n")
		return nil
	}

	for _, id := range sessions {
		count, err := store.CountEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count events for %s: %w", id, err)
		}
		fmt.Fprintf(a.stdout, "%s  (%d events)\n", id, count)
	}
	return nil
}

// dumpEvents prints one session's event stream.
func (a *App) dumpEvents(ctx context.Context, store *sqlite.EventStore, opts *inspectOptions) error {
	query := event.QueryOptions{
		Limit:  opts.limit,
		Offset: opts.offset,
	}
	for _, t := range opts.eventTypes {
		query.Types = append(query.Types, event.Type(t))
	}

	events, err := store.Query(ctx, opts.sessionID, query)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}

	if opts.outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	for _, evt := range events {
		fmt.Fprintf(a.stdout, "%4d  %-24s  %s  %s\n",
			evt.Sequence, evt.Type, evt.Timestamp.Format("15:04:05.000"), evt.Payload)
	}
	fmt.Fprintf(a.stdout, "%d events\n", len(events))
	return nil
}

// replaySession folds the stream back into a session snapshot.
func (a *App) replaySession(ctx context.Context, store *sqlite.EventStore, opts *inspectOptions) error {
	state, trace, err := application.Replay(ctx, store, opts.sessionID)
	if err != nil {
		return fmt.Errorf("failed to replay session: %w", err)
	}

	if opts.outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	fmt.Fprintf(a.stdout, "Session %s\n", state.SessionID)
	fmt.Fprintf(a.stdout, "  Phase: %s\n", state.Phase)
	fmt.Fprintf(a.stdout, "  Rounds: %d\n", trace.Len())
	if state.Agreement != nil {
		fmt.Fprintf(a.stdout, "  Agreement: %v\n", state.Agreement)
	}
	if state.ErrorDetails != "" {
		fmt.Fprintf(a.stdout, "  Details: %s\n", state.ErrorDetails)
	}
	return nil
}
