package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Replay rebuilds a session snapshot and its round history from the event
// stream alone. The returned state agrees with what the live mechanism
// reported when the stream was written, modulo timestamps.
func Replay(ctx context.Context, store event.Store, sessionID string) (negotiation.SessionState, negotiation.TraceReader, error) {
	events, err := store.LoadEvents(ctx, sessionID)
	if err != nil {
		return negotiation.SessionState{}, nil, fmt.Errorf("load events for %s: %w", sessionID, err)
	}
	if len(events) == 0 {
		return negotiation.SessionState{}, nil, fmt.Errorf("session %s: %w", sessionID, negotiation.ErrSessionNotFound)
	}

	trace := negotiation.NewTrace(sessionID)
	phase := negotiation.PhaseCreated
	details := ""

	for _, evt := range events {
		switch evt.Type {
		case event.TypeSessionStarted:
			phase = negotiation.PhaseRunning

		case event.TypeRoundCompleted:
			var p event.RoundCompletedPayload
			if err := evt.UnmarshalPayload(&p); err != nil {
				return negotiation.SessionState{}, nil, fmt.Errorf("event %d payload: %w", evt.Sequence, err)
			}
			trace.Append(p.Round)

		case event.TypeSessionAgreed:
			phase = negotiation.PhaseAgreed

		case event.TypeSessionBroken:
			var p event.SessionBrokenPayload
			if err := evt.UnmarshalPayload(&p); err != nil {
				return negotiation.SessionState{}, nil, fmt.Errorf("event %d payload: %w", evt.Sequence, err)
			}
			phase = negotiation.PhaseBroken
			details = p.Details

		case event.TypeSessionTimedOut:
			phase = negotiation.PhaseTimedOut

		case event.TypeSessionErrored:
			var p event.SessionErroredPayload
			if err := evt.UnmarshalPayload(&p); err != nil {
				return negotiation.SessionState{}, nil, fmt.Errorf("event %d payload: %w", evt.Sequence, err)
			}
			phase = negotiation.PhaseErrored
			details = p.Details
		}
	}

	return negotiation.Reconstruct(sessionID, trace, phase, details), trace, nil
}
