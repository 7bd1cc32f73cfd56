package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// syncPhase mirrors the machine transition onto the session aggregate.
// In statekit, actions receive a pointer to the context. Since our context is
// *Context, actions receive **Context.
func syncPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Session == nil {
		return
	}

	c := *ctx

	var toPhase negotiation.Phase
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toPhase = payload.ToPhase
	} else {
		toPhase = phaseFromEventType(event.Type)
	}

	switch toPhase {
	case negotiation.PhaseRunning:
		c.Session.Start()
	case negotiation.PhaseAgreed:
		var agreement outcome.Outcome
		if payload, ok := event.Payload.(TransitionPayload); ok {
			agreement = payload.Agreement
		}
		c.Session.MarkAgreed(agreement)
	case negotiation.PhaseBroken:
		c.Session.MarkBroken(reasonFrom(event))
	case negotiation.PhaseTimedOut:
		c.Session.MarkTimedOut()
	case negotiation.PhaseErrored:
		c.Session.MarkErrored(reasonFrom(event))
	}
}

func reasonFrom(event statekit.Event) string {
	if payload, ok := event.Payload.(TransitionPayload); ok {
		return payload.Reason
	}
	return ""
}
