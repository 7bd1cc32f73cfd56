package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// guardHasParties checks that the roster meets the policy's minimum.
// Note: In statekit, guards receive the context by value. Since our context is
// *Context, the guard receives *Context directly.
func guardHasParties(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	min := ctx.MinParties
	if min < 1 {
		min = 1
	}
	return ctx.Parties >= min
}

// guardBudgetAvailable checks that the session deadline is not already spent.
func guardBudgetAvailable(ctx *Context, _ statekit.Event) bool {
	if ctx == nil || ctx.Session == nil {
		return false
	}
	return !ctx.Deadline.Exhausted(ctx.Session.Step, ctx.Session.Duration())
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) negotiation.Phase {
	switch eventType {
	case "START":
		return negotiation.PhaseRunning
	case "AGREE":
		return negotiation.PhaseAgreed
	case "BREAK":
		return negotiation.PhaseBroken
	case "TIMEOUT":
		return negotiation.PhaseTimedOut
	case "ERROR":
		return negotiation.PhaseErrored
	default:
		return negotiation.Phase(eventType)
	}
}
