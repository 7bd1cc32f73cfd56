package negotiation

import (
	"context"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/domain/utility"
)

// View is the read-only window a negotiator receives on each invocation.
// It carries copies and read interfaces only; a strategy can never reach
// mutable session internals through it.
type View struct {
	// Self is the negotiator's own handle.
	Self Handle

	// Utility is the negotiator's own bound utility function.
	Utility utility.Function

	// Space is the outcome space under negotiation.
	Space *outcome.Space

	// CurrentOffer is the standing offer, nil before the first proposal.
	CurrentOffer outcome.Outcome

	// CurrentProposer identifies who made the standing offer.
	CurrentProposer Handle

	// Step is the zero-based round number.
	Step int

	// RelativeTime is elapsed progress in [0, 1] against the budgets.
	RelativeTime float64

	// History is the read-only round history so far.
	History TraceReader
}

// Negotiator is the strategy capability consumed by the mechanism. Respond
// must return before the next negotiator is invoked; implementations may
// keep private state across invocations within one session.
type Negotiator interface {
	Respond(ctx context.Context, view View) (Response, error)
}
