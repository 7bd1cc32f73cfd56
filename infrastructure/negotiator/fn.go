package negotiator

import (
	"context"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Func adapts a plain function into a Negotiator.
type Func func(ctx context.Context, view negotiation.View) (negotiation.Response, error)

// Respond implements negotiation.Negotiator.
func (f Func) Respond(ctx context.Context, view negotiation.View) (negotiation.Response, error) {
	return f(ctx, view)
}

// AlwaysAccept returns a negotiator that accepts any standing offer and
// proposes the first enumerable outcome when asked to open.
func AlwaysAccept() Func {
	return func(_ context.Context, view negotiation.View) (negotiation.Response, error) {
		if view.CurrentOffer != nil && !view.CurrentProposer.Equal(view.Self) {
			return negotiation.NewAcceptResponse(), nil
		}
		for o := range view.Space.Enumerate() {
			return negotiation.NewOfferResponse(o), nil
		}
		return negotiation.NewEndResponse(), nil
	}
}

// AlwaysEnd returns a negotiator that immediately ends the negotiation.
func AlwaysEnd() Func {
	return func(_ context.Context, _ negotiation.View) (negotiation.Response, error) {
		return negotiation.NewEndResponse(), nil
	}
}
