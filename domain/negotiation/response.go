package negotiation

import "github.com/felixgeelhaar/negotiate-go/domain/outcome"

// ResponseKind identifies the kind of response a negotiator produced.
type ResponseKind string

const (
	ResponseOffer  ResponseKind = "offer"  // Propose a new standing offer
	ResponseAccept ResponseKind = "accept" // Accept the standing offer
	ResponseReject ResponseKind = "reject" // Reject silently, round continues
	ResponseEnd    ResponseKind = "end"    // End the negotiation
)

// Response is a negotiator's answer to one invocation. Offer is set exactly
// when Kind is ResponseOffer.
type Response struct {
	Kind  ResponseKind    `json:"kind"`
	Offer outcome.Outcome `json:"offer,omitempty"`
}

// NewOfferResponse creates a response proposing the given outcome.
func NewOfferResponse(o outcome.Outcome) Response {
	return Response{Kind: ResponseOffer, Offer: o.Clone()}
}

// NewAcceptResponse creates a response accepting the standing offer.
func NewAcceptResponse() Response {
	return Response{Kind: ResponseAccept}
}

// NewRejectResponse creates a silent rejection of the standing offer.
func NewRejectResponse() Response {
	return Response{Kind: ResponseReject}
}

// NewEndResponse creates a response ending the negotiation.
func NewEndResponse() Response {
	return Response{Kind: ResponseEnd}
}

// Valid returns true for a well-formed response: a recognized kind, with an
// outcome present exactly when the kind is offer.
func (r Response) Valid() bool {
	switch r.Kind {
	case ResponseOffer:
		return len(r.Offer) > 0
	case ResponseAccept, ResponseReject, ResponseEnd:
		return r.Offer == nil
	default:
		return false
	}
}
