package protocol

import (
	"fmt"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// NameSAOP identifies the Stacked Alternating Offers Protocol.
const NameSAOP = "saop"

// SAOP implements the Stacked Alternating Offers Protocol: exactly one
// negotiator proposes per round, every other negotiator responds in turn
// order, and an offer becomes the agreement the instant every responder
// accepts it before any of them counters. A counter-offer immediately
// becomes the standing offer and re-anchors the proposer for the next
// round.
type SAOP struct{}

// NewSAOP creates the SAOP policy.
func NewSAOP() *SAOP {
	return &SAOP{}
}

// Name implements Policy.
func (p *SAOP) Name() string { return NameSAOP }

// MinParties implements Policy. Alternating offers need two sides.
func (p *SAOP) MinParties() int { return 2 }

// MaxParties implements Policy. SAOP generalizes to any roster size.
func (p *SAOP) MaxParties() int { return 0 }

// AllowsLateJoin implements Policy. The acceptance tally depends on a fixed
// roster, so joining after the first step is forbidden.
func (p *SAOP) AllowsLateJoin() bool { return false }

// NewRules implements Policy.
func (p *SAOP) NewRules(roster []negotiation.Handle, space *outcome.Space) (Rules, error) {
	if len(roster) < p.MinParties() {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrRosterTooSmall, len(roster), p.MinParties())
	}
	return &saopRules{
		n:        len(roster),
		space:    space,
		proposer: -1,
		next:     0,
	}, nil
}

// saopRules holds the per-session SAOP state. The proposer rotates with
// registration order; a responder who counters becomes the new proposer.
type saopRules struct {
	n     int
	space *outcome.Space

	// next is the roster index opening the upcoming round.
	next int

	// proposer owns the standing offer, -1 before any proposal.
	proposer int
	standing outcome.Outcome

	// accepted tracks which responders accepted the standing offer.
	// Agreement needs n-1 distinct accepters: the proposer implicitly
	// accepts its own offer.
	accepted map[int]bool

	// opener is the scheduled proposer of the round being played.
	opener int
}

// Turn implements Rules. The round runs a full cycle starting at the
// scheduled opener, wrapping through the roster in registration order.
// The opener advances round-robin unless a counter-offer re-anchors it.
func (r *saopRules) Turn() []int {
	r.opener = r.next
	r.next = (r.opener + 1) % r.n
	order := make([]int, r.n)
	for i := 0; i < r.n; i++ {
		order[i] = (r.opener + i) % r.n
	}
	return order
}

// Apply implements Rules.
func (r *saopRules) Apply(actor int, resp negotiation.Response) Ruling {
	// Protocol-level fault isolation: a malformed response is an explicit
	// end, not an engine crash.
	if !resp.Valid() {
		return Ruling{Kind: RulingBroken, Details: "malformed response"}
	}

	switch resp.Kind {
	case negotiation.ResponseOffer:
		if !r.space.Contains(resp.Offer) {
			return Ruling{Kind: RulingBroken, Details: "offer outside outcome space"}
		}
		counter := r.standing != nil && actor != r.opener
		r.standing = resp.Offer.Clone()
		r.proposer = actor
		r.accepted = make(map[int]bool)
		if counter {
			// A counter ends the round; the counter-offerer opens next.
			r.next = actor
			return Ruling{Kind: RulingNextRound}
		}
		return Ruling{Kind: RulingContinue}

	case negotiation.ResponseAccept:
		if r.standing == nil {
			return Ruling{Kind: RulingBroken, Details: "accept without a standing offer"}
		}
		if actor == r.proposer {
			// Self-acceptance is implicit and never tallied.
			return Ruling{Kind: RulingContinue}
		}
		if r.accepted == nil {
			r.accepted = make(map[int]bool)
		}
		r.accepted[actor] = true
		if len(r.accepted) >= r.n-1 {
			return Ruling{Kind: RulingAgreement}
		}
		return Ruling{Kind: RulingContinue}

	case negotiation.ResponseReject:
		// Silent rejection: recorded in history, round keeps going.
		return Ruling{Kind: RulingContinue}

	case negotiation.ResponseEnd:
		return Ruling{Kind: RulingBroken, Details: "negotiator ended the negotiation"}

	default:
		return Ruling{Kind: RulingBroken, Details: "unrecognized response kind"}
	}
}

// Standing implements Rules.
func (r *saopRules) Standing() (outcome.Outcome, int) {
	if r.standing == nil {
		return nil, -1
	}
	return r.standing.Clone(), r.proposer
}

// Acceptances implements Rules.
func (r *saopRules) Acceptances() int {
	return len(r.accepted)
}

var _ Policy = (*SAOP)(nil)
