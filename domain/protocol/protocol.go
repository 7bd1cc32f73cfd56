// Package protocol provides negotiation protocol policies: the turn-taking
// and acceptance rules the mechanism enforces each round.
package protocol

import (
	"errors"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Protocol errors.
var (
	// ErrRosterTooSmall indicates fewer parties than the policy minimum.
	ErrRosterTooSmall = errors.New("roster below protocol minimum")

	// ErrUnknownPolicy indicates an unrecognized policy name.
	ErrUnknownPolicy = errors.New("unknown protocol policy")
)

// Policy defines a negotiation protocol, decoupled from the mechanism so
// alternative protocols can be substituted without touching the engine.
type Policy interface {
	// Name returns the policy's stable identifier.
	Name() string

	// MinParties is the smallest roster the policy can run.
	MinParties() int

	// MaxParties is the largest roster the policy accepts; 0 means no cap.
	MaxParties() int

	// AllowsLateJoin reports whether negotiators may register after the
	// first step.
	AllowsLateJoin() bool

	// NewRules creates the per-session rule state for a roster over the
	// given space.
	NewRules(roster []negotiation.Handle, space *outcome.Space) (Rules, error)
}

// RulingKind classifies the rule's verdict after one response.
type RulingKind string

const (
	// RulingContinue keeps soliciting responses within the round.
	RulingContinue RulingKind = "continue"

	// RulingNextRound closes the round; the session continues.
	RulingNextRound RulingKind = "next_round"

	// RulingAgreement closes the session with the standing offer agreed.
	RulingAgreement RulingKind = "agreement"

	// RulingBroken closes the session as broken.
	RulingBroken RulingKind = "broken"
)

// Ruling is the rule's verdict for a single response.
type Ruling struct {
	Kind    RulingKind
	Details string
}

// Rules is the per-session mutable rule state owned by the mechanism.
// Implementations are not safe for concurrent use; the mechanism is
// round-synchronous by contract.
type Rules interface {
	// Turn returns roster indexes in the order they act this round. The
	// first index is the round's proposer.
	Turn() []int

	// Apply feeds one response into the rule and returns the ruling.
	// Malformed responses are ruled broken, never propagated as errors.
	Apply(actor int, resp negotiation.Response) Ruling

	// Standing returns the standing offer and its proposer's roster index,
	// or (nil, -1) before any proposal.
	Standing() (outcome.Outcome, int)

	// Acceptances returns the acceptance tally for the standing offer.
	Acceptances() int
}

// ByName resolves a policy from its identifier.
func ByName(name string) (Policy, error) {
	switch name {
	case "", NameSAOP:
		return NewSAOP(), nil
	default:
		return nil, ErrUnknownPolicy
	}
}
