package negotiation

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Move is one negotiator's response within a round, in invocation order.
type Move struct {
	Negotiator Handle    `json:"negotiator"`
	Response   Response  `json:"response"`
	At         time.Time `json:"at"`
}

// Round records everything that happened in one round. It is immutable once
// appended to a trace.
type Round struct {
	// Number is the zero-based round index.
	Number int `json:"number"`

	// Proposer is the negotiator scheduled to open the round.
	Proposer Handle `json:"proposer"`

	// Moves holds responses in real invocation order.
	Moves []Move `json:"moves"`

	// Offer is the standing offer when the round closed.
	Offer outcome.Outcome `json:"offer,omitempty"`
}

// Clone returns an independent copy of the round.
func (r Round) Clone() Round {
	c := r
	c.Moves = make([]Move, len(r.Moves))
	copy(c.Moves, r.Moves)
	c.Offer = r.Offer.Clone()
	return c
}

// TraceReader is the read-only view of a trace handed to negotiators and
// external callers.
type TraceReader interface {
	// Rounds returns a copy of all recorded rounds in order.
	Rounds() []Round

	// Len returns the number of recorded rounds.
	Len() int

	// Last returns the most recent round, or nil if empty.
	Last() *Round
}

// Trace is the append-only, insertion-ordered history of a session. It is
// exclusively mutated by the mechanism; everyone else reads copies.
type Trace struct {
	sessionID string
	rounds    []Round
	mu        sync.RWMutex
}

// NewTrace creates an empty trace for the given session.
func NewTrace(sessionID string) *Trace {
	return &Trace{
		sessionID: sessionID,
		rounds:    make([]Round, 0),
	}
}

// SessionID returns the associated session ID.
func (t *Trace) SessionID() string {
	return t.sessionID
}

// Append adds a completed round to the trace.
func (t *Trace) Append(r Round) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rounds = append(t.rounds, r.Clone())
}

// Rounds returns a copy of all rounds.
func (t *Trace) Rounds() []Round {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rounds := make([]Round, len(t.rounds))
	for i, r := range t.rounds {
		rounds[i] = r.Clone()
	}
	return rounds
}

// Len returns the number of recorded rounds.
func (t *Trace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rounds)
}

// Last returns the most recent round, or nil if the trace is empty.
func (t *Trace) Last() *Round {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.rounds) == 0 {
		return nil
	}
	r := t.rounds[len(t.rounds)-1].Clone()
	return &r
}

var _ TraceReader = (*Trace)(nil)
