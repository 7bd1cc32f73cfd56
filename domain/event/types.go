package event

import (
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Type classifies domain events.
type Type string

// Negotiation event taxonomy.
const (
	TypeSessionStarted   Type = "session.started"
	TypeNegotiatorJoined Type = "negotiator.joined"
	TypeOfferProposed    Type = "offer.proposed"
	TypeResponseRecorded Type = "response.recorded"
	TypeRoundCompleted   Type = "round.completed"
	TypeSessionAgreed    Type = "session.agreed"
	TypeSessionBroken    Type = "session.broken"
	TypeSessionTimedOut  Type = "session.timedout"
	TypeSessionErrored   Type = "session.errored"
)

// SessionStartedPayload accompanies TypeSessionStarted.
type SessionStartedPayload struct {
	Parties   []negotiation.Handle `json:"parties"`
	Protocol  string               `json:"protocol"`
	MaxSteps  int                  `json:"max_steps,omitempty"`
	TimeLimit string               `json:"time_limit,omitempty"`
}

// NegotiatorJoinedPayload accompanies TypeNegotiatorJoined.
type NegotiatorJoinedPayload struct {
	Negotiator negotiation.Handle `json:"negotiator"`
	Position   int                `json:"position"`
}

// OfferProposedPayload accompanies TypeOfferProposed.
type OfferProposedPayload struct {
	Round    int                `json:"round"`
	Proposer negotiation.Handle `json:"proposer"`
	Offer    outcome.Outcome    `json:"offer"`
}

// ResponseRecordedPayload accompanies TypeResponseRecorded.
type ResponseRecordedPayload struct {
	Round      int                      `json:"round"`
	Negotiator negotiation.Handle       `json:"negotiator"`
	Kind       negotiation.ResponseKind `json:"kind"`
	Offer      outcome.Outcome          `json:"offer,omitempty"`
}

// RoundCompletedPayload accompanies TypeRoundCompleted.
type RoundCompletedPayload struct {
	Round negotiation.Round `json:"round"`
}

// SessionAgreedPayload accompanies TypeSessionAgreed.
type SessionAgreedPayload struct {
	Round     int             `json:"round"`
	Agreement outcome.Outcome `json:"agreement"`
}

// SessionBrokenPayload accompanies TypeSessionBroken.
type SessionBrokenPayload struct {
	Round   int    `json:"round"`
	Details string `json:"details,omitempty"`
}

// SessionTimedOutPayload accompanies TypeSessionTimedOut.
type SessionTimedOutPayload struct {
	Round int `json:"round"`
}

// SessionErroredPayload accompanies TypeSessionErrored.
type SessionErroredPayload struct {
	Round   int    `json:"round"`
	Details string `json:"details"`
}
