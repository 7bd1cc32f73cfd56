package negotiation

import (
	"time"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Session is the mechanism-owned aggregate for one negotiation instance.
// All mutation happens through the mechanism's step operation; everyone
// else sees State snapshots.
type Session struct {
	ID              string
	Phase           Phase
	Started         bool
	Step            int
	RelativeTime    float64
	CurrentOffer    outcome.Outcome
	CurrentProposer Handle
	Agreement       outcome.Outcome
	Waiting         bool
	ErrorDetails    string
	Acceptances     int
	StartTime       time.Time
	EndTime         time.Time
}

// NewSession creates a session in the created phase.
func NewSession(id string) *Session {
	return &Session{
		ID:    id,
		Phase: PhaseCreated,
	}
}

// Start marks the session running. Called on the first step.
func (s *Session) Start() {
	s.Phase = PhaseRunning
	s.Started = true
	s.StartTime = time.Now()
}

// Terminal returns true once the session is frozen.
func (s *Session) Terminal() bool {
	return s.Phase.IsTerminal()
}

// MarkAgreed freezes the session with the given agreement.
func (s *Session) MarkAgreed(agreement outcome.Outcome) {
	s.Agreement = agreement.Clone()
	s.Phase = PhaseAgreed
	s.Waiting = false
	s.EndTime = time.Now()
}

// MarkBroken freezes the session after an explicit end-negotiation.
func (s *Session) MarkBroken(details string) {
	s.Phase = PhaseBroken
	s.ErrorDetails = details
	s.Waiting = false
	s.EndTime = time.Now()
}

// MarkTimedOut freezes the session after budget exhaustion.
func (s *Session) MarkTimedOut() {
	s.Phase = PhaseTimedOut
	s.Waiting = false
	s.EndTime = time.Now()
}

// MarkErrored freezes the session after an absorbed negotiator fault. The
// resulting state reports broken with error details, per the fault
// isolation contract.
func (s *Session) MarkErrored(details string) {
	s.Phase = PhaseErrored
	s.ErrorDetails = details
	s.Waiting = false
	s.EndTime = time.Now()
}

// Duration returns the session's elapsed time.
func (s *Session) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// State returns a read-only snapshot with derived termination flags. Broken
// covers both an explicit break and an absorbed fault; HasError is set only
// for the latter, so the terminal cause stays unambiguous.
func (s *Session) State() SessionState {
	return SessionState{
		SessionID:       s.ID,
		Phase:           s.Phase,
		Running:         s.Phase == PhaseRunning,
		Started:         s.Started,
		Step:            s.Step,
		RelativeTime:    s.RelativeTime,
		CurrentOffer:    s.CurrentOffer.Clone(),
		CurrentProposer: s.CurrentProposer,
		Agreement:       s.Agreement.Clone(),
		Broken:          s.Phase == PhaseBroken || s.Phase == PhaseErrored,
		TimedOut:        s.Phase == PhaseTimedOut,
		Waiting:         s.Waiting,
		HasError:        s.ErrorDetails != "" && s.Phase == PhaseErrored,
		ErrorDetails:    s.ErrorDetails,
		Acceptances:     s.Acceptances,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
	}
}

// SessionState is an immutable snapshot of a session, safe to share with
// negotiators, visualizers, and stores.
type SessionState struct {
	SessionID       string          `json:"session_id"`
	Phase           Phase           `json:"phase"`
	Running         bool            `json:"running"`
	Started         bool            `json:"started"`
	Step            int             `json:"step"`
	RelativeTime    float64         `json:"relative_time"`
	CurrentOffer    outcome.Outcome `json:"current_offer,omitempty"`
	CurrentProposer Handle          `json:"current_proposer,omitempty"`
	Agreement       outcome.Outcome `json:"agreement,omitempty"`
	Broken          bool            `json:"broken"`
	TimedOut        bool            `json:"timedout"`
	Waiting         bool            `json:"waiting"`
	HasError        bool            `json:"has_error"`
	ErrorDetails    string          `json:"error_details,omitempty"`
	Acceptances     int             `json:"acceptances"`
	StartTime       time.Time       `json:"start_time,omitempty"`
	EndTime         time.Time       `json:"end_time,omitempty"`
}

// Terminal returns true once the snapshot describes a frozen session.
func (st SessionState) Terminal() bool {
	return st.Phase.IsTerminal()
}

// Equal compares the protocol-relevant fields of two snapshots. Timestamps
// are ignored so that frozen states compare stable across reads.
func (st SessionState) Equal(other SessionState) bool {
	return st.SessionID == other.SessionID &&
		st.Phase == other.Phase &&
		st.Running == other.Running &&
		st.Started == other.Started &&
		st.Step == other.Step &&
		st.CurrentOffer.Equal(other.CurrentOffer) &&
		st.CurrentProposer == other.CurrentProposer &&
		st.Agreement.Equal(other.Agreement) &&
		st.Broken == other.Broken &&
		st.TimedOut == other.TimedOut &&
		st.Waiting == other.Waiting &&
		st.HasError == other.HasError &&
		st.ErrorDetails == other.ErrorDetails &&
		st.Acceptances == other.Acceptances
}
