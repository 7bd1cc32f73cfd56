// Package negotiation provides the core domain model for negotiation
// sessions.
package negotiation

// Phase identifies where a session is in its lifecycle. Phases are
// identified by stable strings usable in logs and event payloads.
type Phase string

// Canonical phases. The four terminal phases are absorbing: once entered,
// the session is frozen and further steps are no-ops.
const (
	PhaseCreated  Phase = "created"  // Constructed, no step taken
	PhaseRunning  Phase = "running"  // Rounds in progress
	PhaseAgreed   Phase = "agreed"   // Terminal: agreement reached
	PhaseBroken   Phase = "broken"   // Terminal: a negotiator ended it
	PhaseTimedOut Phase = "timedout" // Terminal: budget exhausted
	PhaseErrored  Phase = "errored"  // Terminal: negotiator fault absorbed
)

// IsTerminal returns true for absorbing phases.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseAgreed, PhaseBroken, PhaseTimedOut, PhaseErrored:
		return true
	default:
		return false
	}
}

// IsValid returns true if the phase is a recognized canonical phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseCreated, PhaseRunning, PhaseAgreed, PhaseBroken, PhaseTimedOut, PhaseErrored:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AllPhases returns all canonical phases.
func AllPhases() []Phase {
	return []Phase{
		PhaseCreated,
		PhaseRunning,
		PhaseAgreed,
		PhaseBroken,
		PhaseTimedOut,
		PhaseErrored,
	}
}

// TerminalPhases returns all absorbing phases.
func TerminalPhases() []Phase {
	return []Phase{PhaseAgreed, PhaseBroken, PhaseTimedOut, PhaseErrored}
}
