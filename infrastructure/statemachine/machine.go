// Package statemachine provides the statekit integration for the session lifecycle.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Context carries session state through the state machine.
type Context struct {
	Session  *negotiation.Session
	Trace    *negotiation.Trace
	Deadline negotiation.Deadline
	Parties  int
	// MinParties is the active policy's roster minimum. Values below one
	// are treated as one.
	MinParties int
}

// NewContext creates a new machine context.
func NewContext(session *negotiation.Session, trace *negotiation.Trace, deadline negotiation.Deadline) *Context {
	return &Context{
		Session:  session,
		Trace:    trace,
		Deadline: deadline,
	}
}

// State IDs as StateID type for statekit.
const (
	stateCreated  statekit.StateID = statekit.StateID(negotiation.PhaseCreated)
	stateRunning  statekit.StateID = statekit.StateID(negotiation.PhaseRunning)
	stateAgreed   statekit.StateID = statekit.StateID(negotiation.PhaseAgreed)
	stateBroken   statekit.StateID = statekit.StateID(negotiation.PhaseBroken)
	stateTimedOut statekit.StateID = statekit.StateID(negotiation.PhaseTimedOut)
	stateErrored  statekit.StateID = statekit.StateID(negotiation.PhaseErrored)
)

// NewSessionMachine creates the canonical session statechart.
func NewSessionMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("session").
		WithInitial(stateCreated).
		WithContext(&Context{}).
		// Register actions
		WithAction("syncPhase", syncPhase).
		// Register guards
		WithGuard("hasParties", guardHasParties).
		WithGuard("budgetAvailable", guardBudgetAvailable).
		// Define states
		State(stateCreated).
			On("START").Target(stateRunning).Guard("hasParties").Guard("budgetAvailable").Do("syncPhase").
			On("ERROR").Target(stateErrored).Do("syncPhase").
			Done().
		State(stateRunning).
			On("AGREE").Target(stateAgreed).Do("syncPhase").
			On("BREAK").Target(stateBroken).Do("syncPhase").
			On("TIMEOUT").Target(stateTimedOut).Do("syncPhase").
			On("ERROR").Target(stateErrored).Do("syncPhase").
			Done().
		State(stateAgreed).
			Final().
			Done().
		State(stateBroken).
			Final().
			Done().
		State(stateTimedOut).
			Final().
			Done().
		State(stateErrored).
			Final().
			Done().
		Build()
}

// EventForPhase returns the event type that transitions into a phase.
func EventForPhase(to negotiation.Phase) statekit.EventType {
	switch to {
	case negotiation.PhaseRunning:
		return "START"
	case negotiation.PhaseAgreed:
		return "AGREE"
	case negotiation.PhaseBroken:
		return "BREAK"
	case negotiation.PhaseTimedOut:
		return "TIMEOUT"
	case negotiation.PhaseErrored:
		return "ERROR"
	default:
		return statekit.EventType(to)
	}
}

// PhaseFromMachine converts the machine state ID to a domain Phase.
func PhaseFromMachine(stateID statekit.StateID) negotiation.Phase {
	return negotiation.Phase(stateID)
}
