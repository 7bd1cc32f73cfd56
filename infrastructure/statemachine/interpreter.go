package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToPhase   negotiation.Phase
	Reason    string
	Agreement outcome.Outcome
}

// Interpreter wraps the statekit interpreter with session-specific functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the session state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	// Update the context reference in the machine
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current phase.
func (i *Interpreter) Phase() negotiation.Phase {
	state := i.interp.State()
	return PhaseFromMachine(state.Value)
}

// Begin transitions the session from created to running.
func (i *Interpreter) Begin() error {
	return i.send(negotiation.PhaseRunning, TransitionPayload{ToPhase: negotiation.PhaseRunning})
}

// Agree terminates the session with an agreement.
func (i *Interpreter) Agree(agreement outcome.Outcome) error {
	return i.send(negotiation.PhaseAgreed, TransitionPayload{
		ToPhase:   negotiation.PhaseAgreed,
		Agreement: agreement,
	})
}

// Break terminates the session without agreement.
func (i *Interpreter) Break(reason string) error {
	return i.send(negotiation.PhaseBroken, TransitionPayload{
		ToPhase: negotiation.PhaseBroken,
		Reason:  reason,
	})
}

// Timeout terminates the session because the budget ran out.
func (i *Interpreter) Timeout() error {
	return i.send(negotiation.PhaseTimedOut, TransitionPayload{ToPhase: negotiation.PhaseTimedOut})
}

// Fail terminates the session with an error.
func (i *Interpreter) Fail(reason string) error {
	return i.send(negotiation.PhaseErrored, TransitionPayload{
		ToPhase: negotiation.PhaseErrored,
		Reason:  reason,
	})
}

func (i *Interpreter) send(to negotiation.Phase, payload TransitionPayload) error {
	before := i.Phase()

	i.interp.Send(statekit.Event{
		Type:    EventForPhase(to),
		Payload: payload,
	})

	after := i.Phase()
	if after == before && before != to {
		return fmt.Errorf("transition from %s to %s not allowed", before, to)
	}
	return nil
}

// IsTerminal returns true if the interpreter is in a terminal state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Matches checks if the current phase matches the given phase.
func (i *Interpreter) Matches(phase negotiation.Phase) bool {
	return i.interp.Matches(statekit.StateID(phase))
}

// ResumeFrom restores the interpreter to a specific phase. This is used when
// rebuilding a session from a persisted event stream.
func (i *Interpreter) ResumeFrom(phase negotiation.Phase) error {
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "session",
		CurrentState: statekit.StateID(phase),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}

	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore phase: %w", err)
	}

	return nil
}
