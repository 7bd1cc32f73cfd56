// Package negotiator provides reference strategy implementations.
package negotiator

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// ScriptStep defines an expected step and the response to return.
type ScriptStep struct {
	// ExpectStep asserts the session is at this step before responding.
	// A negative value skips the check.
	ExpectStep int

	// Response is the response to return.
	Response negotiation.Response

	// Condition is an optional additional condition that must be true.
	Condition func(negotiation.View) bool
}

// Scripted executes a predefined response sequence for deterministic testing.
type Scripted struct {
	steps        []ScriptStep
	index        int
	onExhausted  func(negotiation.View) negotiation.Response
	mu           sync.Mutex
}

// NewScripted creates a scripted negotiator with the given steps.
func NewScripted(steps ...ScriptStep) *Scripted {
	return &Scripted{
		steps: steps,
		onExhausted: func(_ negotiation.View) negotiation.Response {
			return negotiation.NewEndResponse()
		},
	}
}

// OnExhausted sets the response handler used once the script runs out.
func (s *Scripted) OnExhausted(handler func(negotiation.View) negotiation.Response) *Scripted {
	s.onExhausted = handler
	return s
}

// Respond returns the next scripted response if the step matches expectations.
func (s *Scripted) Respond(_ context.Context, view negotiation.View) (negotiation.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.steps) {
		return s.onExhausted(view), nil
	}

	step := s.steps[s.index]

	if step.ExpectStep >= 0 && step.ExpectStep != view.Step {
		return negotiation.Response{}, &UnexpectedStepError{
			Expected:  step.ExpectStep,
			Actual:    view.Step,
			StepIndex: s.index,
		}
	}

	if step.Condition != nil && !step.Condition(view) {
		return negotiation.Response{}, &ConditionFailedError{
			StepIndex: s.index,
			Step:      view.Step,
		}
	}

	s.index++
	return step.Response, nil
}

// Reset resets the script to the beginning.
func (s *Scripted) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
}

// CurrentStep returns the current script index.
func (s *Scripted) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// IsComplete returns true if all steps have been executed.
func (s *Scripted) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.steps)
}

// UnexpectedStepError indicates the negotiator was invoked at an unexpected
// session step.
type UnexpectedStepError struct {
	Expected  int
	Actual    int
	StepIndex int
}

func (e *UnexpectedStepError) Error() string {
	return fmt.Sprintf("unexpected session step at script index %d: expected %d, got %d", e.StepIndex, e.Expected, e.Actual)
}

// ConditionFailedError indicates a step condition was not met.
type ConditionFailedError struct {
	StepIndex int
	Step      int
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition failed at script index %d on session step %d", e.StepIndex, e.Step)
}
