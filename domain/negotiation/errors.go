package negotiation

import "errors"

// Domain errors for session configuration and registration.
var (
	// ErrNoBudget indicates a session was configured without a round or
	// wall-clock budget. Unbounded negotiations are invalid.
	ErrNoBudget = errors.New("session requires a step or time budget")

	// ErrSessionStarted indicates registration was attempted after the
	// session left the created phase under a protocol that forbids late
	// joining.
	ErrSessionStarted = errors.New("session already started")

	// ErrCapacity indicates registration would exceed the protocol's
	// negotiator limit.
	ErrCapacity = errors.New("negotiator capacity reached")

	// ErrNotEnoughParties indicates the roster is below the protocol's
	// minimum when stepping begins.
	ErrNotEnoughParties = errors.New("not enough negotiators registered")

	// ErrNilNegotiator indicates a nil negotiator capability at Add.
	ErrNilNegotiator = errors.New("negotiator is nil")

	// ErrNilUtility indicates a nil utility function at Add.
	ErrNilUtility = errors.New("utility function is nil")

	// ErrSessionNotFound indicates a session store lookup missed.
	ErrSessionNotFound = errors.New("session not found")
)
