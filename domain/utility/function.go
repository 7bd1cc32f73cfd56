// Package utility provides the utility function capability consumed by the
// negotiation mechanism.
package utility

import (
	"errors"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// ErrOutsideDomain indicates a utility function was asked to score an
// outcome it is not defined for. The mechanism treats this as a
// negotiator-capability fault, never as an engine crash.
var ErrOutsideDomain = errors.New("outcome outside utility domain")

// Function scores outcomes for one negotiator. Implementations must be pure:
// no side effects, same score for the same outcome.
type Function interface {
	// Evaluate returns the utility of the outcome, or ErrOutsideDomain for
	// outcomes the function is not defined over.
	Evaluate(o outcome.Outcome) (float64, error)
}

// Func adapts a plain function to the Function interface.
type Func func(o outcome.Outcome) (float64, error)

// Evaluate implements Function.
func (f Func) Evaluate(o outcome.Outcome) (float64, error) {
	return f(o)
}
