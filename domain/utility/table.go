package utility

import (
	"fmt"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Table scores outcomes through an explicit outcome-to-score mapping.
type Table struct {
	scores map[string]float64
}

// Entry pairs one outcome with its score.
type Entry struct {
	Outcome outcome.Outcome
	Score   float64
}

// NewTable creates a table utility. Outcomes absent from the entries are
// outside the function's domain.
func NewTable(entries []Entry) *Table {
	t := &Table{scores: make(map[string]float64, len(entries))}
	for _, e := range entries {
		t.scores[e.Outcome.Key()] = e.Score
	}
	return t
}

// Set adds or replaces the score for an outcome. Intended for construction
// only; a Table handed to a negotiator must no longer be mutated.
func (t *Table) Set(o outcome.Outcome, score float64) {
	t.scores[o.Key()] = score
}

// Evaluate implements Function.
func (t *Table) Evaluate(o outcome.Outcome) (float64, error) {
	score, ok := t.scores[o.Key()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOutsideDomain, o)
	}
	return score, nil
}

// Opposite inverts another utility function: Evaluate returns 1 - u. It
// gives tests and examples a pair of strictly opposing preferences.
type Opposite struct {
	inner Function
}

// NewOpposite wraps fn with the opposing preference.
func NewOpposite(fn Function) *Opposite {
	return &Opposite{inner: fn}
}

// Evaluate implements Function.
func (op *Opposite) Evaluate(o outcome.Outcome) (float64, error) {
	v, err := op.inner.Evaluate(o)
	if err != nil {
		return 0, err
	}
	return 1 - v, nil
}
