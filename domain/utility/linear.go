package utility

import (
	"fmt"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

// Linear is an additive utility function: the weighted sum of per-issue
// value scores. All configuration is owned data set at construction.
type Linear struct {
	issues  []string
	weights map[string]float64
	scores  map[string]map[string]float64
}

// NewLinear creates a linear utility over the given space. weights maps
// issue name to weight (missing issues default to 1.0); scores maps issue
// name to value-score table. Outcomes holding a value with no score entry
// are outside the function's domain.
func NewLinear(space *outcome.Space, weights map[string]float64, scores map[string]map[string]float64) *Linear {
	issues := space.Issues()
	names := make([]string, len(issues))
	for i, issue := range issues {
		names[i] = issue.Name
	}

	l := &Linear{
		issues:  names,
		weights: make(map[string]float64, len(weights)),
		scores:  make(map[string]map[string]float64, len(scores)),
	}
	for k, v := range weights {
		l.weights[k] = v
	}
	for issue, table := range scores {
		owned := make(map[string]float64, len(table))
		for value, score := range table {
			owned[value] = score
		}
		l.scores[issue] = owned
	}
	return l
}

// Evaluate implements Function.
func (l *Linear) Evaluate(o outcome.Outcome) (float64, error) {
	if len(o) != len(l.issues) {
		return 0, fmt.Errorf("%w: arity %d, expected %d", ErrOutsideDomain, len(o), len(l.issues))
	}

	var total float64
	for i, name := range l.issues {
		table, ok := l.scores[name]
		if !ok {
			continue // unscored issue contributes nothing
		}
		score, ok := table[o[i]]
		if !ok {
			return 0, fmt.Errorf("%w: issue %s value %q", ErrOutsideDomain, name, o[i])
		}

		weight := 1.0
		if w, ok := l.weights[name]; ok {
			weight = w
		}
		total += weight * score
	}
	return total, nil
}
