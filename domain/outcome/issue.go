// Package outcome provides the core domain model for outcome spaces.
package outcome

import "strconv"

// Issue is one negotiable dimension with a finite domain of values.
// Issues are immutable once a space is constructed from them.
type Issue struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// NewIssue creates an issue from an enumerated value set.
func NewIssue(name string, values ...string) Issue {
	vs := make([]string, len(values))
	copy(vs, values)
	return Issue{Name: name, Values: vs}
}

// NewRangeIssue creates an issue whose domain is the integer range [lo, hi],
// rendered as decimal strings in ascending order.
func NewRangeIssue(name string, lo, hi int) Issue {
	if hi < lo {
		lo, hi = hi, lo
	}
	values := make([]string, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, strconv.Itoa(v))
	}
	return Issue{Name: name, Values: values}
}

// Cardinality returns the number of values in the issue's domain.
func (i Issue) Cardinality() int {
	return len(i.Values)
}

// HasValue returns true if v is in the issue's domain.
func (i Issue) HasValue(v string) bool {
	for _, candidate := range i.Values {
		if candidate == v {
			return true
		}
	}
	return false
}
