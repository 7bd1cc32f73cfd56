package outcome

import "strings"

// keySeparator joins values into a map key. The unit separator control
// character cannot appear in sane issue values, so joined keys stay unique.
const keySeparator = "\x1f"

// Outcome is one concrete potential agreement: an ordered tuple holding one
// value per issue, in issue-declaration order.
type Outcome []string

// New creates an outcome from the given values.
func New(values ...string) Outcome {
	o := make(Outcome, len(values))
	copy(o, values)
	return o
}

// Key returns a stable string key usable in maps and sets. Two outcomes have
// the same key exactly when they are equal.
func (o Outcome) Key() string {
	return strings.Join(o, keySeparator)
}

// Equal compares two outcomes by value.
func (o Outcome) Equal(other Outcome) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the outcome.
func (o Outcome) Clone() Outcome {
	if o == nil {
		return nil
	}
	c := make(Outcome, len(o))
	copy(c, o)
	return c
}

// String renders the outcome as a compact tuple.
func (o Outcome) String() string {
	return "(" + strings.Join(o, ", ") + ")"
}

// FromKey reverses Key, reconstructing the outcome tuple.
func FromKey(key string) Outcome {
	if key == "" {
		return nil
	}
	return Outcome(strings.Split(key, keySeparator))
}
