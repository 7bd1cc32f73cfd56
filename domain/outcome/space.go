package outcome

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
)

// SizeCap is the sentinel returned by Size for spaces too large to count
// exactly. Spaces at or above the cap are treated as effectively unbounded
// for sampling purposes.
const SizeCap = math.MaxInt

// Space is the set of all outcomes induced by an ordered list of issues.
// It is immutable after construction.
type Space struct {
	issues []Issue
	byName map[string]int
	size   int
}

// NewSpace constructs a space from the given issues. It fails if no issues
// are supplied, if any issue has an empty domain, or if issue names collide.
func NewSpace(issues ...Issue) (*Space, error) {
	if len(issues) == 0 {
		return nil, ErrNoIssues
	}

	s := &Space{
		issues: make([]Issue, len(issues)),
		byName: make(map[string]int, len(issues)),
	}
	copy(s.issues, issues)

	size := 1
	for i, issue := range s.issues {
		if issue.Cardinality() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyDomain, issue.Name)
		}
		if _, exists := s.byName[issue.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIssue, issue.Name)
		}
		s.byName[issue.Name] = i

		if size >= SizeCap/issue.Cardinality() {
			size = SizeCap
		} else {
			size *= issue.Cardinality()
		}
	}
	s.size = size

	return s, nil
}

// Issues returns a copy of the issue list in declaration order.
func (s *Space) Issues() []Issue {
	issues := make([]Issue, len(s.issues))
	copy(issues, s.issues)
	return issues
}

// IssueIndex returns the position of the named issue, or -1.
func (s *Space) IssueIndex(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// Size returns the number of outcomes in the space, or SizeCap when the
// product of issue cardinalities exceeds the cap.
func (s *Space) Size() int {
	return s.size
}

// Finite returns true if the space can be enumerated exactly.
func (s *Space) Finite() bool {
	return s.size < SizeCap
}

// Contains reports whether the outcome belongs to the space: correct arity
// and every value inside its issue's domain.
func (s *Space) Contains(o Outcome) bool {
	if len(o) != len(s.issues) {
		return false
	}
	for i, v := range o {
		if !s.issues[i].HasValue(v) {
			return false
		}
	}
	return true
}

// Enumerate yields every outcome in issue-major lexicographic order: the
// first issue varies slowest, the last fastest. The sequence is lazy and
// restartable; every yielded outcome passes Contains.
func (s *Space) Enumerate() iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		indexes := make([]int, len(s.issues))
		for {
			o := make(Outcome, len(s.issues))
			for i, idx := range indexes {
				o[i] = s.issues[i].Values[idx]
			}
			if !yield(o) {
				return
			}

			// Odometer increment, last issue fastest.
			pos := len(indexes) - 1
			for pos >= 0 {
				indexes[pos]++
				if indexes[pos] < s.issues[pos].Cardinality() {
					break
				}
				indexes[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}
}

// At returns the outcome at the given position in enumeration order.
func (s *Space) At(index int) (Outcome, error) {
	if index < 0 || (s.Finite() && index >= s.size) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	o := make(Outcome, len(s.issues))
	for i := len(s.issues) - 1; i >= 0; i-- {
		card := s.issues[i].Cardinality()
		o[i] = s.issues[i].Values[index%card]
		index /= card
	}
	return o, nil
}

// Random draws a single outcome uniformly at random.
func (s *Space) Random(rng *rand.Rand) Outcome {
	o := make(Outcome, len(s.issues))
	for i, issue := range s.issues {
		o[i] = issue.Values[rng.IntN(issue.Cardinality())]
	}
	return o
}

// samplePermCutoff bounds the index permutation in Sample. Larger spaces
// draw by rejection so the cost scales with n, not with the space size.
const samplePermCutoff = 1 << 16

// Sample draws n outcomes. For finite spaces the draw is without
// replacement; if n meets or exceeds the space size, every outcome is
// returned in a shuffled order. For effectively unbounded spaces the draws
// are independent.
func (s *Space) Sample(n int, rng *rand.Rand) []Outcome {
	if n <= 0 {
		return nil
	}

	if !s.Finite() {
		outcomes := make([]Outcome, n)
		for i := range outcomes {
			outcomes[i] = s.Random(rng)
		}
		return outcomes
	}

	if n > s.size {
		n = s.size
	}
	if s.size <= samplePermCutoff || n > s.size/2 {
		perm := rng.Perm(s.size)
		outcomes := make([]Outcome, n)
		for i := 0; i < n; i++ {
			o, _ := s.At(perm[i]) // index from Perm is always in range
			outcomes[i] = o
		}
		return outcomes
	}

	// Large space, small draw: rejection-sample distinct indexes instead of
	// permuting the whole index range.
	seen := make(map[int]struct{}, n)
	outcomes := make([]Outcome, 0, n)
	for len(outcomes) < n {
		idx := rng.IntN(s.size)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		o, _ := s.At(idx)
		outcomes = append(outcomes, o)
	}
	return outcomes
}
