package negotiation

import "time"

// Deadline holds the session budgets: a round budget, a wall-clock budget,
// or both. A zero value means the budget is not configured; at least one
// must be.
type Deadline struct {
	MaxSteps  int
	TimeLimit time.Duration
}

// Valid returns true if at least one budget is configured.
func (d Deadline) Valid() bool {
	return d.MaxSteps > 0 || d.TimeLimit > 0
}

// Relative converts progress into elapsed relative time in [0, 1]. With
// both budgets configured it follows the more exhausted one, so reaching
// either budget drives relative time to 1.
func (d Deadline) Relative(step int, elapsed time.Duration) float64 {
	var rel float64
	if d.MaxSteps > 0 {
		rel = float64(step) / float64(d.MaxSteps)
	}
	if d.TimeLimit > 0 {
		if byTime := float64(elapsed) / float64(d.TimeLimit); byTime > rel {
			rel = byTime
		}
	}
	if rel > 1 {
		rel = 1
	}
	return rel
}

// Exhausted returns true once either configured budget is spent.
func (d Deadline) Exhausted(step int, elapsed time.Duration) bool {
	if d.MaxSteps > 0 && step >= d.MaxSteps {
		return true
	}
	if d.TimeLimit > 0 && elapsed >= d.TimeLimit {
		return true
	}
	return false
}
