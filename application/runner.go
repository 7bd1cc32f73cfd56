package application

import (
	"context"
	"runtime"
	"sync"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

// Result pairs one finished session with its terminal snapshot. Err is set
// only for configuration failures or context cancellation; negotiator
// faults land in State as usual.
type Result struct {
	SessionID string
	State     negotiation.SessionState
	Err       error
}

// Runner drives many mechanisms to completion with bounded concurrency.
// Each mechanism runs on its own goroutine; a semaphore caps how many are
// in flight at once.
type Runner struct {
	concurrency int
}

// NewRunner creates a runner. A non-positive concurrency defaults to the
// number of CPUs.
func NewRunner(concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Runner{concurrency: concurrency}
}

// Run executes every mechanism to a terminal state and returns results in
// input order. Cancelling the context stops scheduling new sessions and
// interrupts running ones between rounds.
func (r *Runner) Run(ctx context.Context, mechanisms []*Mechanism) []Result {
	results := make([]Result, len(mechanisms))
	sem := make(chan struct{}, r.concurrency)

	var wg sync.WaitGroup
	for i, m := range mechanisms {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result{SessionID: m.SessionID(), State: m.State(), Err: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(i int, m *Mechanism) {
			defer wg.Done()
			defer func() { <-sem }()

			state, err := m.Run(ctx)
			results[i] = Result{SessionID: m.SessionID(), State: state, Err: err}
		}(i, m)
	}
	wg.Wait()

	return results
}
