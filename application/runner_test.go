package application_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/negotiate-go/application"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	const sessions = 8

	mechanisms := make([]*application.Mechanism, sessions)
	for i := range mechanisms {
		mechanisms[i] = agreedMechanism(t, nil)
	}

	results := application.NewRunner(3).Run(context.Background(), mechanisms)

	if len(results) != sessions {
		t.Fatalf("len(results) = %d, want %d", len(results), sessions)
	}
	for i, res := range results {
		if res.Err != nil {
			t.Errorf("results[%d].Err = %v, want nil", i, res.Err)
		}
		if res.SessionID != mechanisms[i].SessionID() {
			t.Errorf("results[%d].SessionID = %s, want %s (input order preserved)",
				i, res.SessionID, mechanisms[i].SessionID())
		}
		if res.State.Phase != negotiation.PhaseAgreed {
			t.Errorf("results[%d].Phase = %v, want agreed", i, res.State.Phase)
		}
	}
}

func TestRunner_DefaultConcurrency(t *testing.T) {
	t.Parallel()

	mechanisms := []*application.Mechanism{agreedMechanism(t, nil)}
	results := application.NewRunner(0).Run(context.Background(), mechanisms)

	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Run() = %+v, want one clean result", results)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mechanisms := make([]*application.Mechanism, 4)
	for i := range mechanisms {
		mechanisms[i] = agreedMechanism(t, nil)
	}

	results := application.NewRunner(1).Run(ctx, mechanisms)

	for i, res := range results {
		if res.Err == nil && !res.State.Terminal() {
			t.Errorf("results[%d] neither errored nor terminal after cancel", i)
		}
	}
}
