package protocol_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/domain/protocol"
)

func testSpace(t *testing.T) *outcome.Space {
	t.Helper()

	s, err := outcome.NewSpace(outcome.NewRangeIssue("price", 1, 10))
	if err != nil {
		t.Fatalf("NewSpace() error = %v", err)
	}
	return s
}

func testRoster(n int) []negotiation.Handle {
	roster := make([]negotiation.Handle, n)
	for i := range roster {
		roster[i] = negotiation.NewHandle("agent")
	}
	return roster
}

func newRules(t *testing.T, n int) protocol.Rules {
	t.Helper()

	rules, err := protocol.NewSAOP().NewRules(testRoster(n), testSpace(t))
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}
	return rules
}

func TestSAOP_Policy(t *testing.T) {
	t.Parallel()

	p := protocol.NewSAOP()
	if p.Name() != protocol.NameSAOP {
		t.Errorf("Name() = %s, want %s", p.Name(), protocol.NameSAOP)
	}
	if p.MinParties() != 2 {
		t.Errorf("MinParties() = %d, want 2", p.MinParties())
	}
	if p.MaxParties() != 0 {
		t.Errorf("MaxParties() = %d, want 0", p.MaxParties())
	}
	if p.AllowsLateJoin() {
		t.Error("SAOP must forbid late joining")
	}

	t.Run("rejects roster below minimum", func(t *testing.T) {
		t.Parallel()

		_, err := p.NewRules(testRoster(1), testSpace(t))
		if !errors.Is(err, protocol.ErrRosterTooSmall) {
			t.Errorf("NewRules() error = %v, want ErrRosterTooSmall", err)
		}
	})
}

func TestSAOP_TurnOrder(t *testing.T) {
	t.Parallel()

	t.Run("round robin from registration order", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 3)

		got := rules.Turn()
		want := []int{0, 1, 2}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Turn() = %v, want %v", got, want)
			}
		}

		// Without a counter the opener rotates.
		got = rules.Turn()
		want = []int{1, 2, 0}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("second Turn() = %v, want %v", got, want)
			}
		}
	})

	t.Run("counter-offerer opens the next round", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 3)
		rules.Turn()

		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("5")))
		ruling := rules.Apply(1, negotiation.NewOfferResponse(outcome.New("7")))
		if ruling.Kind != protocol.RulingNextRound {
			t.Fatalf("counter ruling = %v, want next_round", ruling.Kind)
		}

		got := rules.Turn()
		if got[0] != 1 {
			t.Errorf("next round opener = %d, want 1", got[0])
		}
	})
}

func TestSAOP_Apply(t *testing.T) {
	t.Parallel()

	t.Run("all responders accepting forms agreement", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 3)
		rules.Turn()

		if r := rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4"))); r.Kind != protocol.RulingContinue {
			t.Fatalf("proposal ruling = %v, want continue", r.Kind)
		}
		if r := rules.Apply(1, negotiation.NewAcceptResponse()); r.Kind != protocol.RulingContinue {
			t.Fatalf("first accept ruling = %v, want continue", r.Kind)
		}
		r := rules.Apply(2, negotiation.NewAcceptResponse())
		if r.Kind != protocol.RulingAgreement {
			t.Fatalf("final accept ruling = %v, want agreement", r.Kind)
		}

		standing, proposer := rules.Standing()
		if !standing.Equal(outcome.New("4")) || proposer != 0 {
			t.Errorf("Standing() = %v, %d", standing, proposer)
		}
	})

	t.Run("counter resets the acceptance tally", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 3)
		rules.Turn()

		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4")))
		rules.Apply(1, negotiation.NewAcceptResponse())
		if rules.Acceptances() != 1 {
			t.Fatalf("Acceptances() = %d, want 1", rules.Acceptances())
		}

		rules.Apply(2, negotiation.NewOfferResponse(outcome.New("9")))
		if rules.Acceptances() != 0 {
			t.Errorf("Acceptances() after counter = %d, want 0", rules.Acceptances())
		}
	})

	t.Run("repeated accepts by one responder count once", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 3)
		rules.Turn()

		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4")))
		rules.Apply(1, negotiation.NewAcceptResponse())
		rules.Apply(2, negotiation.NewRejectResponse())

		rules.Turn()
		if r := rules.Apply(1, negotiation.NewAcceptResponse()); r.Kind == protocol.RulingAgreement {
			t.Error("a single responder accepting twice must not form agreement")
		}
		if rules.Acceptances() != 1 {
			t.Errorf("Acceptances() = %d, want 1", rules.Acceptances())
		}
	})

	t.Run("silent reject continues the round", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 2)
		rules.Turn()

		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4")))
		if r := rules.Apply(1, negotiation.NewRejectResponse()); r.Kind != protocol.RulingContinue {
			t.Errorf("reject ruling = %v, want continue", r.Kind)
		}
	})

	t.Run("end breaks the session", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 2)
		rules.Turn()

		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4")))
		if r := rules.Apply(1, negotiation.NewEndResponse()); r.Kind != protocol.RulingBroken {
			t.Errorf("end ruling = %v, want broken", r.Kind)
		}
	})

	t.Run("malformed response is a break", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 2)
		rules.Turn()

		tests := []struct {
			name string
			resp negotiation.Response
		}{
			{"unknown kind", negotiation.Response{Kind: "perhaps"}},
			{"offer without outcome", negotiation.Response{Kind: negotiation.ResponseOffer}},
			{"accept before any offer", negotiation.NewAcceptResponse()},
			{"offer outside the space", negotiation.NewOfferResponse(outcome.New("999"))},
		}
		for _, tt := range tests {
			if r := rules.Apply(0, tt.resp); r.Kind != protocol.RulingBroken {
				t.Errorf("%s: ruling = %v, want broken", tt.name, r.Kind)
			}
		}
	})

	t.Run("self accept keeps the standing offer", func(t *testing.T) {
		t.Parallel()

		rules := newRules(t, 2)
		rules.Turn()
		rules.Apply(0, negotiation.NewOfferResponse(outcome.New("4")))
		rules.Apply(1, negotiation.NewOfferResponse(outcome.New("6")))

		// Round two: the counter-offerer may maintain its own offer.
		rules.Turn()
		if r := rules.Apply(1, negotiation.NewAcceptResponse()); r.Kind != protocol.RulingContinue {
			t.Fatalf("self accept ruling = %v, want continue", r.Kind)
		}
		standing, proposer := rules.Standing()
		if !standing.Equal(outcome.New("6")) || proposer != 1 {
			t.Errorf("Standing() = %v, %d; want (6), 1", standing, proposer)
		}
	})
}

func TestByName(t *testing.T) {
	t.Parallel()

	if p, err := protocol.ByName("saop"); err != nil || p.Name() != protocol.NameSAOP {
		t.Errorf("ByName(saop) = %v, %v", p, err)
	}
	if p, err := protocol.ByName(""); err != nil || p.Name() != protocol.NameSAOP {
		t.Errorf("ByName(\"\") = %v, %v; want saop default", p, err)
	}
	if _, err := protocol.ByName("mediated"); !errors.Is(err, protocol.ErrUnknownPolicy) {
		t.Errorf("ByName(mediated) error = %v, want ErrUnknownPolicy", err)
	}
}
