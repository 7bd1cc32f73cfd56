package event_test

import (
	"testing"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
)

func TestNew(t *testing.T) {
	t.Parallel()

	payload := event.SessionStartedPayload{
		Parties:  []negotiation.Handle{{Name: "buyer", ID: "buyer-id"}, {Name: "seller", ID: "seller-id"}},
		Protocol: "saop",
		MaxSteps: 20,
	}

	evt, err := event.New("session-1", event.TypeSessionStarted, payload)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if evt.ID == "" {
		t.Error("New() ID is empty")
	}
	if evt.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want %q", evt.SessionID, "session-1")
	}
	if evt.Type != event.TypeSessionStarted {
		t.Errorf("Type = %q, want %q", evt.Type, event.TypeSessionStarted)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
	if evt.Version != 1 {
		t.Errorf("Version = %d, want 1", evt.Version)
	}
}

func TestUnmarshalPayload(t *testing.T) {
	t.Parallel()

	original := event.OfferProposedPayload{
		Round:    3,
		Proposer: negotiation.Handle{Name: "seller", ID: "seller-id"},
		Offer:    []string{"100", "red"},
	}

	evt, err := event.New("session-1", event.TypeOfferProposed, original)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var decoded event.OfferProposedPayload
	if err := evt.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}

	if decoded.Round != original.Round {
		t.Errorf("Round = %d, want %d", decoded.Round, original.Round)
	}
	if decoded.Proposer != original.Proposer {
		t.Errorf("Proposer = %v, want %v", decoded.Proposer, original.Proposer)
	}
	if len(decoded.Offer) != len(original.Offer) {
		t.Fatalf("Offer length = %d, want %d", len(decoded.Offer), len(original.Offer))
	}
	for i := range original.Offer {
		if decoded.Offer[i] != original.Offer[i] {
			t.Errorf("Offer[%d] = %q, want %q", i, decoded.Offer[i], original.Offer[i])
		}
	}
}

func TestNewUniqueIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		evt, err := event.New("session-1", event.TypeRoundCompleted, event.RoundCompletedPayload{Round: negotiation.Round{Number: i}})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if seen[evt.ID] {
			t.Fatalf("duplicate event ID %q", evt.ID)
		}
		seen[evt.ID] = true
	}
}
