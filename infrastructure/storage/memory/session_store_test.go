package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/infrastructure/storage/memory"
)

func TestSessionStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := memory.NewSessionStore()
	ctx := context.Background()

	state := negotiation.SessionState{
		SessionID: "session-1",
		Phase:     negotiation.PhaseAgreed,
		Step:      4,
		Agreement: outcome.Outcome{"12"},
	}

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "session-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.Equal(state) {
		t.Errorf("Load() = %+v, want %+v", loaded, state)
	}
}

func TestSessionStore_SaveReplaces(t *testing.T) {
	t.Parallel()

	store := memory.NewSessionStore()
	ctx := context.Background()

	first := negotiation.SessionState{SessionID: "session-1", Phase: negotiation.PhaseRunning, Step: 1}
	second := negotiation.SessionState{SessionID: "session-1", Phase: negotiation.PhaseAgreed, Step: 3}

	store.Save(ctx, first)
	store.Save(ctx, second)

	loaded, err := store.Load(ctx, "session-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Phase != negotiation.PhaseAgreed {
		t.Errorf("Phase = %s, want agreed", loaded.Phase)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSessionStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := memory.NewSessionStore()
	_, err := store.Load(context.Background(), "absent")
	if !errors.Is(err, negotiation.ErrSessionNotFound) {
		t.Errorf("Load() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_List(t *testing.T) {
	t.Parallel()

	store := memory.NewSessionStore()
	ctx := context.Background()

	store.Save(ctx, negotiation.SessionState{SessionID: "b"})
	store.Save(ctx, negotiation.SessionState{SessionID: "a"})

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List() = %v, want [a b]", ids)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	t.Parallel()

	store := memory.NewSessionStore()
	ctx := context.Background()

	store.Save(ctx, negotiation.SessionState{SessionID: "session-1"})

	if err := store.Delete(ctx, "session-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "session-1"); !errors.Is(err, negotiation.ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}
