package postgres

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/negotiate-go/domain/event"
)

func TestNewEventStore(t *testing.T) {
	t.Parallel()

	t.Run("creates store with default schema", func(t *testing.T) {
		t.Parallel()
		store := NewEventStore(nil, "")
		if store.schema != "public" {
			t.Errorf("schema = %s, want public", store.schema)
		}
	})

	t.Run("creates store with custom schema", func(t *testing.T) {
		t.Parallel()
		store := NewEventStore(nil, "negotiations")
		if store.schema != "negotiations" {
			t.Errorf("schema = %s, want negotiations", store.schema)
		}
	})

	t.Run("initializes subscribers map", func(t *testing.T) {
		t.Parallel()
		store := NewEventStore(nil, "public")
		if store.subscribers == nil {
			t.Error("subscribers should be initialized")
		}
	})
}

func TestEventStore_tableNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		schema        string
		wantEvents    string
		wantSnapshots string
	}{
		{"default schema", "public", "public.events", "public.snapshots"},
		{"custom schema", "negotiations", "negotiations.events", "negotiations.snapshots"},
		{"empty schema defaults to public", "", "public.events", "public.snapshots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewEventStore(nil, tt.schema)
			if got := store.tableName(); got != tt.wantEvents {
				t.Errorf("tableName() = %s, want %s", got, tt.wantEvents)
			}
			if got := store.snapshotTableName(); got != tt.wantSnapshots {
				t.Errorf("snapshotTableName() = %s, want %s", got, tt.wantSnapshots)
			}
		})
	}
}

func TestEventStore_buildQuerySQL(t *testing.T) {
	t.Parallel()

	store := NewEventStore(nil, "public")

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()
		_, args := store.buildQuerySQL("s1", event.QueryOptions{})
		if len(args) != 1 {
			t.Errorf("args = %d, want 1", len(args))
		}
	})

	t.Run("type filter adds ANY clause", func(t *testing.T) {
		t.Parallel()
		query, args := store.buildQuerySQL("s1", event.QueryOptions{
			Types: []event.Type{event.TypeOfferProposed, event.TypeSessionAgreed},
		})
		if len(args) != 2 {
			t.Fatalf("args = %d, want 2", len(args))
		}
		if !contains(query, "type = ANY($2)") {
			t.Errorf("query missing type filter: %s", query)
		}
	})

	t.Run("time range and pagination", func(t *testing.T) {
		t.Parallel()
		query, args := store.buildQuerySQL("s1", event.QueryOptions{
			FromTime: 100,
			ToTime:   200,
			Limit:    10,
			Offset:   5,
		})
		if len(args) != 5 {
			t.Fatalf("args = %d, want 5", len(args))
		}
		if !contains(query, "LIMIT $4") || !contains(query, "OFFSET $5") {
			t.Errorf("query missing pagination: %s", query)
		}
	})
}

func TestEventStore_wrapError(t *testing.T) {
	t.Parallel()

	store := NewEventStore(nil, "public")

	if err := store.wrapError(nil); err != nil {
		t.Errorf("wrapError(nil) = %v, want nil", err)
	}
}

func TestJoinConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		conditions []string
		want       string
	}{
		{"single", []string{"a = 1"}, "a = 1"},
		{"multiple", []string{"a = 1", "b = 2"}, "a = 1 AND b = 2"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := joinConditions(tt.conditions); got != tt.want {
				t.Errorf("joinConditions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventStore_notifySubscribers(t *testing.T) {
	t.Parallel()

	store := NewEventStore(nil, "public")

	ch := make(chan event.Event, 1)
	store.subscribers["s1"] = append(store.subscribers["s1"], ch)

	store.notifySubscribers([]event.Event{
		{SessionID: "s1", Type: event.TypeSessionStarted, Timestamp: time.Now()},
	})

	select {
	case e := <-ch:
		if e.Type != event.TypeSessionStarted {
			t.Errorf("received type %s, want session.started", e.Type)
		}
	default:
		t.Error("expected subscriber notification")
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
