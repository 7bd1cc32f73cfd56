package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/negotiate-go/domain/config"
	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
)

func testScenario() *domainconfig.ScenarioConfig {
	return &domainconfig.ScenarioConfig{
		Name:    "test",
		Version: "1.0",
		Issues: []domainconfig.IssueConfig{
			{Name: "price", Values: []string{"low", "mid", "high"}},
			{Name: "qty", Range: &domainconfig.RangeConfig{Min: 1, Max: 3}},
		},
		Session: domainconfig.SessionConfig{Steps: 10, TimeLimit: "30s"},
		Negotiators: []domainconfig.NegotiatorConfig{
			{
				Name:     "buyer",
				Strategy: "boulware",
				Seed:     1,
				Utility: domainconfig.UtilityConfig{
					Type:   "linear",
					Scores: map[string]map[string]float64{"price": {"low": 1, "mid": 0.5, "high": 0}},
				},
			},
			{
				Name:     "seller",
				Strategy: "conceder",
				Seed:     2,
				Utility: domainconfig.UtilityConfig{
					Type:     "linear",
					Scores:   map[string]map[string]float64{"price": {"low": 1, "mid": 0.5, "high": 0}},
					Opposite: true,
				},
			},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	result, err := NewBuilder(testScenario()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := result.Space.Size(); got != 9 {
		t.Errorf("Space.Size() = %d, want 9", got)
	}
	if result.Policy.Name() != "saop" {
		t.Errorf("Policy.Name() = %s, want saop", result.Policy.Name())
	}
	if result.MaxSteps != 10 {
		t.Errorf("MaxSteps = %d, want 10", result.MaxSteps)
	}
	if result.TimeLimit != 30*time.Second {
		t.Errorf("TimeLimit = %v, want 30s", result.TimeLimit)
	}
	if len(result.Parties) != 2 {
		t.Fatalf("len(Parties) = %d, want 2", len(result.Parties))
	}
	if result.Parties[0].Name != "buyer" || result.Parties[1].Name != "seller" {
		t.Errorf("party order = %s, %s, want buyer, seller",
			result.Parties[0].Name, result.Parties[1].Name)
	}
	if result.Store != nil {
		t.Error("Store != nil without a storage backend")
	}

	// Opposite wrapping: the seller values high what the buyer values low.
	o := outcome.Outcome{"low", "1"}
	bu, err := result.Parties[0].Utility.Evaluate(o)
	if err != nil {
		t.Fatalf("buyer Evaluate() error = %v", err)
	}
	su, err := result.Parties[1].Utility.Evaluate(o)
	if err != nil {
		t.Fatalf("seller Evaluate() error = %v", err)
	}
	if bu+su != 1 {
		t.Errorf("buyer + seller utility = %v, want 1", bu+su)
	}
}

func TestBuilder_TableUtility(t *testing.T) {
	t.Parallel()

	scenario := testScenario()
	scenario.Issues = scenario.Issues[:1]
	scenario.Negotiators[0].Utility = domainconfig.UtilityConfig{
		Type:  "table",
		Table: map[string]float64{"low": 1, "high": 0},
	}
	scenario.Negotiators[1].Utility = domainconfig.UtilityConfig{
		Type:  "table",
		Table: map[string]float64{"low": 0, "high": 1},
	}

	result, err := NewBuilder(scenario).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	u, err := result.Parties[0].Utility.Evaluate(outcome.Outcome{"low"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if u != 1 {
		t.Errorf("table utility = %v, want 1", u)
	}
}

func TestBuilder_TableUtilityOutsideSpace(t *testing.T) {
	t.Parallel()

	scenario := testScenario()
	scenario.Issues = scenario.Issues[:1]
	scenario.Negotiators[0].Utility = domainconfig.UtilityConfig{
		Type:  "table",
		Table: map[string]float64{"purple": 1},
	}

	_, err := NewBuilder(scenario).Build(context.Background())
	if !errors.Is(err, domainconfig.ErrBuildFailed) {
		t.Errorf("Build() error = %v, want ErrBuildFailed", err)
	}
}

func TestBuilder_InvalidTimeLimit(t *testing.T) {
	t.Parallel()

	scenario := testScenario()
	scenario.Session.TimeLimit = "not-a-duration"

	_, err := NewBuilder(scenario).Build(context.Background())
	if !errors.Is(err, domainconfig.ErrBuildFailed) {
		t.Errorf("Build() error = %v, want ErrBuildFailed", err)
	}
}

func TestBuilder_SQLiteStore(t *testing.T) {
	t.Parallel()

	scenario := testScenario()
	scenario.Storage = domainconfig.StorageConfig{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "events.db"),
	}

	result, err := NewBuilder(scenario).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Store == nil {
		t.Fatal("Store = nil, want sqlite event store")
	}
	if result.CloseStore == nil {
		t.Fatal("CloseStore = nil, want closer")
	}
	if err := result.CloseStore(); err != nil {
		t.Errorf("CloseStore() error = %v", err)
	}
}

func TestBuilder_MemoryStore(t *testing.T) {
	t.Parallel()

	scenario := testScenario()
	scenario.Storage = domainconfig.StorageConfig{Backend: "memory"}

	result, err := NewBuilder(scenario).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Store == nil {
		t.Fatal("Store = nil, want memory event store")
	}
	if result.CloseStore != nil {
		t.Error("CloseStore != nil for the memory store")
	}
}
