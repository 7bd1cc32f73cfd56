// Package config provides domain models for scenario configuration.
package config

// ScenarioConfig represents a complete negotiation scenario.
type ScenarioConfig struct {
	// Name is a human-readable name for this scenario.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the scenario.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Protocol selects the negotiation policy (default: saop).
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	// Issues define the outcome space.
	Issues []IssueConfig `json:"issues" yaml:"issues"`
	// Session contains budget settings.
	Session SessionConfig `json:"session" yaml:"session"`
	// Negotiators lists the participating parties.
	Negotiators []NegotiatorConfig `json:"negotiators" yaml:"negotiators"`
	// Storage configures event persistence.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// IssueConfig defines one negotiation issue. Either Values or Range must be
// set, not both.
type IssueConfig struct {
	// Name is the issue identifier.
	Name string `json:"name" yaml:"name"`
	// Values is an explicit list of discrete values.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
	// Range generates integer values from Min to Max inclusive.
	Range *RangeConfig `json:"range,omitempty" yaml:"range,omitempty"`
}

// RangeConfig defines an inclusive integer value range.
type RangeConfig struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// SessionConfig contains the session budgets. At least one of Steps or
// TimeLimit must be positive.
type SessionConfig struct {
	// Steps is the maximum number of rounds (0 = unlimited).
	Steps int `json:"steps,omitempty" yaml:"steps,omitempty"`
	// TimeLimit is the wall-clock budget as a duration string (e.g. "30s").
	TimeLimit string `json:"time_limit,omitempty" yaml:"time_limit,omitempty"`
}

// NegotiatorConfig defines one party.
type NegotiatorConfig struct {
	// Name is the party name, unique within the scenario.
	Name string `json:"name" yaml:"name"`
	// Strategy selects the built-in strategy (sampler, boulware, conceder).
	Strategy string `json:"strategy" yaml:"strategy"`
	// Aspiration tunes the concession curve exponent for aspiration strategies.
	Aspiration float64 `json:"aspiration,omitempty" yaml:"aspiration,omitempty"`
	// Seed fixes the strategy's random source for reproducible runs.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// Utility defines the party's utility function.
	Utility UtilityConfig `json:"utility" yaml:"utility"`
}

// UtilityConfig defines a utility function.
type UtilityConfig struct {
	// Type is the utility kind (linear or table).
	Type string `json:"type" yaml:"type"`
	// Weights maps issue names to weights for linear utilities.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	// Scores maps issue names to per-value scores for linear utilities.
	Scores map[string]map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
	// Table maps outcome keys (comma-joined values) to utilities for table
	// utilities.
	Table map[string]float64 `json:"table,omitempty" yaml:"table,omitempty"`
	// Opposite inverts the utility (1 - u).
	Opposite bool `json:"opposite,omitempty" yaml:"opposite,omitempty"`
}

// StorageConfig configures event persistence.
type StorageConfig struct {
	// Backend selects the event store (memory, sqlite, badger, redis, postgres).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Path is the data file or directory for file-backed stores.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// DSN is the connection string for server-backed stores.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}
