package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates scenario configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *ScenarioConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateIssues(config)
	v.validateSession(config)
	v.validateNegotiators(config)
	v.validateStorage(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *ScenarioConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
	if config.Protocol != "" && config.Protocol != "saop" {
		v.addError("protocol", fmt.Sprintf("unknown protocol: %s", config.Protocol))
	}
}

func (v *Validator) validateIssues(config *ScenarioConfig) {
	if len(config.Issues) == 0 {
		v.addError("issues", "at least one issue is required")
	}

	seen := make(map[string]bool)
	for i, issue := range config.Issues {
		path := fmt.Sprintf("issues[%d]", i)
		if issue.Name == "" {
			v.addError(path+".name", "issue name is required")
		}
		if seen[issue.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate issue name: %s", issue.Name))
		}
		seen[issue.Name] = true

		hasValues := len(issue.Values) > 0
		hasRange := issue.Range != nil
		switch {
		case hasValues && hasRange:
			v.addError(path, "values and range are mutually exclusive")
		case !hasValues && !hasRange:
			v.addError(path, "either values or range is required")
		case hasRange && issue.Range.Min > issue.Range.Max:
			v.addError(path+".range", "min must not exceed max")
		}
	}
}

func (v *Validator) validateSession(config *ScenarioConfig) {
	if config.Session.Steps < 0 {
		v.addError("session.steps", "steps must be non-negative")
	}

	var limit time.Duration
	if config.Session.TimeLimit != "" {
		var err error
		limit, err = time.ParseDuration(config.Session.TimeLimit)
		if err != nil {
			v.addError("session.time_limit", fmt.Sprintf("invalid duration: %s", config.Session.TimeLimit))
		} else if limit < 0 {
			v.addError("session.time_limit", "time_limit must be non-negative")
		}
	}

	if config.Session.Steps == 0 && limit == 0 {
		v.addError("session", "at least one of steps or time_limit must be positive")
	}
}

func (v *Validator) validateNegotiators(config *ScenarioConfig) {
	if len(config.Negotiators) < 2 {
		v.addError("negotiators", "at least two negotiators are required")
	}

	seen := make(map[string]bool)
	for i, neg := range config.Negotiators {
		path := fmt.Sprintf("negotiators[%d]", i)
		if neg.Name == "" {
			v.addError(path+".name", "negotiator name is required")
		}
		if seen[neg.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate negotiator name: %s", neg.Name))
		}
		seen[neg.Name] = true

		validStrategies := map[string]bool{
			"sampler": true, "boulware": true, "conceder": true,
		}
		if !validStrategies[neg.Strategy] {
			v.addError(path+".strategy", fmt.Sprintf("unknown strategy: %s", neg.Strategy))
		}

		switch neg.Utility.Type {
		case "linear":
			if len(neg.Utility.Scores) == 0 {
				v.addError(path+".utility.scores", "linear utility requires scores")
			}
		case "table":
			if len(neg.Utility.Table) == 0 {
				v.addError(path+".utility.table", "table utility requires entries")
			}
		default:
			v.addError(path+".utility.type", fmt.Sprintf("unknown utility type: %s", neg.Utility.Type))
		}
	}
}

func (v *Validator) validateStorage(config *ScenarioConfig) {
	if config.Storage.Backend == "" {
		return
	}

	validBackends := map[string]bool{
		"memory": true, "sqlite": true, "badger": true, "redis": true, "postgres": true,
	}
	if !validBackends[config.Storage.Backend] {
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", config.Storage.Backend))
		return
	}

	switch config.Storage.Backend {
	case "sqlite", "badger":
		if config.Storage.Path == "" {
			v.addError("storage.path", fmt.Sprintf("%s backend requires a path", config.Storage.Backend))
		}
	case "redis", "postgres":
		if config.Storage.DSN == "" {
			v.addError("storage.dsn", fmt.Sprintf("%s backend requires a dsn", config.Storage.Backend))
		}
	}
}
