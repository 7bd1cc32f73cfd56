package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/negotiate-go/application"
	"github.com/felixgeelhaar/negotiate-go/domain/negotiation"
	infraconfig "github.com/felixgeelhaar/negotiate-go/infrastructure/config"
)

// runOptions holds options for the run command.
type runOptions struct {
	scenarioPath string
	maxSteps     int
	timeout      time.Duration
	verbose      bool
	jsonOutput   bool
	dryRun       bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a negotiation scenario to completion",
		Long: `Run a negotiation defined by a scenario file.

The engine registers the configured negotiators, then drives the session
round by round until it reaches a terminal phase (agreed, broken, timed
out, or errored). With storage configured, the full event stream is
persisted for later inspection.

Examples:
  # Run a scenario
  negotiate run -s scenario.yaml

  # Override the round budget and add a wall-clock timeout
  negotiate run -s scenario.yaml --max-steps 50 --timeout 2m

  # Print the terminal state as JSON
  negotiate run -s scenario.yaml --json

  # Dry run (build everything without negotiating)
  negotiate run -s scenario.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "scenario", "s", "", "Path to scenario file (required)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Maximum rounds (overrides scenario)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Wall-clock limit (overrides scenario)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the terminal state as JSON")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build the scenario without negotiating")

	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// runScenario executes the negotiation with the given options.
func (a *App) runScenario(ctx context.Context, opts *runOptions) error {
	loader := infraconfig.NewLoader()
	scenario, err := loader.LoadFile(opts.scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	if opts.maxSteps > 0 {
		scenario.Session.Steps = opts.maxSteps
	}
	if opts.timeout > 0 {
		scenario.Session.TimeLimit = opts.timeout.String()
	}

	builder := infraconfig.NewBuilder(scenario)
	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build scenario: %w", err)
	}
	if result.CloseStore != nil {
		defer func() { _ = result.CloseStore() }()
	}

	mechOpts := []application.Option{
		application.WithSteps(result.MaxSteps),
		application.WithTimeLimit(result.TimeLimit),
		application.WithPolicy(result.Policy),
	}
	if result.Store != nil {
		mechOpts = append(mechOpts, application.WithEventStore(result.Store))
	}

	mech, err := application.New(result.Space, mechOpts...)
	if err != nil {
		return fmt.Errorf("failed to create mechanism: %w", err)
	}
	for _, p := range result.Parties {
		if _, err := mech.Add(p.Name, p.Negotiator, p.Utility); err != nil {
			return fmt.Errorf("failed to add negotiator %s: %w", p.Name, err)
		}
	}

	if opts.verbose {
		fmt.Fprintf(a.stdout, "Scenario loaded: %s v%s\n", scenario.Name, scenario.Version)
		fmt.Fprintf(a.stdout, "Session: %s\n", mech.SessionID())
		fmt.Fprintf(a.stdout, "Outcome space: %d outcomes\n", result.Space.Size())
		fmt.Fprintf(a.stdout, "Negotiators: %d\n", len(result.Parties))
		fmt.Fprintf(a.stdout, "\n")
	}

	if opts.dryRun {
		fmt.Fprintf(a.stdout, "Scenario validated successfully.\n")
		return nil
	}

	start := time.Now()
	state, err := mech.Run(ctx)
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("negotiation failed: %w", err)
	}

	if opts.jsonOutput {
		output := map[string]any{
			"session_id": state.SessionID,
			"phase":      state.Phase.String(),
			"steps":      state.Step,
			"duration":   duration.String(),
		}
		if state.Agreement != nil {
			output["agreement"] = state.Agreement
		}
		if state.ErrorDetails != "" {
			output["error"] = state.ErrorDetails
		}

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	fmt.Fprintf(a.stdout, "Negotiation completed\n")
	fmt.Fprintf(a.stdout, "  Session: %s\n", state.SessionID)
	fmt.Fprintf(a.stdout, "  Phase: %s\n", state.Phase)
	fmt.Fprintf(a.stdout, "  Rounds: %d\n", state.Step)
	fmt.Fprintf(a.stdout, "  Duration: %s\n", duration)

	switch state.Phase {
	case negotiation.PhaseAgreed:
		fmt.Fprintf(a.stdout, "  Agreement: %s\n", a.formatOutcome(result, state))
	case negotiation.PhaseBroken, negotiation.PhaseErrored:
		if state.ErrorDetails != "" {
			fmt.Fprintf(a.stdout, "  Details: %s\n", state.ErrorDetails)
		}
	case negotiation.PhaseTimedOut:
		fmt.Fprintf(a.stdout, "  Budget exhausted without agreement\n")
	}

	return nil
}

// formatOutcome renders an agreement with issue names.
func (a *App) formatOutcome(result *infraconfig.BuildResult, state negotiation.SessionState) string {
	issues := result.Space.Issues()
	if len(issues) != len(state.Agreement) {
		return fmt.Sprintf("%v", state.Agreement)
	}

	out := ""
	for i, issue := range issues {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", issue.Name, state.Agreement[i])
	}
	return out
}
