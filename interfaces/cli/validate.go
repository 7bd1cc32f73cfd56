package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/negotiate-go/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	scenarioPath string
	strict       bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario file",
		Long: `Validate a negotiation scenario file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version)
  - Issue definitions (values or range, no duplicates)
  - Session budgets (at least one of steps and time_limit)
  - Negotiator strategies and utility definitions
  - Storage backend settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a scenario file
  negotiate validate -s scenario.yaml

  # Strict validation (fail on missing env vars)
  negotiate validate -s scenario.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "scenario", "s", "", "Path to scenario file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")

	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// validateScenario validates the scenario file.
func (a *App) validateScenario(ctx context.Context, opts *validateOptions) error {
	loaderOpts := []infraconfig.LoaderOption{
		infraconfig.WithValidation(true),
	}
	if opts.strict {
		loaderOpts = append(loaderOpts, infraconfig.WithStrictEnv(true))
	}

	loader := infraconfig.NewLoaderWithOptions(loaderOpts...)
	scenario, err := loader.LoadFile(opts.scenarioPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Building exercises the parts plain validation cannot see, like table
	// utilities referencing outcomes outside the space.
	builder := infraconfig.NewBuilder(scenario)
	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("scenario build failed: %w", err)
	}
	if result.CloseStore != nil {
		defer func() { _ = result.CloseStore() }()
	}

	fmt.Fprintf(a.stdout, "✓ Scenario is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", scenario.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", scenario.Version)
	if scenario.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", scenario.Description)
	}

	fmt.Fprintf(a.stdout, "\nScenario summary:\n")
	fmt.Fprintf(a.stdout, "  Protocol: %s\n", result.Policy.Name())
	fmt.Fprintf(a.stdout, "  Outcome space: %d issues, %d outcomes\n",
		len(result.Space.Issues()), result.Space.Size())
	if result.MaxSteps > 0 {
		fmt.Fprintf(a.stdout, "  Max steps: %d\n", result.MaxSteps)
	}
	if result.TimeLimit > 0 {
		fmt.Fprintf(a.stdout, "  Time limit: %s\n", result.TimeLimit)
	}
	fmt.Fprintf(a.stdout, "  Negotiators: %d\n", len(result.Parties))
	for _, p := range result.Parties {
		fmt.Fprintf(a.stdout, "    - %s\n", p.Name)
	}
	if scenario.Storage.Backend != "" {
		fmt.Fprintf(a.stdout, "  Storage: %s\n", scenario.Storage.Backend)
	}

	return nil
}
