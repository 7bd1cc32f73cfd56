package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScenario writes a scenario file into a temp dir and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write scenario file: %v", err)
	}
	return path
}

const validScenario = `
name: test-sale
version: "1.0"
description: A bilateral price negotiation
issues:
  - name: price
    values: [low, mid, high]
session:
  steps: 20
negotiators:
  - name: buyer
    strategy: conceder
    seed: 1
    utility:
      type: linear
      scores:
        price:
          low: 1.0
          mid: 0.5
          high: 0.0
  - name: seller
    strategy: conceder
    seed: 2
    utility:
      type: linear
      scores:
        price:
          low: 0.0
          mid: 0.5
          high: 1.0
`

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"version"})
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "negotiate-go version") {
		t.Errorf("version output missing 'negotiate-go version', got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"--help"})
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "turn-based negotiations") {
		t.Errorf("help output missing description, got: %s", output)
	}
	for _, sub := range []string{"run", "validate", "inspect"} {
		if !strings.Contains(output, sub) {
			t.Errorf("help output missing %q command, got: %s", sub, output)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	path := writeScenario(t, validScenario)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-s", path})
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "valid") {
		t.Errorf("validate output missing 'valid', got: %s", output)
	}
	if !strings.Contains(output, "buyer") || !strings.Contains(output, "seller") {
		t.Errorf("validate summary missing negotiators, got: %s", output)
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	path := writeScenario(t, `
name: ""
version: ""
`)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-s", path})
	if err == nil {
		t.Fatal("validate command should fail for invalid scenario")
	}
}

func TestApp_ValidateMissingBudget(t *testing.T) {
	path := writeScenario(t, strings.Replace(validScenario, "steps: 20", "steps: 0", 1))

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-s", path})
	if err == nil {
		t.Fatal("validate command should fail without a budget")
	}
}

func TestApp_RunDryRun(t *testing.T) {
	path := writeScenario(t, validScenario)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"run", "-s", path, "--dry-run"})
	if err != nil {
		t.Fatalf("run --dry-run failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "validated successfully") {
		t.Errorf("run --dry-run output missing 'validated successfully', got: %s", output)
	}
}

func TestApp_Run(t *testing.T) {
	path := writeScenario(t, validScenario)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"run", "-s", path})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Negotiation completed") {
		t.Errorf("run output missing 'Negotiation completed', got: %s", output)
	}
	if !strings.Contains(output, "Phase:") {
		t.Errorf("run output missing terminal phase, got: %s", output)
	}
}

func TestApp_RunWithJSON(t *testing.T) {
	path := writeScenario(t, validScenario)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"run", "-s", path, "--json"})
	if err != nil {
		t.Fatalf("run --json failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, `"session_id"`) {
		t.Errorf("run JSON output missing 'session_id', got: %s", output)
	}
	if !strings.Contains(output, `"phase"`) {
		t.Errorf("run JSON output missing 'phase', got: %s", output)
	}
}

func TestApp_RunWithSQLiteStoreAndInspect(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "events.db")
	path := writeScenario(t, validScenario+`
storage:
  backend: sqlite
  path: `+storePath+`
`)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	ctx := context.Background()
	if err := app.ExecuteWithArgs(ctx, []string{"run", "-s", path}); err != nil {
		t.Fatalf("run with sqlite store failed: %v", err)
	}

	// Listing must show exactly the session the run stored.
	stdout.Reset()
	app = New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(ctx, []string{"inspect", "--store", storePath}); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	listing := strings.TrimSpace(stdout.String())
	if listing == "" || strings.Contains(listing, "No sessions stored") {
		t.Fatalf("inspect listed no sessions, got: %s", listing)
	}
	sessionID := strings.Fields(strings.Split(listing, "\n")[0])[0]

	stdout.Reset()
	app = New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(ctx, []string{"inspect", "--store", storePath, "--session", sessionID}); err != nil {
		t.Fatalf("inspect --session failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "session.started") {
		t.Errorf("event dump missing session.started, got: %s", stdout.String())
	}

	stdout.Reset()
	app = New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(ctx, []string{"inspect", "--store", storePath, "--session", sessionID, "--replay"}); err != nil {
		t.Fatalf("inspect --replay failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Phase:") {
		t.Errorf("replay output missing phase, got: %s", stdout.String())
	}
}

func TestApp_RunMissingScenario(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"run", "-s", "does-not-exist.yaml"})
	if err == nil {
		t.Fatal("run should fail for a missing scenario file")
	}
}
