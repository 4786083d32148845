package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/lox/internal/testutil"
	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/loader"
	"github.com/thomasrohde/lox/pkg/runtime"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, scenarioDir := range dirs {
		scenarioDir := scenarioDir
		t.Run(filepath.Base(scenarioDir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(scenarioDir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			if len(scenario.Cmd) == 0 {
				t.Fatal("scenario has no cmd")
			}

			pretty := !scenario.HasFlag("--json")

			var stdout bytes.Buffer
			rt := newScenarioRuntime(scenarioDir, scenario, &stdout)

			switch scenario.Cmd[0] {
			case "run":
				source, filename := readProgram(t, scenarioDir, scenario)
				_, execErr := rt.Run(context.Background(), source, filename)
				checkOutcome(t, scenario, stdout.String(), runtime.Diagnostics(execErr), runtime.ExitCode(execErr), pretty)
			case "check":
				source, filename := readProgram(t, scenarioDir, scenario)
				diags := rt.Check(source, filename)
				exit := runtime.ExitOK
				if len(diags) > 0 {
					exit = runtime.ExitDataErr
				}
				checkOutcome(t, scenario, stdout.String(), diags, exit, pretty)
			case "fmt":
				source, filename := readProgram(t, scenarioDir, scenario)
				formatted, fmtErr := rt.Format(source, filename)
				checkOutcome(t, scenario, formatted, runtime.Diagnostics(fmtErr), runtime.ExitCode(fmtErr), pretty)
			case "eval":
				runEvalScenario(t, rt, scenario, &stdout, pretty)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
		})
	}
}

func newScenarioRuntime(dir string, scenario *testutil.Scenario, stdout *bytes.Buffer) *runtime.Runtime {
	paths := make([]string, len(scenario.ImportPaths))
	for i, p := range scenario.ImportPaths {
		paths[i] = filepath.Join(dir, p)
	}

	var budget evaluator.Budget
	if scenario.MaxIterations > 0 {
		n := scenario.MaxIterations
		budget.MaxIterations = &n
	}
	if scenario.TimeoutMs > 0 {
		ms := scenario.TimeoutMs
		budget.TimeMs = &ms
	}

	return runtime.New(
		runtime.WithStdout(stdout),
		runtime.WithLoader(loader.NewFileLoader(paths...)),
		runtime.WithBudget(budget),
		runtime.WithRunID("test"),
	)
}

func readProgram(t *testing.T, dir string, scenario *testutil.Scenario) (string, string) {
	t.Helper()
	source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
	if err != nil {
		t.Fatalf("failed to read program file: %v", err)
	}
	return source, filename
}

// runEvalScenario evaluates cmd[1] as one REPL input and prints its value,
// as JSON when the command carries --json.
func runEvalScenario(t *testing.T, rt *runtime.Runtime, scenario *testutil.Scenario, stdout *bytes.Buffer, pretty bool) {
	t.Helper()
	if len(scenario.Cmd) < 2 {
		t.Fatal("eval scenario needs source")
	}
	res, err := rt.NewSession().Eval(context.Background(), scenario.Cmd[1])
	if err == nil && res != nil && res.HasValue {
		if pretty {
			stdout.WriteString(evaluator.Stringify(res.Value) + "\n")
		} else {
			stdout.WriteString(evaluator.ValueToJSONString(res.Value) + "\n")
		}
	}
	checkOutcome(t, scenario, stdout.String(), runtime.Diagnostics(err), runtime.ExitCode(err), pretty)
}

func checkOutcome(t *testing.T, scenario *testutil.Scenario, stdout string, diags []diagnostics.Diagnostic, exit int, pretty bool) {
	t.Helper()

	if scenario.Expect.ExitCode != exit {
		t.Errorf("exit code: got %d, want %d (diagnostics: %v)", exit, scenario.Expect.ExitCode, diags)
	}

	if want := scenario.Expect.StdoutText; want != nil && stdout != *want {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout, *want)
	}
	if want := scenario.Expect.StdoutContains; want != "" && !strings.Contains(stdout, want) {
		t.Errorf("stdout should contain %q, got: %q", want, stdout)
	}
	if scenario.Expect.StdoutJSON != nil {
		expected := normalizeJSON(t, scenario.Expect.StdoutJSON)
		actual := normalizeJSON(t, json.RawMessage(strings.TrimSpace(stdout)))
		if expected != actual {
			t.Errorf("stdout JSON:\n  got:  %s\n  want: %s", actual, expected)
		}
	}

	if len(diags) > 0 || scenario.Expect.StderrContains != "" || scenario.Expect.StderrJSONSubset != nil {
		stderrOutput := diagnostics.FormatDiagnostics(diags, pretty)
		checkStderrExpectations(t, stderrOutput, diags, scenario)
	}
}

func checkStderrExpectations(t *testing.T, stderrOutput string, diags []diagnostics.Diagnostic, scenario *testutil.Scenario) {
	t.Helper()

	if scenario.Expect.StderrContains != "" {
		if !strings.Contains(stderrOutput, scenario.Expect.StderrContains) {
			t.Errorf("stderr should contain '%s', got: %s", scenario.Expect.StderrContains, stderrOutput)
		}
	}

	if scenario.Expect.StderrJSONSubset != nil {
		var expectedSubset []map[string]any
		if err := json.Unmarshal(scenario.Expect.StderrJSONSubset, &expectedSubset); err != nil {
			t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
		}

		diagsJSON, _ := json.Marshal(diags)
		var actualDiags []map[string]any
		if err := json.Unmarshal(diagsJSON, &actualDiags); err != nil {
			t.Fatalf("failed to parse actual diagnostics: %v", err)
		}

		if len(expectedSubset) != len(actualDiags) {
			t.Errorf("expected %d diagnostics, got %d: %s", len(expectedSubset), len(actualDiags), diagsJSON)
		}
		for _, expected := range expectedSubset {
			found := false
			for _, actual := range actualDiags {
				if isSubset(expected, actual) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("stderr JSON subset not found: %v in %s", expected, diagsJSON)
			}
		}
	}
}

func normalizeJSON(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to parse JSON: %v (raw: %s)", err, string(raw))
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to re-marshal JSON: %v", err)
	}
	return string(b)
}

// isSubset checks if expected is a subset of actual (for JSON comparison).
func isSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists || !isSubset(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok || len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !isSubset(ev, a[i]) {
				return false
			}
		}
		return true

	case nil:
		return actual == nil

	default:
		return expected == actual
	}
}
