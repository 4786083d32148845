package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/lox/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolate points the home directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if cfg.Diagnostics != config.DiagnosticsPretty || cfg.REPL.Prompt != "> " {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	b := cfg.Budget.EvalBudget()
	if b.TimeMs != nil || b.MaxIterations != nil || b.MaxCallDepth != 0 {
		t.Errorf("default budget should be unlimited: %+v", b)
	}
}

func TestLoadProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), `
import_paths:
  - lib
  - /opt/lox
diagnostics: json
repl:
  prompt: "lox> "
budget:
  time_ms: 500
  max_iterations: 1000
  max_call_depth: 64
`)
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != filepath.Join(dir, config.ProjectFile) {
		t.Errorf("Source = %s", cfg.Source)
	}
	if len(cfg.ImportPaths) != 2 || cfg.ImportPaths[0] != filepath.Join(dir, "lib") || cfg.ImportPaths[1] != "/opt/lox" {
		t.Errorf("ImportPaths = %v", cfg.ImportPaths)
	}
	if cfg.Diagnostics != config.DiagnosticsJSON {
		t.Errorf("Diagnostics = %s", cfg.Diagnostics)
	}
	if cfg.REPL.Prompt != "lox> " || cfg.REPL.Continuation != "... " {
		t.Errorf("REPL = %+v", cfg.REPL)
	}

	b := cfg.Budget.EvalBudget()
	if b.TimeMs == nil || *b.TimeMs != 500 || b.MaxIterations == nil || *b.MaxIterations != 1000 || b.MaxCallDepth != 64 {
		t.Errorf("budget = %+v", cfg.Budget)
	}
}

func TestProjectOverridesUser(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".lox", "config.yaml"), "diagnostics: json\n")

	dir := t.TempDir()
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Diagnostics != config.DiagnosticsJSON {
		t.Errorf("user file not applied: %+v", cfg)
	}

	writeFile(t, filepath.Join(dir, config.ProjectFile), "diagnostics: pretty\n")
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Diagnostics != config.DiagnosticsPretty {
		t.Errorf("project file should win: %+v", cfg)
	}
}

func TestScalarImportPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "import_paths: modules\n")
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ImportPaths) != 1 || cfg.ImportPaths[0] != filepath.Join(dir, "modules") {
		t.Errorf("ImportPaths = %v", cfg.ImportPaths)
	}
}

func TestEmptyFileUsesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "")
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Diagnostics != config.DiagnosticsPretty || cfg.Source == "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestHistoryFileExpandsHome(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "repl:\n  history_file: ~/hist\n")
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.REPL.HistoryFile != filepath.Join(home, "hist") {
		t.Errorf("HistoryFile = %s", cfg.REPL.HistoryFile)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "colour: red\n", "colour"},
		{"bad diagnostics", "diagnostics: xml\n", "diagnostics"},
		{"negative budget", "budget:\n  time_ms: -1\n", "negative"},
		{"bad import paths", "import_paths: {a: b}\n", "import_paths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.ProjectFile), tt.content)
			_, err := config.Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}
