// Package config loads Lox tool settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/lox/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".lox.yaml"
	// UserFile is looked up under the user's home directory.
	UserFile = ".lox/config.yaml"

	DiagnosticsPretty = "pretty"
	DiagnosticsJSON   = "json"
)

// Config is the resolved configuration. Source is the file it came from, or
// empty when only defaults apply.
type Config struct {
	ImportPaths []string
	Diagnostics string
	REPL        REPLConfig
	Budget      BudgetConfig
	Source      string
}

// REPLConfig holds interactive-session settings.
type REPLConfig struct {
	Prompt       string
	Continuation string
	HistoryFile  string
}

// BudgetConfig holds execution limits. Zero values mean unlimited, except
// MaxCallDepth where zero selects the interpreter default.
type BudgetConfig struct {
	TimeMs        int64
	MaxIterations int64
	MaxCallDepth  int
}

// EvalBudget converts the limits to the evaluator's representation.
func (b BudgetConfig) EvalBudget() evaluator.Budget {
	var out evaluator.Budget
	if b.TimeMs > 0 {
		ms := b.TimeMs
		out.TimeMs = &ms
	}
	if b.MaxIterations > 0 {
		n := b.MaxIterations
		out.MaxIterations = &n
	}
	out.MaxCallDepth = b.MaxCallDepth
	return out
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Diagnostics: DiagnosticsPretty,
		REPL: REPLConfig{
			Prompt:       "> ",
			Continuation: "... ",
		},
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.REPL.HistoryFile = filepath.Join(home, ".lox_history")
	}
	return cfg
}

// Load resolves configuration with precedence: project file in projectDir,
// then the user file, then defaults. A missing file falls through; a file
// that exists but is invalid is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, filepath.FromSlash(UserFile)))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadFile parses a single config file over the defaults. Relative import
// paths are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			cfg := Default()
			cfg.Source = absPath
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg := raw.toConfig(filepath.Dir(absPath))
	cfg.Source = absPath
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Diagnostics {
	case DiagnosticsPretty, DiagnosticsJSON:
	default:
		return fmt.Errorf("diagnostics must be %q or %q, got %q", DiagnosticsPretty, DiagnosticsJSON, c.Diagnostics)
	}
	if c.Budget.TimeMs < 0 || c.Budget.MaxIterations < 0 || c.Budget.MaxCallDepth < 0 {
		return fmt.Errorf("budget limits must not be negative")
	}
	return nil
}

type configFile struct {
	ImportPaths pathList   `yaml:"import_paths"`
	Diagnostics string     `yaml:"diagnostics"`
	REPL        replFile   `yaml:"repl"`
	Budget      budgetFile `yaml:"budget"`
}

type replFile struct {
	Prompt       *string `yaml:"prompt"`
	Continuation *string `yaml:"continuation"`
	HistoryFile  *string `yaml:"history_file"`
}

type budgetFile struct {
	TimeMs        int64 `yaml:"time_ms"`
	MaxIterations int64 `yaml:"max_iterations"`
	MaxCallDepth  int   `yaml:"max_call_depth"`
}

func (f configFile) toConfig(baseDir string) *Config {
	cfg := Default()
	for _, p := range f.ImportPaths {
		p = expandHome(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		cfg.ImportPaths = append(cfg.ImportPaths, p)
	}
	if f.Diagnostics != "" {
		cfg.Diagnostics = strings.ToLower(strings.TrimSpace(f.Diagnostics))
	}
	if f.REPL.Prompt != nil {
		cfg.REPL.Prompt = *f.REPL.Prompt
	}
	if f.REPL.Continuation != nil {
		cfg.REPL.Continuation = *f.REPL.Continuation
	}
	if f.REPL.HistoryFile != nil {
		cfg.REPL.HistoryFile = expandHome(*f.REPL.HistoryFile)
	}
	cfg.Budget = BudgetConfig{
		TimeMs:        f.Budget.TimeMs,
		MaxIterations: f.Budget.MaxIterations,
		MaxCallDepth:  f.Budget.MaxCallDepth,
	}
	return cfg
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// pathList accepts either a single string or a sequence of strings.
type pathList []string

func (l *pathList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = pathList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			if str = strings.TrimSpace(str); str != "" {
				items = append(items, str)
			}
		}
		*l = pathList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or sequence for import_paths but found %s", value.ShortTag())
	}
}
