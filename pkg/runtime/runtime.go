// Package runtime provides the top-level Lox pipeline orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/formatter"
	"github.com/thomasrohde/lox/pkg/loader"
	"github.com/thomasrohde/lox/pkg/parser"
	"github.com/thomasrohde/lox/pkg/stdlib"
	"github.com/thomasrohde/lox/pkg/validator"
)

// Exit codes follow BSD sysexits.
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
	ExitIOErr    = 74
)

// ReplFile names REPL input in diagnostics.
const ReplFile = "<repl>"

// Result holds the outcome of a program execution. HasValue reports whether
// the last top-level statement was an expression statement.
type Result struct {
	Value    evaluator.LoxValue
	HasValue bool
}

// Runtime wires together all Lox components for program execution.
type Runtime struct {
	stdlib *stdlib.Registry
	loader evaluator.ModuleLoader
	stdout io.Writer
	runID  string
	trace  func(event evaluator.TraceEvent)
	budget evaluator.Budget
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the native function registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithLoader sets the module loader used by import statements.
func WithLoader(l evaluator.ModuleLoader) Option {
	return func(rt *Runtime) {
		rt.loader = l
	}
}

// WithStdout sets the writer print statements write to.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithBudget sets execution limits.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// New creates a new Runtime with the given options.
// By default the standard built-ins are registered and imports are read
// from disk relative to the importing file.
func New(opts ...Option) *Runtime {
	stdlibReg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(stdlibReg)

	rt := &Runtime{
		stdlib: stdlibReg,
		loader: loader.NewFileLoader(),
		stdout: os.Stdout,
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run parses and executes a Lox program in script mode. Lexical and syntax
// errors are returned as a *DiagnosticError before anything executes; the
// first runtime error aborts the program.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	result, err := evaluator.Execute(ctx, program, rt.buildExecOptions())
	return toResult(result), err
}

// Check parses and validates a Lox program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses and formats a Lox program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// buildExecOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) buildExecOptions() evaluator.ExecOptions {
	natives := make(map[string]*evaluator.LoxNative, len(rt.stdlib.All()))
	for name, fn := range rt.stdlib.All() {
		natives[name] = fn
	}

	return evaluator.ExecOptions{
		Stdout:  rt.stdout,
		Natives: natives,
		Loader:  rt.loader,
		Trace:   rt.trace,
		RunID:   rt.runID,
		Budget:  rt.budget,
	}
}

func toResult(r *evaluator.ExecResult) *Result {
	if r == nil {
		return nil
	}
	return &Result{Value: r.Value, HasValue: r.HasValue}
}

// Session evaluates REPL input against one persistent interpreter. A failed
// input is abandoned but earlier definitions survive.
type Session struct {
	interp *evaluator.Interpreter
}

// NewSession starts a REPL session.
func (rt *Runtime) NewSession() *Session {
	return &Session{interp: evaluator.New(rt.buildExecOptions())}
}

// Eval runs one unit of REPL input. Input that fails to parse only because
// its final ';' is missing is accepted, so `1 + 2` evaluates like `1 + 2;`.
// The ';' goes on a line of its own so a trailing line comment can't hide it.
func (s *Session) Eval(ctx context.Context, source string) (*Result, error) {
	program, diags := parser.Parse(source, ReplFile)
	if len(diags) > 0 {
		retry, retryDiags := parser.Parse(source+"\n;", ReplFile)
		if len(retryDiags) > 0 {
			return nil, &DiagnosticError{Diagnostics: diags}
		}
		program = retry
	}

	result, err := s.interp.Execute(ctx, program)
	return toResult(result), err
}

// Globals returns the session's global environment.
func (s *Session) Globals() *evaluator.Env {
	return s.interp.Globals()
}

// DiagnosticError wraps lexical or syntax diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Diagnostics flattens any error from this package into diagnostics for
// display. A runtime error is followed by its related diagnostics.
func Diagnostics(err error) []diagnostics.Diagnostic {
	if err == nil {
		return nil
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	var rte *evaluator.LoxRuntimeError
	if errors.As(err, &rte) {
		return append([]diagnostics.Diagnostic{rte.Diagnostic()}, rte.Related...)
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return ExitDataErr
	}
	var rte *evaluator.LoxRuntimeError
	if errors.As(err, &rte) {
		if rte.Code == diagnostics.EIO {
			return ExitIOErr
		}
		return ExitSoftware
	}
	return ExitIOErr
}
