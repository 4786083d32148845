package evaluator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart    TraceEventType = "run_start"
	TraceRunEnd      TraceEventType = "run_end"
	TraceStmtStart   TraceEventType = "stmt_start"
	TraceStmtEnd     TraceEventType = "stmt_end"
	TraceCallStart   TraceEventType = "call_start"
	TraceCallEnd     TraceEventType = "call_end"
	TraceLoopStart   TraceEventType = "loop_start"
	TraceLoopEnd     TraceEventType = "loop_end"
	TraceImportStart TraceEventType = "import_start"
	TraceImportEnd   TraceEventType = "import_end"
	TraceError       TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ModuleLoader resolves an import name to a canonical module path and its
// source text. importer is the path of the file containing the import.
type ModuleLoader interface {
	Load(name, importer string) (path string, source string, err error)
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Stdout  io.Writer
	Natives map[string]*LoxNative
	Loader  ModuleLoader
	Trace   func(event TraceEvent)
	RunID   string
	Budget  Budget
}

// ExecResult holds the result of a program execution. HasValue is set when
// the last top-level statement was an expression statement; Value then holds
// its value.
type ExecResult struct {
	Value    LoxValue
	HasValue bool
}

// LoxRuntimeError represents a runtime error during Lox execution.
type LoxRuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	Related []diagnostics.Diagnostic
}

func (e *LoxRuntimeError) Error() string {
	return e.Message
}

// Line returns the source line the error is attributed to, or 0.
func (e *LoxRuntimeError) Line() int {
	if e.Span == nil {
		return 0
	}
	return e.Span.StartLine
}

// Diagnostic converts the error to a diagnostic for display.
func (e *LoxRuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func newRuntimeError(code string, span ast.Span, format string, args ...any) *LoxRuntimeError {
	return &LoxRuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

type outcomeKind int

const (
	outNormal outcomeKind = iota
	outReturn
	outBreak
	outContinue
)

// outcome is how a statement finished. Return, break and continue unwind
// through enclosing statements until a function call or loop consumes them.
type outcome struct {
	kind  outcomeKind
	value LoxValue
	span  ast.Span
}

var normal = outcome{kind: outNormal}

// strayControl is the error for a signal that reached a boundary which
// cannot consume it.
func strayControl(out outcome) *LoxRuntimeError {
	switch out.kind {
	case outReturn:
		return newRuntimeError(diagnostics.EControl, out.span, "can't return from top-level code")
	case outBreak:
		return newRuntimeError(diagnostics.EControl, out.span, "'break' used outside of a loop")
	default:
		return newRuntimeError(diagnostics.EControl, out.span, "'continue' used outside of a loop")
	}
}

// Interpreter executes programs against a persistent global environment, so
// a REPL can feed it one unit at a time.
type Interpreter struct {
	opts     ExecOptions
	globals  *Env
	ctx      context.Context
	tracker  BudgetTracker
	imported map[string]bool
	files    []string
}

// New creates an interpreter whose global scope holds opts.Natives.
func New(opts ExecOptions) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	in := &Interpreter{
		opts:     opts,
		globals:  NewEnv(nil),
		imported: make(map[string]bool),
	}
	for name, fn := range opts.Natives {
		in.globals.Define(name, fn)
	}
	return in
}

// Globals returns the global environment.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

// Execute runs a Lox program in a fresh interpreter and returns the result.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	return New(opts).Execute(ctx, program)
}

// Execute runs program's top-level statements in the global environment.
// The first runtime error aborts the rest of the program.
func (in *Interpreter) Execute(ctx context.Context, program *ast.Program) (*ExecResult, error) {
	in.tracker = BudgetTracker{StartHires: hiresNow()}
	if tm := in.opts.Budget.TimeMs; tm != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*tm)*time.Millisecond)
		defer cancel()
	}
	in.ctx = ctx
	in.files = []string{program.Span.File}

	span := program.Span
	in.emit(TraceRunStart, &span)

	res, err := in.runTopLevel(program.Statements)
	if err != nil {
		in.emitError(err)
	}

	in.emit(TraceRunEnd, &span)
	return res, err
}

func (in *Interpreter) runTopLevel(stmts []ast.Stmt) (*ExecResult, error) {
	res := &ExecResult{Value: NewNil()}
	for _, stmt := range stmts {
		span := stmt.NodeSpan()
		in.emit(TraceStmtStart, &span)

		res.Value, res.HasValue = NewNil(), false
		if es, ok := stmt.(*ast.ExprStmt); ok {
			val, err := in.evalExpr(es.Expr, in.globals)
			if err != nil {
				return res, err
			}
			res.Value, res.HasValue = val, true
		} else {
			out, err := in.execStmt(stmt, in.globals)
			if err != nil {
				return res, err
			}
			if out.kind != outNormal {
				return res, strayControl(out)
			}
		}

		in.emit(TraceStmtEnd, &span)
	}
	return res, nil
}

func (in *Interpreter) emit(event TraceEventType, span *ast.Span) {
	in.emitWithData(event, span, nil)
}

func (in *Interpreter) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if in.opts.Trace != nil {
		in.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     in.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func (in *Interpreter) emitError(err error) {
	if in.opts.Trace == nil {
		return
	}
	data := map[string]string{"message": err.Error()}
	var span *ast.Span
	if rte, ok := err.(*LoxRuntimeError); ok {
		data["code"] = rte.Code
		span = rte.Span
	}
	in.emitWithData(TraceError, span, data)
}

// tick accounts for one loop iteration against the budget.
func (in *Interpreter) tick(span ast.Span) error {
	in.tracker.Iterations++
	if limit := in.opts.Budget.MaxIterations; limit != nil && in.tracker.Iterations > *limit {
		return newRuntimeError(diagnostics.EBudget, span, "iteration budget exceeded (max %d)", *limit)
	}
	return in.checkTime(span)
}

func (in *Interpreter) checkTime(span ast.Span) error {
	if tm := in.opts.Budget.TimeMs; tm != nil && hiresSinceMs(in.tracker.StartHires) >= *tm {
		return newRuntimeError(diagnostics.EBudget, span, "time budget exceeded (%dms)", *tm)
	}
	if err := in.ctx.Err(); err != nil {
		return newRuntimeError(diagnostics.EBudget, span, "execution cancelled: %v", err)
	}
	return nil
}

// --- Statements ---

func (in *Interpreter) execStmt(stmt ast.Stmt, env *Env) (outcome, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(s.Expr, env)
		return normal, err

	case *ast.PrintStmt:
		val, err := in.evalExpr(s.Expr, env)
		if err != nil {
			return normal, err
		}
		if _, err := fmt.Fprintln(in.opts.Stdout, Stringify(val)); err != nil {
			return normal, newRuntimeError(diagnostics.EIO, s.Span, "print failed: %v", err)
		}
		return normal, nil

	case *ast.VarDecl:
		var val LoxValue = NewNil()
		if s.Init != nil {
			v, err := in.evalExpr(s.Init, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		env.Define(s.Name, val)
		return normal, nil

	case *ast.BlockStmt:
		return in.execBlock(s.Statements, env.Child())

	case *ast.IfStmt:
		cond, err := in.evalExpr(s.Cond, env)
		if err != nil {
			return normal, err
		}
		if Truthiness(cond) {
			return in.execStmt(s.Then, env)
		}
		if s.Else != nil {
			return in.execStmt(s.Else, env)
		}
		return normal, nil

	case *ast.WhileStmt:
		return in.execWhile(s, env)

	case *ast.FunctionDecl:
		env.Define(s.Name, &LoxFunction{Decl: s, Closure: env})
		return normal, nil

	case *ast.ReturnStmt:
		var val LoxValue = NewNil()
		if s.Value != nil {
			v, err := in.evalExpr(s.Value, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		return outcome{kind: outReturn, value: val, span: s.Span}, nil

	case *ast.ClassDecl:
		return normal, in.execClass(s, env)

	case *ast.BreakStmt:
		return outcome{kind: outBreak, span: s.Span}, nil

	case *ast.ContinueStmt:
		return outcome{kind: outContinue, span: s.Span}, nil

	case *ast.ImportStmt:
		return normal, in.execImport(s)
	}

	return normal, newRuntimeError(diagnostics.EType, stmt.NodeSpan(), "unsupported statement type: %T", stmt)
}

// execBlock runs stmts in env, stopping at the first error or non-normal outcome.
func (in *Interpreter) execBlock(stmts []ast.Stmt, env *Env) (outcome, error) {
	for _, stmt := range stmts {
		out, err := in.execStmt(stmt, env)
		if err != nil || out.kind != outNormal {
			return out, err
		}
	}
	return normal, nil
}

// execWhile runs a loop until its condition is falsy or the body breaks.
// continue ends the iteration early but still runs the increment.
func (in *Interpreter) execWhile(s *ast.WhileStmt, env *Env) (outcome, error) {
	span := s.Span
	in.emit(TraceLoopStart, &span)
	defer in.emit(TraceLoopEnd, &span)

	for {
		cond, err := in.evalExpr(s.Cond, env)
		if err != nil {
			return normal, err
		}
		if !Truthiness(cond) {
			return normal, nil
		}
		if err := in.tick(span); err != nil {
			return normal, err
		}

		out, err := in.execStmt(s.Body, env)
		if err != nil {
			return normal, err
		}
		switch out.kind {
		case outBreak:
			return normal, nil
		case outReturn:
			return out, nil
		}

		if s.Increment != nil {
			if _, err := in.evalExpr(s.Increment, env); err != nil {
				return normal, err
			}
		}
	}
}
