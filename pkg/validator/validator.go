// Package validator implements static checks over Lox programs.
//
// The checks never gate execution: every situation reported here is also
// caught at run time. They exist so `lox check` can report problems in code
// paths a test run might not reach.
package validator

import (
	"fmt"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSub
)

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

func (s *scope) hasLocal(name string) bool {
	return s.bindings[name]
}

type validator struct {
	diags     []diagnostics.Diagnostic
	loopDepth int
	fnDepth   int
	class     classKind
}

// Validate performs static analysis on a Lox program and returns diagnostics
// in source order.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	// Globals may be redeclared, so the top level gets no scope.
	for _, stmt := range program.Statements {
		v.validateStmt(stmt, nil)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

// declare records a local binding; sc is nil at global level.
func (v *validator) declare(sc *scope, name string, span ast.Span) {
	if sc == nil {
		return
	}
	if sc.hasLocal(name) {
		v.addDiag(diagnostics.EDupBinding, fmt.Sprintf("duplicate binding '%s' in this scope", name), span)
	}
	sc.add(name)
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v.validateExpr(s.Expr)

	case *ast.PrintStmt:
		v.validateExpr(s.Expr)

	case *ast.VarDecl:
		v.validateExpr(s.Init)
		v.declare(sc, s.Name, s.Span)

	case *ast.BlockStmt:
		v.validateBlock(s.Statements, newScope(sc))

	case *ast.IfStmt:
		v.validateExpr(s.Cond)
		v.validateStmt(s.Then, sc)
		if s.Else != nil {
			v.validateStmt(s.Else, sc)
		}

	case *ast.WhileStmt:
		v.validateExpr(s.Cond)
		v.loopDepth++
		v.validateStmt(s.Body, sc)
		v.loopDepth--
		v.validateExpr(s.Increment)

	case *ast.FunctionDecl:
		v.declare(sc, s.Name, s.Span)
		v.validateFunction(s, sc)

	case *ast.ReturnStmt:
		if v.fnDepth == 0 {
			v.addDiag(diagnostics.EReturnTop, "can't return from top-level code", s.Span)
		}
		v.validateExpr(s.Value)

	case *ast.ClassDecl:
		v.declare(sc, s.Name, s.Span)
		v.validateClass(s, sc)

	case *ast.BreakStmt:
		if v.loopDepth == 0 {
			v.addDiag(diagnostics.ELoopControl, "'break' used outside of a loop", s.Span)
		}

	case *ast.ContinueStmt:
		if v.loopDepth == 0 {
			v.addDiag(diagnostics.ELoopControl, "'continue' used outside of a loop", s.Span)
		}

	case *ast.ImportStmt:
		// resolved at run time
	}
}

func (v *validator) validateBlock(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

// validateFunction checks a body with a fresh loop context: break and
// continue never cross a function boundary.
func (v *validator) validateFunction(fn *ast.FunctionDecl, sc *scope) {
	savedLoop := v.loopDepth
	v.loopDepth = 0
	v.fnDepth++
	defer func() {
		v.loopDepth = savedLoop
		v.fnDepth--
	}()

	body := newScope(sc)
	for _, param := range fn.Params {
		v.declare(body, param, fn.Span)
	}
	v.validateBlock(fn.Body, body)
}

func (v *validator) validateClass(c *ast.ClassDecl, sc *scope) {
	saved := v.class
	v.class = classPlain
	defer func() { v.class = saved }()

	if c.Superclass != nil {
		if c.Superclass.Name == c.Name {
			v.addDiag(diagnostics.ESelfInherit, "a class can't inherit from itself", c.Superclass.Span)
		}
		v.class = classSub
	}

	seen := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		if seen[m.Name] {
			v.addDiag(diagnostics.EDupBinding, fmt.Sprintf("duplicate method '%s' in class %s", m.Name, c.Name), m.Span)
		}
		seen[m.Name] = true
		v.validateFunction(m, sc)
	}
}

func (v *validator) validateExpr(expr ast.Expr) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NilLiteral, *ast.Variable:
		// nothing to check

	case *ast.Assign:
		v.validateExpr(e.Value)

	case *ast.CompoundAssign:
		v.validateExpr(e.Value)

	case *ast.BinaryExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.LogicalExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.UnaryExpr:
		v.validateExpr(e.Operand)

	case *ast.Grouping:
		v.validateExpr(e.Inner)

	case *ast.CallExpr:
		v.validateExpr(e.Callee)
		for _, arg := range e.Args {
			v.validateExpr(arg)
		}

	case *ast.GetExpr:
		v.validateExpr(e.Object)

	case *ast.SetExpr:
		v.validateExpr(e.Object)
		v.validateExpr(e.Value)

	case *ast.ThisExpr:
		if v.class == classNone {
			v.addDiag(diagnostics.EThisOutsideClass, "can't use 'this' outside of a class method", e.Span)
		}

	case *ast.SuperExpr:
		switch v.class {
		case classNone:
			v.addDiag(diagnostics.ESuper, "can't use 'super' outside of a class method", e.Span)
		case classPlain:
			v.addDiag(diagnostics.ESuper, "can't use 'super' in a class with no superclass", e.Span)
		}

	case *ast.ArrayLiteral:
		for _, elem := range e.Elements {
			v.validateExpr(elem)
		}

	case *ast.IndexGet:
		v.validateExpr(e.Array)
		v.validateExpr(e.Index)

	case *ast.IndexSet:
		v.validateExpr(e.Array)
		v.validateExpr(e.Index)
		v.validateExpr(e.Value)
	}
}
