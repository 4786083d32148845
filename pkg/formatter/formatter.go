// Package formatter implements the Lox source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/lox/pkg/ast"
)

const indent = "  "

// maxInline is the widest array literal kept on one line.
const maxInline = 72

// Binding strength of each expression form (higher = tighter binding).
const (
	precAssign = iota + 1
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

var binaryPrecedence = map[ast.BinaryOp]int{
	ast.OpEqEq: precEquality, ast.OpNeq: precEquality,
	ast.OpGt: precComparison, ast.OpLt: precComparison, ast.OpGtEq: precComparison, ast.OpLtEq: precComparison,
	ast.OpAdd: precTerm, ast.OpSub: precTerm,
	ast.OpMul: precFactor, ast.OpDiv: precFactor, ast.OpMod: precFactor,
}

func precedence(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.Assign, *ast.CompoundAssign, *ast.SetExpr, *ast.IndexSet:
		return precAssign
	case *ast.LogicalExpr:
		if expr.Op == ast.OpOr {
			return precOr
		}
		return precAnd
	case *ast.BinaryExpr:
		return binaryPrecedence[expr.Op]
	case *ast.UnaryExpr:
		return precUnary
	case *ast.CallExpr, *ast.GetExpr, *ast.IndexGet:
		return precCall
	}
	return precPrimary
}

// Format pretty-prints a Lox AST back to source code.
func Format(program *ast.Program) string {
	if len(program.Statements) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range program.Statements {
		if i > 0 {
			b.WriteByte('\n')
			if isDeclBlock(s) || isDeclBlock(program.Statements[i-1]) {
				b.WriteByte('\n')
			}
		}
		b.WriteString(formatStmt(s, 0))
	}
	b.WriteByte('\n')
	return b.String()
}

func isDeclBlock(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FunctionDecl, *ast.ClassDecl:
		return true
	}
	return false
}

// HasComments checks if a source string contains Lox comments. Formatting
// drops comments, so callers use this to refuse rewriting such files.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		ch := source[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch == '/' && i+1 < len(source) && (source[i+1] == '/' || source[i+1] == '*') {
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr, depth) + ";"

	case *ast.PrintStmt:
		return prefix + "print " + formatExpr(stmt.Expr, depth) + ";"

	case *ast.VarDecl:
		if stmt.Init == nil {
			return prefix + "var " + stmt.Name + ";"
		}
		return prefix + "var " + stmt.Name + " = " + formatExpr(stmt.Init, depth) + ";"

	case *ast.BlockStmt:
		if loop, ok := desugaredFor(stmt); ok {
			return prefix + formatFor(stmt.Statements[0], loop, depth)
		}
		return prefix + formatBlock(stmt.Statements, depth)

	case *ast.IfStmt:
		out := prefix + "if (" + formatExpr(stmt.Cond, depth) + ")" + formatBody(stmt.Then, depth)
		if stmt.Else != nil {
			if _, isBlock := stmt.Then.(*ast.BlockStmt); isBlock {
				out += " else"
			} else {
				out += "\n" + prefix + "else"
			}
			out += formatBody(stmt.Else, depth)
		}
		return out

	case *ast.WhileStmt:
		if stmt.Increment != nil {
			return prefix + formatFor(nil, stmt, depth)
		}
		return prefix + "while (" + formatExpr(stmt.Cond, depth) + ")" + formatBody(stmt.Body, depth)

	case *ast.FunctionDecl:
		return prefix + "fun " + formatFunction(stmt, depth)

	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return prefix + "return;"
		}
		return prefix + "return " + formatExpr(stmt.Value, depth) + ";"

	case *ast.ClassDecl:
		head := prefix + "class " + stmt.Name
		if stmt.Superclass != nil {
			head += " < " + stmt.Superclass.Name
		}
		if len(stmt.Methods) == 0 {
			return head + " {}"
		}
		inner := strings.Repeat(indent, depth+1)
		methods := make([]string, len(stmt.Methods))
		for i, m := range stmt.Methods {
			methods[i] = inner + formatFunction(m, depth+1)
		}
		return head + " {\n" + strings.Join(methods, "\n\n") + "\n" + prefix + "}"

	case *ast.BreakStmt:
		return prefix + "break;"

	case *ast.ContinueStmt:
		return prefix + "continue;"

	case *ast.ImportStmt:
		return prefix + "import " + quote(stmt.Module) + ";"
	}
	return ""
}

// formatBody renders a statement that follows a control header on the same
// line. Nested lines keep indentation relative to depth.
func formatBody(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	return " " + strings.TrimPrefix(formatStmt(s, depth), prefix)
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatFunction(fn *ast.FunctionDecl, depth int) string {
	return fn.Name + "(" + strings.Join(fn.Params, ", ") + ") " + formatBlock(fn.Body, depth)
}

// desugaredFor recognises the block a for loop with an initializer parses
// to: the initializer followed by a while loop carrying the increment.
func desugaredFor(b *ast.BlockStmt) (*ast.WhileStmt, bool) {
	if len(b.Statements) != 2 {
		return nil, false
	}
	switch b.Statements[0].(type) {
	case *ast.VarDecl, *ast.ExprStmt:
	default:
		return nil, false
	}
	loop, ok := b.Statements[1].(*ast.WhileStmt)
	if !ok || loop.Increment == nil {
		return nil, false
	}
	return loop, true
}

func formatFor(init ast.Stmt, loop *ast.WhileStmt, depth int) string {
	head := "for ("
	if init != nil {
		head += formatStmt(init, 0)
	} else {
		head += ";"
	}
	head += " " + formatExpr(loop.Cond, depth) + "; " + formatExpr(loop.Increment, depth) + ")"
	return head + formatBody(loop.Body, depth)
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return strconv.FormatFloat(expr.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		return quote(expr.Value)
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.NilLiteral:
		return "nil"
	case *ast.Variable:
		return expr.Name
	case *ast.ThisExpr:
		return "this"
	case *ast.SuperExpr:
		return "super." + expr.Method
	case *ast.Grouping:
		return "(" + formatExpr(expr.Inner, depth) + ")"

	case *ast.Assign:
		return expr.Name + " = " + operand(expr.Value, precAssign, depth)
	case *ast.CompoundAssign:
		return expr.Name + " " + string(expr.Op) + "= " + operand(expr.Value, precAssign, depth)
	case *ast.SetExpr:
		return operand(expr.Object, precCall, depth) + "." + expr.Name + " = " + operand(expr.Value, precAssign, depth)
	case *ast.IndexSet:
		return operand(expr.Array, precCall, depth) + "[" + formatExpr(expr.Index, depth) + "] = " +
			operand(expr.Value, precAssign, depth)

	case *ast.LogicalExpr:
		p := precedence(expr)
		return operand(expr.Left, p, depth) + " " + string(expr.Op) + " " + operand(expr.Right, p+1, depth)
	case *ast.BinaryExpr:
		p := precedence(expr)
		return operand(expr.Left, p, depth) + " " + string(expr.Op) + " " + operand(expr.Right, p+1, depth)
	case *ast.UnaryExpr:
		inner := operand(expr.Operand, precUnary, depth)
		if expr.Op == ast.OpNeg && strings.HasPrefix(inner, "-") {
			return "-(" + inner + ")"
		}
		return string(expr.Op) + inner

	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, depth)
		}
		return operand(expr.Callee, precCall, depth) + "(" + strings.Join(args, ", ") + ")"
	case *ast.GetExpr:
		return operand(expr.Object, precCall, depth) + "." + expr.Name
	case *ast.IndexGet:
		return operand(expr.Array, precCall, depth) + "[" + formatExpr(expr.Index, depth) + "]"
	case *ast.ArrayLiteral:
		return formatArray(expr, depth)
	}
	return ""
}

// operand renders e, adding parentheses when it binds looser than minPrec.
func operand(e ast.Expr, minPrec, depth int) string {
	s := formatExpr(e, depth)
	if precedence(e) < minPrec {
		return "(" + s + ")"
	}
	return s
}

func formatArray(list *ast.ArrayLiteral, depth int) string {
	if len(list.Elements) == 0 {
		return "[]"
	}

	// Try inline first
	inlineParts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		inlineParts[i] = formatExpr(e, depth+1)
	}
	inline := "[" + strings.Join(inlineParts, ", ") + "]"
	if len(inline) <= maxInline && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	parts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		parts[i] = inner + formatExpr(e, depth+1)
	}
	return "[\n" + strings.Join(parts, ",\n") + "\n" + outer + "]"
}

// quote renders s as a Lox string literal using only the escapes the lexer
// accepts.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
