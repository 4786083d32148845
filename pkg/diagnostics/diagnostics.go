// Package diagnostics defines Lox diagnostic types for lexical, syntax and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/lox/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex           = "E_LEX"
	EParse         = "E_PARSE"
	EUndefined     = "E_UNDEFINED"
	EType          = "E_TYPE"
	EArity         = "E_ARITY"
	EDivZero       = "E_DIV_ZERO"
	EIndex         = "E_INDEX"
	ENotCallable   = "E_NOT_CALLABLE"
	EProperty      = "E_PROPERTY"
	EControl       = "E_CONTROL"
	EStackOverflow = "E_STACK_OVERFLOW"
	EBudget        = "E_BUDGET"
	EImport        = "E_IMPORT"
	EIO            = "E_IO"

	// Static checks reported by `lox check`.
	ELoopControl      = "E_LOOP_CONTROL"
	EReturnTop        = "E_RETURN_TOP"
	EThisOutsideClass = "E_THIS_OUTSIDE_CLASS"
	ESuper            = "E_SUPER"
	ESelfInherit      = "E_SELF_INHERIT"
	EDupBinding       = "E_DUP_BINDING"
)

// Diagnostic represents a lexical, syntax, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Line returns the source line of the diagnostic, or 0 when it has no span.
func (d Diagnostic) Line() int {
	if d.Span == nil {
		return 0
	}
	return d.Span.StartLine
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
