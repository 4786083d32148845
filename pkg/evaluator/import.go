package evaluator

import (
	"fmt"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/parser"
)

// execImport loads a module and runs its top-level statements in the global
// environment. Each resolved path runs at most once per interpreter, so
// repeated and circular imports are no-ops.
func (in *Interpreter) execImport(s *ast.ImportStmt) error {
	if in.opts.Loader == nil {
		return newRuntimeError(diagnostics.EImport, s.Span, "cannot import '%s': no module loader configured", s.Module)
	}

	importer := ""
	if len(in.files) > 0 {
		importer = in.files[len(in.files)-1]
	}
	path, source, err := in.opts.Loader.Load(s.Module, importer)
	if err != nil {
		return newRuntimeError(diagnostics.EImport, s.Span, "cannot import '%s': %v", s.Module, err)
	}
	if in.imported[path] {
		return nil
	}
	in.imported[path] = true

	span := s.Span
	data := map[string]string{"module": s.Module, "path": path}
	in.emitWithData(TraceImportStart, &span, data)
	defer in.emitWithData(TraceImportEnd, &span, data)

	prog, diags := parser.Parse(source, path)
	if len(diags) > 0 {
		rte := newRuntimeError(diagnostics.EImport, s.Span,
			"cannot import '%s': %s", s.Module, pluralErrors(len(diags)))
		rte.Related = diags
		return rte
	}

	in.files = append(in.files, path)
	defer func() { in.files = in.files[:len(in.files)-1] }()

	for _, stmt := range prog.Statements {
		out, err := in.execStmt(stmt, in.globals)
		if err != nil {
			return err
		}
		if out.kind != outNormal {
			cause := strayControl(out)
			rte := newRuntimeError(diagnostics.EImport, s.Span, "cannot import '%s': %s", s.Module, cause.Message)
			rte.Related = []diagnostics.Diagnostic{cause.Diagnostic()}
			return rte
		}
	}
	return nil
}

func pluralErrors(n int) string {
	if n == 1 {
		return "1 error in module"
	}
	return fmt.Sprintf("%d errors in module", n)
}
