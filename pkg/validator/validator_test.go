package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/parser"
	"github.com/thomasrohde/lox/pkg/validator"
)

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.lox")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(prog)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCodeAt checks that diagnostic at index i has the expected code.
func assertDiagCodeAt(t *testing.T, diags []diagnostics.Diagnostic, index int, code string) {
	t.Helper()
	if index >= len(diags) {
		t.Errorf("expected diagnostic at index %d with code %s, but only %d diagnostics exist", index, code, len(diags))
		return
	}
	if diags[index].Code != code {
		t.Errorf("diagnostic[%d]: got code %q, want %q (message: %s)", index, diags[index].Code, code, diags[index].Message)
	}
}

// expectSingle asserts exactly one diagnostic with code on line.
func expectSingle(t *testing.T, source, code string, line int) {
	t.Helper()
	diags := mustParseAndValidate(t, source)
	assertDiagCount(t, diags, 1)
	assertDiagCodeAt(t, diags, 0, code)
	if len(diags) == 1 && diags[0].Line() != line {
		t.Errorf("diagnostic on line %d, want %d", diags[0].Line(), line)
	}
}

// ===== Valid Programs (zero diagnostics) =====

func TestValid_Empty(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, ``))
}

func TestValid_LoopsAndFunctions(t *testing.T) {
	diags := mustParseAndValidate(t, `
fun find(arr, x) {
  for (var i = 0; i < length(arr); i += 1) {
    if (arr[i] == x) return i;
    if (arr[i] == nil) continue;
    while (true) { break; }
  }
  return -1;
}
print find([1, 2], 2);
`)
	assertNoDiags(t, diags)
}

func TestValid_Classes(t *testing.T) {
	diags := mustParseAndValidate(t, `
class A {
  init(n) { this.n = n; }
  get() { return this.n; }
}
class B < A {
  get() {
    fun inner() { return this.n + super.get(); }
    return inner();
  }
}
`)
	assertNoDiags(t, diags)
}

func TestValid_GlobalRedeclaration(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `var a = 1; var a = 2; fun f() {} fun f() {}`))
}

func TestValid_ShadowingInNestedScope(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `{ var a = 1; { var a = 2; } }`))
}

func TestValid_ForLoopVariablesInSiblingLoops(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, `
fun f() {
  for (var i = 0; i < 2; i += 1) {}
  for (var i = 0; i < 2; i += 1) {}
}
`))
}

// ===== Loop control =====

func TestError_BreakOutsideLoop(t *testing.T) {
	expectSingle(t, "print 1;\nbreak;", diagnostics.ELoopControl, 2)
}

func TestError_ContinueOutsideLoop(t *testing.T) {
	expectSingle(t, "if (true) {\n  continue;\n}", diagnostics.ELoopControl, 2)
}

func TestError_BreakInFunctionInsideLoop(t *testing.T) {
	expectSingle(t, "while (true) {\n  fun f() { break; }\n}", diagnostics.ELoopControl, 2)
}

func TestValid_LoopInsideFunctionInsideLoop(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "while (true) { fun f() { while (true) { break; } } break; }"))
}

// ===== Return =====

func TestError_TopLevelReturn(t *testing.T) {
	expectSingle(t, "var x = 1;\nreturn x;", diagnostics.EReturnTop, 2)
}

func TestError_ReturnInTopLevelLoop(t *testing.T) {
	expectSingle(t, "while (true) { return; }", diagnostics.EReturnTop, 1)
}

// ===== this / super =====

func TestError_ThisOutsideClass(t *testing.T) {
	expectSingle(t, "fun f() {\n  return this;\n}", diagnostics.EThisOutsideClass, 2)
}

func TestError_SuperOutsideClass(t *testing.T) {
	expectSingle(t, "print super.x;", diagnostics.ESuper, 1)
}

func TestError_SuperWithoutSuperclass(t *testing.T) {
	diags := mustParseAndValidate(t, "class A {\n  m() { return super.m(); }\n}")
	assertDiagCount(t, diags, 1)
	assertDiagCodeAt(t, diags, 0, diagnostics.ESuper)
	if len(diags) == 1 && !strings.Contains(diags[0].Message, "no superclass") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

func TestError_ClassContextEndsAfterClass(t *testing.T) {
	expectSingle(t, "class A { m() { return this; } }\nprint this;", diagnostics.EThisOutsideClass, 2)
}

func TestError_SelfInheritance(t *testing.T) {
	expectSingle(t, "class Loop < Loop {}", diagnostics.ESelfInherit, 1)
}

// ===== Duplicate bindings =====

func TestError_DuplicateLocal(t *testing.T) {
	expectSingle(t, "{\n  var a = 1;\n  var a = 2;\n}", diagnostics.EDupBinding, 3)
}

func TestError_DuplicateParam(t *testing.T) {
	expectSingle(t, "fun f(a, a) {}", diagnostics.EDupBinding, 1)
}

func TestError_LocalShadowsParamInBody(t *testing.T) {
	expectSingle(t, "fun f(a) {\n  var a = 1;\n}", diagnostics.EDupBinding, 2)
}

func TestError_DuplicateMethod(t *testing.T) {
	expectSingle(t, "class A {\n  m() {}\n  m() {}\n}", diagnostics.EDupBinding, 3)
}

func TestError_LocalFunctionAndVar(t *testing.T) {
	expectSingle(t, "fun outer() {\n  var helper;\n  fun helper() {}\n}", diagnostics.EDupBinding, 3)
}

// ===== Multiple diagnostics =====

func TestMultipleDiagnosticsInSourceOrder(t *testing.T) {
	diags := mustParseAndValidate(t, `
break;
print this;
return;
class C < C {}
`)
	assertDiagCount(t, diags, 4)
	assertDiagCodeAt(t, diags, 0, diagnostics.ELoopControl)
	assertDiagCodeAt(t, diags, 1, diagnostics.EThisOutsideClass)
	assertDiagCodeAt(t, diags, 2, diagnostics.EReturnTop)
	assertDiagCodeAt(t, diags, 3, diagnostics.ESelfInherit)
}

func TestNestedExpressionsAreVisited(t *testing.T) {
	diags := mustParseAndValidate(t, `
var a = [this];
var b = f(1, this)[this];
b.x = -this;
`)
	assertDiagCount(t, diags, 4)
	for i := range diags {
		assertDiagCodeAt(t, diags, i, diagnostics.EThisOutsideClass)
	}
}
