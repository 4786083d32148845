package parser_test

import (
	"testing"

	"github.com/thomasrohde/lox/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser never panics; it returns diagnostics for invalid input.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Minimal valid programs
		`print 42;`,
		`var x = 1; print x;`,
		// Arrays and indexing
		`var a = [1, 2, 3]; a[0] = a[1] + a[2];`,
		// Compound assignment
		`var n = 0; n += 1; n -= 2;`,
		// Control flow
		`if (true) print 1; else print 2;`,
		`while (false) { break; }`,
		`for (var i = 0; i < 10; i += 1) { if (i % 2 == 0) continue; print i; }`,
		`for (;;) break;`,
		// Functions and closures
		`fun make() { var c = 0; fun inc() { c += 1; return c; } return inc; }`,
		// Classes
		`class A { init(x) { this.x = x; } get() { return this.x; } }
class B < A { get() { return super.get() * 2; } }
print B(3).get();`,
		// Import
		`import "lib";`,
		// Logical
		`print nil or "x" and !false || 1 && 2;`,
		// Edge cases
		``,
		`;`,
		`{`,
		`}`,
		`(((`,
		`print`,
		`var`,
		`class`,
		`fun f(`,
		`a = = b;`,
		`1 = 2;`,
		`a.b += 1;`,
		`super`,
		`[1, 2,`,
		`x[`,
		`for (var i = 0`,
		`"unterminated`,
		`/* open`,
		`@`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on input %q: %v", input, r)
				}
			}()
			prog, diags := parser.Parse(input, "fuzz.lox")
			if prog == nil && len(diags) == 0 {
				t.Fatalf("Parse returned neither a program nor diagnostics for %q", input)
			}
			parser.Incomplete(input)
		}()
	})
}
