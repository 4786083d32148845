// Package help holds the quick reference and topic pages printed by `lox help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/lox/pkg/stdlib"
)

// Version is the language reference version shown in QUICKREF.
const Version = "v1.0"

// QUICKREF is printed by `lox help` with no topic.
var QUICKREF = `Lox ` + Version + ` quick reference

USAGE
  lox                     start the REPL
  lox run <file>          run a script
  lox check <file>        report syntax and static errors without running
  lox fmt [-w] <file>     print (or rewrite) a file in canonical form
  lox trace <file>        run and stream trace events as JSON lines to stderr
  lox eval [--json] <src> evaluate source text and print the last value
  lox help [topic]        show this page or a topic

LANGUAGE AT A GLANCE
  var x = 1;  x += 2;  print x;
  fun add(a, b) { return a + b; }
  class Dog < Animal { init(n) { this.name = n; } }
  for (var i = 0; i < 3; i += 1) { if (i == 1) continue; print i; }
  var xs = [1, 2, 3];  xs[0] = 9;  print length(xs);
  import "util";

TOPICS
  syntax, types, classes, flow, stdlib, imports, diagnostics, cli, examples
  Prefixes work: "lox help diag".
`

// TopicList is the display order of topics.
var TopicList = []string{"syntax", "types", "classes", "flow", "stdlib", "imports", "diagnostics", "cli", "examples"}

// Topics maps a topic name to its page.
var Topics = map[string]string{
	"syntax": `SYNTAX
  Statements end with ';'. Blocks use braces and open a new scope.
  Comments: // to end of line, /* block */ (block comments nest).
  Strings: "text" with escapes \n \t \" \; they may span lines.
  Numbers: 12, 3.5 (no exponent; '-' is an operator).
  Operators, loosest first:
    =  +=  -=            assignment (right associative)
    or  ||               logical or
    and &&               logical and
    ==  !=               equality
    <  <=  >  >=         comparison (numbers only)
    +  -                 addition, string concatenation
    *  /  %              multiplication
    !  -                 unary
    ()  .  []            call, property, index
`,
	"types": `TYPES
  nil, boolean, number (64-bit float), string, array, function, class, instance.
  Truthiness: only nil and false are falsy; 0 and "" are truthy.
  Equality: by value for nil, booleans, numbers and strings; by identity otherwise.
  Arrays are shared by reference: after "var b = a;" both names see writes.
  Indexing requires an integer in [0, length); strings index to 1-character strings.
  "+" concatenates when either side is a string, converting the other with str().
`,
	"classes": `CLASSES
  class Point {
    init(x, y) { this.x = x; this.y = y; }
    norm() { return sqrt(this.x * this.x + this.y * this.y); }
  }
  Calling a class makes an instance and runs init with the arguments.
  Property reads check fields first, then methods up the superclass chain.
  Methods read off an instance stay bound to it: var f = p.norm; f();
  Subclasses: class Point3 < Point { init(x, y, z) { super.init(x, y); this.z = z; } }
`,
	"flow": `CONTROL FLOW
  if (cond) stmt else stmt
  while (cond) stmt
  for (init; cond; step) stmt     any clause may be empty
  break;      leave the innermost loop
  continue;   next iteration (a for loop still runs its step)
  return;     leave the current function (value optional)
  break, continue and return used where nothing can consume them are runtime errors.
`,
	"stdlib": `BUILT-IN FUNCTIONS
  Run "lox help stdlib" for this page; the index below lists every built-in.
`,
	"imports": `IMPORTS
  import "name";
  Loads name.lox from the importing file's directory, then from each import
  path (-I flag or import_paths in .lox.yaml). The module runs in the shared
  global scope, once per program: repeated and circular imports are no-ops.
`,
	"diagnostics": `DIAGNOSTICS
  Every error has a code, a message and a file:line:col location.
  E_LEX E_PARSE                lexical and syntax errors (nothing runs)
  E_UNDEFINED E_PROPERTY       unknown variable or property
  E_TYPE E_ARITY E_NOT_CALLABLE
  E_DIV_ZERO E_INDEX           arithmetic and bounds
  E_CONTROL                    break/continue/return with nothing to consume them
  E_STACK_OVERFLOW E_BUDGET    resource limits
  E_IMPORT E_IO                module loading and output
  lox check also reports E_LOOP_CONTROL E_RETURN_TOP E_THIS_OUTSIDE_CLASS
  E_SUPER E_SELF_INHERIT E_DUP_BINDING.
  Exit codes: 0 ok, 64 usage, 65 syntax, 70 runtime, 74 I/O.
`,
	"cli": `CLI
  --json               diagnostics as JSON
  --pretty             diagnostics as text (default)
  --timeout-ms N       abort after N milliseconds
  --max-iterations N   abort after N loop iterations
  -I dir               add an import path (repeatable)
  --verbose            log configuration details to stderr
  Settings can also come from .lox.yaml or ~/.lox/config.yaml.
  REPL commands: :help  :env  :quit
`,
	"examples": `EXAMPLES
  fun makeCounter() {
    var n = 0;
    fun inc() { n += 1; return n; }
    return inc;
  }
  var c = makeCounter();
  print c(); // 1
  print c(); // 2

  var words = split("a,b,c", ",");
  print join(words, "-"); // a-b-c
`,
}

// signatures documents each default built-in.
var signatures = map[string]string{
	"clock":  "clock() -> number          seconds since the Unix epoch",
	"length": "length(v) -> number        characters of a string or elements of an array",
	"type":   "type(v) -> string          type name of v",
	"str":    "str(v) -> string           printed form of v",
	"push":   "push(arr, v) -> number     append v, return the new length",
	"pop":    "pop(arr) -> value          remove and return the last element",
	"range":  "range(n) / range(a, b)     array of integers in [0, n) or [a, b)",
	"join":   "join(arr, sep) -> string   elements' str joined by sep",
	"split":  "split(s, sep) -> array     substrings of s between sep",
	"floor":  "floor(n) -> number         round down",
	"sqrt":   "sqrt(n) -> number          square root",
	"max":    "max(a, b) -> number        larger of two numbers",
	"min":    "min(a, b) -> number        smaller of two numbers",
}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, withIndex(query, content), nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], withIndex(matches[0], Topics[matches[0]]), nil
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: matches %s", query, strings.Join(matches, ", "))
}

func withIndex(name, content string) string {
	if name == "stdlib" {
		return content + "\n" + StdlibIndex()
	}
	return content
}

// StdlibIndex lists every default built-in with its signature.
func StdlibIndex() string {
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r)
	names := r.Names()
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		sig, ok := signatures[name]
		if !ok {
			sig = name + "(...)"
		}
		fmt.Fprintf(&b, "  %s\n", sig)
	}
	fmt.Fprintf(&b, "\nTotal: %d functions\n", len(names))
	return b.String()
}
