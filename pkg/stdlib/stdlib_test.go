package stdlib_test

import (
	"errors"
	"math"
	"testing"

	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
	"github.com/thomasrohde/lox/pkg/stdlib"
)

func call(t *testing.T, name string, args ...evaluator.LoxValue) (evaluator.LoxValue, error) {
	t.Helper()
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r)
	fn := r.Get(name)
	if fn == nil {
		t.Fatalf("native %q not registered", name)
	}
	if fn.Arity >= 0 && fn.Arity != len(args) {
		t.Fatalf("%s takes %d arguments, test passed %d", name, fn.Arity, len(args))
	}
	return fn.Fn(args)
}

func mustCall(t *testing.T, name string, args ...evaluator.LoxValue) evaluator.LoxValue {
	t.Helper()
	val, err := call(t, name, args...)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return val
}

func num(n float64) evaluator.LoxValue { return evaluator.NewNumber(n) }
func str(s string) evaluator.LoxValue { return evaluator.NewString(s) }
func arr(items ...evaluator.LoxValue) *evaluator.LoxArray { return evaluator.NewArray(items) }

func expectText(t *testing.T, got evaluator.LoxValue, want string) {
	t.Helper()
	if s := evaluator.Stringify(got); s != want {
		t.Errorf("got %s, want %s", s, want)
	}
}

func TestRegistry(t *testing.T) {
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r)

	for _, name := range []string{"clock", "length", "type", "str"} {
		if r.Get(name) == nil {
			t.Errorf("missing required built-in %q", name)
		}
	}
	if r.Get("nope") != nil {
		t.Error("unknown name should return nil")
	}

	names := r.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names not sorted: %v", names)
		}
	}
	if len(names) != len(r.All()) {
		t.Errorf("Names and All disagree: %d vs %d", len(names), len(r.All()))
	}

	r.Register(&evaluator.LoxNative{Name: "clock", Arity: 0, Fn: func([]evaluator.LoxValue) (evaluator.LoxValue, error) {
		return evaluator.NewNumber(1), nil
	}})
	if v, _ := r.Get("clock").Fn(nil); evaluator.Stringify(v) != "1" {
		t.Error("Register should replace an existing entry")
	}
}

func TestDefaultsAreIndependent(t *testing.T) {
	a := stdlib.Defaults()
	b := stdlib.Defaults()
	delete(a, "str")
	if _, ok := b["str"]; !ok {
		t.Error("Defaults should return a fresh map each call")
	}
}

func TestClock(t *testing.T) {
	v := mustCall(t, "clock")
	n, ok := v.(evaluator.LoxNumber)
	if !ok || n.Value < 1e9 {
		t.Errorf("clock() = %v, want seconds since epoch", v)
	}
}

func TestLength(t *testing.T) {
	expectText(t, mustCall(t, "length", str("héllo")), "5")
	expectText(t, mustCall(t, "length", str("")), "0")
	expectText(t, mustCall(t, "length", arr(num(1), num(2), num(3))), "3")

	_, err := call(t, "length", num(3))
	if err == nil {
		t.Fatal("length(3) should fail")
	}
}

func TestType(t *testing.T) {
	tests := []struct {
		value evaluator.LoxValue
		want  string
	}{
		{evaluator.NewNil(), "nil"},
		{evaluator.NewBool(true), "boolean"},
		{num(1), "number"},
		{str("s"), "string"},
		{arr(), "array"},
		{&evaluator.LoxNative{Name: "clock"}, "function"},
	}
	for _, tt := range tests {
		expectText(t, mustCall(t, "type", tt.value), tt.want)
	}
}

func TestStr(t *testing.T) {
	expectText(t, mustCall(t, "str", num(2.0)), "2")
	expectText(t, mustCall(t, "str", evaluator.NewBool(false)), "false")
	expectText(t, mustCall(t, "str", arr(num(1), str("a"), evaluator.NewNil())), "[1, a, nil]")
	if _, ok := mustCall(t, "str", num(1)).(evaluator.LoxString); !ok {
		t.Error("str should return a string")
	}
}

func TestPushPop(t *testing.T) {
	a := arr(num(1))
	expectText(t, mustCall(t, "push", a, str("x")), "2")
	expectText(t, a, "[1, x]")

	expectText(t, mustCall(t, "pop", a), "x")
	expectText(t, mustCall(t, "pop", a), "1")
	expectText(t, a, "[]")

	_, err := call(t, "pop", a)
	var rte *evaluator.LoxRuntimeError
	if !errors.As(err, &rte) || rte.Code != diagnostics.EIndex {
		t.Errorf("pop on empty array: got %v, want E_INDEX", err)
	}

	if _, err := call(t, "push", num(1), num(2)); err == nil {
		t.Error("push onto a number should fail")
	}
}

func TestRange(t *testing.T) {
	expectText(t, mustCall(t, "range", num(3)), "[0, 1, 2]")
	expectText(t, mustCall(t, "range", num(2), num(5)), "[2, 3, 4]")
	expectText(t, mustCall(t, "range", num(5), num(2)), "[]")
	expectText(t, mustCall(t, "range", num(0)), "[]")

	var rte *evaluator.LoxRuntimeError
	_, err := call(t, "range")
	if !errors.As(err, &rte) || rte.Code != diagnostics.EArity {
		t.Errorf("range(): got %v, want E_ARITY", err)
	}
	_, err = call(t, "range", num(0), num(1e9))
	if !errors.As(err, &rte) || rte.Code != diagnostics.EBudget {
		t.Errorf("huge range: got %v, want E_BUDGET", err)
	}
	if _, err := call(t, "range", str("3")); err == nil {
		t.Error("range of a string should fail")
	}
}

func TestRangeRejectsNonFiniteBounds(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := call(t, "range", num(bad)); err == nil {
			t.Errorf("range(%v) should fail", bad)
		}
		if _, err := call(t, "range", num(0), num(bad)); err == nil {
			t.Errorf("range(0, %v) should fail", bad)
		}
		if _, err := call(t, "range", num(bad), num(3)); err == nil {
			t.Errorf("range(%v, 3) should fail", bad)
		}
	}
}

func TestJoinSplit(t *testing.T) {
	expectText(t, mustCall(t, "join", arr(num(1), str("b"), evaluator.NewBool(true)), str("-")), "1-b-true")
	expectText(t, mustCall(t, "join", arr(), str(",")), "")
	if _, err := call(t, "join", arr(), num(1)); err == nil {
		t.Error("join with a numeric separator should fail")
	}

	parts := mustCall(t, "split", str("a,b,,c"), str(","))
	expectText(t, parts, "[a, b, , c]")
	expectText(t, mustCall(t, "split", str("abc"), str("")), "[a, b, c]")
	if _, err := call(t, "split", arr(), str(",")); err == nil {
		t.Error("split of an array should fail")
	}
}

func TestMath(t *testing.T) {
	expectText(t, mustCall(t, "floor", num(2.7)), "2")
	expectText(t, mustCall(t, "floor", num(-2.1)), "-3")
	expectText(t, mustCall(t, "sqrt", num(16)), "4")
	expectText(t, mustCall(t, "max", num(3), num(7)), "7")
	expectText(t, mustCall(t, "min", num(3), num(7)), "3")

	if _, err := call(t, "sqrt", num(-1)); err == nil {
		t.Error("sqrt(-1) should fail")
	}
	if _, err := call(t, "max", num(1), str("2")); err == nil {
		t.Error("max with a string should fail")
	}
}
