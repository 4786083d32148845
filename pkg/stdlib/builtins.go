package stdlib

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
)

// RegisterDefaults adds all built-in functions.
func RegisterDefaults(r *Registry) {
	// Core
	r.Register(&evaluator.LoxNative{Name: "clock", Arity: 0, Fn: stdlibClock})
	r.Register(&evaluator.LoxNative{Name: "length", Arity: 1, Fn: stdlibLength})
	r.Register(&evaluator.LoxNative{Name: "type", Arity: 1, Fn: stdlibType})
	r.Register(&evaluator.LoxNative{Name: "str", Arity: 1, Fn: stdlibStr})

	// Array ops
	r.Register(&evaluator.LoxNative{Name: "push", Arity: 2, Fn: stdlibPush})
	r.Register(&evaluator.LoxNative{Name: "pop", Arity: 1, Fn: stdlibPop})
	r.Register(&evaluator.LoxNative{Name: "range", Arity: -1, Fn: stdlibRange})
	r.Register(&evaluator.LoxNative{Name: "join", Arity: 2, Fn: stdlibJoin})

	// String ops
	r.Register(&evaluator.LoxNative{Name: "split", Arity: 2, Fn: stdlibSplit})

	// Math
	r.Register(&evaluator.LoxNative{Name: "floor", Arity: 1, Fn: stdlibFloor})
	r.Register(&evaluator.LoxNative{Name: "sqrt", Arity: 1, Fn: stdlibSqrt})
	r.Register(&evaluator.LoxNative{Name: "max", Arity: 2, Fn: stdlibMax})
	r.Register(&evaluator.LoxNative{Name: "min", Arity: 2, Fn: stdlibMin})
}

// indexError builds an error the evaluator reports as E_INDEX at the call site.
func indexError(format string, args ...any) error {
	return &evaluator.LoxRuntimeError{Code: diagnostics.EIndex, Message: fmt.Sprintf(format, args...)}
}

// clock() → seconds since the Unix epoch
func stdlibClock(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewNumber(float64(time.Now().UnixNano()) / 1e9), nil
}

// length(value) → number of characters in a string or elements in an array
func stdlibLength(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	switch v := args[0].(type) {
	case evaluator.LoxString:
		return evaluator.NewNumber(float64(utf8.RuneCountInString(v.Value))), nil
	case *evaluator.LoxArray:
		return evaluator.NewNumber(float64(len(v.Items))), nil
	}
	return nil, fmt.Errorf("expected a string or array, got %s", evaluator.TypeName(args[0]))
}

// type(value) → type name
func stdlibType(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewString(evaluator.TypeName(args[0])), nil
}

// str(value) → canonical text
func stdlibStr(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	return evaluator.NewString(evaluator.Stringify(args[0])), nil
}
