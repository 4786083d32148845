// Package evaluator implements the Lox tree-walking interpreter.
package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/lox/pkg/ast"
)

// LoxValue is the interface for all Lox runtime values.
// Use the sealed marker method to restrict implementations to this package.
type LoxValue interface {
	loxValue() // sealed marker
}

// LoxNil represents nil.
type LoxNil struct{}

func (LoxNil) loxValue() {}

// LoxBool represents a boolean value.
type LoxBool struct {
	Value bool
}

func (LoxBool) loxValue() {}

// LoxNumber represents a double-precision number.
type LoxNumber struct {
	Value float64
}

func (LoxNumber) loxValue() {}

// LoxString represents an immutable string value.
type LoxString struct {
	Value string
}

func (LoxString) loxValue() {}

// LoxArray is an ordered, mutable sequence shared by reference.
type LoxArray struct {
	Items []LoxValue
}

func (*LoxArray) loxValue() {}

// LoxFunction is a user-defined function closed over the environment it was
// declared in. IsInit marks a class initializer, which always yields its receiver.
type LoxFunction struct {
	Decl    *ast.FunctionDecl
	Closure *Env
	IsInit  bool
}

func (*LoxFunction) loxValue() {}

// Arity returns the number of declared parameters.
func (f *LoxFunction) Arity() int {
	return len(f.Decl.Params)
}

// LoxBoundMethod pairs a method with the instance it was read from. The
// receiver is bound to `this` only when the method is called.
type LoxBoundMethod struct {
	Receiver *LoxInstance
	Method   *LoxFunction
}

func (*LoxBoundMethod) loxValue() {}

// LoxClass holds a class's own methods and its optional superclass.
type LoxClass struct {
	Name       string
	Superclass *LoxClass
	Methods    map[string]*LoxFunction
}

func (*LoxClass) loxValue() {}

// FindMethod looks name up in the class, then along the superclass chain.
func (c *LoxClass) FindMethod(name string) (*LoxFunction, bool) {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Arity is the arity of the class's initializer, or 0 without one.
func (c *LoxClass) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// LoxInstance is an object of a class with its own field storage.
type LoxInstance struct {
	Class  *LoxClass
	Fields map[string]LoxValue
}

func (*LoxInstance) loxValue() {}

// NewInstance allocates an instance with no fields.
func NewInstance(class *LoxClass) *LoxInstance {
	return &LoxInstance{Class: class, Fields: make(map[string]LoxValue)}
}

// NativeFn is the Go implementation of a built-in function. Arguments have
// already been arity-checked when Arity is non-negative.
type NativeFn func(args []LoxValue) (LoxValue, error)

// LoxNative is a host-provided callable. Arity -1 accepts any argument count.
type LoxNative struct {
	Name  string
	Arity int
	Fn    NativeFn
}

func (*LoxNative) loxValue() {}

// NewNil creates a nil value.
func NewNil() LoxValue {
	return LoxNil{}
}

// NewBool creates a boolean value.
func NewBool(b bool) LoxValue {
	return LoxBool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) LoxValue {
	return LoxNumber{Value: n}
}

// NewString creates a string value.
func NewString(s string) LoxValue {
	return LoxString{Value: s}
}

// NewArray creates an array value that owns items.
func NewArray(items []LoxValue) *LoxArray {
	if items == nil {
		items = []LoxValue{}
	}
	return &LoxArray{Items: items}
}

// Truthiness returns the boolean interpretation of a Lox value.
// nil and false are falsy; everything else, including 0 and "", is truthy.
func Truthiness(v LoxValue) bool {
	switch val := v.(type) {
	case nil, LoxNil:
		return false
	case LoxBool:
		return val.Value
	default:
		return true
	}
}

// Equal compares primitives by value and every other value by identity.
func Equal(a, b LoxValue) bool {
	switch av := a.(type) {
	case LoxNil:
		_, ok := b.(LoxNil)
		return ok
	case LoxBool:
		bv, ok := b.(LoxBool)
		return ok && av.Value == bv.Value
	case LoxNumber:
		bv, ok := b.(LoxNumber)
		return ok && av.Value == bv.Value
	case LoxString:
		bv, ok := b.(LoxString)
		return ok && av.Value == bv.Value
	}
	return a == b
}

// TypeName returns the name reported by the `type` built-in.
func TypeName(v LoxValue) string {
	switch v.(type) {
	case nil, LoxNil:
		return "nil"
	case LoxBool:
		return "boolean"
	case LoxNumber:
		return "number"
	case LoxString:
		return "string"
	case *LoxArray:
		return "array"
	case *LoxFunction, *LoxBoundMethod, *LoxNative:
		return "function"
	case *LoxClass:
		return "class"
	case *LoxInstance:
		return "instance"
	}
	return "unknown"
}

// FormatNumber renders a number without a trailing ".0" on whole values.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Stringify returns the canonical text of a value as printed by `print` and
// returned by `str`. An array that contains itself renders the cycle as [...].
func Stringify(v LoxValue) string {
	var b strings.Builder
	writeValue(&b, v, nil)
	return b.String()
}

func writeValue(b *strings.Builder, v LoxValue, seen map[*LoxArray]bool) {
	switch val := v.(type) {
	case nil, LoxNil:
		b.WriteString("nil")
	case LoxBool:
		if val.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case LoxNumber:
		b.WriteString(FormatNumber(val.Value))
	case LoxString:
		b.WriteString(val.Value)
	case *LoxArray:
		if seen[val] {
			b.WriteString("[...]")
			return
		}
		if seen == nil {
			seen = make(map[*LoxArray]bool)
		}
		seen[val] = true
		b.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item, seen)
		}
		b.WriteByte(']')
		delete(seen, val)
	case *LoxFunction:
		b.WriteString("<fn " + val.Decl.Name + ">")
	case *LoxBoundMethod:
		b.WriteString("<fn " + val.Method.Decl.Name + ">")
	case *LoxNative:
		b.WriteString("<native fn " + val.Name + ">")
	case *LoxClass:
		b.WriteString("<class " + val.Name + ">")
	case *LoxInstance:
		b.WriteString("<instance " + val.Class.Name + ">")
	}
}
