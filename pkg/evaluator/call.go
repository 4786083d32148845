package evaluator

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
)

func (in *Interpreter) evalCall(e *ast.CallExpr, env *Env) (LoxValue, error) {
	callee, err := in.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]LoxValue, 0, len(e.Args))
	for _, arg := range e.Args {
		val, err := in.evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return in.call(callee, args, e.Span)
}

func checkArity(want, got int, span ast.Span) error {
	if want != got {
		return newRuntimeError(diagnostics.EArity, span, "expected %d arguments but got %d", want, got)
	}
	return nil
}

// call invokes any callable value with already evaluated arguments.
func (in *Interpreter) call(callee LoxValue, args []LoxValue, span ast.Span) (LoxValue, error) {
	switch fn := callee.(type) {
	case *LoxFunction:
		if err := checkArity(fn.Arity(), len(args), span); err != nil {
			return nil, err
		}
		return in.callFunction(fn, args, nil, span)

	case *LoxBoundMethod:
		if err := checkArity(fn.Method.Arity(), len(args), span); err != nil {
			return nil, err
		}
		return in.callFunction(fn.Method, args, fn.Receiver, span)

	case *LoxClass:
		if err := checkArity(fn.Arity(), len(args), span); err != nil {
			return nil, err
		}
		inst := NewInstance(fn)
		if init, ok := fn.FindMethod("init"); ok {
			if _, err := in.callFunction(init, args, inst, span); err != nil {
				return nil, err
			}
		}
		return inst, nil

	case *LoxNative:
		if fn.Arity >= 0 {
			if err := checkArity(fn.Arity, len(args), span); err != nil {
				return nil, err
			}
		}
		in.emitWithData(TraceCallStart, &span, map[string]string{"name": fn.Name, "native": "true"})
		val, err := fn.Fn(args)
		in.emitWithData(TraceCallEnd, &span, map[string]string{"name": fn.Name, "native": "true"})
		if err != nil {
			return nil, nativeError(fn.Name, err, span)
		}
		if val == nil {
			val = NewNil()
		}
		return val, nil
	}

	return nil, newRuntimeError(diagnostics.ENotCallable, span,
		"can only call functions and classes, got %s", TypeName(callee))
}

// nativeError locates a built-in's failure at the call site. Natives may
// return a *LoxRuntimeError to choose the code; other errors are type errors.
func nativeError(name string, err error, span ast.Span) error {
	var rte *LoxRuntimeError
	if errors.As(err, &rte) {
		if rte.Span == nil {
			rte.Span = &span
		}
		return rte
	}
	return &LoxRuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("%s: %s", name, err.Error()),
		Span:    &span,
	}
}

// callFunction runs a user function. When this is non-nil it is bound in a
// scope layered between the closure and the parameters.
func (in *Interpreter) callFunction(fn *LoxFunction, args []LoxValue, this *LoxInstance, span ast.Span) (LoxValue, error) {
	if limit := in.opts.Budget.callDepthLimit(); in.tracker.CallDepth >= limit {
		return nil, newRuntimeError(diagnostics.EStackOverflow, span, "stack overflow (call depth exceeded %d)", limit)
	}
	if err := in.checkTime(span); err != nil {
		return nil, err
	}
	in.tracker.CallDepth++
	defer func() { in.tracker.CallDepth-- }()

	scope := fn.Closure
	if this != nil {
		scope = scope.Child()
		scope.Define("this", this)
	}
	callEnv := scope.Child()
	for i, param := range fn.Decl.Params {
		callEnv.Define(param, args[i])
	}

	data := map[string]string{"name": fn.Decl.Name}
	in.emitWithData(TraceCallStart, &span, data)
	out, err := in.execBlock(fn.Decl.Body, callEnv)
	in.emitWithData(TraceCallEnd, &span, data)
	if err != nil {
		return nil, err
	}

	switch out.kind {
	case outBreak, outContinue:
		return nil, strayControl(out)
	}
	if fn.IsInit && this != nil {
		return this, nil
	}
	if out.kind == outReturn {
		return out.value, nil
	}
	return NewNil(), nil
}

func (in *Interpreter) execClass(s *ast.ClassDecl, env *Env) error {
	var superclass *LoxClass
	if s.Superclass != nil {
		if s.Superclass.Name == s.Name {
			return newRuntimeError(diagnostics.EType, s.Superclass.Span, "a class can't inherit from itself")
		}
		val, err := in.evalExpr(s.Superclass, env)
		if err != nil {
			return err
		}
		cls, ok := val.(*LoxClass)
		if !ok {
			return newRuntimeError(diagnostics.EType, s.Superclass.Span,
				"superclass must be a class, got %s", TypeName(val))
		}
		superclass = cls
	}

	env.Define(s.Name, NewNil())

	methodEnv := env
	if superclass != nil {
		methodEnv = env.Child()
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*LoxFunction, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name] = &LoxFunction{Decl: m, Closure: methodEnv, IsInit: m.Name == "init"}
	}

	env.Define(s.Name, &LoxClass{Name: s.Name, Superclass: superclass, Methods: methods})
	return nil
}
