package evaluator

import (
	"math"

	"github.com/thomasrohde/lox/pkg/ast"
	"github.com/thomasrohde/lox/pkg/diagnostics"
)

func (in *Interpreter) evalExpr(expr ast.Expr, env *Env) (LoxValue, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NewNumber(e.Value), nil

	case *ast.StringLiteral:
		return NewString(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.NilLiteral:
		return NewNil(), nil

	case *ast.Grouping:
		return in.evalExpr(e.Inner, env)

	case *ast.Variable:
		val, ok := env.Get(e.Name)
		if !ok {
			return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "undefined variable '%s'", e.Name)
		}
		return val, nil

	case *ast.Assign:
		val, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !env.Assign(e.Name, val) {
			return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "undefined variable '%s'", e.Name)
		}
		return val, nil

	case *ast.CompoundAssign:
		return in.evalCompoundAssign(e, env)

	case *ast.BinaryExpr:
		left, err := in.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, left, right, e.Span)

	case *ast.UnaryExpr:
		return in.evalUnary(e, env)

	case *ast.LogicalExpr:
		left, err := in.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		if e.Op == ast.OpOr {
			if Truthiness(left) {
				return left, nil
			}
		} else if !Truthiness(left) {
			return left, nil
		}
		return in.evalExpr(e.Right, env)

	case *ast.CallExpr:
		return in.evalCall(e, env)

	case *ast.GetExpr:
		return in.evalGet(e, env)

	case *ast.SetExpr:
		return in.evalSet(e, env)

	case *ast.ThisExpr:
		val, ok := env.Get("this")
		if !ok {
			return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "can't use 'this' outside of a class method")
		}
		return val, nil

	case *ast.SuperExpr:
		return in.evalSuper(e, env)

	case *ast.ArrayLiteral:
		items := make([]LoxValue, 0, len(e.Elements))
		for _, elem := range e.Elements {
			val, err := in.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return NewArray(items), nil

	case *ast.IndexGet:
		return in.evalIndexGet(e, env)

	case *ast.IndexSet:
		return in.evalIndexSet(e, env)
	}

	return nil, newRuntimeError(diagnostics.EType, expr.NodeSpan(), "unsupported expression type: %T", expr)
}

// evalCompoundAssign reads the variable, then evaluates the right-hand side,
// then writes back the combined value.
func (in *Interpreter) evalCompoundAssign(e *ast.CompoundAssign, env *Env) (LoxValue, error) {
	current, ok := env.Get(e.Name)
	if !ok {
		return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "undefined variable '%s'", e.Name)
	}
	operand, err := in.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}
	val, err := binaryOp(e.Op, current, operand, e.Span)
	if err != nil {
		return nil, err
	}
	if !env.Assign(e.Name, val) {
		return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "undefined variable '%s'", e.Name)
	}
	return val, nil
}

func binaryOp(op ast.BinaryOp, left, right LoxValue, span ast.Span) (LoxValue, error) {
	switch op {
	case ast.OpAdd:
		lNum, lOk := left.(LoxNumber)
		rNum, rOk := right.(LoxNumber)
		if lOk && rOk {
			return NewNumber(lNum.Value + rNum.Value), nil
		}
		_, lStr := left.(LoxString)
		_, rStr := right.(LoxString)
		if lStr || rStr {
			return NewString(Stringify(left) + Stringify(right)), nil
		}
		return nil, newRuntimeError(diagnostics.EType, span,
			"operands of '+' must be two numbers or include a string, got %s and %s", TypeName(left), TypeName(right))

	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil

	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil
	}

	lNum, lOk := left.(LoxNumber)
	rNum, rOk := right.(LoxNumber)
	if !lOk || !rOk {
		return nil, newRuntimeError(diagnostics.EType, span,
			"operands of '%s' must be numbers, got %s and %s", op, TypeName(left), TypeName(right))
	}
	l, r := lNum.Value, rNum.Value

	switch op {
	case ast.OpSub:
		return NewNumber(l - r), nil
	case ast.OpMul:
		return NewNumber(l * r), nil
	case ast.OpDiv:
		if r == 0 {
			return nil, newRuntimeError(diagnostics.EDivZero, span, "division by zero")
		}
		return NewNumber(l / r), nil
	case ast.OpMod:
		if r == 0 {
			return nil, newRuntimeError(diagnostics.EDivZero, span, "modulo by zero")
		}
		return NewNumber(floorMod(l, r)), nil
	case ast.OpGt:
		return NewBool(l > r), nil
	case ast.OpGtEq:
		return NewBool(l >= r), nil
	case ast.OpLt:
		return NewBool(l < r), nil
	case ast.OpLtEq:
		return NewBool(l <= r), nil
	}

	return nil, newRuntimeError(diagnostics.EType, span, "unknown operator '%s'", op)
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr, env *Env) (LoxValue, error) {
	operand, err := in.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpNeg:
		num, ok := operand.(LoxNumber)
		if !ok {
			return nil, newRuntimeError(diagnostics.EType, e.Span, "operand of '-' must be a number, got %s", TypeName(operand))
		}
		return NewNumber(-num.Value), nil
	case ast.OpNot:
		return NewBool(!Truthiness(operand)), nil
	}

	return nil, newRuntimeError(diagnostics.EType, e.Span, "unknown unary operator '%s'", e.Op)
}

// --- Properties ---

func (in *Interpreter) evalGet(e *ast.GetExpr, env *Env) (LoxValue, error) {
	obj, err := in.evalExpr(e.Object, env)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*LoxInstance)
	if !ok {
		return nil, newRuntimeError(diagnostics.EType, e.Span,
			"only instances have properties, got %s", TypeName(obj))
	}
	if val, ok := inst.Fields[e.Name]; ok {
		return val, nil
	}
	if method, ok := inst.Class.FindMethod(e.Name); ok {
		return &LoxBoundMethod{Receiver: inst, Method: method}, nil
	}
	return nil, newRuntimeError(diagnostics.EProperty, e.Span,
		"undefined property '%s' on instance of %s", e.Name, inst.Class.Name)
}

func (in *Interpreter) evalSet(e *ast.SetExpr, env *Env) (LoxValue, error) {
	obj, err := in.evalExpr(e.Object, env)
	if err != nil {
		return nil, err
	}
	val, err := in.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*LoxInstance)
	if !ok {
		return nil, newRuntimeError(diagnostics.EType, e.Span,
			"only instances have fields, got %s", TypeName(obj))
	}
	inst.Fields[e.Name] = val
	return val, nil
}

func (in *Interpreter) evalSuper(e *ast.SuperExpr, env *Env) (LoxValue, error) {
	supVal, ok := env.Get("super")
	if !ok {
		return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "can't use 'super' outside of a subclass method")
	}
	superclass := supVal.(*LoxClass)
	thisVal, ok := env.Get("this")
	if !ok {
		return nil, newRuntimeError(diagnostics.EUndefined, e.Span, "can't use 'super' outside of a subclass method")
	}
	method, ok := superclass.FindMethod(e.Method)
	if !ok {
		return nil, newRuntimeError(diagnostics.EProperty, e.Span,
			"undefined superclass method '%s' on %s", e.Method, superclass.Name)
	}
	return &LoxBoundMethod{Receiver: thisVal.(*LoxInstance), Method: method}, nil
}

// --- Indexing ---

// checkIndex validates a number as an index into a sequence of length n.
func checkIndex(index LoxValue, n int, span ast.Span) (int, error) {
	num, ok := index.(LoxNumber)
	if !ok {
		return 0, newRuntimeError(diagnostics.EType, span, "index must be a number, got %s", TypeName(index))
	}
	if num.Value != math.Trunc(num.Value) || math.IsInf(num.Value, 0) {
		return 0, newRuntimeError(diagnostics.EIndex, span, "index %s is not an integer", FormatNumber(num.Value))
	}
	if num.Value < 0 || num.Value >= float64(n) {
		return 0, newRuntimeError(diagnostics.EIndex, span,
			"index %s out of bounds for length %d", FormatNumber(num.Value), n)
	}
	return int(num.Value), nil
}

func (in *Interpreter) evalIndexGet(e *ast.IndexGet, env *Env) (LoxValue, error) {
	target, err := in.evalExpr(e.Array, env)
	if err != nil {
		return nil, err
	}
	index, err := in.evalExpr(e.Index, env)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case *LoxArray:
		i, err := checkIndex(index, len(t.Items), e.Span)
		if err != nil {
			return nil, err
		}
		return t.Items[i], nil
	case LoxString:
		runes := []rune(t.Value)
		i, err := checkIndex(index, len(runes), e.Span)
		if err != nil {
			return nil, err
		}
		return NewString(string(runes[i])), nil
	}
	return nil, newRuntimeError(diagnostics.EType, e.Span,
		"only arrays and strings can be indexed, got %s", TypeName(target))
}

func (in *Interpreter) evalIndexSet(e *ast.IndexSet, env *Env) (LoxValue, error) {
	target, err := in.evalExpr(e.Array, env)
	if err != nil {
		return nil, err
	}
	index, err := in.evalExpr(e.Index, env)
	if err != nil {
		return nil, err
	}
	val, err := in.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}

	arr, ok := target.(*LoxArray)
	if !ok {
		return nil, newRuntimeError(diagnostics.EType, e.Span,
			"only arrays support index assignment, got %s", TypeName(target))
	}
	i, err := checkIndex(index, len(arr.Items), e.Span)
	if err != nil {
		return nil, err
	}
	arr.Items[i] = val
	return val, nil
}

// floorMod returns the remainder of l / r with the sign of the divisor, so
// -7 % 3 is 2 and 7 % -3 is -2.
func floorMod(l, r float64) float64 {
	m := math.Mod(l, r)
	if m == 0 {
		return math.Copysign(0, r)
	}
	if (m < 0) != (r < 0) {
		m += r
	}
	return m
}
