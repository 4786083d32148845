package stdlib

import (
	"fmt"
	"math"
	"strings"

	"github.com/thomasrohde/lox/pkg/diagnostics"
	"github.com/thomasrohde/lox/pkg/evaluator"
)

// maxRangeItems caps range() so a typo cannot allocate unbounded memory.
const maxRangeItems = 1000000

func arrayArg(args []evaluator.LoxValue, i int, name string) (*evaluator.LoxArray, error) {
	arr, ok := args[i].(*evaluator.LoxArray)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an array, got %s", name, evaluator.TypeName(args[i]))
	}
	return arr, nil
}

// push(array, value) → new length; appends in place
func stdlibPush(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	arr, err := arrayArg(args, 0, "array")
	if err != nil {
		return nil, err
	}
	arr.Items = append(arr.Items, args[1])
	return evaluator.NewNumber(float64(len(arr.Items))), nil
}

// pop(array) → removed last element
func stdlibPop(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	arr, err := arrayArg(args, 0, "array")
	if err != nil {
		return nil, err
	}
	if len(arr.Items) == 0 {
		return nil, indexError("pop: array is empty")
	}
	last := arr.Items[len(arr.Items)-1]
	arr.Items[len(arr.Items)-1] = nil
	arr.Items = arr.Items[:len(arr.Items)-1]
	return last, nil
}

// range(to) or range(from, to) → array of integers in [from, to)
func stdlibRange(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, &evaluator.LoxRuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("range: expected 1 or 2 arguments but got %d", len(args)),
		}
	}

	bounds := make([]float64, len(args))
	for i, arg := range args {
		num, ok := arg.(evaluator.LoxNumber)
		if !ok {
			return nil, fmt.Errorf("bounds must be numbers, got %s", evaluator.TypeName(arg))
		}
		if math.IsNaN(num.Value) || math.IsInf(num.Value, 0) {
			return nil, fmt.Errorf("bounds must be finite, got %s", evaluator.FormatNumber(num.Value))
		}
		bounds[i] = math.Floor(num.Value)
	}

	from, to := 0.0, bounds[0]
	if len(bounds) == 2 {
		from, to = bounds[0], bounds[1]
	}
	if to < from {
		return evaluator.NewArray(nil), nil
	}
	count := to - from
	if count > maxRangeItems {
		return nil, &evaluator.LoxRuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("range too large: %.0f items", count),
		}
	}

	items := make([]evaluator.LoxValue, 0, int(count))
	for i := from; i < to; i++ {
		items = append(items, evaluator.NewNumber(i))
	}
	return evaluator.NewArray(items), nil
}

// join(array, sep) → string of each element's str joined by sep
func stdlibJoin(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	arr, err := arrayArg(args, 0, "array")
	if err != nil {
		return nil, err
	}
	sep, ok := args[1].(evaluator.LoxString)
	if !ok {
		return nil, fmt.Errorf("'sep' must be a string, got %s", evaluator.TypeName(args[1]))
	}

	parts := make([]string, len(arr.Items))
	for i, item := range arr.Items {
		parts[i] = evaluator.Stringify(item)
	}
	return evaluator.NewString(strings.Join(parts, sep.Value)), nil
}
