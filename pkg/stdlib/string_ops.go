package stdlib

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/lox/pkg/evaluator"
)

// split(string, sep) → array of strings; an empty sep splits into characters
func stdlibSplit(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	in, ok := args[0].(evaluator.LoxString)
	if !ok {
		return nil, fmt.Errorf("'string' must be a string, got %s", evaluator.TypeName(args[0]))
	}
	sep, ok := args[1].(evaluator.LoxString)
	if !ok {
		return nil, fmt.Errorf("'sep' must be a string, got %s", evaluator.TypeName(args[1]))
	}

	parts := strings.Split(in.Value, sep.Value)
	items := make([]evaluator.LoxValue, len(parts))
	for i, p := range parts {
		items[i] = evaluator.NewString(p)
	}
	return evaluator.NewArray(items), nil
}
