package stdlib

import (
	"fmt"
	"math"

	"github.com/thomasrohde/lox/pkg/evaluator"
)

func numberArgs(args []evaluator.LoxValue) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, arg := range args {
		num, ok := arg.(evaluator.LoxNumber)
		if !ok {
			return nil, fmt.Errorf("arguments must be numbers, got %s", evaluator.TypeName(arg))
		}
		nums[i] = num.Value
	}
	return nums, nil
}

// floor(n) → largest integer not above n
func stdlibFloor(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	nums, err := numberArgs(args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewNumber(math.Floor(nums[0])), nil
}

// sqrt(n) → square root; negative input is an error
func stdlibSqrt(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	nums, err := numberArgs(args)
	if err != nil {
		return nil, err
	}
	if nums[0] < 0 {
		return nil, fmt.Errorf("cannot take the square root of %s", evaluator.FormatNumber(nums[0]))
	}
	return evaluator.NewNumber(math.Sqrt(nums[0])), nil
}

// max(a, b) → number
func stdlibMax(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	nums, err := numberArgs(args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewNumber(math.Max(nums[0], nums[1])), nil
}

// min(a, b) → number
func stdlibMin(args []evaluator.LoxValue) (evaluator.LoxValue, error) {
	nums, err := numberArgs(args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewNumber(math.Min(nums[0], nums[1])), nil
}
