package evaluator

// DefaultMaxCallDepth bounds Lox call nesting when Budget.MaxCallDepth is unset.
const DefaultMaxCallDepth = 4096

// Budget holds the resource limits for a program execution.
// Nil or zero fields are unlimited (MaxCallDepth falls back to DefaultMaxCallDepth).
type Budget struct {
	TimeMs        *int64
	MaxIterations *int64
	MaxCallDepth  int
}

// BudgetTracker tracks resource consumption during one Execute call.
type BudgetTracker struct {
	Iterations int64
	CallDepth  int
	StartHires int64
}

func (b Budget) callDepthLimit() int {
	if b.MaxCallDepth > 0 {
		return b.MaxCallDepth
	}
	return DefaultMaxCallDepth
}
