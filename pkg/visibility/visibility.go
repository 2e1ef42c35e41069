package visibility

// Evaluator decides whether a field should be visible given an authored rule
// string and the answers collected so far. Implementations must be total:
// a rule that cannot be evaluated returns an error and the caller treats the
// field as hidden.
type Evaluator interface {
	Eval(fieldID, rule string, ctx Context) (bool, error)
}

// Context carries the evaluation inputs. Answers is the caller-owned answer
// map keyed by field id; evaluators read it and never mutate it.
type Context struct {
	Answers map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, rule string, ctx Context) (bool, error) {
	return fn(fieldID, rule, ctx)
}
