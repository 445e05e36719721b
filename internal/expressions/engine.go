package expressions

import "fmt"

// Engine names accepted by Compile.
const (
	EngineCEL  = "cel"
	EngineExpr = "expr"
)

// Predicate is a compiled boolean expression over a fixed set of map-typed
// variables. Predicates are immutable after compilation and safe for concurrent use.
type Predicate interface {
	Engine() string
	Source() string
	Match(vars map[string]any) (bool, error)
}

// Compile compiles expression with the named engine. An empty engine name selects CEL.
// vars names the top-level variables the expression may reference; each is a
// map keyed by string.
func Compile(engine, expression string, vars ...string) (Predicate, error) {
	switch engine {
	case "", EngineCEL:
		return NewCELPredicate(expression, vars...)
	case EngineExpr:
		return NewExprPredicate(expression, vars...)
	default:
		return nil, fmt.Errorf("unknown expression engine %q (want %q or %q)", engine, EngineCEL, EngineExpr)
	}
}

// activation fills missing variables with empty maps so a predicate never fails
// on an absent key.
func activation(vars []string, data map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for _, key := range vars {
		if v, ok := data[key]; ok && v != nil {
			out[key] = v
		} else {
			out[key] = map[string]any{}
		}
	}
	return out
}
