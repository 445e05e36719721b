package expressions

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprPredicate evaluates an expr-lang expression that must produce a bool.
// Supports nil coalescing (??), optional chaining (?.), string and array builtins.
type ExprPredicate struct {
	source string
	vars   []string
	prg    *vm.Program
}

// NewExprPredicate compiles expression with each of vars declared as a map.
func NewExprPredicate(expression string, vars ...string) (*ExprPredicate, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expr expression")
	}

	env := activation(vars, nil)
	prg, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("expr compile error in %q: %w", expression, err)
	}

	return &ExprPredicate{source: expression, vars: vars, prg: prg}, nil
}

// Engine returns the engine identifier.
func (p *ExprPredicate) Engine() string { return EngineExpr }

// Source returns the expression text.
func (p *ExprPredicate) Source() string { return p.source }

// Match evaluates the predicate against vars.
func (p *ExprPredicate) Match(vars map[string]any) (bool, error) {
	out, err := expr.Run(p.prg, activation(p.vars, vars))
	if err != nil {
		return false, fmt.Errorf("expr evaluation failed for %q: %w", p.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expr expression %q produced %T, want bool", p.source, out)
	}
	return b, nil
}

var _ Predicate = (*ExprPredicate)(nil)
