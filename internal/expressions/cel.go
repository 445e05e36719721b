package expressions

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELPredicate evaluates a Common Expression Language expression that must
// produce a bool.
type CELPredicate struct {
	source string
	vars   []string
	prg    cel.Program
}

// NewCELPredicate compiles expression in an environment exposing each of vars
// as map(string, dyn). Non-boolean expressions are rejected at compile time.
func NewCELPredicate(expression string, vars ...string) (*CELPredicate, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty CEL expression")
	}

	mapType := cel.MapType(cel.StringType, cel.DynType)
	opts := make([]cel.EnvOption, 0, len(vars))
	for _, v := range vars {
		opts = append(opts, cel.Variable(v, mapType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error in %q: %w", expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("CEL expression %q must be boolean, got %s", expression, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error for %q: %w", expression, err)
	}

	return &CELPredicate{source: expression, vars: vars, prg: prg}, nil
}

// Engine returns the engine identifier.
func (p *CELPredicate) Engine() string { return EngineCEL }

// Source returns the expression text.
func (p *CELPredicate) Source() string { return p.source }

// Match evaluates the predicate against vars.
func (p *CELPredicate) Match(vars map[string]any) (bool, error) {
	out, _, err := p.prg.Eval(activation(p.vars, vars))
	if err != nil {
		return false, fmt.Errorf("CEL evaluation failed for %q: %w", p.source, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression %q produced %T, want bool", p.source, out.Value())
	}
	return b, nil
}

var _ Predicate = (*CELPredicate)(nil)
