package expressions

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"
)

// JQProgram is a compiled jq query used to rewrite JSON payloads. Compiled
// code is immutable and may be run from multiple goroutines.
type JQProgram struct {
	source string
	code   *gojq.Code
}

// CompileJQ parses and compiles a jq query. Environment access ($ENV, env)
// is sandboxed to an empty environment.
func CompileJQ(query string) (*JQProgram, error) {
	if query == "" {
		return nil, fmt.Errorf("empty jq query")
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("jq parse error in %q: %w", query, err)
	}

	code, err := gojq.Compile(parsed,
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, fmt.Errorf("jq compile error in %q: %w", query, err)
	}

	return &JQProgram{source: query, code: code}, nil
}

// MustCompileJQ is like CompileJQ but panics on error. For package-level
// migration tables whose queries are constants.
func MustCompileJQ(query string) *JQProgram {
	p, err := CompileJQ(query)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the query text.
func (p *JQProgram) Source() string { return p.source }

// Run evaluates the query against input and returns its single output.
// Queries producing zero or several outputs are an error.
func (p *JQProgram) Run(ctx context.Context, input any) (any, error) {
	iter := p.code.RunWithContext(ctx, input)

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, fmt.Errorf("jq evaluation failed for %q: %w", p.source, err)
		}
		results = append(results, val)
	}

	if len(results) != 1 {
		return nil, fmt.Errorf("jq query %q produced %d outputs, want 1", p.source, len(results))
	}
	return results[0], nil
}

// Test runs the query and requires a boolean output.
func (p *JQProgram) Test(ctx context.Context, input any) (bool, error) {
	out, err := p.Run(ctx, input)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("jq query %q produced %T, want bool", p.source, out)
	}
	return b, nil
}
