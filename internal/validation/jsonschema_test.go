package validation

import (
	"errors"
	"testing"

	"github.com/rendis/diagramir/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShapes(t *testing.T) *ShapeValidator {
	t.Helper()
	v, err := NewShapeValidator()
	require.NoError(t, err)
	return v
}

func TestNewShapeValidator_CompilesEveryKind(t *testing.T) {
	v := newShapes(t)
	for _, k := range schema.Kinds {
		assert.Contains(t, v.schemas, k)
	}
}

func TestShapeValidator_Valid(t *testing.T) {
	v := newShapes(t)

	tests := []struct {
		kind schema.Kind
		data map[string]any
	}{
		{schema.KindFlowchart, map[string]any{
			"nodes": []any{map[string]any{"id": "A", "label": "Start", "type": nil, "props": map[string]any{"w": 1}}},
			"edges": []any{map[string]any{"source": "A", "target": "B", "label": nil}},
		}},
		{schema.KindTimeline, map[string]any{
			"events": []any{map[string]any{"id": "e1", "label": "Big Bang", "time": "13.8e9 years ago"}},
		}},
		{schema.KindMindMap, map[string]any{
			"root":     map[string]any{"id": "root", "label": "CS"},
			"children": []any{map[string]any{"label": "no id"}},
			"edges":    []any{},
		}},
		{schema.KindTable, map[string]any{
			"headers": []any{"a", "b"},
			"rows":    []any{[]any{"1"}},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out, err := v.Validate(tt.kind, tt.data)
			require.NoError(t, err)
			assert.NotNil(t, out)
		})
	}
}

func TestShapeValidator_Violations(t *testing.T) {
	v := newShapes(t)

	tests := []struct {
		name  string
		kind  schema.Kind
		data  map[string]any
		field string
	}{
		{"flowchart missing edges", schema.KindFlowchart,
			map[string]any{"nodes": []any{}}, "/edges"},
		{"flowchart node without id", schema.KindFlowchart,
			map[string]any{"nodes": []any{map[string]any{"label": "x"}}, "edges": []any{}}, "/nodes/0/id"},
		{"timeline event time wrong type", schema.KindTimeline,
			map[string]any{"events": []any{map[string]any{"id": "e", "label": "l", "time": 1939}}}, "/events/0/time"},
		{"mind map missing root", schema.KindMindMap,
			map[string]any{"children": []any{}, "edges": []any{}}, "/root"},
		{"table missing rows", schema.KindTable,
			map[string]any{"headers": []any{"a"}}, "/rows"},
		{"table nested cell", schema.KindTable,
			map[string]any{"headers": []any{"a"}, "rows": []any{[]any{[]any{"x"}}}}, "/rows/0/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.kind, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrShape))

			var de *schema.DiagramError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, string(tt.kind), de.Kind)
			assert.Equal(t, tt.field, de.Field)
			assert.NotEmpty(t, de.Message)
			assert.NotEmpty(t, de.Details["violations"])
		})
	}
}

func TestShapeValidator_UnknownKind(t *testing.T) {
	v := newShapes(t)
	_, err := v.Validate(schema.Kind("pie_chart"), map[string]any{})
	assert.True(t, errors.Is(err, schema.ErrUnsupportedKind))
}
