package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, Kind("pie_chart").Valid())
	assert.False(t, Kind("").Valid())
}

func TestDiagram_Direction(t *testing.T) {
	d := &Diagram{Kind: KindFlowchart}
	assert.Equal(t, "TD", d.Direction())

	d.Meta = map[string]any{"direction": "LR"}
	assert.Equal(t, "LR", d.Direction())

	d.Meta = map[string]any{"direction": 7}
	assert.Equal(t, "TD", d.Direction())
}

func TestDiagram_Validated(t *testing.T) {
	var nilDiagram *Diagram
	assert.False(t, nilDiagram.Validated())

	d := &Diagram{Kind: KindTable, Data: map[string]any{"headers": []any{}, "rows": []any{}}}
	assert.False(t, d.Validated())

	d.Table = &TableData{}
	assert.True(t, d.Validated())

	// Payload for a different kind does not count.
	d.Kind = KindFlowchart
	assert.False(t, d.Validated())
}
