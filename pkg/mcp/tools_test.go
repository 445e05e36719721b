package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func flowchartArg() map[string]any {
	return map[string]any{
		"kind": "flowchart",
		"data": map[string]any{
			"nodes": []any{
				map[string]any{"id": "A", "label": "Start"},
				map[string]any{"id": "B", "label": "Step B"},
			},
			"edges": []any{
				map[string]any{"source": "A", "target": "B"},
				map[string]any{"source": "A", "target": ""},
			},
		},
	}
}

// --- diagram.render ---

func TestRenderTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{
		"diagram": flowchartArg(),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "flowchart TD\nA[\"Start\"]\nB[\"Step B\"]\nA --> B", resultText(t, result))
}

func TestRenderTool_JSONStringArgument(t *testing.T) {
	s := newTestServer(t)

	raw, err := json.Marshal(flowchartArg())
	require.NoError(t, err)

	result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{
		"diagram": string(raw),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "A --> B")
}

func TestRenderTool_Unescape(t *testing.T) {
	s := newTestServer(t)

	arg := map[string]any{
		"kind": "timeline",
		"data": map[string]any{"events": []any{
			map[string]any{"id": "1", "label": `line\nbreak`, "time": "t"},
		}},
	}

	result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{
		"diagram":  arg,
		"unescape": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "timeline\nt : line\nbreak", resultText(t, result))
}

func TestRenderTool_MissingDiagram(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "diagram is required")
}

func TestRenderTool_WrongArgumentType(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{
		"diagram": []any{1, 2},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRenderTool_ClassifiedErrors(t *testing.T) {
	tests := []struct {
		name    string
		diagram any
		code    string
	}{
		{"unsupported kind", map[string]any{"kind": "pie_chart", "data": map[string]any{}}, "UNSUPPORTED_KIND"},
		{"missing data", map[string]any{"kind": "flowchart"}, "SCHEMA_ERROR"},
		{"bad shape", map[string]any{"kind": "table", "data": map[string]any{"headers": []any{}}}, "SHAPE_ERROR"},
		{"invalid json string", `{"kind":`, "SCHEMA_ERROR"},
	}

	s := newTestServer(t)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.handleRender(context.Background(), buildRequest("diagram.render", map[string]any{
				"diagram": tc.diagram,
			}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tc.code)
		})
	}
}

// --- diagram.validate ---

func TestValidateTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleValidate(context.Background(), buildRequest("diagram.validate", map[string]any{
		"diagram": flowchartArg(),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Diagram struct {
			Kind string         `json:"kind"`
			Data map[string]any `json:"data"`
		} `json:"diagram"`
		Notices []struct {
			Path string `json:"path"`
			Code string `json:"code"`
		} `json:"notices"`
		IRVersion int `json:"ir_version"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))

	assert.Equal(t, "flowchart", body.Diagram.Kind)
	assert.Len(t, body.Diagram.Data["edges"], 1)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "EDGE_DROPPED", body.Notices[0].Code)
	assert.Equal(t, "/edges/1", body.Notices[0].Path)
	assert.Equal(t, 1, body.IRVersion)
}

func TestValidateTool_CleanPayloadHasEmptyNotices(t *testing.T) {
	s := newTestServer(t)

	arg := map[string]any{"kind": "table", "data": map[string]any{
		"headers": []any{"a"},
		"rows":    []any{[]any{"1"}},
	}}
	result, err := s.handleValidate(context.Background(), buildRequest("diagram.validate", map[string]any{
		"diagram": arg,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"notices":[]`)
}

func TestValidateTool_Error(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleValidate(context.Background(), buildRequest("diagram.validate", map[string]any{
		"diagram": map[string]any{"data": map[string]any{}},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "SCHEMA_ERROR")
}
