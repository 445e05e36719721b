package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowchartJSON = `{
  "kind": "flowchart",
  "data": {
    "nodes": [{"id": "A", "label": "Start"}, {"id": "B", "label": "Step B"}],
    "edges": [{"source": "A", "target": "B"}, {"source": "", "target": "B"}, {"source": "B", "target": "B"}]
  }
}`

// isolate points HOME at a temp dir so no user config leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRender_File(t *testing.T) {
	isolate(t)
	path := writeFile(t, "flow.json", flowchartJSON)

	res := execute(t, "", "render", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "flowchart TD\nA[\"Start\"]\nB[\"Step B\"]\nA --> B\nB --> B\n", res.stdout)
	assert.Contains(t, res.stderr, "EDGE_DROPPED")
}

func TestRender_Stdin(t *testing.T) {
	isolate(t)

	res := execute(t, flowchartJSON, "render")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "flowchart TD\n"))
}

func TestRender_YAML(t *testing.T) {
	isolate(t)
	payload := `kind: mind_map
data:
  root: {}
  nodes:
    - id: ai
  edges:
    - source: root
      target: ai
`
	path := writeFile(t, "mind.yaml", payload)

	res := execute(t, "", "render", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "mindmap\nroot((root))\nai(ai)\nroot --> ai\n", res.stdout)
}

func TestRender_ConfiguredRuleFromFile(t *testing.T) {
	isolate(t)
	cfg := writeFile(t, "diagramir.yaml", `log_level: error
edge_drop_rules:
  - engine: expr
    expression: edge.source == edge.target
`)
	path := writeFile(t, "flow.json", flowchartJSON)

	res := execute(t, "", "--config", cfg, "render", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "B --> B")
	assert.Empty(t, res.stderr)
}

func TestRender_InvalidRuleIsInternalError(t *testing.T) {
	isolate(t)
	cfg := writeFile(t, "diagramir.yaml", "edge_drop_rules:\n  - engine: cel\n    expression: 'edge.source =='\n")
	path := writeFile(t, "flow.json", flowchartJSON)

	res := execute(t, "", "--config", cfg, "render", path)
	assert.Equal(t, exitInternal, res.code)
	assert.Contains(t, res.stderr, "edge_drop_rules[0]")
}

func TestRender_ExitCodes(t *testing.T) {
	isolate(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
		msg   string
	}{
		{"unsupported kind", `{"kind":"pie_chart","data":{}}`, []string{"render"}, exitInput, "pie_chart"},
		{"missing data", `{"kind":"flowchart"}`, []string{"render"}, exitInput, "SCHEMA_ERROR"},
		{"bad shape", `{"kind":"table","data":{"rows":[]}}`, []string{"render"}, exitInput, "SHAPE_ERROR"},
		{"empty stdin", "  ", []string{"render"}, exitInput, "payload is empty"},
		{"yaml scalar", "just text", []string{"render"}, exitInput, "mapping"},
		{"missing file", "", []string{"render", "/nonexistent/diagram.json"}, exitInternal, "read payload"},
		{"missing config", "", []string{"--config", "/nonexistent/diagramir.yaml", "version"}, exitInternal, "read config"},
		{"too many args", "", []string{"render", "a", "b"}, exitInternal, "accepts at most 1 arg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := execute(t, tc.stdin, tc.args...)
			assert.Equal(t, tc.code, res.code)
			assert.Contains(t, res.stderr, tc.msg)
		})
	}
}

func TestRender_Unescape(t *testing.T) {
	isolate(t)
	payload := `{"kind":"timeline","data":{"events":[{"id":"1","label":"a\\nb","time":"t"}]}}`

	res := execute(t, payload, "render")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "timeline\nt : a\\nb\n", res.stdout)

	res = execute(t, payload, "render", "--unescape")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "timeline\nt : a\nb\n", res.stdout)
}

func TestRender_ASCII(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	isolate(t)
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "mermaid-ascii"), []byte("#!/bin/sh\necho ASCII-ART\n"), 0o755))
	t.Setenv("DIAGRAMIR_PREVIEW_BIN_DIR", binDir)

	res := execute(t, flowchartJSON, "render", "--ascii")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "ASCII-ART\n\n", res.stdout)
}

func TestRender_ASCIIMissingBinary(t *testing.T) {
	isolate(t)

	res := execute(t, flowchartJSON, "render", "--ascii")
	assert.Equal(t, exitInternal, res.code)
	assert.Contains(t, res.stderr, "mermaid-ascii binary not found")
}

func TestValidate_PrintsDiagramAndNotices(t *testing.T) {
	isolate(t)

	res := execute(t, flowchartJSON, "validate")
	require.Equal(t, exitOK, res.code, res.stderr)

	var out struct {
		Diagram struct {
			Kind string         `json:"kind"`
			Data map[string]any `json:"data"`
		} `json:"diagram"`
		Notices []struct {
			Code string `json:"code"`
			Path string `json:"path"`
		} `json:"notices"`
		IRVersion int `json:"ir_version"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "flowchart", out.Diagram.Kind)
	assert.Len(t, out.Diagram.Data["edges"], 2)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, "EDGE_DROPPED", out.Notices[0].Code)
	assert.Equal(t, "/edges/1", out.Notices[0].Path)
	assert.Equal(t, 1, out.IRVersion)
}

func TestValidate_Error(t *testing.T) {
	isolate(t)

	res := execute(t, `{"kind":"pie_chart","data":{}}`, "validate")
	assert.Equal(t, exitInput, res.code)
	assert.Empty(t, res.stdout)
}

func TestVersion(t *testing.T) {
	isolate(t)

	res := execute(t, "", "version")
	require.Equal(t, exitOK, res.code)
	assert.Equal(t, version+"\n", res.stdout)

	res = execute(t, "", "--version")
	require.Equal(t, exitOK, res.code)
	assert.Equal(t, version+"\n", res.stdout)
}

func TestLogFormatFlag(t *testing.T) {
	isolate(t)

	res := execute(t, flowchartJSON, "--log-format", "json", "--log-level", "debug", "render")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, `"msg":"config loaded"`)
	assert.Contains(t, res.stderr, `"request_id":`)
}

func writeFileAt(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
