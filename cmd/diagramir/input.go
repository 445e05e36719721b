package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rendis/diagramir/pkg/schema"
	"gopkg.in/yaml.v3"
)

// readPayload loads a diagram payload from path, or from stdin when path is
// empty or "-". JSON is passed through as bytes; YAML is decoded to a map.
// The format comes from the file extension, falling back to sniffing the
// first non-space byte.
func readPayload(stdin io.Reader, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, schema.NewError(schema.ErrCodeSchema, "payload is empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return trimmed, nil
	case ".yaml", ".yml":
		return decodeYAML(trimmed)
	}
	if trimmed[0] == '{' {
		return trimmed, nil
	}
	return decodeYAML(trimmed)
}

func decodeYAML(data []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, schema.NewError(schema.ErrCodeSchema, "payload is not valid YAML").WithCause(err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeSchema, "payload must be a mapping, got %T", out)
	}
	return m, nil
}
