package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rendis/diagramir/pkg/schema"
)

// Coerce normalizes any accepted input shape into a fresh *schema.Diagram whose
// Data and Meta are deep copies. The caller's value is never mutated.
//
// Accepted inputs: *schema.Diagram, schema.Diagram, map[string]any, and raw JSON
// ([]byte, json.RawMessage). The discriminator is read from "kind", falling back
// to the legacy "type" key.
func Coerce(raw any) (*schema.Diagram, error) {
	switch v := raw.(type) {
	case nil:
		return nil, schema.NewError(schema.ErrCodeSchema, "diagram payload is nil")
	case *schema.Diagram:
		if v == nil {
			return nil, schema.NewError(schema.ErrCodeSchema, "diagram payload is nil")
		}
		return coerceTyped(v)
	case schema.Diagram:
		return coerceTyped(&v)
	case json.RawMessage:
		return coerceJSON(v)
	case []byte:
		return coerceJSON(v)
	case map[string]any:
		m, err := deepCopy(v)
		if err != nil {
			return nil, err
		}
		return fromMap(m)
	default:
		return nil, schema.NewErrorf(schema.ErrCodeSchema, "unsupported payload type %T", raw)
	}
}

func coerceTyped(d *schema.Diagram) (*schema.Diagram, error) {
	wire := map[string]any{"kind": string(d.Kind)}
	if d.Data != nil {
		wire["data"] = d.Data
	}
	if d.Meta != nil {
		wire["meta"] = d.Meta
	}
	m, err := deepCopy(wire)
	if err != nil {
		return nil, err
	}
	return fromMap(m)
}

func coerceJSON(b []byte) (*schema.Diagram, error) {
	m, err := decodeObject(b)
	if err != nil {
		return nil, err
	}
	return fromMap(m)
}

// deepCopy round-trips v through JSON so repair can rewrite the copy freely.
// Numbers decode as json.Number to keep their literal text.
func deepCopy(v map[string]any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeSchema, "payload is not JSON-serializable").WithCause(err)
	}
	return decodeObject(b)
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, schema.NewError(schema.ErrCodeSchema, "payload is not valid JSON").WithCause(err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeSchema, "payload must be an object, got %s", jsonTypeName(out))
	}
	return m, nil
}

func fromMap(m map[string]any) (*schema.Diagram, error) {
	kindVal, present := m["kind"]
	if !present || kindVal == nil {
		kindVal, present = m["type"]
	}
	if !present || kindVal == nil {
		return nil, schema.NewError(schema.ErrCodeSchema, "missing diagram kind").WithField("/kind")
	}
	kindStr, ok := kindVal.(string)
	if !ok || kindStr == "" {
		return nil, schema.NewErrorf(schema.ErrCodeSchema, "diagram kind must be a non-empty string, got %s",
			jsonTypeName(kindVal)).WithField("/kind")
	}

	dataVal, present := m["data"]
	if !present || dataVal == nil {
		return nil, schema.NewError(schema.ErrCodeSchema, "missing diagram data").WithKind(kindStr).WithField("/data")
	}
	data, ok := dataVal.(map[string]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeSchema, "diagram data must be an object, got %s",
			jsonTypeName(dataVal)).WithKind(kindStr).WithField("/data")
	}

	kind := schema.Kind(kindStr)
	if !kind.Valid() {
		return nil, schema.NewUnsupportedKindError(kindStr)
	}

	meta := map[string]any{}
	if metaVal, present := m["meta"]; present && metaVal != nil {
		mm, ok := metaVal.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeSchema, "diagram meta must be an object, got %s",
				jsonTypeName(metaVal)).WithKind(kindStr).WithField("/meta")
		}
		meta = mm
	}

	return &schema.Diagram{Kind: kind, Data: data, Meta: meta}, nil
}

// jsonTypeName names the JSON type of a decoded value for error messages.
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
