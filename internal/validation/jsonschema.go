package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/diagramir/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const shapeSchemaURL = "https://diagramir.dev/schemas/shapes.json"

// shapeSchemaJSON holds one definition per diagram kind describing the
// repaired payload. Unknown properties are allowed; optional fields accept null.
const shapeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://diagramir.dev/schemas/shapes.json",
  "$defs": {
    "optional_string": { "type": ["string", "null"] },
    "props": { "type": ["object", "null"] },
    "node": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "type": { "$ref": "#/$defs/optional_string" },
        "props": { "$ref": "#/$defs/props" }
      }
    },
    "child": {
      "type": "object",
      "required": ["label"],
      "properties": {
        "id": { "$ref": "#/$defs/optional_string" },
        "label": { "type": "string", "minLength": 1 },
        "type": { "$ref": "#/$defs/optional_string" },
        "props": { "$ref": "#/$defs/props" }
      }
    },
    "edge": {
      "type": "object",
      "required": ["source", "target"],
      "properties": {
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 },
        "label": { "$ref": "#/$defs/optional_string" },
        "condition": { "$ref": "#/$defs/optional_string" },
        "props": { "$ref": "#/$defs/props" }
      }
    },
    "event": {
      "type": "object",
      "required": ["id", "label", "time"],
      "properties": {
        "id": { "type": "string" },
        "label": { "type": "string" },
        "time": { "type": "string" },
        "props": { "$ref": "#/$defs/props" }
      }
    },
    "flowchart": {
      "type": "object",
      "required": ["nodes", "edges"],
      "properties": {
        "nodes": { "type": "array", "items": { "$ref": "#/$defs/node" } },
        "edges": { "type": "array", "items": { "$ref": "#/$defs/edge" } }
      }
    },
    "timeline": {
      "type": "object",
      "required": ["events"],
      "properties": {
        "events": { "type": "array", "items": { "$ref": "#/$defs/event" } }
      }
    },
    "mind_map": {
      "type": "object",
      "required": ["root", "children", "edges"],
      "properties": {
        "root": { "$ref": "#/$defs/node" },
        "children": { "type": "array", "items": { "$ref": "#/$defs/child" } },
        "edges": { "type": "array", "items": { "$ref": "#/$defs/edge" } }
      }
    },
    "table": {
      "type": "object",
      "required": ["headers", "rows"],
      "properties": {
        "headers": { "type": "array", "items": { "type": "string" } },
        "rows": {
          "type": "array",
          "items": { "type": "array", "items": { "type": "string" } }
        }
      }
    }
  }
}`

// ShapeValidator checks a repaired payload against the shape required by its
// kind. Schemas are compiled once; the validator is safe for concurrent use.
type ShapeValidator struct {
	schemas map[schema.Kind]*jsonschema.Schema
}

// NewShapeValidator compiles the per-kind shape schemas.
func NewShapeValidator() (*ShapeValidator, error) {
	c := jsonschema.NewCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(shapeSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal shape schema: %w", err)
	}
	if err := c.AddResource(shapeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add shape schema resource: %w", err)
	}

	schemas := make(map[schema.Kind]*jsonschema.Schema, len(schema.Kinds))
	for _, k := range schema.Kinds {
		compiled, err := c.Compile(shapeSchemaURL + "#/$defs/" + string(k))
		if err != nil {
			return nil, fmt.Errorf("compile %s shape schema: %w", k, err)
		}
		schemas[k] = compiled
	}
	return &ShapeValidator{schemas: schemas}, nil
}

// Validate checks data against kind's shape and returns the payload in its
// canonical decoded form.
func (v *ShapeValidator) Validate(k schema.Kind, data map[string]any) (map[string]any, error) {
	compiled, ok := v.schemas[k]
	if !ok {
		return nil, schema.NewUnsupportedKindError(string(k))
	}

	doc, err := toJSONValue(data)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeShape, "failed to serialize payload").
			WithKind(string(k)).WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return nil, toShapeError(k, err)
	}

	canonical, ok := doc.(map[string]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeShape, "payload must be an object, got %s", jsonTypeName(doc)).
			WithKind(string(k))
	}
	return canonical, nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// violation is one leaf failure reported by the schema validator.
type violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// toShapeError converts a jsonschema.ValidationError into a ShapeError whose
// field is the first violated location.
func toShapeError(k schema.Kind, err error) *schema.DiagramError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeShape, err.Error()).WithKind(string(k)).WithCause(err)
	}

	p := message.NewPrinter(language.English)
	violations := collectViolations(verr, p)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeShape, verr.Error()).WithKind(string(k)).WithCause(err)
	}

	msg := violations[0].Message
	if len(violations) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(violations)-1)
	}
	return schema.NewError(schema.ErrCodeShape, msg).
		WithKind(string(k)).
		WithField(violations[0].Field).
		WithDetails(map[string]any{"violations": violations}).
		WithCause(err)
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError, p *message.Printer) []violation {
	if len(verr.Causes) == 0 {
		field := "/" + strings.Join(verr.InstanceLocation, "/")
		if req, ok := verr.ErrorKind.(*kind.Required); ok && len(req.Missing) > 0 {
			field = strings.TrimSuffix(field, "/") + "/" + req.Missing[0]
		}
		return []violation{{Field: field, Message: verr.ErrorKind.LocalizedString(p)}}
	}

	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause, p)...)
	}
	return out
}
