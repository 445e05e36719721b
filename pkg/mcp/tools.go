package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rendis/diagramir/internal/diagram"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/pkg/schema"
)

// validateResult is the JSON body returned by diagram.validate.
type validateResult struct {
	Diagram   *schema.Diagram `json:"diagram"`
	Notices   []schema.Notice `json:"notices"`
	IRVersion int             `json:"ir_version"`
}

// handleRender validates the diagram argument and returns Mermaid text.
func (s *DiagramServer) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, errResult := diagramArgument(req)
	if errResult != nil {
		return errResult, nil
	}

	ctx = s.withRequestID(ctx)
	res, err := s.pipeline.Run(ctx, raw)
	if err != nil {
		return s.toolError(ctx, err), nil
	}

	text := res.Mermaid
	if req.GetBool("unescape", false) {
		text = diagram.FixEscapedNewlines(text)
	}
	return mcp.NewToolResultText(text), nil
}

// handleValidate returns the repaired diagram and its notices.
func (s *DiagramServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, errResult := diagramArgument(req)
	if errResult != nil {
		return errResult, nil
	}

	ctx = s.withRequestID(ctx)
	d, report, err := s.pipeline.Validate(ctx, raw)
	if err != nil {
		return s.toolError(ctx, err), nil
	}

	notices := report.Notices
	if notices == nil {
		notices = []schema.Notice{}
	}
	return marshalResult(validateResult{Diagram: d, Notices: notices, IRVersion: report.IRVersion})
}

// diagramArgument accepts the diagram either as an object or as a JSON string,
// since some clients serialize nested objects.
func diagramArgument(req mcp.CallToolRequest) (any, *mcp.CallToolResult) {
	switch v := mcp.ParseArgument(req, "diagram", nil).(type) {
	case nil:
		return nil, mcp.NewToolResultError("diagram is required")
	case map[string]any:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, mcp.NewToolResultError(fmt.Sprintf("diagram must be an object, got %T", v))
	}
}

func (s *DiagramServer) withRequestID(ctx context.Context) context.Context {
	if logging.RequestID(ctx) != "" {
		return ctx
	}
	return logging.WithRequestID(ctx, uuid.NewString())
}

// toolError reports classified input failures verbatim and hides internal ones.
func (s *DiagramServer) toolError(ctx context.Context, err error) *mcp.CallToolResult {
	if schema.IsClientError(err) {
		return mcp.NewToolResultError(err.Error())
	}
	s.logger.ErrorContext(ctx, "diagram tool failed", "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("internal error (request %s)", logging.RequestID(ctx)))
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
