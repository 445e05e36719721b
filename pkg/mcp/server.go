package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/internal/pipeline"
)

// DiagramServerDeps holds the dependencies for creating a DiagramServer.
type DiagramServerDeps struct {
	Pipeline *pipeline.Pipeline
	Logger   *slog.Logger
	Version  string
}

// DiagramServer wraps an MCP server exposing the diagram pipeline as tools.
type DiagramServer struct {
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewDiagramServer creates a new DiagramServer with both tools registered.
func NewDiagramServer(deps DiagramServerDeps) *DiagramServer {
	logger := deps.Logger
	if logger == nil {
		logger = logging.New(os.Stderr, "info", "text")
	}
	logger = logging.Correlated(logger)
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &DiagramServer{
		pipeline: deps.Pipeline,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"diagramir",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("diagramir turns a diagram IR object {kind, data, meta} into Mermaid text. Use diagram.validate to see the repaired diagram and repair notices, and diagram.render to get Mermaid. Supported kinds: flowchart, timeline, mind_map, table."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *DiagramServer) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen runs the stdio transport over the given streams.
func (s *DiagramServer) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *DiagramServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *DiagramServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: validateTool(), Handler: s.handleValidate},
	}
}

// --- Tool definitions ---

func renderTool() mcp.Tool {
	return mcp.NewTool("diagram.render",
		mcp.WithDescription("Validate a diagram IR object and render it as Mermaid text"),
		mcp.WithObject("diagram", mcp.Required(), mcp.Description("Diagram IR object with kind, data and optional meta")),
		mcp.WithBoolean("unescape", mcp.Description("Turn literal \\n sequences in the output into line breaks")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("diagram.validate",
		mcp.WithDescription("Validate and repair a diagram IR object without rendering it"),
		mcp.WithObject("diagram", mcp.Required(), mcp.Description("Diagram IR object with kind, data and optional meta")),
	)
}
