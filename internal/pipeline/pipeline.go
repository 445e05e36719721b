package pipeline

import (
	"context"
	"log/slog"

	"github.com/rendis/diagramir/internal/diagram"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/internal/validation"
	"github.com/rendis/diagramir/pkg/schema"
)

// Result is the outcome of one successful pipeline run.
type Result struct {
	Mermaid string          `json:"mermaid"`
	Diagram *schema.Diagram `json:"diagram"`
	Report  *schema.Report  `json:"report"`
}

// Pipeline runs raw payloads through validation and rendering. It holds no
// per-call state and is safe for concurrent use.
type Pipeline struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// New builds a Pipeline from validation options.
func New(opts validation.Options) (*Pipeline, error) {
	opts.Logger = logging.Correlated(opts.Logger)
	v, err := validation.New(opts)
	if err != nil {
		return nil, err
	}
	return &Pipeline{validator: v, logger: opts.Logger}, nil
}

// Validate repairs and validates raw without rendering it.
func (p *Pipeline) Validate(ctx context.Context, raw any) (*schema.Diagram, *schema.Report, error) {
	return p.validator.Validate(ctx, raw)
}

// Run validates raw and renders it to Mermaid text.
func (p *Pipeline) Run(ctx context.Context, raw any) (*Result, error) {
	d, report, err := p.validator.Validate(ctx, raw)
	if err != nil {
		p.logger.InfoContext(ctx, "diagram rejected", "code", schema.ErrorCode(err), "error", err)
		return nil, err
	}

	ctx = logging.WithKind(ctx, string(d.Kind))
	text, err := diagram.Render(d)
	if err != nil {
		p.logger.ErrorContext(ctx, "render failed", "error", err)
		return nil, err
	}

	p.logger.InfoContext(ctx, "diagram rendered",
		"notices", len(report.Notices),
		"bytes", len(text),
	)
	return &Result{Mermaid: text, Diagram: d, Report: report}, nil
}
