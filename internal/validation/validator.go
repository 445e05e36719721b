package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rendis/diagramir/internal/expressions"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/pkg/schema"
)

// Rule is a configured edge-drop predicate. The expression sees a single
// variable, edge, with string fields source, target, label and condition.
type Rule struct {
	Engine     string `json:"engine" yaml:"engine" mapstructure:"engine"`
	Expression string `json:"expression" yaml:"expression" mapstructure:"expression"`
}

// Options configures a Validator.
type Options struct {
	Logger *slog.Logger
	// EdgeDropRules run after the built-in rule that drops edges missing an endpoint.
	EdgeDropRules []Rule
	// Migrations replaces the built-in migration chain when non-nil.
	Migrations []Migration
}

// Validator turns raw payloads into validated diagrams. All state is built in
// New and never mutated, so one Validator serves concurrent callers.
type Validator struct {
	logger   *slog.Logger
	rules    []edgeRule
	migrator *Migrator
	shapes   *ShapeValidator
}

// New compiles the edge rules and shape schemas.
func New(opts Options) (*Validator, error) {
	logger := logging.Correlated(opts.Logger)

	builtin, err := expressions.NewCELPredicate(requiredEndpointsRule, "edge")
	if err != nil {
		return nil, fmt.Errorf("compile built-in edge rule: %w", err)
	}
	rules := []edgeRule{{name: "required_endpoints", pred: builtin}}
	for i, r := range opts.EdgeDropRules {
		pred, err := expressions.Compile(r.Engine, r.Expression, "edge")
		if err != nil {
			return nil, fmt.Errorf("compile edge_drop_rules[%d]: %w", i, err)
		}
		rules = append(rules, edgeRule{name: fmt.Sprintf("edge_drop_rules[%d]", i), pred: pred})
	}

	shapes, err := NewShapeValidator()
	if err != nil {
		return nil, err
	}

	return &Validator{
		logger:   logger,
		rules:    rules,
		migrator: NewMigrator(opts.Migrations),
		shapes:   shapes,
	}, nil
}

// Validate coerces raw into a diagram, repairs it, checks its shape and
// attaches the typed payload. raw is never mutated. Repairs are recorded in
// the returned report; only schema, shape and unsupported-kind failures are errors.
func (v *Validator) Validate(ctx context.Context, raw any) (*schema.Diagram, *schema.Report, error) {
	d, err := Coerce(raw)
	if err != nil {
		return nil, nil, err
	}
	ctx = logging.WithKind(ctx, string(d.Kind))

	report := &schema.Report{}
	normalizeMeta(d.Meta, report)

	from := payloadVersion(d.Meta, report)
	data, version, err := v.migrator.Migrate(ctx, d.Kind, d.Data, from, report)
	if err != nil {
		return nil, nil, err
	}
	report.IRVersion = version

	switch d.Kind {
	case schema.KindFlowchart:
		repairEdges(data, v.rules, report)
		repairFlowchart(data, report)
	case schema.KindMindMap:
		repairEdges(data, v.rules, report)
		repairMindMap(data, report)
	case schema.KindTimeline:
		repairTimeline(data, report)
	case schema.KindTable:
		repairTable(data, report)
	}

	canonical, err := v.shapes.Validate(d.Kind, data)
	if err != nil {
		v.logger.DebugContext(ctx, "shape validation failed", "error", err)
		return nil, nil, err
	}
	d.Data = canonical

	if err := attachPayload(d); err != nil {
		return nil, nil, err
	}

	if !report.Clean() {
		for _, n := range report.Notices {
			v.logger.WarnContext(ctx, "diagram repaired", "path", n.Path, "code", n.Code, "message", n.Message)
		}
	}
	v.logger.DebugContext(ctx, "diagram validated",
		"notices", len(report.Notices),
		"edges_dropped", report.Count(schema.NoticeEdgeDropped),
		"ir_version", report.IRVersion,
	)
	return d, report, nil
}

// attachPayload decodes d.Data into the typed payload for d.Kind.
func attachPayload(d *schema.Diagram) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return schema.NewError(schema.ErrCodeShape, "failed to serialize payload").
			WithKind(string(d.Kind)).WithCause(err)
	}

	var target any
	switch d.Kind {
	case schema.KindFlowchart:
		d.Graph = &schema.GraphData{}
		target = d.Graph
	case schema.KindTimeline:
		d.Timeline = &schema.TimelineData{}
		target = d.Timeline
	case schema.KindMindMap:
		d.MindMap = &schema.MindMapData{}
		target = d.MindMap
	case schema.KindTable:
		d.Table = &schema.TableData{}
		target = d.Table
	default:
		return schema.NewUnsupportedKindError(string(d.Kind))
	}

	if err := json.Unmarshal(b, target); err != nil {
		return schema.NewError(schema.ErrCodeShape, "payload does not match kind shape").
			WithKind(string(d.Kind)).WithCause(err)
	}
	return nil
}
