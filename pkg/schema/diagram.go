package schema

// Kind is the closed-set discriminator selecting payload shape and render rule.
type Kind string

const (
	KindFlowchart Kind = "flowchart"
	KindTimeline  Kind = "timeline"
	KindMindMap   Kind = "mind_map"
	KindTable     Kind = "table"
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{KindFlowchart, KindTimeline, KindMindMap, KindTable}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFlowchart, KindTimeline, KindMindMap, KindTable:
		return true
	}
	return false
}

// Recognized meta keys.
const (
	MetaDirection = "direction"
	MetaTitle     = "title"
	MetaIRVersion = "ir_version"
)

// DefaultDirection is the flowchart layout token used when meta.direction is absent.
const DefaultDirection = "TD"

// Diagram is the root of the IR. Data holds the untyped payload whose shape is
// determined by Kind. The typed payload fields are populated only by validation;
// renderers read those and never Data.
type Diagram struct {
	Kind Kind           `json:"kind"`
	Data map[string]any `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`

	Graph    *GraphData    `json:"-"`
	Timeline *TimelineData `json:"-"`
	MindMap  *MindMapData  `json:"-"`
	Table    *TableData    `json:"-"`
}

// Validated reports whether the typed payload for the diagram's kind is attached.
func (d *Diagram) Validated() bool {
	if d == nil {
		return false
	}
	switch d.Kind {
	case KindFlowchart:
		return d.Graph != nil
	case KindTimeline:
		return d.Timeline != nil
	case KindMindMap:
		return d.MindMap != nil
	case KindTable:
		return d.Table != nil
	}
	return false
}

// MetaString returns meta[key] when it is a non-empty string.
func (d *Diagram) MetaString(key string) (string, bool) {
	if d == nil || d.Meta == nil {
		return "", false
	}
	s, ok := d.Meta[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Direction returns the flowchart direction token, defaulting to DefaultDirection.
func (d *Diagram) Direction() string {
	if dir, ok := d.MetaString(MetaDirection); ok {
		return dir
	}
	return DefaultDirection
}

// Node is a flowchart node, a mind-map root or a mind-map child.
type Node struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Type  string         `json:"type,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

// Edge connects two node ids. Endpoints are not checked against declared nodes.
type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Label     string         `json:"label,omitempty"`
	Condition string         `json:"condition,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
}

// GraphData is the payload of a flowchart.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// TimelineEvent is one timeline entry. Events render in payload order.
type TimelineEvent struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Time  string         `json:"time"`
	Props map[string]any `json:"props,omitempty"`
}

// TimelineData is the payload of a timeline.
type TimelineData struct {
	Events []TimelineEvent `json:"events"`
}

// MindMapData is the payload of a mind map. Only edges leaving the literal
// "root" id are rendered.
type MindMapData struct {
	Root     Node   `json:"root"`
	Children []Node `json:"children"`
	Edges    []Edge `json:"edges"`
}

// TableData is the payload of a table. Row lengths are not checked against Headers.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}
