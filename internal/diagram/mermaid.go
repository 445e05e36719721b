package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/diagramir/pkg/schema"
)

// TableFallbackComment precedes the Markdown table emitted for table diagrams.
const TableFallbackComment = "%% Mermaid has limited table support; using Markdown fallback"

// Render emits Mermaid text for a validated diagram. Output lines follow
// payload order and are joined by "\n" without a trailing newline.
func Render(d *schema.Diagram) (string, error) {
	if d == nil {
		return "", schema.NewError(schema.ErrCodeShape, "diagram is nil")
	}
	if !d.Kind.Valid() {
		return "", schema.NewUnsupportedKindError(string(d.Kind))
	}
	if !d.Validated() {
		return "", schema.NewError(schema.ErrCodeShape, "diagram has not been validated").WithKind(string(d.Kind))
	}

	var lines []string
	switch d.Kind {
	case schema.KindFlowchart:
		lines = renderFlowchart(d.Graph, d.Direction())
	case schema.KindTimeline:
		title, _ := d.MetaString(schema.MetaTitle)
		lines = renderTimeline(d.Timeline, title)
	case schema.KindMindMap:
		lines = renderMindMap(d.MindMap)
	case schema.KindTable:
		lines = renderTable(d.Table)
	}
	return strings.Join(lines, "\n"), nil
}

func renderFlowchart(g *schema.GraphData, direction string) []string {
	lines := make([]string, 0, 1+len(g.Nodes)+len(g.Edges))
	lines = append(lines, "flowchart "+direction)

	safe := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		id := SanitizeID(n.ID)
		safe[n.ID] = id
		lines = append(lines, fmt.Sprintf(`%s["%s"]`, id, SanitizeLabel(n.Label)))
	}

	resolve := func(id string) string {
		if s, ok := safe[id]; ok {
			return s
		}
		return SanitizeID(id)
	}

	for _, e := range g.Edges {
		src, tgt := resolve(e.Source), resolve(e.Target)
		if e.Label != "" {
			lines = append(lines, fmt.Sprintf(`%s --"%s"--> %s`, src, SanitizeLabel(e.Label), tgt))
		} else {
			lines = append(lines, fmt.Sprintf("%s --> %s", src, tgt))
		}
	}
	return lines
}

// Timeline text is emitted verbatim.
func renderTimeline(t *schema.TimelineData, title string) []string {
	lines := make([]string, 0, 2+len(t.Events))
	lines = append(lines, "timeline")
	if title != "" {
		lines = append(lines, "title "+title)
	}
	for _, ev := range t.Events {
		lines = append(lines, fmt.Sprintf("%s : %s", ev.Time, ev.Label))
	}
	return lines
}

// renderMindMap emits only edges leaving the literal "root" id.
func renderMindMap(m *schema.MindMapData) []string {
	lines := make([]string, 0, 2+len(m.Children)+len(m.Edges))
	lines = append(lines, "mindmap", fmt.Sprintf("root((%s))", m.Root.Label))
	for _, child := range m.Children {
		lines = append(lines, fmt.Sprintf("%s(%s)", SanitizeID(child.ID), child.Label))
	}
	for _, e := range m.Edges {
		if e.Source == "root" {
			lines = append(lines, "root --> "+SanitizeID(e.Target))
		}
	}
	return lines
}

// renderTable emits a Markdown table. Rows are not padded to the header width.
func renderTable(t *schema.TableData) []string {
	lines := make([]string, 0, 3+len(t.Rows))
	lines = append(lines, TableFallbackComment, tableRow(t.Headers))

	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, tableRow(sep))

	for _, row := range t.Rows {
		lines = append(lines, tableRow(row))
	}
	return lines
}

func tableRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

// FixEscapedNewlines turns literal "\n" sequences into line breaks. Upstream
// producers sometimes double-escape Mermaid text.
func FixEscapedNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
