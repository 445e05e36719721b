package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rendis/diagramir/internal/expressions"
	"github.com/rendis/diagramir/pkg/schema"
)

// Literal defaults written by repair.
const (
	DefaultRootID = "root"
	UntitledLabel = "Untitled"
)

// idNamespace seeds deterministic ids for payload entries that arrive without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rendis/diagramir/ids"))

// synthID derives a stable identifier from an entry's position and content, so
// repairing the same payload twice yields the same id.
func synthID(prefix string, kind schema.Kind, index int, seed string) string {
	u := uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s/%d/%s", kind, index, seed)))
	return prefix + "_" + strings.ReplaceAll(u.String(), "-", "")[:8]
}

var validDirections = map[string]bool{"TB": true, "TD": true, "BT": true, "RL": true, "LR": true}

// normalizeMeta upper-cases meta.direction and drops values the target syntax
// does not accept, plus a non-string title.
func normalizeMeta(meta map[string]any, report *schema.Report) {
	if raw, ok := meta[schema.MetaDirection]; ok {
		s, isStr := raw.(string)
		dir := strings.ToUpper(strings.TrimSpace(s))
		if isStr && validDirections[dir] {
			meta[schema.MetaDirection] = dir
		} else {
			delete(meta, schema.MetaDirection)
			report.Add("/meta/direction", schema.NoticeMetaDropped,
				fmt.Sprintf("unsupported direction %v, using %s", raw, schema.DefaultDirection))
		}
	}
	if raw, ok := meta[schema.MetaTitle]; ok && raw != nil {
		if _, isStr := raw.(string); !isStr {
			delete(meta, schema.MetaTitle)
			report.Add("/meta/title", schema.NoticeMetaDropped, "title must be a string")
		}
	}
}

// edgeRule is a compiled drop predicate over the "edge" variable.
type edgeRule struct {
	name string
	pred expressions.Predicate
}

// requiredEndpointsRule drops edges missing either endpoint. It always runs
// before any configured rule.
const requiredEndpointsRule = `edge.source == "" || edge.target == ""`

// repairEdges drops every edge that is not an object or that matches a drop
// rule, preserving the order of the survivors.
func repairEdges(data map[string]any, rules []edgeRule, report *schema.Report) {
	raw, ok := data["edges"].([]any)
	if !ok {
		return
	}

	kept := make([]any, 0, len(raw))
	for i, item := range raw {
		path := fmt.Sprintf("/edges/%d", i)
		edge, ok := item.(map[string]any)
		if !ok {
			report.Add(path, schema.NoticeEdgeDropped, "edge is not an object")
			continue
		}

		source, srcState := textField(edge, "source", path, report)
		target, tgtState := textField(edge, "target", path, report)
		label, _ := textField(edge, "label", path, report)
		condition, _ := textField(edge, "condition", path, report)
		if srcState == fieldInvalid || tgtState == fieldInvalid {
			// Shape validation rejects the edge; rules never see it.
			kept = append(kept, edge)
			continue
		}

		vars := map[string]any{"edge": map[string]any{
			"source":    source,
			"target":    target,
			"label":     label,
			"condition": condition,
		}}

		dropped := false
		for _, rule := range rules {
			hit, err := rule.pred.Match(vars)
			if err != nil {
				report.Add(path, schema.NoticeRuleFailed, fmt.Sprintf("rule %s: %v", rule.name, err))
				continue
			}
			if hit {
				report.Add(path, schema.NoticeEdgeDropped, fmt.Sprintf("edge matched drop rule %s", rule.name))
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, edge)
		}
	}
	data["edges"] = kept
}

// repairFlowchart synthesizes missing node ids and labels and reports duplicates.
func repairFlowchart(data map[string]any, report *schema.Report) {
	nodes, ok := data["nodes"].([]any)
	if !ok {
		return
	}

	seen := make(map[string]int, len(nodes))
	for i, item := range nodes {
		node, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path := fmt.Sprintf("/nodes/%d", i)
		id, idState := textField(node, "id", path, report)
		label, labelState := textField(node, "label", path, report)

		if idState == fieldMissing && labelState == fieldPresent {
			id = synthID("n", schema.KindFlowchart, i, label)
			idState = fieldPresent
			node["id"] = id
			report.Add(path+"/id", schema.NoticeIDDefaulted, fmt.Sprintf("synthesized id %q", id))
		}
		if labelState == fieldMissing && idState == fieldPresent {
			node["label"] = id
			report.Add(path+"/label", schema.NoticeLabelDefaulted, fmt.Sprintf("label defaulted to id %q", id))
		}
		if idState != fieldPresent {
			continue
		}
		if first, dup := seen[id]; dup {
			report.Add(path+"/id", schema.NoticeDuplicateID,
				fmt.Sprintf("id %q already declared at /nodes/%d", id, first))
			continue
		}
		seen[id] = i
	}
}

// repairTimeline synthesizes ids for events that carry content but no id.
func repairTimeline(data map[string]any, report *schema.Report) {
	events, ok := data["events"].([]any)
	if !ok {
		return
	}
	for i, item := range events {
		event, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path := fmt.Sprintf("/events/%d", i)
		_, idState := textField(event, "id", path, report)
		when, _ := textField(event, "time", path, report)
		label, _ := textField(event, "label", path, report)
		if idState != fieldMissing || (when == "" && label == "") {
			continue
		}
		id := synthID("e", schema.KindTimeline, i, when+"\x00"+label)
		event["id"] = id
		report.Add(path+"/id", schema.NoticeIDDefaulted, fmt.Sprintf("synthesized id %q", id))
	}
}

// repairMindMap defaults the root id to "root", the root label to its id, and
// every child label to the child's id or "Untitled".
func repairMindMap(data map[string]any, report *schema.Report) {
	if root, ok := data["root"].(map[string]any); ok {
		id, idState := textField(root, "id", "/root", report)
		if idState == fieldMissing {
			id, idState = DefaultRootID, fieldPresent
			root["id"] = id
			report.Add("/root/id", schema.NoticeIDDefaulted, fmt.Sprintf("root id defaulted to %q", id))
		}
		if _, labelState := textField(root, "label", "/root", report); labelState == fieldMissing && idState == fieldPresent {
			root["label"] = id
			report.Add("/root/label", schema.NoticeLabelDefaulted, fmt.Sprintf("root label defaulted to %q", id))
		}
	}

	children, ok := data["children"].([]any)
	if !ok {
		return
	}
	for i, item := range children {
		child, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path := fmt.Sprintf("/children/%d", i)
		id, idState := textField(child, "id", path, report)
		if _, labelState := textField(child, "label", path, report); labelState != fieldMissing {
			continue
		}
		label := id
		if idState != fieldPresent {
			label = UntitledLabel
		}
		child["label"] = label
		report.Add(path+"/label", schema.NoticeLabelDefaulted, fmt.Sprintf("label defaulted to %q", label))
	}
}

// repairTable stringifies scalar header and cell values. Non-scalar values are
// left for shape validation to reject.
func repairTable(data map[string]any, report *schema.Report) {
	if headers, ok := data["headers"].([]any); ok {
		for i, h := range headers {
			if s, ok := scalarString(h); ok {
				headers[i] = s
				report.Add(fmt.Sprintf("/headers/%d", i), schema.NoticeCellCoerced, fmt.Sprintf("header %v stringified", h))
			}
		}
	}

	rows, ok := data["rows"].([]any)
	if !ok {
		return
	}
	for r, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			continue
		}
		for c, cell := range cells {
			if s, ok := scalarString(cell); ok {
				cells[c] = s
				report.Add(fmt.Sprintf("/rows/%d/%d", r, c), schema.NoticeCellCoerced, fmt.Sprintf("cell %v stringified", cell))
			}
		}
	}
}

// scalarString converts a non-string JSON scalar to text. It reports false for
// strings and for composite values.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case string, []any, map[string]any:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// fieldState classifies an identifier or text field seen by repair.
type fieldState int

const (
	// fieldMissing is an absent, null or empty value.
	fieldMissing fieldState = iota
	fieldPresent
	// fieldInvalid is an object or array, left for shape validation to reject.
	fieldInvalid
)

// textField reads m[key] as text. Numbers and booleans are stringified in
// place with a VALUE_COERCED notice under parent.
func textField(m map[string]any, key, parent string, report *schema.Report) (string, fieldState) {
	switch v := m[key].(type) {
	case nil:
		return "", fieldMissing
	case string:
		if v == "" {
			return "", fieldMissing
		}
		return v, fieldPresent
	case []any, map[string]any:
		return "", fieldInvalid
	default:
		s, _ := scalarString(v)
		m[key] = s
		report.Add(parent+"/"+key, schema.NoticeValueCoerced, fmt.Sprintf("%s %v stringified", key, v))
		return s, fieldPresent
	}
}
