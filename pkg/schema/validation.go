package schema

// Notice codes for non-fatal repair events.
const (
	NoticeEdgeDropped      = "EDGE_DROPPED"
	NoticeIDDefaulted      = "ID_DEFAULTED"
	NoticeLabelDefaulted   = "LABEL_DEFAULTED"
	NoticeMigrationApplied = "MIGRATION_APPLIED"
	NoticeCellCoerced      = "CELL_COERCED"
	NoticeMetaDropped      = "META_DROPPED"
	NoticeDuplicateID      = "DUPLICATE_ID"
	NoticeRuleFailed       = "RULE_FAILED"
	NoticeValueCoerced     = "VALUE_COERCED"
)

// Notice is a single repair event with location context. Notices never abort
// the pipeline.
type Notice struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report aggregates the notices produced while validating one diagram.
type Report struct {
	Notices   []Notice `json:"notices,omitempty"`
	IRVersion int      `json:"ir_version"`
}

// Add appends a notice.
func (r *Report) Add(path, code, message string) {
	r.Notices = append(r.Notices, Notice{Path: path, Code: code, Message: message})
}

// Count returns the number of notices carrying code.
func (r *Report) Count(code string) int {
	n := 0
	for _, notice := range r.Notices {
		if notice.Code == code {
			n++
		}
	}
	return n
}

// Clean reports whether the payload needed no repair.
func (r *Report) Clean() bool {
	return len(r.Notices) == 0
}
