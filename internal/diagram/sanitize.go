package diagram

import (
	"strings"
	"unicode/utf8"
)

// MaxLabelLength is the longest label, in runes, emitted before truncation.
const MaxLabelLength = 100

const (
	emptyIDPlaceholder = "node_empty"
	defaultID          = "node_default"
	digitPrefix        = "node_"
	reservedSuffix     = "_node"
	untitledLabel      = "Untitled"
	ellipsis           = "..."
)

// reservedWords are the structural keywords, direction tokens and literals of
// the target syntax, stored lower-case.
var reservedWords = map[string]struct{}{
	"graph": {}, "flowchart": {}, "sequencediagram": {}, "classdiagram": {},
	"statediagram": {}, "journey": {}, "gitgraph": {}, "pie": {}, "timeline": {},
	"mindmap": {}, "click": {}, "style": {}, "classdef": {}, "linkstyle": {},
	"subgraph": {}, "end": {}, "direction": {},
	"tb": {}, "td": {}, "bt": {}, "rl": {}, "lr": {},
	"true": {}, "false": {}, "null": {},
}

// IsReserved reports whether s collides with a reserved word, ignoring case.
func IsReserved(s string) bool {
	_, ok := reservedWords[strings.ToLower(s)]
	return ok
}

// SanitizeID maps any string to a non-empty identifier matching
// [A-Za-z0-9_]+ that is not a reserved word. It is idempotent.
func SanitizeID(id string) string {
	if id == "" {
		return emptyIDPlaceholder
	}

	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if isIDRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()

	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = digitPrefix + out
	}
	if IsReserved(out) {
		out += reservedSuffix
	}
	if out == "" {
		return defaultID
	}
	return out
}

func isIDRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

var labelReplacer = strings.NewReplacer("\r", "", `"`, `\"`, "\n", "<br>")

// SanitizeLabel escapes quotes, converts line breaks to <br>, strips carriage
// returns and truncates to MaxLabelLength runes with a trailing ellipsis.
func SanitizeLabel(label string) string {
	if label == "" {
		return untitledLabel
	}

	out := labelReplacer.Replace(label)
	if utf8.RuneCountInString(out) > MaxLabelLength {
		runes := []rune(out)
		out = string(runes[:MaxLabelLength-len(ellipsis)]) + ellipsis
	}
	return out
}
