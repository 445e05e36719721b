package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rendis/diagramir/pkg/schema"
)

// PreviewBinary is the file name of the mermaid-ascii CLI looked up in the bin dir.
const PreviewBinary = "mermaid-ascii"

var (
	// ErrPreviewUnavailable is returned when the mermaid-ascii binary is not installed.
	ErrPreviewUnavailable = errors.New("mermaid-ascii binary not found")
	// ErrPreviewUnsupported is returned for kinds mermaid-ascii cannot draw.
	ErrPreviewUnsupported = errors.New("ascii preview supports flowcharts only")
)

// RenderASCII draws a validated flowchart as box art using the mermaid-ascii
// binary found in binDir.
func RenderASCII(ctx context.Context, d *schema.Diagram, binDir string) (string, error) {
	if d == nil || d.Kind != schema.KindFlowchart {
		return "", ErrPreviewUnsupported
	}
	if !d.Validated() {
		return "", schema.NewError(schema.ErrCodeShape, "diagram has not been validated").WithKind(string(d.Kind))
	}
	if binDir == "" {
		return "", ErrPreviewUnavailable
	}

	binPath := filepath.Join(binDir, PreviewBinary)
	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf("%w at %s", ErrPreviewUnavailable, binPath)
	}
	return RenderASCIIViaCLI(ctx, RenderMermaidForCLI(d), binPath)
}

// RenderASCIIViaCLI pipes Mermaid text through the mermaid-ascii binary.
func RenderASCIIViaCLI(ctx context.Context, mermaid, binPath string) (string, error) {
	cmd := exec.CommandContext(ctx, binPath)
	cmd.Stdin = strings.NewReader(mermaid)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("mermaid-ascii: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// RenderMermaidForCLI generates the simplified syntax mermaid-ascii accepts.
// It cannot parse ["label"] declarations, so each node is referenced by a
// display id derived from its label, and only edges are emitted.
func RenderMermaidForCLI(d *schema.Diagram) string {
	g := d.Graph

	var b strings.Builder
	switch d.Direction() {
	case "LR", "RL":
		b.WriteString("graph LR\n")
	default:
		b.WriteString("graph TD\n")
	}

	displayID := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		displayID[n.ID] = cliNodeID(n)
	}
	resolve := func(id string) string {
		if s, ok := displayID[id]; ok {
			return s
		}
		return SanitizeID(id)
	}

	for _, e := range g.Edges {
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf("|%s|", firstLine(e.Label))
		}
		fmt.Fprintf(&b, "    %s -->%s %s\n", resolve(e.Source), label, resolve(e.Target))
	}
	return b.String()
}

// cliNodeID uses the first line of the label, with spaces replaced by dashes.
func cliNodeID(n schema.Node) string {
	id := firstLine(n.Label)
	if id == "" {
		return SanitizeID(n.ID)
	}
	return strings.ReplaceAll(id, " ", "-")
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
