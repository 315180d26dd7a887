package dag

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures Graphviz DOT export.
type DOTOptions struct {
	// Detailed includes node metadata in labels. When false, labels show
	// the package name and version only.
	Detailed bool
}

var statusFill = map[string]string{
	StatusOK:         "palegreen",
	StatusMismatch:   "salmon",
	StatusUnresolved: "lightgrey",
}

// ToDOT converts a graph to Graphviz DOT format. Nodes are filled by their
// [MetaStatus]: green for clean packages, red for mismatches and grey for
// unresolved ones.
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(*n, label), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	label := n.ID
	if v, ok := n.Meta[MetaVersion].(string); ok && v != "" {
		label += "@" + v
	}
	if !detailed {
		return label
	}

	parts := []string{fmt.Sprintf("depth: %d", n.Row)}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == MetaVersion {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if fill, ok := statusFill[n.Status()]; ok {
		attrs = append(attrs, "fillcolor="+fill)
	}
	if n.Status() == StatusUnresolved {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the graph to path. A ".svg" extension renders SVG;
// any other extension writes DOT source.
func WriteFile(ctx context.Context, g *Graph, path string) error {
	dot := ToDOT(g, DOTOptions{Detailed: true})
	data := []byte(dot)
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		data = svg
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
