package scene

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/figtreehq/figtree/pkg/guid"
)

// DOTOptions configures scene-graph diagram output.
type DOTOptions struct {
	// Detailed includes node types and keys in labels.
	// When false, only name (or key) is shown.
	Detailed bool

	// MaxDepth limits how deep below the page roots the diagram goes.
	// Zero means no limit.
	MaxDepth int
}

// ToDOT converts the scene graph's adjacency to Graphviz DOT format.
// Pages become subgraph roots; instance nodes are drawn with dashed
// outlines to distinguish them from plain frames. Render the result
// with [RenderSVG].
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=16, margin=\"0.15,0.08\"];\n")
	buf.WriteString("\n")

	roots := g.Pages
	if len(roots) == 0 && g.Document != nil {
		roots = []*Node{g.Document}
	}
	visited := make(map[guid.Key]bool)
	for _, page := range roots {
		writeSubtree(&buf, g, page, 0, opts, visited)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeSubtree(buf *bytes.Buffer, g *Graph, n *Node, depth int, opts DOTOptions, visited map[guid.Key]bool) {
	// Malformed input can produce cyclic adjacency; draw the back
	// edge but do not descend through a node twice.
	if visited[n.GUID] {
		return
	}
	visited[n.GUID] = true

	fmt.Fprintf(buf, "  %q [%s];\n", n.GUID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return
	}
	for _, c := range g.ChildNodes(n) {
		fmt.Fprintf(buf, "  %q -> %q;\n", n.GUID, c.GUID)
		writeSubtree(buf, g, c, depth+1, opts, visited)
	}
}

func nodeAttrs(n *Node, detailed bool) []string {
	label := n.Name
	if label == "" {
		label = string(n.GUID)
	}
	if detailed {
		label = fmt.Sprintf("%s\n%s %s", label, n.Type, n.GUID)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsInstance() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT diagram to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv := graphviz.New()
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
