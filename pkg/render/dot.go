package render

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// Formats accepted by [Render].
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPDF, FormatPNG, FormatJSON}

// Options configures diagram generation.
type Options struct {
	// Detailed adds the annotation and gene count to node labels.
	Detailed bool
	// MaxNodes keeps only the largest families when positive. Ties are
	// broken by id.
	MaxNodes int
	// Layout is the Graphviz layout engine. Empty means "neato".
	Layout string
}

// ToDOT converts g to an undirected Graphviz graph.
func ToDOT(g *pangraph.Graph, opts Options) string {
	keep := selectNodes(g, opts.MaxNodes)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%q;\n", cmp.Or(opts.Layout, "neato"))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !keep[n.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !keep[e.U] || !keep[e.V] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%.1f];\n", e.U, e.V, penWidth(e.Size()))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func selectNodes(g *pangraph.Graph, limit int) map[string]bool {
	nodes := g.Nodes()
	if limit > 0 && len(nodes) > limit {
		nodes = slices.Clone(nodes)
		slices.SortStableFunc(nodes, func(a, b *pangraph.Node) int {
			if c := cmp.Compare(b.Size(), a.Size()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		nodes = nodes[:limit]
	}
	keep := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		keep[n.ID] = true
	}
	return keep
}

func fmtLabel(n *pangraph.Node, detailed bool) string {
	lines := []string{n.ID, fmt.Sprintf("genomes: %d", n.Size())}
	if detailed {
		lines = append(lines, fmt.Sprintf("genes: %d", len(n.SeqIDs)))
		if n.Annotation != "" {
			lines = append(lines, n.Annotation)
		}
	}
	return strings.Join(lines, "\n")
}

func fmtAttrs(n *pangraph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.Paralog {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// penWidth adds half a point per doubling of support.
func penWidth(size int) float64 {
	w := 1.0
	for s := size; s > 1; s /= 2 {
		w += 0.5
	}
	return w
}
