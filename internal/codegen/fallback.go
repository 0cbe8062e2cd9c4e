package codegen

import (
	"fmt"
	"strings"

	"github.com/siddhant1729/Trace/internal/graph"
	"github.com/siddhant1729/Trace/pkg/types"
)

func fallbackSection(g *graph.Graph) types.Section {
	var b strings.Builder
	b.WriteString("No code template matched this diagram.\n\nNodes:\n")
	nodes := g.Nodes()
	if len(nodes) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, n := range nodes {
		fmt.Fprintf(&b, "  - %s\n", oneLine(n.Label))
	}
	b.WriteString("\nEdges:\n")
	edges := g.Edges()
	if len(edges) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  - (%s, %s, %s)\n", oneLine(e.From), oneLine(e.Label), oneLine(e.To))
	}
	return types.Section{Name: "summary.txt", Kind: KindFallback, Body: b.String()}
}
