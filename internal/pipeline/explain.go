package pipeline

import (
	"fmt"
	"strings"

	"github.com/siddhant1729/Trace/internal/graph"
)

// Explain describes the graph in plain sentences: the components with their
// types, then one clause per edge in insertion order.
func Explain(g *graph.Graph) string {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return "The diagram contains no recognizable components."
	}

	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, fmt.Sprintf("%s (%s)", n.Label, n.Type))
	}
	noun := "components"
	if len(nodes) == 1 {
		noun = "component"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The diagram shows %d %s: %s.", len(nodes), noun, strings.Join(parts, ", "))

	edges := g.Edges()
	if len(edges) == 0 {
		b.WriteString(" No connections were detected.")
		return b.String()
	}
	clauses := make([]string, 0, len(edges))
	for _, e := range edges {
		clauses = append(clauses, fmt.Sprintf("%s %s %s",
			g.DisplayName(e.Source), e.Label, g.DisplayName(e.Target)))
	}
	b.WriteString(" ")
	b.WriteString(strings.Join(clauses, "; "))
	b.WriteString(".")
	return b.String()
}
