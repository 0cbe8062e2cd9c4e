package codegen

import (
	"fmt"
	"strings"

	"github.com/siddhant1729/Trace/internal/graph"
	"github.com/siddhant1729/Trace/pkg/types"
)

func schemaSection(g *graph.Graph) (types.Section, bool) {
	dbs := g.NodesOfType(types.TypeDatabase)
	if len(dbs) == 0 {
		return types.Section{}, false
	}

	var b strings.Builder
	b.WriteString("-- Tables for the data stores drawn in the diagram.\n")
	tables := tableNames(g)
	for _, n := range dbs {
		table := tables[g.Key(n)]
		fmt.Fprintf(&b, "\nCREATE TABLE %s (\n", table)
		b.WriteString("    id SERIAL PRIMARY KEY,\n")
		b.WriteString("    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n")
		fmt.Fprintf(&b, "    -- TODO: add columns for %s\n", n.Label)
		b.WriteString(");\n")
	}

	var links []string
	for _, e := range g.Edges() {
		if !e.Resolved() {
			continue
		}
		src, okS := tables[e.Source.Key]
		dst, okT := tables[e.Target.Key]
		if !okS || !okT {
			continue
		}
		links = append(links, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s_id INTEGER REFERENCES %s(id); -- %s",
			src, strings.ToLower(dst), dst, oneLine(e.Label)))
	}
	if len(links) > 0 {
		b.WriteString("\n-- Relationships\n")
		for _, l := range links {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return types.Section{Name: "schema.sql", Kind: KindSchema, Body: b.String()}, true
}

// oneLine keeps free text from breaking out of a line comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
