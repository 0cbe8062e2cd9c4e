// Package codegen turns an assembled diagram graph into code scaffolding.
//
// Each section is triggered by a pattern in the graph: Database nodes yield
// a schema, Process nodes yield service skeletons. When nothing matches, a
// plain summary is produced instead. Output depends only on the graph, in
// insertion order, so the same graph always yields the same text.
package codegen

import (
	"github.com/siddhant1729/Trace/internal/graph"
	"github.com/siddhant1729/Trace/pkg/types"
)

const (
	KindSchema   = "schema"
	KindService  = "service"
	KindFallback = "fallback"
)

// Generate emits sections in the fixed order schema, service, fallback.
func Generate(g *graph.Graph) []types.Section {
	var out []types.Section
	if s, ok := schemaSection(g); ok {
		out = append(out, s)
	}
	if s, ok := serviceSection(g); ok {
		out = append(out, s)
	}
	if len(out) == 0 {
		out = append(out, fallbackSection(g))
	}
	return out
}

// Fallback emits only the summary section. Placeholder graphs use it: a
// skeleton for an unknown component would be noise.
func Fallback(g *graph.Graph) []types.Section {
	return []types.Section{fallbackSection(g)}
}
