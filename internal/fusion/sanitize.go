package fusion

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/siddhant1729/Trace/internal/extract"
	"github.com/siddhant1729/Trace/internal/validate"
	"github.com/siddhant1729/Trace/pkg/types"
)

// DefaultMaxNodes bounds how many nodes one diagram may contribute.
const DefaultMaxNodes = 10

// DefaultMaxEdges bounds how many edges one diagram may contribute.
const DefaultMaxEdges = 30

var canonicalTypes = map[string]string{
	"actor":     types.TypeActor,
	"process":   types.TypeProcess,
	"database":  types.TypeDatabase,
	"interface": types.TypeInterface,
	"decision":  types.TypeDecision,
}

// Limits caps the entities kept from one extraction.
type Limits struct {
	MaxNodes int
	MaxEdges int
}

func (l Limits) withDefaults() Limits {
	if l.MaxNodes <= 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	if l.MaxEdges <= 0 {
		l.MaxEdges = DefaultMaxEdges
	}
	return l
}

// CanonicalType maps known types case-insensitively onto their canonical
// spelling. Unknown types pass through untouched; empty becomes Process.
func CanonicalType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return types.TypeProcess
	}
	if c, ok := canonicalTypes[strings.ToLower(t)]; ok {
		return c
	}
	return t
}

// MapNodes coerces raw records into nodes. Identity (id, else label) is
// unique and the first occurrence wins; at most limit nodes are kept in the
// order they were found. Optional fields that fail the record schema fall
// back to their defaults.
func MapNodes(recs []types.Record, limit int) []types.Node {
	if limit <= 0 {
		limit = DefaultMaxNodes
	}
	out := make([]types.Node, 0, min(len(recs), limit))
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if len(out) >= limit {
			break
		}
		bad := invalidSet(validate.KindNode, r)
		n := types.Node{BBox: []float64{}}
		if _, ok := bad["id"]; !ok {
			n.ID = strings.TrimSpace(extract.String(r["id"]))
		}
		if _, ok := bad["label"]; !ok {
			n.Label = strings.TrimSpace(extract.String(r["label"]))
		}
		if n.Label == "" {
			n.Label = n.ID
		}
		if n.Label == "" {
			continue
		}
		n.Type = types.TypeProcess
		if _, ok := bad["type"]; !ok {
			n.Type = CanonicalType(extract.String(r["type"]))
		}
		if _, ok := bad["bbox"]; !ok {
			n.BBox = toFloats(r["bbox"])
		}
		n.Attrs = extras(r, "id", "label", "type", "bbox")

		if _, dup := seen[n.Key()]; dup {
			continue
		}
		seen[n.Key()] = struct{}{}
		out = append(out, n)
	}
	return out
}

// MapEdges coerces raw records into edges, keeping at most limit in order.
// The relationship text comes from label, then action, then "connects".
func MapEdges(recs []types.Record, limit int) []types.Edge {
	if limit <= 0 {
		limit = DefaultMaxEdges
	}
	out := make([]types.Edge, 0, min(len(recs), limit))
	for _, r := range recs {
		if len(out) >= limit {
			break
		}
		bad := invalidSet(validate.KindEdge, r)
		e := types.Edge{
			From: strings.TrimSpace(extract.String(r["from"])),
			To:   strings.TrimSpace(extract.String(r["to"])),
		}
		if _, ok := bad["label"]; !ok {
			e.Label = strings.TrimSpace(extract.String(r["label"]))
		}
		if _, ok := bad["action"]; !ok && e.Label == "" {
			e.Label = strings.TrimSpace(extract.String(r["action"]))
		}
		if e.Label == "" {
			e.Label = types.DefaultEdgeLabel
		}
		e.Attrs = extras(r, "from", "to", "label", "action")
		out = append(out, e)
	}
	return out
}

// Sanitize applies the same defaults and caps to an already typed graph,
// such as one produced by structural ingestion.
func Sanitize(ig types.IntermediateGraph, lim Limits) types.IntermediateGraph {
	lim = lim.withDefaults()
	out := types.IntermediateGraph{Notes: ig.Notes}
	seen := map[string]struct{}{}
	for _, n := range ig.Nodes {
		if len(out.Nodes) >= lim.MaxNodes {
			out.Notes = append(out.Notes, "node cap reached; "+strconv.Itoa(len(ig.Nodes)-lim.MaxNodes)+" dropped")
			break
		}
		n.Label = strings.TrimSpace(n.Label)
		if n.Label == "" {
			n.Label = n.ID
		}
		if n.Label == "" {
			continue
		}
		n.Type = CanonicalType(n.Type)
		if n.BBox == nil {
			n.BBox = []float64{}
		}
		if _, dup := seen[n.Key()]; dup {
			continue
		}
		seen[n.Key()] = struct{}{}
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range ig.Edges {
		if len(out.Edges) >= lim.MaxEdges {
			break
		}
		if strings.TrimSpace(e.Label) == "" {
			e.Label = types.DefaultEdgeLabel
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}

func invalidSet(kind validate.Kind, r types.Record) map[string]struct{} {
	fields := validate.InvalidFields(kind, r)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func toFloats(v any) []float64 {
	arr, ok := v.([]any)
	if !ok {
		return []float64{}
	}
	out := make([]float64, 0, len(arr))
	for _, x := range arr {
		switch n := x.(type) {
		case json.Number:
			if f, err := n.Float64(); err == nil {
				out = append(out, f)
			}
		case float64:
			out = append(out, n)
		}
	}
	return out
}

func extras(r types.Record, known ...string) map[string]any {
	var out map[string]any
outer:
	for k, v := range r {
		for _, kn := range known {
			if k == kn {
				continue outer
			}
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}
