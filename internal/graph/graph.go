// Package graph assembles typed nodes and edges into an indexed, read-only
// graph. A Graph is built once per request and never mutated afterwards.
package graph

import (
	"encoding/json"
	"strings"

	"github.com/siddhant1729/Trace/pkg/types"
)

// Scheme is how nodes are identified within one graph. It is chosen once per
// graph; ids and labels are never mixed as identities.
type Scheme string

const (
	// SchemeID is used when every node carries an id.
	SchemeID Scheme = "id"
	// SchemeLabel is used otherwise; ids are then kept only as attributes.
	SchemeLabel Scheme = "label"
)

// UnknownLabel is how an unresolved endpoint is rendered.
const UnknownLabel = "Unknown"

// Endpoint is one side of an edge.
type Endpoint struct {
	Ref string `json:"ref"`           // raw reference as written in the edge
	Key string `json:"key,omitempty"` // node identity; empty when unresolved
}

func (e Endpoint) Resolved() bool { return e.Key != "" }

// Edge is an input edge plus its resolved endpoints.
type Edge struct {
	types.Edge
	Source Endpoint
	Target Endpoint
}

func (e Edge) Resolved() bool { return e.Source.Resolved() && e.Target.Resolved() }

type Graph struct {
	scheme  Scheme
	nodes   []types.Node
	edges   []Edge
	byKey   map[string]int
	byLabel map[string]int
	out     map[string][]int
	in      map[string][]int
}

// Build indexes nodes and resolves every edge endpoint, first by id (id
// scheme only) and then by exact label. Edges that do not resolve are kept
// with an empty Key, so len(g.Edges()) == len(edges) always holds.
func Build(nodes []types.Node, edges []types.Edge) *Graph {
	g := &Graph{
		scheme:  pickScheme(nodes),
		byKey:   make(map[string]int, len(nodes)),
		byLabel: make(map[string]int, len(nodes)),
		out:     make(map[string][]int),
		in:      make(map[string][]int),
	}
	for _, n := range nodes {
		k := g.keyOf(n)
		if _, dup := g.byKey[k]; dup {
			continue
		}
		g.byKey[k] = len(g.nodes)
		if _, ok := g.byLabel[n.Label]; !ok {
			g.byLabel[n.Label] = len(g.nodes)
		}
		g.nodes = append(g.nodes, n)
	}

	g.edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		re := Edge{Edge: e, Source: g.resolve(e.From), Target: g.resolve(e.To)}
		idx := len(g.edges)
		g.edges = append(g.edges, re)
		if re.Source.Resolved() {
			g.out[re.Source.Key] = append(g.out[re.Source.Key], idx)
		}
		if re.Target.Resolved() {
			g.in[re.Target.Key] = append(g.in[re.Target.Key], idx)
		}
	}
	return g
}

func pickScheme(nodes []types.Node) Scheme {
	if len(nodes) == 0 {
		return SchemeLabel
	}
	for _, n := range nodes {
		if n.ID == "" {
			return SchemeLabel
		}
	}
	return SchemeID
}

func (g *Graph) keyOf(n types.Node) string {
	if g.scheme == SchemeID {
		return n.ID
	}
	return n.Label
}

func (g *Graph) resolve(ref string) Endpoint {
	ep := Endpoint{Ref: ref}
	r := strings.TrimSpace(ref)
	if r == "" {
		return ep
	}
	if g.scheme == SchemeID {
		if i, ok := g.byKey[r]; ok {
			ep.Key = g.keyOf(g.nodes[i])
			return ep
		}
	}
	if i, ok := g.byLabel[r]; ok {
		ep.Key = g.keyOf(g.nodes[i])
	}
	return ep
}

func (g *Graph) Scheme() Scheme { return g.scheme }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []types.Node { return append([]types.Node(nil), g.nodes...) }

// Edges returns every edge, resolved or not, in insertion order.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Node looks a node up by identity.
func (g *Graph) Node(key string) (types.Node, bool) {
	i, ok := g.byKey[key]
	if !ok {
		return types.Node{}, false
	}
	return g.nodes[i], true
}

// Key returns the identity of n within this graph.
func (g *Graph) Key(n types.Node) string { return g.keyOf(n) }

// Outgoing returns the resolved-source edges leaving key, in insertion order.
func (g *Graph) Outgoing(key string) []Edge { return g.pick(g.out[key]) }

// Incoming returns the resolved-target edges entering key, in insertion order.
func (g *Graph) Incoming(key string) []Edge { return g.pick(g.in[key]) }

func (g *Graph) pick(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.edges[i])
	}
	return out
}

// Unresolved returns edges with at least one unresolved endpoint.
func (g *Graph) Unresolved() []Edge {
	var out []Edge
	for _, e := range g.edges {
		if !e.Resolved() {
			out = append(out, e)
		}
	}
	return out
}

// NodesOfType returns nodes of type t in insertion order.
func (g *Graph) NodesOfType(t string) []types.Node {
	var out []types.Node
	for _, n := range g.nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Endpoint returns the node an endpoint points at.
func (g *Graph) Endpoint(ep Endpoint) (types.Node, bool) {
	if !ep.Resolved() {
		return types.Node{}, false
	}
	return g.Node(ep.Key)
}

// DisplayName renders an endpoint for humans: the node label, or
// "Unknown (<raw ref>)" for unresolved references.
func (g *Graph) DisplayName(ep Endpoint) string {
	if n, ok := g.Endpoint(ep); ok {
		return n.Label
	}
	if strings.TrimSpace(ep.Ref) == "" {
		return UnknownLabel
	}
	return UnknownLabel + " (" + ep.Ref + ")"
}

type edgeView struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Label      string         `json:"label"`
	FromLabel  string         `json:"fromLabel"`
	ToLabel    string         `json:"toLabel"`
	Unresolved bool           `json:"unresolved,omitempty"`
	Attrs      map[string]any `json:"attrs,omitempty"`
}

type graphView struct {
	Scheme Scheme       `json:"scheme"`
	Nodes  []types.Node `json:"nodes"`
	Edges  []edgeView   `json:"edges"`
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	v := graphView{Scheme: g.scheme, Nodes: g.nodes, Edges: make([]edgeView, 0, len(g.edges))}
	if v.Nodes == nil {
		v.Nodes = []types.Node{}
	}
	for _, e := range g.edges {
		v.Edges = append(v.Edges, edgeView{
			From:       e.From,
			To:         e.To,
			Label:      e.Label,
			FromLabel:  g.DisplayName(e.Source),
			ToLabel:    g.DisplayName(e.Target),
			Unresolved: !e.Resolved(),
			Attrs:      e.Attrs,
		})
	}
	return json.Marshal(v)
}
