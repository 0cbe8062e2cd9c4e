package inference

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/siddhant1729/Trace/pkg/types"
)

// Mock answers every call with a fixed response or error. It backs offline
// runs (INFER_PROVIDER=mock) and tests.
type Mock struct {
	Response string
	Err      error

	calls atomic.Int64
}

func (m *Mock) Name() string { return "mock" }

// Calls reports how many times Infer ran.
func (m *Mock) Calls() int { return int(m.calls.Load()) }

func (m *Mock) Infer(ctx context.Context, _ string, _ []byte) (string, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockFromIntermediate renders a graph the way a well-behaved model would,
// fenced, so the mock exercises the whole extraction path.
func MockFromIntermediate(ig types.IntermediateGraph) *Mock {
	type node struct {
		ID    string    `json:"id,omitempty"`
		Label string    `json:"label"`
		Type  string    `json:"type"`
		BBox  []float64 `json:"bbox,omitempty"`
	}
	type edge struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Label string `json:"label,omitempty"`
	}
	doc := struct {
		Nodes []node `json:"nodes"`
		Edges []edge `json:"edges"`
	}{Nodes: []node{}, Edges: []edge{}}
	for _, n := range ig.Nodes {
		doc.Nodes = append(doc.Nodes, node{ID: n.ID, Label: n.Label, Type: n.Type, BBox: n.BBox})
	}
	for _, e := range ig.Edges {
		doc.Edges = append(doc.Edges, edge{From: e.From, To: e.To, Label: e.Label})
	}
	b, _ := json.MarshalIndent(doc, "", "  ")
	return &Mock{Response: "```json\n" + string(b) + "\n```"}
}

// DemoGraph is the sample diagram served by the mock provider.
func DemoGraph() types.IntermediateGraph {
	return types.IntermediateGraph{
		Nodes: []types.Node{
			{ID: "n1", Label: "User", Type: types.TypeActor},
			{ID: "n2", Label: "CreateOrder", Type: types.TypeProcess},
			{ID: "n3", Label: "Orders", Type: types.TypeDatabase},
		},
		Edges: []types.Edge{
			{From: "n1", To: "n2", Label: "submits"},
			{From: "n2", To: "n3", Label: "saves"},
		},
	}
}
