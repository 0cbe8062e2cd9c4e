package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddhant1729/Trace/pkg/types"
)

func orderNodes() []types.Node {
	return []types.Node{
		{ID: "n1", Label: "User", Type: types.TypeActor},
		{ID: "n2", Label: "CreateOrder", Type: types.TypeProcess},
		{ID: "n3", Label: "Orders", Type: types.TypeDatabase},
	}
}

func TestBuildIDScheme(t *testing.T) {
	g := Build(orderNodes(), []types.Edge{
		{From: "n1", To: "n2", Label: "submits"},
		{From: "CreateOrder", To: "n3", Label: "saves"},
	})
	require.Equal(t, SchemeID, g.Scheme())

	n, ok := g.Node("n3")
	require.True(t, ok)
	assert.Equal(t, "Orders", n.Label)

	out := g.Outgoing("n2")
	require.Len(t, out, 1)
	assert.Equal(t, "saves", out[0].Label)
	assert.Equal(t, "n2", out[0].Source.Key, "label reference resolves to the id identity")

	in := g.Incoming("n2")
	require.Len(t, in, 1)
	assert.Equal(t, "submits", in[0].Label)
	assert.Empty(t, g.Unresolved())
}

func TestBuildLabelSchemeWhenAnyIDMissing(t *testing.T) {
	nodes := orderNodes()
	nodes[2].ID = ""
	g := Build(nodes, []types.Edge{{From: "n1", To: "Orders"}})
	assert.Equal(t, SchemeLabel, g.Scheme())

	_, ok := g.Node("n1")
	assert.False(t, ok, "ids are not identities in the label scheme")

	e := g.Edges()[0]
	assert.False(t, e.Source.Resolved())
	assert.Equal(t, "Orders", e.Target.Key)
}

func TestUnresolvedEdgesAreKept(t *testing.T) {
	edges := []types.Edge{
		{From: "n1", To: "n2", Label: "submits"},
		{From: "n2", To: "Ghost", Label: "haunts"},
		{From: "", To: "n1", Label: "blank"},
	}
	g := Build(orderNodes(), edges)

	require.Len(t, g.Edges(), len(edges))
	un := g.Unresolved()
	require.Len(t, un, 2)
	assert.Equal(t, "Ghost", un[0].Target.Ref)
	assert.Equal(t, "Unknown (Ghost)", g.DisplayName(un[0].Target))
	assert.Equal(t, "CreateOrder", g.DisplayName(un[0].Source))
	assert.Equal(t, UnknownLabel, g.DisplayName(un[1].Source))

	// unresolved targets never enter the incoming index
	assert.Len(t, g.Outgoing("n2"), 1)
	assert.Len(t, g.Incoming("n1"), 1)
}

func TestDuplicateIdentityFirstWins(t *testing.T) {
	g := Build([]types.Node{
		{Label: "Billing", Type: types.TypeProcess},
		{Label: "Billing", Type: types.TypeDatabase},
	}, nil)
	nodes := g.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, types.TypeProcess, nodes[0].Type)
}

func TestNodesOfTypeAndAccessorsCopy(t *testing.T) {
	g := Build(orderNodes(), nil)
	dbs := g.NodesOfType(types.TypeDatabase)
	require.Len(t, dbs, 1)
	assert.Equal(t, "Orders", dbs[0].Label)

	nodes := g.Nodes()
	nodes[0].Label = "mutated"
	n, _ := g.Node("n1")
	assert.Equal(t, "User", n.Label)
}

func TestEmptyGraph(t *testing.T) {
	g := Build(nil, nil)
	assert.Equal(t, SchemeLabel, g.Scheme())
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())

	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scheme":"label","nodes":[],"edges":[]}`, string(b))
}

func TestMarshalJSON(t *testing.T) {
	g := Build(orderNodes()[:1], []types.Edge{{From: "n1", To: "zzz", Label: "pokes"}})
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"scheme": "id",
		"nodes": [{"id":"n1","label":"User","type":"Actor","bbox":null}],
		"edges": [{"from":"n1","to":"zzz","label":"pokes","fromLabel":"User","toLabel":"Unknown (zzz)","unresolved":true}]
	}`, string(b))
}
