package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddhant1729/Trace/pkg/types"
)

var nodeQuery = Query{Required: []string{"label", "type"}, Exclude: []string{"from", "to"}}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "json_fence", input: "```json\n[{\"a\":1}]\n```", want: `[{"a":1}]`},
		{name: "bare_fence", input: "```\n{}\n```", want: `{}`},
		{name: "no_fence", input: "  {\"a\":1}  \n", want: `{"a":1}`},
		{name: "leading_only", input: "```json\n{\"a\":1}", want: `{"a":1}`},
		{name: "trailing_only", input: "{\"a\":1}\n```", want: `{"a":1}`},
		{name: "empty", input: "   ", want: ""},
		{name: "inner_fence_kept", input: "```\na\n```\nb\n```", want: "a\n```\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestBalancedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "prose", input: `prefix {"k": "v"} suffix`, want: []string{`{"k": "v"}`}},
		{name: "nested", input: `x {"a": {"b": 1}} y`, want: []string{`{"a": {"b": 1}}`, `{"b": 1}`}},
		{name: "multiple", input: `{"id": 1} and {"id": 2}`, want: []string{`{"id": 1}`, `{"id": 2}`}},
		{name: "brace_in_string", input: `{"k": "has } and { inside"}`, want: []string{`{"k": "has } and { inside"}`}},
		{name: "escaped_quote", input: `{"k": "a \" } b"}`, want: []string{`{"k": "a \" } b"}`}},
		{name: "stray_open", input: `use { wisely {"id": 3}`, want: []string{`{"id": 3}`}},
		{name: "stray_close", input: `} {"id": 4}`, want: []string{`{"id": 4}`}},
		{name: "incomplete", input: `{"id": 5`, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, balancedBlocks(tt.input))
		})
	}
}

func TestExtractWholeArrayKeepsOrderAndDropsDuplicates(t *testing.T) {
	raw := "```json\n" + `[
		{"id":"n1","label":"User","type":"Actor"},
		{"id":"n2","label":"CreateOrder","type":"Process","extra":{"k":"v"}},
		{"id":"n1","label":"User","type":"Actor"},
		"not a record",
		{"label":"missing type"}
	]` + "\n```"

	m := New().Extract(raw, Query{Required: []string{"id", "label", "type"}})
	require.Equal(t, "whole", m.Strategy)
	require.Len(t, m.Records, 2)
	assert.Equal(t, "User", m.Records[0]["label"])
	assert.Equal(t, "CreateOrder", m.Records[1]["label"])
	assert.Equal(t, map[string]any{"k": "v"}, m.Records[1]["extra"])
}

func TestExtractSingleMapping(t *testing.T) {
	m := New().Extract(`{"label":"Orders","type":"Database"}`, nodeQuery)
	require.Equal(t, "whole", m.Strategy)
	require.Len(t, m.Records, 1)
	assert.Equal(t, "Orders", m.Records[0]["label"])
}

func TestExtractBlockInsideProse(t *testing.T) {
	raw := `Sure! The diagram has one store: {"label": "Orders", "type": "Database", "note": "keeps {braces}"} - hope this helps.`
	m := New().Extract(raw, nodeQuery)
	require.Equal(t, "blocks", m.Strategy)
	require.Len(t, m.Records, 1)
	assert.Equal(t, "keeps {braces}", m.Records[0]["note"])
}

func TestExtractWrapperObject(t *testing.T) {
	raw := `Result:
{"nodes": [{"id": "n1", "label": "User", "type": "Actor"}, {"id": "n2", "label": "Checkout", "type": "Process"}],
 "edges": [{"from": "n1", "to": "n2", "label": "clicks"}]}`

	ex := New()
	nodes := ex.Extract(raw, nodeQuery)
	require.Len(t, nodes.Records, 2)
	assert.Equal(t, "n1", nodes.Records[0]["id"])
	assert.Equal(t, "n2", nodes.Records[1]["id"])

	edges := ex.Records(raw, "from", "to")
	require.Len(t, edges, 1)
	assert.Equal(t, "clicks", edges[0]["label"])
}

func TestExtractDeduplicatesKeyOrderVariants(t *testing.T) {
	var parts []string
	for i := 0; i < 15; i++ {
		if i%2 == 0 {
			parts = append(parts, `{"label":"Billing","type":"Process"}`)
		} else {
			parts = append(parts, `{"type":"Process","label":"Billing"}`)
		}
	}
	raw := "nodes:\n" + strings.Join(parts, "\n")

	recs := New().Extract(raw, nodeQuery).Records
	require.Len(t, recs, 1)
}

func TestExtractSignatureIgnoresOptionalKeys(t *testing.T) {
	raw := `[{"label":"A","type":"Process","bbox":[1,2,3,4]},{"label":"A","type":"Process","bbox":[9,9,9,9]}]`
	recs := New().Extract(raw, nodeQuery).Records
	require.Len(t, recs, 1)
	assert.Equal(t, []any{jsonNum("1"), jsonNum("2"), jsonNum("3"), jsonNum("4")}, recs[0]["bbox"])
}

func TestExtractGarbageIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "```", "I cannot see an image.", "{{{{", `{"label": }`, "[1, 2, 3]"} {
		m := New().Extract(raw, nodeQuery)
		assert.Empty(t, m.Records, "input %q", raw)
		assert.Empty(t, m.Strategy, "input %q", raw)
	}
}

func TestExtractQuotedPayload(t *testing.T) {
	raw := `"[{\"label\":\"A\",\"type\":\"Process\"}]"`
	m := New().Extract(raw, nodeQuery)
	require.Equal(t, "whole", m.Strategy)
	require.Len(t, m.Records, 1)
	assert.Equal(t, "A", m.Records[0]["label"])
}

func TestExtractDoubleEscapedUnicode(t *testing.T) {
	raw := `{"label":"A \\u003e B","type":"Process"}`
	recs := New().Extract(raw, nodeQuery).Records
	require.Len(t, recs, 1)
	assert.Equal(t, "A > B", recs[0]["label"])
}

func TestLineScan(t *testing.T) {
	text := "records:\n- {\"label\":\"A\",\"type\":\"Process\"},\n{\"label\":\"B\",\"type\":\"Actor\"};\nnot json"
	recs := LineScan{}.Extract(text, nodeQuery)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0]["label"])
	assert.Equal(t, "B", recs[1]["label"])
}

func TestCustomStrategyChain(t *testing.T) {
	ex := New(WithStrategies(LineScan{}))
	m := ex.Extract(`[{"label":"A","type":"Process"}]`, nodeQuery)
	assert.Empty(t, m.Records)
}

func TestDegrade(t *testing.T) {
	raw := "The diagram shows:\n- User\n- Orders DB\n1. Payment API\n2) Checkout\nsome closing prose"

	assert.Empty(t, New().Degrade(raw).Records)

	m := New(WithFallback(Heuristic{})).Degrade(raw)
	require.Equal(t, "heuristic", m.Strategy)
	require.Len(t, m.Records, 4)
	want := []types.Record{
		{"label": "User", "type": types.TypeActor},
		{"label": "Orders DB", "type": types.TypeDatabase},
		{"label": "Payment API", "type": types.TypeInterface},
		{"label": "Checkout", "type": types.TypeProcess},
	}
	assert.Equal(t, want, m.Records)
}

func TestGuessType(t *testing.T) {
	tests := map[string]string{
		"Redis Cache":    types.TypeDatabase,
		"Admin User":     types.TypeActor,
		"REST Interface": types.TypeInterface,
		"Render":         types.TypeProcess,
	}
	for label, want := range tests {
		assert.Equal(t, want, GuessType(label), label)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "42", String(jsonNum("42")))
	assert.Equal(t, "true", String(true))
	assert.Equal(t, `[1,"a"]`, String([]any{jsonNum("1"), "a"}))
	assert.Equal(t, `{"a":"<b>"}`, String(map[string]any{"a": "<b>"}))
	assert.Equal(t, "1.5", String(1.5))
}
