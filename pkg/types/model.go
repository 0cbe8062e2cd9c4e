package types

// Known node types. The set is open: anything else passes through verbatim.
const (
	TypeActor     = "Actor"
	TypeProcess   = "Process"
	TypeDatabase  = "Database"
	TypeInterface = "Interface"
	TypeDecision  = "Decision"
)

// DefaultEdgeLabel is used when a record carries neither label nor action.
const DefaultEdgeLabel = "connects"

type Node struct {
	ID    string         `json:"id,omitempty"`
	Label string         `json:"label"`
	Type  string         `json:"type"`           // Actor|Process|Database|Interface|Decision|<other>
	BBox  []float64      `json:"bbox"`           // advisory only
	Attrs map[string]any `json:"attrs,omitempty"` // any extra keys from the source record
}

// Key returns the node's identity: its id when set, otherwise its label.
func (n Node) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Label
}

type Edge struct {
	From  string         `json:"from"`
	To    string         `json:"to"`
	Label string         `json:"label"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Section is one named block of generated scaffolding.
type Section struct {
	Name string `json:"name"` // e.g. schema.sql
	Kind string `json:"kind"` // schema|service|fallback
	Body string `json:"body"`
}

// Record is a raw mapping pulled out of model output, not yet typed.
type Record map[string]any

// IntermediateGraph is the untyped-topology result of ingestion or extraction:
// nodes and edges as found, plus free-form notes about how they were found.
type IntermediateGraph struct {
	Nodes []Node   `json:"nodes"`
	Edges []Edge   `json:"edges"`
	Notes []string `json:"notes,omitempty"`
}
