package codegen

import (
	"fmt"
	"strings"

	"github.com/siddhant1729/Trace/internal/graph"
	"github.com/siddhant1729/Trace/pkg/types"
)

const serviceHeader = `// Service skeletons generated from the diagram. Fill in the TODOs.
package service

import "context"
`

const persistHelper = `
// persist stores payload in table.
func persist(ctx context.Context, table string, payload map[string]any) error {
	// TODO: write payload to table
	return nil
}
`

func serviceSection(g *graph.Graph) (types.Section, bool) {
	procs := g.NodesOfType(types.TypeProcess)
	if len(procs) == 0 {
		return types.Section{}, false
	}
	w := &serviceWriter{g: g, tables: tableNames(g), names: namer{}}
	for _, p := range procs {
		w.endpoint(p)
	}

	var b strings.Builder
	b.WriteString(serviceHeader)
	if w.persists {
		b.WriteString(persistHelper)
	}
	b.WriteString(w.body.String())
	return types.Section{Name: "service.go", Kind: KindService, Body: b.String()}, true
}

// tableNames assigns each Database node its table name, in insertion order,
// the same way the schema section does.
func tableNames(g *graph.Graph) map[string]string {
	names := namer{}
	out := map[string]string{}
	for _, n := range g.NodesOfType(types.TypeDatabase) {
		out[g.Key(n)] = names.unique(Ident(n.Label))
	}
	return out
}

type serviceWriter struct {
	g         *graph.Graph
	tables    map[string]string
	names     namer
	decisions int
	persists  bool
	body      strings.Builder
}

// triggeringActor scans incoming edges in insertion order and returns the
// first one whose source is an Actor. First match, not best match, so the
// output is reproducible.
func triggeringActor(g *graph.Graph, key string) (types.Node, graph.Edge, bool) {
	for _, e := range g.Incoming(key) {
		if src, ok := g.Endpoint(e.Source); ok && src.Type == types.TypeActor {
			return src, e, true
		}
	}
	return types.Node{}, graph.Edge{}, false
}

func (w *serviceWriter) endpoint(p types.Node) {
	b := &w.body
	fn := w.names.unique(Ident(p.Label))
	fmt.Fprintf(b, "\n// %s handles POST %s.\n", fn, Route(p.Label))

	params := "ctx context.Context, "
	if actor, e, ok := triggeringActor(w.g, w.g.Key(p)); ok {
		param := lowerFirst(Ident(actor.Label)) + "ID"
		fmt.Fprintf(b, "// Triggered by actor %q via %q.\n", oneLine(actor.Label), oneLine(e.Label))
		params += param + " string, "
	} else {
		fmt.Fprintf(b, "// No actor edge detected for %q.\n", oneLine(p.Label))
	}
	params += "payload map[string]any"
	fmt.Fprintf(b, "func %s(%s) error {\n", fn, params)
	b.WriteString("\t// TODO: validate payload\n")

	for _, e := range w.g.Outgoing(w.g.Key(p)) {
		target, ok := w.g.Endpoint(e.Target)
		switch {
		case ok && target.Type == types.TypeDecision:
			w.decision(target, e)
		case ok && target.Type == types.TypeDatabase:
			w.persist(1, target, e.Label)
		default:
			fmt.Fprintf(b, "\t// then: %s (%s)\n", oneLine(w.g.DisplayName(e.Target)), oneLine(e.Label))
		}
	}
	b.WriteString("\treturn nil\n}\n")
}

func (w *serviceWriter) decision(d types.Node, via graph.Edge) {
	b := &w.body
	w.decisions++
	v := fmt.Sprintf("decision%d", w.decisions)

	var yes, no *graph.Edge
	for _, e := range w.g.Outgoing(w.g.Key(d)) {
		switch strings.ToLower(strings.TrimSpace(e.Label)) {
		case "yes":
			if yes == nil {
				yes = &e
			}
		case "no":
			if no == nil {
				no = &e
			}
		}
	}

	fmt.Fprintf(b, "\t// Decision %q via %q.\n", oneLine(d.Label), oneLine(via.Label))
	fmt.Fprintf(b, "\t%s := true // TODO: evaluate %q\n", v, oneLine(d.Label))
	fmt.Fprintf(b, "\tif %s {\n", v)
	w.branch("yes", yes)
	b.WriteString("\t} else {\n")
	w.branch("no", no)
	b.WriteString("\t}\n")
}

func (w *serviceWriter) branch(name string, e *graph.Edge) {
	b := &w.body
	if e == nil {
		fmt.Fprintf(b, "\t\t// no-op: no %q branch in the diagram\n", name)
		return
	}
	if target, ok := w.g.Endpoint(e.Target); ok && target.Type == types.TypeDatabase {
		w.persist(2, target, e.Label)
		return
	}
	fmt.Fprintf(b, "\t\t// continue to %s\n", oneLine(w.g.DisplayName(e.Target)))
}

func (w *serviceWriter) persist(depth int, db types.Node, label string) {
	w.persists = true
	ind := strings.Repeat("\t", depth)
	table := w.tables[w.g.Key(db)]
	fmt.Fprintf(&w.body, "%sif err := persist(ctx, %q, payload); err != nil { // %s\n", ind, table, oneLine(label))
	fmt.Fprintf(&w.body, "%s\treturn err\n%s}\n", ind, ind)
}
