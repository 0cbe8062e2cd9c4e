package ingest

import (
	"regexp"
	"strings"

	"github.com/siddhant1729/Trace/internal/extract"
	"github.com/siddhant1729/Trace/pkg/types"
)

var (
	reComp = regexp.MustCompile(`(?i)^(actor|database|interface|component|rectangle|node|queue|boundary|control|entity|usecase)\s+"?([^"]+?)"?\s*(?:as\s+([A-Za-z0-9_]+))?\s*(?:<<.*>>)?\s*(?:\{)?$`)
	reLink = regexp.MustCompile(`^([A-Za-z0-9_"\s]+?)\s*[-.]+(?:\[[^\]]*\][-.]*)?>{1,2}\s*([A-Za-z0-9_"\s]+?)\s*(?::\s*(.+))?$`)
)

// pumlTypes maps PlantUML element keywords onto node types; the rest are
// guessed from their label.
var pumlTypes = map[string]string{
	"actor":     types.TypeActor,
	"database":  types.TypeDatabase,
	"interface": types.TypeInterface,
	"boundary":  types.TypeInterface,
	"entity":    types.TypeDatabase,
}

func ParsePUML(name string, b []byte) (ParsedFile, error) {
	lines := strings.Split(string(b), "\n")

	idByLabel := map[string]string{}
	var nodes []types.Node
	var edges []types.Edge

	for _, ln := range lines {
		l := strings.TrimSpace(ln)
		if l == "" || strings.HasPrefix(l, "'") || strings.HasPrefix(l, "@") {
			continue
		}

		if m := reComp.FindStringSubmatch(l); m != nil {
			label := strings.TrimSpace(m[2])
			id := m[3]
			if id == "" {
				id = sanitizeID(label)
			}
			idByLabel[label] = id
			idByLabel[id] = id
			typ, ok := pumlTypes[strings.ToLower(m[1])]
			if !ok {
				typ = extract.GuessType(label)
			}
			nodes = append(nodes, types.Node{ID: id, Label: label, Type: typ})
			continue
		}
		if m := reLink.FindStringSubmatch(l); m != nil {
			from := cleanRef(m[1], idByLabel)
			to := cleanRef(m[2], idByLabel)
			edges = append(edges, types.Edge{From: from, To: to, Label: strings.TrimSpace(m[3])})
		}
	}
	return ParsedFile{Name: name, Nodes: addImplicit(nodes, edges), Edges: edges}, nil
}

// addImplicit declares nodes that PlantUML allows to appear only in links.
func addImplicit(nodes []types.Node, edges []types.Edge) []types.Node {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		seen[n.ID] = true
	}
	for _, e := range edges {
		for _, ref := range []string{e.From, e.To} {
			if ref == "" || seen[ref] {
				continue
			}
			seen[ref] = true
			nodes = append(nodes, types.Node{ID: ref, Label: ref, Type: extract.GuessType(ref)})
		}
	}
	return nodes
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

func cleanRef(s string, ids map[string]string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if id, ok := ids[s]; ok {
		return id
	}
	return sanitizeID(s)
}
