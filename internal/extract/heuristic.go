package extract

import (
	"regexp"
	"strings"

	"github.com/siddhant1729/Trace/pkg/types"
)

// reBullet matches short bulleted or numbered lines: "- API Gateway", "2) Orders DB".
var reBullet = regexp.MustCompile(`^\s*(?:[-*•+]|\d{1,3}[.)])\s+(.{1,80})$`)

// Heuristic turns bulleted prose into node records. It is the legacy
// last-resort path and only ever runs through Extractor.Degrade.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Extract(text string, _ Query) []types.Record {
	var out []types.Record
	for _, ln := range strings.Split(text, "\n") {
		m := reBullet.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		label := strings.TrimSpace(strings.Trim(m[1], "*_`:"))
		if label == "" || strings.HasPrefix(label, "{") {
			continue
		}
		out = append(out, types.Record{"label": label, "type": GuessType(label)})
	}
	return out
}

// GuessType infers a node type from keywords in a label.
func GuessType(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "database"), strings.Contains(l, "db"), strings.Contains(l, "cache"):
		return types.TypeDatabase
	case strings.Contains(l, "actor"), strings.Contains(l, "user"):
		return types.TypeActor
	case strings.Contains(l, "interface"), strings.Contains(l, "api"):
		return types.TypeInterface
	default:
		return types.TypeProcess
	}
}
