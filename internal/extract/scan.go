package extract

import "sort"

// balancedBlocks returns every balanced {...} block in s, outer blocks and the
// blocks nested inside them, ordered by where they start. Braces inside JSON
// string literals are skipped and escapes are honored. Unmatched braces are
// ignored.
//
// Scanning bytes is safe for the ASCII delimiters involved: UTF-8 never uses
// them inside a multi-byte sequence.
func balancedBlocks(s string) []string {
	type span struct{ start, end int }
	var (
		spans    []span
		open     []int
		inString bool
		escape   bool
	)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			spans = append(spans, span{start: start, end: i + 1})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		out = append(out, s[sp.start:sp.end])
	}
	return out
}
