package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Ident turns a label into an identifier made of ASCII letters, digits and
// underscores. Accents are folded ("Café" -> "Cafe"), every other character
// becomes "_", case is kept, and a leading digit gets a "_" prefix.
func Ident(label string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), label)
	if err != nil {
		folded = label
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		return "_"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// Route is the lower-cased route segment for a label.
func Route(label string) string { return "/" + strings.ToLower(Ident(label)) }

// lowerFirst lower-cases the first letter, for parameter names.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// namer hands out unique identifiers in request order.
type namer map[string]int

func (n namer) unique(base string) string {
	n[base]++
	if c := n[base]; c > 1 {
		return base + "_" + strconv.Itoa(c)
	}
	return base
}
