package extract

import (
	"regexp"
	"strings"
)

var (
	reLeadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+.-]*[ \t]*\r?\n?")
	reTrailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// Normalize strips one leading code fence (with or without a language tag),
// one trailing fence and surrounding whitespace.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = reLeadingFence.ReplaceAllString(s, "")
	s = reTrailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
