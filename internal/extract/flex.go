package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// decodeFlex decodes s as a single JSON value. Numbers stay json.Number so
// identifiers like 12345678901234567890 survive. A payload that is itself a
// quoted JSON document is unwrapped once, and string values that still carry
// escaped unicode (a literal \u003e after decoding) are unescaped.
func decodeFlex(s string) (any, bool) {
	v, ok := decodeStrict(s)
	if !ok {
		return nil, false
	}
	if inner, isStr := v.(string); isStr {
		t := strings.TrimSpace(inner)
		if !strings.HasPrefix(t, "{") && !strings.HasPrefix(t, "[") {
			return v, true
		}
		if v, ok = decodeStrict(t); !ok {
			return nil, false
		}
	}
	if strings.Contains(s, `\\u`) {
		v = deepUnescape(v)
	}
	return v, true
}

var reEscapedRune = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		return reEscapedRune.ReplaceAllStringFunc(x, func(m string) string {
			n, err := strconv.ParseUint(m[2:], 16, 32)
			if err != nil {
				return m
			}
			return string(rune(n))
		})
	case []any:
		for i := range x {
			x[i] = deepUnescape(x[i])
		}
		return x
	case map[string]any:
		for k, vv := range x {
			x[k] = deepUnescape(vv)
		}
		return x
	default:
		return v
	}
}

func decodeStrict(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage means this was not a single value
	if strings.TrimSpace(s[dec.InputOffset():]) != "" {
		return nil, false
	}
	return v, true
}

// stringify renders a decoded JSON value for signatures and coercion.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(x); err != nil {
			return ""
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}

// String coerces a record value to a string the way signatures see it.
func String(v any) string { return stringify(v) }
