// Package extract pulls structured records out of unreliable model output.
//
// Strategies run in order and the first one that yields at least one record
// wins: whole-payload parse, balanced-block scan, line scan. A last-resort
// plain-text heuristic can be attached with WithFallback; it never runs as
// part of Extract.
package extract

import (
	"sort"
	"strings"

	"github.com/siddhant1729/Trace/pkg/types"
)

// Query describes which mappings count as records.
type Query struct {
	// Required keys must all be present.
	Required []string
	// Exclude keys must all be absent.
	Exclude []string
}

// Accepts reports whether m satisfies the query.
func (q Query) Accepts(m map[string]any) bool {
	for _, k := range q.Required {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	for _, k := range q.Exclude {
		if _, ok := m[k]; ok {
			return false
		}
	}
	return true
}

// signature identifies a record by its required keys only.
func (q Query) signature(m map[string]any) string {
	keys := append([]string(nil), q.Required...)
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\x1f')
		b.WriteString(stringify(m[k]))
		b.WriteByte('\x1e')
	}
	return b.String()
}

// Strategy is one way of finding records in normalized text.
type Strategy interface {
	Name() string
	Extract(text string, q Query) []types.Record
}

// Match is the outcome of an extraction.
type Match struct {
	Records  []types.Record
	Strategy string // empty when nothing matched
}

type Extractor struct {
	strategies []Strategy
	fallback   Strategy
}

type Option func(*Extractor)

// WithStrategies replaces the default strategy chain.
func WithStrategies(s ...Strategy) Option {
	return func(e *Extractor) { e.strategies = s }
}

// WithFallback attaches a last-resort strategy used only by Degrade.
func WithFallback(s Strategy) Option {
	return func(e *Extractor) { e.fallback = s }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: []Strategy{WholePayload{}, BlockScan{}, LineScan{}},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract normalizes raw and runs the strategy chain. It never fails; the
// worst case is an empty Match.
func (e *Extractor) Extract(raw string, q Query) Match {
	text := Normalize(raw)
	if text == "" {
		return Match{}
	}
	for _, s := range e.strategies {
		if recs := dedupe(s.Extract(text, q), q); len(recs) > 0 {
			return Match{Records: recs, Strategy: s.Name()}
		}
	}
	return Match{}
}

// Records is Extract with only required keys.
func (e *Extractor) Records(raw string, required ...string) []types.Record {
	return e.Extract(raw, Query{Required: required}).Records
}

// Degrade runs the fallback strategy, if any. Callers invoke it only after
// every structured extraction came back empty.
func (e *Extractor) Degrade(raw string) Match {
	if e.fallback == nil {
		return Match{}
	}
	text := Normalize(raw)
	q := Query{Required: []string{"label"}}
	if recs := dedupe(e.fallback.Extract(text, q), q); len(recs) > 0 {
		return Match{Records: recs, Strategy: e.fallback.Name()}
	}
	return Match{}
}

// dedupe keeps the first record for each signature.
func dedupe(recs []types.Record, q Query) []types.Record {
	if len(recs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(recs))
	out := make([]types.Record, 0, len(recs))
	for _, r := range recs {
		sig := q.signature(r)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, r)
	}
	return out
}

// WholePayload parses the entire text as one JSON value.
type WholePayload struct{}

func (WholePayload) Name() string { return "whole" }

func (WholePayload) Extract(text string, q Query) []types.Record {
	v, ok := decodeFlex(text)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []any:
		var out []types.Record
		for _, el := range x {
			if m, ok := el.(map[string]any); ok && q.Accepts(m) {
				out = append(out, types.Record(m))
			}
		}
		return out
	case map[string]any:
		if q.Accepts(x) {
			return []types.Record{x}
		}
	}
	return nil
}

// BlockScan parses every balanced {...} block on its own, which tolerates
// prose around the JSON, several unrelated objects, and wrapper objects
// whose inner records are what we want.
type BlockScan struct{}

func (BlockScan) Name() string { return "blocks" }

func (BlockScan) Extract(text string, q Query) []types.Record {
	var out []types.Record
	for _, cand := range balancedBlocks(text) {
		v, ok := decodeFlex(cand)
		if !ok {
			continue
		}
		if m, ok := v.(map[string]any); ok && q.Accepts(m) {
			out = append(out, types.Record(m))
		}
	}
	return out
}

// LineScan treats each line as a possible one-line record.
type LineScan struct{}

func (LineScan) Name() string { return "lines" }

func (LineScan) Extract(text string, q Query) []types.Record {
	var out []types.Record
	for _, ln := range strings.Split(text, "\n") {
		l := strings.TrimSpace(ln)
		l = strings.TrimLeft(l, "-*• \t")
		l = strings.TrimRight(l, ",; \t")
		if !strings.HasPrefix(l, "{") {
			continue
		}
		v, ok := decodeFlex(l)
		if !ok {
			continue
		}
		if m, ok := v.(map[string]any); ok && q.Accepts(m) {
			out = append(out, types.Record(m))
		}
	}
	return out
}
