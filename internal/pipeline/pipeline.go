// Package pipeline runs one diagram analysis end to end: inference, record
// extraction, typed mapping, graph assembly, code generation and the plain
// language explanation.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/siddhant1729/Trace/internal/codegen"
	"github.com/siddhant1729/Trace/internal/extract"
	"github.com/siddhant1729/Trace/internal/fusion"
	"github.com/siddhant1729/Trace/internal/graph"
	"github.com/siddhant1729/Trace/internal/guard"
	"github.com/siddhant1729/Trace/internal/inference"
	"github.com/siddhant1729/Trace/internal/ingest"
	"github.com/siddhant1729/Trace/internal/logger"
	"github.com/siddhant1729/Trace/internal/store"
	"github.com/siddhant1729/Trace/pkg/types"
)

var (
	nodeQuery = extract.Query{Required: []string{"label"}, Exclude: []string{"from", "to"}}
	edgeQuery = extract.Query{Required: []string{"from", "to"}}
)

// Result is everything one analysis produces.
type Result struct {
	RequestID   string          `json:"requestId"`
	Graph       *graph.Graph    `json:"graph"`
	Sections    []types.Section `json:"generatedCode"`
	Explanation string          `json:"explanation"`
	// Source names the extraction strategy or ingest format that produced
	// the graph.
	Source string `json:"source,omitempty"`
	// Degraded is set when the graph is the placeholder.
	Degraded bool     `json:"degraded"`
	Cached   bool     `json:"cached,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type Options struct {
	Limits fusion.Limits
	// Heuristic enables the plain-text fallback when no structured record
	// is found at all.
	Heuristic      bool
	RepairAttempts int
	// OCR, when set, feeds recognized text to the prompt as label hints.
	OCR    ingest.OCR
	Cache  *store.Cache[*Result]
	Logger *logger.Logger
}

type Analyzer struct {
	inf  inference.Inferer
	ext  *extract.Extractor
	opts Options
	log  *logger.Logger
}

func New(inf inference.Inferer, opts Options) *Analyzer {
	var ext *extract.Extractor
	if opts.Heuristic {
		ext = extract.New(extract.WithFallback(extract.Heuristic{}))
	} else {
		ext = extract.New()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{inf: inf, ext: ext, opts: opts, log: log}
}

// Analyze turns a diagram image into a graph and code sections.
//
// Transient upstream failures come back as *guard.UpstreamError (match with
// errors.Is against guard.ErrQuotaExceeded or guard.ErrUpstreamUnavailable).
// A canceled or expired ctx returns ctx.Err(). Every other failure yields a
// placeholder result and a nil error.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, query string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := store.Key(image, query)
	res, hit, err := a.opts.Cache.Do(ctx, key, func() (*Result, error) {
		return a.analyze(ctx, image, query)
	})
	if err != nil {
		return nil, err
	}
	// a placeholder says nothing about the image; let the next call retry
	if res.Degraded {
		a.opts.Cache.Remove(key)
	}
	if hit {
		out := *res
		out.RequestID = uuid.NewString()
		out.Cached = true
		return &out, nil
	}
	return res, nil
}

func (a *Analyzer) analyze(ctx context.Context, image []byte, query string) (*Result, error) {
	id := uuid.NewString()
	log := a.log.With("request_id", id, "model", a.inf.Name())

	var warnings []string
	var hints []string
	if a.opts.OCR != nil {
		lines, err := a.opts.OCR.Lines(image)
		if err != nil {
			log.Warn("ocr hints skipped", "error", err)
			warnings = append(warnings, "ocr: "+guard.Truncate(err.Error(), guard.MaxDetail))
		}
		hints = lines
	}

	raw, err := a.inf.Infer(ctx, inference.BuildPrompt(query, hints), image)
	if err != nil {
		if ferr := a.fatal(ctx, err); ferr != nil {
			return nil, ferr
		}
		log.Warn("inference failed, using placeholder", "error", err)
		return a.placeholder(id, append(warnings, "inference: "+guard.Truncate(err.Error(), guard.MaxDetail))), nil
	}

	nodes, edges := a.records(raw)
	for i := 0; i < a.opts.RepairAttempts && len(nodes.Records) == 0; i++ {
		fixed, err := fusion.Repair(ctx, a.inf, image, raw)
		if err != nil {
			if ferr := a.fatal(ctx, err); ferr != nil {
				return nil, ferr
			}
			log.Warn("repair failed", "attempt", i+1, "error", err)
			break
		}
		raw = fixed
		nodes, edges = a.records(raw)
		warnings = append(warnings, fmt.Sprintf("model output repaired (attempt %d)", i+1))
	}

	if len(nodes.Records) == 0 && len(edges.Records) == 0 && a.opts.Heuristic {
		nodes = a.ext.Degrade(raw)
		if len(nodes.Records) > 0 {
			warnings = append(warnings, "no structured records; labels guessed from plain text")
		}
	}

	lim := a.limits()
	mapped := fusion.MapNodes(nodes.Records, lim.MaxNodes)
	if len(mapped) == 0 {
		log.Warn("no usable records, using placeholder", "raw_bytes", len(raw))
		return a.placeholder(id, append(warnings, guard.ErrMalformedOutput.Error())), nil
	}
	res := a.assemble(id, mapped, fusion.MapEdges(edges.Records, lim.MaxEdges), warnings)
	res.Source = nodes.Strategy
	log.Info("diagram analyzed",
		"strategy", nodes.Strategy,
		"nodes", len(mapped),
		"edges", len(res.Graph.Edges()),
		"unresolved", len(res.Graph.Unresolved()),
	)
	return res, nil
}

// AnalyzeFile routes exported diagrams (draw.io, PlantUML, SVG) through the
// structural parsers and everything else through Analyze.
func (a *Analyzer) AnalyzeFile(ctx context.Context, name string, data []byte, query string) (*Result, error) {
	kind := ingest.DetectType(name)
	if !ingest.Structural(kind) {
		return a.Analyze(ctx, data, query)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	pf, err := ingest.Parse(name, data)
	if err != nil {
		return nil, err
	}
	ig := fusion.Sanitize(ingest.BuildIntermediate([]ingest.ParsedFile{pf}), a.limits())
	warnings := append([]string(nil), ig.Notes...)
	if len(ig.Nodes) == 0 {
		a.log.Warn("nothing ingested, using placeholder", "request_id", id, "file", name)
		res := a.placeholder(id, append(warnings, guard.ErrMalformedOutput.Error()))
		res.Source = kind
		return res, nil
	}
	res := a.assemble(id, ig.Nodes, ig.Edges, warnings)
	res.Source = kind
	a.log.Info("diagram ingested", "request_id", id, "file", name, "kind", kind,
		"nodes", len(ig.Nodes), "edges", len(ig.Edges))
	return res, nil
}

func (a *Analyzer) records(raw string) (nodes, edges extract.Match) {
	return a.ext.Extract(raw, nodeQuery), a.ext.Extract(raw, edgeQuery)
}

// fatal returns the error the caller must see, or nil when the failure can
// be degraded.
func (a *Analyzer) fatal(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch guard.Classify(err) {
	case guard.Transient:
		return guard.Surface(err)
	case guard.Canceled:
		return err
	}
	return nil
}

func (a *Analyzer) limits() fusion.Limits {
	lim := a.opts.Limits
	if lim.MaxNodes <= 0 {
		lim.MaxNodes = fusion.DefaultMaxNodes
	}
	if lim.MaxEdges <= 0 {
		lim.MaxEdges = fusion.DefaultMaxEdges
	}
	return lim
}

func (a *Analyzer) assemble(id string, nodes []types.Node, edges []types.Edge, warnings []string) *Result {
	g := graph.Build(nodes, edges)
	for _, e := range g.Unresolved() {
		warnings = append(warnings, fmt.Sprintf("unresolved edge %s -> %s (%s)",
			g.DisplayName(e.Source), g.DisplayName(e.Target), e.Label))
	}
	return &Result{
		RequestID:   id,
		Graph:       g,
		Sections:    codegen.Generate(g),
		Explanation: Explain(g),
		Warnings:    warnings,
	}
}

func (a *Analyzer) placeholder(id string, warnings []string) *Result {
	ph := guard.Placeholder()
	g := graph.Build(ph.Nodes, ph.Edges)
	return &Result{
		RequestID:   id,
		Graph:       g,
		Sections:    codegen.Fallback(g),
		Explanation: Explain(g),
		Degraded:    true,
		Warnings:    warnings,
	}
}

// IsUpstream reports whether err is a transient upstream failure the caller
// may retry later.
func IsUpstream(err error) bool {
	return errors.Is(err, guard.ErrQuotaExceeded) || errors.Is(err, guard.ErrUpstreamUnavailable)
}
