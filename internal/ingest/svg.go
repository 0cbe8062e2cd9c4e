package ingest

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/siddhant1729/Trace/internal/extract"
	"github.com/siddhant1729/Trace/pkg/types"
)

type svgText struct {
	X     string   `xml:"x,attr"`
	Y     string   `xml:"y,attr"`
	T     string   `xml:",chardata"`
	Spans []string `xml:"tspan"`
}

// ParseSVG collects every <text> element, at any depth, as a node.
func ParseSVG(name string, b []byte) (ParsedFile, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false

	var nodes []types.Node
	var notes []string
	seen := map[string]bool{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			notes = append(notes, "svg: stopped at malformed xml")
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "text" {
			continue
		}
		var t svgText
		if err := dec.DecodeElement(&t, &se); err != nil {
			continue
		}
		label := t.label()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		nodes = append(nodes, types.Node{
			ID:    "svg_" + strconv.Itoa(len(nodes)),
			Type:  extract.GuessType(label),
			Label: label,
			BBox:  t.point(),
		})
	}
	notes = append(notes, "svg: text-only extraction; edges are not read")
	return ParsedFile{Name: name, Nodes: nodes, Notes: notes}, nil
}

func (t svgText) label() string {
	parts := append([]string{t.T}, t.Spans...)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (t svgText) point() []float64 {
	x, errX := strconv.ParseFloat(strings.TrimSpace(t.X), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(t.Y), 64)
	if errX != nil || errY != nil {
		return []float64{}
	}
	return []float64{x, y, x, y}
}
