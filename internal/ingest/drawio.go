package ingest

import (
	"encoding/xml"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/siddhant1729/Trace/internal/extract"
	"github.com/siddhant1729/Trace/pkg/types"
)

type mxfile struct {
	Diagram []diagram `xml:"diagram"`
}
type diagram struct {
	MxGraphModel mxGraphModel `xml:"mxGraphModel"`
}
type mxGraphModel struct {
	Root root `xml:"root"`
}
type root struct {
	Cells []mxCell `xml:"mxCell"`
}

type mxCell struct {
	ID       string     `xml:"id,attr"`
	Value    string     `xml:"value,attr"`
	Style    string     `xml:"style,attr"`
	Vertex   string     `xml:"vertex,attr"` // "1" if node
	Edge     string     `xml:"edge,attr"`   // "1" if edge
	Source   string     `xml:"source,attr"`
	Target   string     `xml:"target,attr"`
	Parent   string     `xml:"parent,attr"`
	Geometry mxGeometry `xml:"mxGeometry"`
}

type mxGeometry struct {
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

var reTag = regexp.MustCompile(`<[^>]*>`)

func ParseDrawIO(name string, b []byte) (ParsedFile, error) {
	var doc mxfile
	if err := xml.Unmarshal(b, &doc); err != nil {
		return ParsedFile{Name: name, Notes: []string{"drawio: xml unmarshal failed"}}, nil // soft fail: just a note
	}

	var nodes []types.Node
	var edges []types.Edge
	edgeIdx := map[string]int{}
	var labels []mxCell

	for _, d := range doc.Diagram {
		for _, c := range d.MxGraphModel.Root.Cells {
			switch {
			case c.Vertex == "1" && strings.Contains(c.Style, "edgeLabel"):
				labels = append(labels, c)
			case c.Vertex == "1":
				label := cleanLabel(c.Value)
				if label == "" {
					label = "node-" + c.ID
				}
				nodes = append(nodes, types.Node{
					ID: c.ID, Label: label,
					Type: typeFromStyle(c.Style, label),
					BBox: c.Geometry.bbox(),
				})
			case c.Edge == "1":
				edgeIdx[c.ID] = len(edges)
				edges = append(edges, types.Edge{
					From: c.Source, To: c.Target,
					Label: cleanLabel(c.Value),
				})
			}
		}
	}
	// draw.io keeps some edge captions as child cells of the edge
	for _, c := range labels {
		if i, ok := edgeIdx[c.Parent]; ok && edges[i].Label == "" {
			edges[i].Label = cleanLabel(c.Value)
		}
	}
	var notes []string
	if len(doc.Diagram) > 0 && len(nodes) == 0 {
		notes = append(notes, "drawio: no uncompressed cells found")
	}
	return ParsedFile{Name: name, Nodes: nodes, Edges: edges, Notes: notes}, nil
}

// cleanLabel drops the HTML draw.io wraps labels in (<div>Service</div>).
func cleanLabel(s string) string {
	s = strings.ReplaceAll(s, "<br>", " ")
	s = reTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// typeFromStyle reads the shape first and falls back to the label.
func typeFromStyle(style, label string) string {
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "rhombus"):
		return types.TypeDecision
	case strings.Contains(s, "cylinder"), strings.Contains(s, "datastore"):
		return types.TypeDatabase
	case strings.Contains(s, "umlactor"):
		return types.TypeActor
	case strings.Contains(s, "interface"), strings.Contains(s, "lollipop"):
		return types.TypeInterface
	}
	return extract.GuessType(label)
}

func (g mxGeometry) bbox() []float64 {
	x, errX := strconv.ParseFloat(g.X, 64)
	y, errY := strconv.ParseFloat(g.Y, 64)
	w, errW := strconv.ParseFloat(g.Width, 64)
	h, errH := strconv.ParseFloat(g.Height, 64)
	if errW != nil || errH != nil {
		return []float64{}
	}
	// draw.io omits x/y at the origin
	if errX != nil {
		x = 0
	}
	if errY != nil {
		y = 0
	}
	return []float64{x, y, x + w, y + h}
}
