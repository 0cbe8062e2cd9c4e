// Package ingest reads exported diagram files (draw.io, PlantUML, SVG)
// straight into nodes and edges, and pulls OCR hints out of raster images.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/siddhant1729/Trace/pkg/types"
)

const (
	KindDrawIO  = "drawio"
	KindPUML    = "puml"
	KindSVG     = "svg"
	KindRaster  = "raster"
	KindUnknown = "unknown"
)

func DetectType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".drawio", ".xml":
		return KindDrawIO
	case ".puml", ".plantuml", ".pu":
		return KindPUML
	case ".svg":
		return KindSVG
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return KindRaster
	default:
		return KindUnknown
	}
}

// Structural reports whether files of this kind can be read without a model.
func Structural(kind string) bool {
	return kind == KindDrawIO || kind == KindPUML || kind == KindSVG
}

// Parse dispatches on the file name.
func Parse(name string, data []byte) (ParsedFile, error) {
	switch DetectType(name) {
	case KindDrawIO:
		return ParseDrawIO(name, data)
	case KindPUML:
		return ParsePUML(name, data)
	case KindSVG:
		return ParseSVG(name, data)
	default:
		return ParsedFile{Name: name}, fmt.Errorf("ingest: %s is not a structural diagram format", name)
	}
}

// Merge multiple files into one IntermediateGraph (append nodes/edges).
func BuildIntermediate(files []ParsedFile) types.IntermediateGraph {
	ig := types.IntermediateGraph{}
	for _, f := range files {
		ig.Nodes = append(ig.Nodes, f.Nodes...)
		ig.Edges = append(ig.Edges, f.Edges...)
		ig.Notes = append(ig.Notes, f.Notes...)
	}
	return ig
}

type ParsedFile struct {
	Name  string
	Nodes []types.Node
	Edges []types.Edge
	Notes []string
}
