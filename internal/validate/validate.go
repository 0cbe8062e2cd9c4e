package validate

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

type Kind string

const (
	KindNode Kind = "node"
	KindEdge Kind = "edge"
)

var (
	once    sync.Once
	schemas map[Kind]*jsonschema.Schema
	loadErr error
)

func load() {
	c := jsonschema.NewCompiler()
	schemas = make(map[Kind]*jsonschema.Schema, 2)
	for _, k := range []Kind{KindNode, KindEdge} {
		name := "schema/" + string(k) + ".schema.json"
		f, err := schemaFS.Open(name)
		if err != nil {
			loadErr = err
			return
		}
		url := "file:///" + name
		err = c.AddResource(url, f)
		f.Close()
		if err != nil {
			loadErr = err
			return
		}
		s, err := c.Compile(url)
		if err != nil {
			loadErr = err
			return
		}
		schemas[k] = s
	}
}

// Record validates one raw record against the schema for kind.
func Record(kind Kind, rec map[string]any) error {
	once.Do(load)
	if loadErr != nil {
		return loadErr
	}
	s, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("validate: unknown kind %q", kind)
	}
	return s.Validate(rec)
}

// InvalidFields returns the top-level keys of rec that violate the schema,
// sorted. A nil result means the record is valid; a failure that cannot be
// pinned to a field (missing required key, schema load error) yields "".
func InvalidFields(kind Kind, rec map[string]any) []string {
	err := Record(kind, rec)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{""}
	}
	seen := map[string]struct{}{}
	collect(ve, seen)
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func collect(ve *jsonschema.ValidationError, seen map[string]struct{}) {
	if len(ve.Causes) == 0 {
		seen[topField(ve.InstanceLocation)] = struct{}{}
		return
	}
	for _, c := range ve.Causes {
		collect(c, seen)
	}
}

// topField turns "/bbox/2" into "bbox".
func topField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if i := strings.IndexByte(ptr, '/'); i >= 0 {
		ptr = ptr[:i]
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(ptr)
}
