package registry

import (
	"github.com/invopop/jsonschema"
)

// Tool origins. A name can live in exactly one origin at a time.
const (
	originStatic  = "static"
	originDynamic = "dynamic"
)

// Descriptor is the normalized, schema-bearing representation of one tool.
// It is the unit of the catalog, shared by static and dynamic origins.
// Name is the sole lookup key and never changes once assigned.
type Descriptor struct {
	Name         string
	Title        string
	Description  string
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema // nil when the result is untyped text
	Annotations  map[string]any
}
