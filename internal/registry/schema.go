package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// reflector derives inline schemas: no $ref indirection, unknown argument
// fields rejected at call time.
var reflector = jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// deriveInput reflects an argument struct into the tool's input schema.
// Fields are required unless tagged ",omitempty"; the container title is
// "<name>Arguments" so derived schemas stay stable across runs. A nil type
// means the tool takes no arguments and yields a bare object schema.
func deriveInput(name string, t reflect.Type) (*jsonschema.Schema, error) {
	if t == nil {
		return emptyObjectSchema(name + "Arguments"), nil
	}
	t = derefType(t)
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Tool: name, Reason: fmt.Sprintf("arguments must bind to a struct type, got %s", t.Kind())}
	}
	if err := checkMappable(name, t, "", map[reflect.Type]bool{}); err != nil {
		return nil, err
	}
	s := reflector.ReflectFromType(t)
	s.Version = ""
	s.Title = name + "Arguments"
	return s, nil
}

// deriveOutput reflects a handler's declared result type into an output
// schema. The schema is present whenever a result type is declared and the
// tri-state structured hint is not explicitly false; an explicit true with
// no result type is a derivation error.
func deriveOutput(name string, t reflect.Type, structured *bool) (*jsonschema.Schema, error) {
	if structured != nil && !*structured {
		return nil, nil
	}
	if t == nil {
		if structured != nil && *structured {
			return nil, &SchemaError{Tool: name, Reason: "structured output requested but handler declares no result"}
		}
		return nil, nil
	}
	t = derefType(t)

	if t.Kind() == reflect.Struct {
		if err := checkMappable(name, t, "", map[reflect.Type]bool{}); err != nil {
			return nil, err
		}
		s := reflector.ReflectFromType(t)
		s.Version = ""
		s.Title = name + "Output"
		return s, nil
	}

	// Non-struct results are wrapped in a single "result" property so the
	// output schema stays an object.
	inner, err := typeSchema(name, "result", t)
	if err != nil {
		return nil, err
	}
	props := jsonschema.NewProperties()
	props.Set("result", inner)
	return &jsonschema.Schema{
		Type:       "object",
		Title:      name + "Output",
		Properties: props,
		Required:   []string{"result"},
	}, nil
}

// emptyObjectSchema is the schema for a tool without declared arguments.
func emptyObjectSchema(title string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Title:      title,
		Properties: jsonschema.NewProperties(),
	}
}

// freeformObjectSchema is the schema for providers that accept arbitrary
// arguments (no ArgsSpec declared).
func freeformObjectSchema(title string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "object",
		Title: title,
	}
}

// typeSchema maps a non-struct Go type to its JSON schema primitive.
func typeSchema(tool, field string, t reflect.Type) (*jsonschema.Schema, error) {
	switch t.Kind() {
	case reflect.String:
		return &jsonschema.Schema{Type: "string"}, nil
	case reflect.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonschema.Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonschema.Schema{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		items, err := typeSchema(tool, field, derefType(t.Elem()))
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		return &jsonschema.Schema{Type: "object"}, nil
	case reflect.Struct:
		s := reflector.ReflectFromType(t)
		s.Version = ""
		return s, nil
	default:
		return nil, &SchemaError{Tool: tool, Field: field, Reason: fmt.Sprintf("type %s cannot be mapped to a schema type", t)}
	}
}

// checkMappable walks a struct's exported fields and rejects any field
// whose type has no schema representation. Reported before reflection so
// the error names the offending field instead of surfacing later as a
// malformed schema.
func checkMappable(tool string, t reflect.Type, prefix string, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := fieldName(f)
		if prefix != "" {
			name = prefix + "." + name
		}
		ft := derefType(f.Type)
		switch ft.Kind() {
		case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Uintptr,
			reflect.Complex64, reflect.Complex128:
			return &SchemaError{Tool: tool, Field: name, Reason: fmt.Sprintf("type %s cannot be mapped to a schema type", f.Type)}
		case reflect.Struct:
			if err := checkMappable(tool, ft, name, seen); err != nil {
				return err
			}
		case reflect.Slice, reflect.Array, reflect.Map:
			et := derefType(ft.Elem())
			switch et.Kind() {
			case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Uintptr,
				reflect.Complex64, reflect.Complex128:
				return &SchemaError{Tool: tool, Field: name, Reason: fmt.Sprintf("element type %s cannot be mapped to a schema type", ft.Elem())}
			case reflect.Struct:
				if err := checkMappable(tool, et, name, seen); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// fieldName returns the JSON name a struct field binds under.
func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}

// derefType strips pointer indirection.
func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
