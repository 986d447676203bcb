package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Call invokes the named tool with args bound by name. Lookup checks the
// static table first, then the dynamic registry; a name can only live in
// one origin, so the order merely decides how a miss is reported. Missing
// required arguments and unrecognized fields fail with *BindingError
// before any handler runs; errors raised by the handler itself propagate
// unchanged.
//
// req may be nil for anonymous invocations. Handlers and providers that
// declare the execution context then receive a nil *RequestContext and
// must treat the call as anonymous rather than dereference it.
func (r *Registry) Call(ctx context.Context, req *RequestContext, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if e, ok := r.static.Lookup(name); ok {
		return r.callStatic(ctx, req, e, args)
	}
	if e, ok := r.dynamic.lookup(name); ok {
		return r.callDynamic(ctx, req, e, args)
	}
	return nil, &UnknownToolError{Name: name}
}

func (r *Registry) callStatic(ctx context.Context, req *RequestContext, e *Entry, args map[string]any) (any, error) {
	if err := validateArgs(e.Name, e.InputSchema, args); err != nil {
		return nil, err
	}

	in := make([]reflect.Value, e.sig.numIn)
	for i := range in {
		in[i] = reflect.Zero(e.sig.fn.Type().In(i))
	}
	if e.sig.ctxIndex >= 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		in[e.sig.ctxIndex] = reflect.ValueOf(ctx)
	}
	if e.sig.reqIndex >= 0 && req != nil {
		in[e.sig.reqIndex] = reflect.ValueOf(req)
	}
	if e.sig.argIndex >= 0 {
		bound, err := bindArgs(e.Name, e.sig.argType, args)
		if err != nil {
			return nil, err
		}
		in[e.sig.argIndex] = bound
	}

	out := e.sig.fn.Call(in)
	return splitResults(out)
}

func (r *Registry) callDynamic(ctx context.Context, req *RequestContext, e *dynamicEntry, args map[string]any) (any, error) {
	if !e.freeform {
		if err := validateArgs(e.name, e.input, args); err != nil {
			return nil, err
		}
	}
	return e.provider.Call(ctx, req, args)
}

// validateArgs checks the argument map against the derived input schema:
// every required field present, no field outside the declared set.
func validateArgs(tool string, schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return &BindingError{Tool: tool, Field: required, Reason: "missing required argument"}
		}
	}
	for key := range args {
		if schema.Properties == nil {
			return &BindingError{Tool: tool, Field: key, Reason: "unrecognized argument"}
		}
		if _, ok := schema.Properties.Get(key); !ok {
			return &BindingError{Tool: tool, Field: key, Reason: "unrecognized argument"}
		}
	}
	return nil
}

// bindArgs decodes the by-name argument map into the handler's declared
// struct. A type mismatch surfaces as *BindingError; coercion beyond the
// JSON mapping is deliberately not attempted.
func bindArgs(tool string, t reflect.Type, args map[string]any) (reflect.Value, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return reflect.Value{}, &BindingError{Tool: tool, Reason: err.Error()}
	}

	ptr := t.Kind() == reflect.Pointer
	base := derefType(t)
	v := reflect.New(base)
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v.Interface()); err != nil {
		return reflect.Value{}, &BindingError{Tool: tool, Reason: err.Error()}
	}
	if ptr {
		return v, nil
	}
	return v.Elem(), nil
}

// splitResults maps a handler's return values onto (result, error).
func splitResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return nil, asError(out[0])
	default:
		if err := asError(out[1]); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
