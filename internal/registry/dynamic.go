package registry

import (
	"context"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

// Provider is the contract for dynamic tools. Name must answer without a
// request context; it is evaluated once at registration and used for
// collision checks and lookup. Describe and Call receive the per-request
// execution context and may do further blocking work under ctx.
//
// The registry resolves providers for one request in parallel and adds no
// mutual exclusion of its own, so implementations must be safe under
// concurrent invocation.
type Provider interface {
	Name() string
	Describe(ctx context.Context, req *RequestContext) (string, error)
	Call(ctx context.Context, req *RequestContext, args map[string]any) (any, error)
}

// ArgsSpec is implemented by providers that declare the struct their
// arguments bind to. The input schema is derived from it at registration
// and arguments are validated against it before Call runs. Providers
// without ArgsSpec accept free-form arguments.
type ArgsSpec interface {
	Args() any
}

// OutputSpec is implemented by providers that declare a prototype of their
// call result, enabling output-schema derivation.
type OutputSpec interface {
	Output() any
}

// StructuredOutputHint overrides the output-schema default. Providers that
// do not implement it leave the choice to the deriver.
type StructuredOutputHint interface {
	StructuredOutput() bool
}

// dynamicEntry caches everything derivable at registration time for one
// provider; only the description remains per-request.
type dynamicEntry struct {
	provider Provider
	name     string
	title    string
	input    *jsonschema.Schema
	output   *jsonschema.Schema
	freeform bool
	annot    map[string]any
}

// DynamicRegistry holds dynamic tool providers keyed by their name.
// Like the static table it is mutated only during registration.
type DynamicRegistry struct {
	mu      sync.RWMutex
	entries map[string]*dynamicEntry
}

// NewDynamicRegistry creates an empty dynamic registry.
func NewDynamicRegistry() *DynamicRegistry {
	return &DynamicRegistry{entries: make(map[string]*dynamicEntry)}
}

func (r *DynamicRegistry) put(e *dynamicEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.name] = e
}

func (r *DynamicRegistry) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

func (r *DynamicRegistry) lookup(name string) (*dynamicEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

func (r *DynamicRegistry) has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// snapshot returns the current provider set. Catalog resolution works on
// this read-only copy so a request never observes a half-applied
// registration.
func (r *DynamicRegistry) snapshot() []*dynamicEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dynamicEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// newDynamicEntry derives the registration-time schema for a provider.
// Derivation failure rejects the registration; the provider is not added.
func newDynamicEntry(p Provider, cfg *toolConfig) (*dynamicEntry, error) {
	name := p.Name()
	e := &dynamicEntry{
		provider: p,
		name:     name,
		title:    cfg.title,
		annot:    cfg.annotations,
	}

	var argType reflect.Type
	if as, ok := p.(ArgsSpec); ok {
		if proto := as.Args(); proto != nil {
			argType = reflect.TypeOf(proto)
		}
	}
	if argType == nil {
		e.freeform = true
		e.input = freeformObjectSchema(name + "Arguments")
	} else {
		in, err := deriveInput(name, argType)
		if err != nil {
			return nil, err
		}
		e.input = in
	}

	structured := cfg.structured
	if structured == nil {
		if h, ok := p.(StructuredOutputHint); ok {
			v := h.StructuredOutput()
			structured = &v
		}
	}
	var outType reflect.Type
	if os, ok := p.(OutputSpec); ok {
		if proto := os.Output(); proto != nil {
			outType = reflect.TypeOf(proto)
		}
	}
	out, err := deriveOutput(name, outType, structured)
	if err != nil {
		return nil, err
	}
	e.output = out

	return e, nil
}

// descriptor materializes the catalog entry for one request, combining the
// cached schema with the per-request description.
func (e *dynamicEntry) descriptor(description string) Descriptor {
	return Descriptor{
		Name:         e.name,
		Title:        e.title,
		Description:  description,
		InputSchema:  e.input,
		OutputSchema: e.output,
		Annotations:  e.annot,
	}
}
