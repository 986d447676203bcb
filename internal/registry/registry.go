// Package registry merges two tool registration styles behind one catalog
// and invocation surface: static tools whose schema is fixed when they are
// registered, and dynamic tools whose description is computed per request
// from the authenticated context.
package registry

import (
	"reflect"

	"github.com/clborne/toolgate/internal/common"
)

// defaultResolveLimit caps in-flight provider resolutions per catalog
// request.
const defaultResolveLimit = 8

// Registry owns the mapping from tool name to static entry or dynamic
// provider. A name lives in exactly one origin at a time; registering a
// duplicate moves it (last write wins, one logged warning).
type Registry struct {
	static       *StaticTable
	dynamic      *DynamicRegistry
	logger       *common.Logger
	resolveLimit int
}

// Option configures a Registry.
type Option func(*Registry)

// WithResolveLimit caps concurrent provider resolutions per catalog
// request. Values below 1 fall back to the default.
func WithResolveLimit(n int) Option {
	return func(r *Registry) {
		if n >= 1 {
			r.resolveLimit = n
		}
	}
}

// New creates a Registry. A nil logger falls back to a silent one so
// library use stays quiet.
func New(logger *common.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	r := &Registry{
		static:       NewStaticTable(),
		dynamic:      NewDynamicRegistry(),
		logger:       logger,
		resolveLimit: defaultResolveLimit,
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Static exposes the static tool table.
func (r *Registry) Static() *StaticTable { return r.static }

// Dynamic exposes the dynamic provider registry.
func (r *Registry) Dynamic() *DynamicRegistry { return r.dynamic }

// toolConfig collects per-registration options.
type toolConfig struct {
	name        string
	title       string
	description string
	annotations map[string]any
	structured  *bool
}

// ToolOption configures one tool registration.
type ToolOption func(*toolConfig)

// WithName sets the tool name, overriding the name derived from the
// handler's function symbol. Required for anonymous handlers.
func WithName(name string) ToolOption {
	return func(c *toolConfig) { c.name = name }
}

// WithTitle sets the human-readable tool title.
func WithTitle(title string) ToolOption {
	return func(c *toolConfig) { c.title = title }
}

// WithDescription sets the static tool description. Ignored for providers,
// whose description comes from Describe per request.
func WithDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithAnnotations attaches the metadata bag surfaced in the catalog.
func WithAnnotations(a map[string]any) ToolOption {
	return func(c *toolConfig) { c.annotations = a }
}

// WithStructuredOutput forces output-schema derivation on or off,
// overriding the deriver's result-type inference.
func WithStructuredOutput(v bool) ToolOption {
	return func(c *toolConfig) { c.structured = &v }
}

// Add registers target on the path its shape selects: a Provider goes to
// the dynamic registry, a plain function to the static table. Anything
// else is rejected with *RegistrationError and leaves earlier
// registrations untouched.
func (r *Registry) Add(target any, opts ...ToolOption) error {
	cfg := &toolConfig{}
	for _, apply := range opts {
		apply(cfg)
	}

	switch v := target.(type) {
	case Provider:
		return r.addProvider(v, cfg)
	default:
		if target != nil && reflect.ValueOf(target).Kind() == reflect.Func {
			return r.addHandler(target, cfg)
		}
		return &RegistrationError{
			Target: typeName(target),
			Reason: "target implements neither a handler function nor the Provider interface",
		}
	}
}

// addHandler registers a static tool. Schema derivation failures reject
// the registration and the tool is not added.
func (r *Registry) addHandler(fn any, cfg *toolConfig) error {
	name := cfg.name
	if name == "" {
		derived, err := handlerName(fn)
		if err != nil {
			return err
		}
		name = derived
	}

	sig, err := parseHandler(name, fn)
	if err != nil {
		return err
	}
	input, err := deriveInput(name, sig.argType)
	if err != nil {
		return err
	}
	output, err := deriveOutput(name, sig.outType, cfg.structured)
	if err != nil {
		return err
	}

	r.claim(name, originStatic)
	r.static.put(&Entry{
		Descriptor: Descriptor{
			Name:         name,
			Title:        cfg.title,
			Description:  cfg.description,
			InputSchema:  input,
			OutputSchema: output,
			Annotations:  cfg.annotations,
		},
		sig: sig,
	})
	r.logger.Debug().Str("tool", name).Str("origin", originStatic).Msg("registered tool")
	return nil
}

// addProvider registers a dynamic tool under provider.Name(), evaluated
// once here.
func (r *Registry) addProvider(p Provider, cfg *toolConfig) error {
	name := p.Name()
	if name == "" {
		return &RegistrationError{Target: typeName(p), Reason: "provider returned an empty name"}
	}
	entry, err := newDynamicEntry(p, cfg)
	if err != nil {
		return err
	}

	r.claim(name, originDynamic)
	r.dynamic.put(entry)
	r.logger.Debug().Str("tool", name).Str("origin", originDynamic).Msg("registered tool")
	return nil
}

// claim enforces the duplicate policy before a registration lands: the
// previous holder of the name, whichever origin it lives in, is evicted
// and exactly one warning is logged. Checks run in both directions so
// static-after-dynamic and dynamic-after-static behave the same.
func (r *Registry) claim(name, origin string) {
	if r.static.has(name) {
		r.logger.Warn().Str("tool", name).Str("previous", originStatic).Str("origin", origin).
			Msg("duplicate tool registration, last registration wins")
		if origin != originStatic {
			r.static.remove(name)
		}
		return
	}
	if r.dynamic.has(name) {
		r.logger.Warn().Str("tool", name).Str("previous", originDynamic).Str("origin", origin).
			Msg("duplicate tool registration, last registration wins")
		if origin != originDynamic {
			r.dynamic.remove(name)
		}
	}
}

// typeName names a registration target for error messages.
func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
