package registry

import "fmt"

// SchemaError reports a handler argument or result type that cannot be
// mapped to the JSON schema type system. The offending tool is not
// registered.
type SchemaError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("tool %q: field %q: %s", e.Tool, e.Field, e.Reason)
	}
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Reason)
}

// UnknownToolError reports an invocation of a name present in neither the
// static table nor the dynamic registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

// BindingError reports invocation arguments that are missing a required
// field or carry a field the tool does not declare. The handler is never
// invoked.
type BindingError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *BindingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("tool %q: argument %q: %s", e.Tool, e.Field, e.Reason)
	}
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Reason)
}

// RegistrationError reports a registration target that is neither a plain
// handler function nor a Provider. It is fatal to that registration call
// only; previously registered tools are unaffected.
type RegistrationError struct {
	Target string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register %s: %s", e.Target, e.Reason)
}
