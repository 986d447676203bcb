package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// sampleHandler exists to give handlerName a real function symbol.
func sampleHandler(ctx context.Context, args echoArgs) (string, error) {
	return args.Text, nil
}

func TestLocateContextParam(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		want int
	}{
		{"first position", func(rc *RequestContext, args echoArgs) error { return nil }, 0},
		{"after context.Context", func(ctx context.Context, rc *RequestContext) error { return nil }, 1},
		{"last position", func(ctx context.Context, args echoArgs, custom *RequestContext) error { return nil }, 2},
		{"absent", func(ctx context.Context, args echoArgs) error { return nil }, -1},
		{"no parameters", func() error { return nil }, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := locateContextParam(reflect.TypeOf(tt.fn))
			if got != tt.want {
				t.Errorf("locateContextParam = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseHandler_FullSignature(t *testing.T) {
	sig, err := parseHandler("echo", func(ctx context.Context, rc *RequestContext, args echoArgs) (string, error) {
		return "", nil
	})
	if err != nil {
		t.Fatalf("parseHandler failed: %v", err)
	}
	if sig.ctxIndex != 0 || sig.reqIndex != 1 || sig.argIndex != 2 {
		t.Errorf("indexes = (%d, %d, %d), want (0, 1, 2)", sig.ctxIndex, sig.reqIndex, sig.argIndex)
	}
	if sig.outType == nil || sig.outType.Kind() != reflect.String {
		t.Errorf("expected string result type, got %v", sig.outType)
	}
}

func TestParseHandler_ReorderedParameters(t *testing.T) {
	sig, err := parseHandler("echo", func(args echoArgs, rc *RequestContext, ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("parseHandler failed: %v", err)
	}
	if sig.argIndex != 0 || sig.reqIndex != 1 || sig.ctxIndex != 2 {
		t.Errorf("indexes = (%d, %d, %d), want (0, 1, 2) for (args, req, ctx)", sig.argIndex, sig.reqIndex, sig.ctxIndex)
	}
	if sig.outType != nil {
		t.Errorf("expected no result type, got %v", sig.outType)
	}
}

func TestParseHandler_ContextFree(t *testing.T) {
	sig, err := parseHandler("echo", func(args echoArgs) (string, error) { return "", nil })
	if err != nil {
		t.Fatalf("parseHandler failed: %v", err)
	}
	if sig.reqIndex != -1 {
		t.Errorf("expected no request-context parameter, got index %d", sig.reqIndex)
	}
}

func TestParseHandler_OtherInterfaceSkipped(t *testing.T) {
	// An unresolved interface parameter is not the context and not an error.
	sig, err := parseHandler("echo", func(extra any, args echoArgs) error { return nil })
	if err != nil {
		t.Fatalf("parseHandler failed: %v", err)
	}
	if sig.reqIndex != -1 || sig.argIndex != 1 {
		t.Errorf("indexes = (req %d, arg %d), want (-1, 1)", sig.reqIndex, sig.argIndex)
	}
}

func TestParseHandler_Rejections(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"not a function", 42},
		{"two argument structs", func(a echoArgs, b echoOutput) error { return nil }},
		{"two contexts", func(a, b context.Context) error { return nil }},
		{"bad single result", func() string { return "" }},
		{"bad second result", func() (string, string) { return "", "" }},
		{"three results", func() (string, string, error) { return "", "", nil }},
		{"unsupported parameter", func(n int) error { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHandler("bad", tt.fn)
			var re *RegistrationError
			if !errors.As(err, &re) {
				t.Fatalf("expected RegistrationError, got %v", err)
			}
		})
	}
}

func TestHandlerName_Derived(t *testing.T) {
	name, err := handlerName(sampleHandler)
	if err != nil {
		t.Fatalf("handlerName failed: %v", err)
	}
	if name != "sampleHandler" {
		t.Errorf("expected sampleHandler, got %q", name)
	}
}

func TestHandlerName_AnonymousRejected(t *testing.T) {
	_, err := handlerName(func() error { return nil })
	var re *RegistrationError
	if !errors.As(err, &re) {
		t.Fatalf("expected RegistrationError for anonymous handler, got %v", err)
	}
}
