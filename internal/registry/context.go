package registry

import (
	"context"
	"net/http"
)

// RequestContext carries per-request transport data into context-aware
// tools: the authenticated identity plus request metadata. It is owned by
// the transport layer and borrowed for the duration of one catalog resolve
// or one call; tools must not retain it past their own return.
type RequestContext struct {
	Identity string
	ClientID string
	Scopes   []string
	Header   http.Header
	Path     string
}

// requestContextKey is the context key for the per-request context.
type requestContextKey struct{}

// WithRequestContext returns a new context with rc attached.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// GetRequestContext extracts the RequestContext from ctx, if present.
func GetRequestContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}
