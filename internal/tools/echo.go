// Package tools holds the built-in tools registered at startup: a static
// echo, a dynamic per-identity echo, and a version probe.
package tools

import (
	"context"
	"fmt"

	"github.com/clborne/toolgate/internal/registry"
)

// EchoArgs are the arguments of both echo tools.
type EchoArgs struct {
	Text string `json:"text" jsonschema_description:"Text to echo back."`
}

// Echo returns the input text addressed to the authenticated user.
func Echo(ctx context.Context, rc *registry.RequestContext, args EchoArgs) (string, error) {
	identity := "anonymous"
	if rc != nil && rc.Identity != "" {
		identity = rc.Identity
	}
	return fmt.Sprintf("Echo to user (%s): %s", identity, args.Text), nil
}

// DynamicEcho is the dynamic counterpart of Echo: its description is
// computed per request from the authenticated identity.
type DynamicEcho struct{}

func (DynamicEcho) Name() string { return "dynamic_echo" }

func (DynamicEcho) Describe(ctx context.Context, req *registry.RequestContext) (string, error) {
	if req == nil || req.Identity == "" {
		return "Echoes the input text", nil
	}
	return "Echoes the input text: " + req.Identity, nil
}

func (DynamicEcho) Call(ctx context.Context, req *registry.RequestContext, args map[string]any) (any, error) {
	identity := "anonymous"
	if req != nil && req.Identity != "" {
		identity = req.Identity
	}
	text, _ := args["text"].(string)
	return fmt.Sprintf("Echo to user (%s): %s", identity, text), nil
}

// Args declares the argument struct so the registry can derive and enforce
// the input schema.
func (DynamicEcho) Args() any { return EchoArgs{} }
