package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clborne/toolgate/internal/common"
	"github.com/clborne/toolgate/internal/config"
	"github.com/clborne/toolgate/internal/registry"
)

// protocolVersion is the MCP revision this endpoint speaks.
const protocolVersion = "2025-06-18"

// maxRequestSize bounds one JSON-RPC request body (4MB).
const maxRequestSize = 4 << 20

// Handler is the HTTP handler for the tool endpoint. It is stateless:
// every request authenticates, resolves and dispatches on its own.
type Handler struct {
	reg        *registry.Registry
	logger     *common.Logger
	jwtSecret  []byte
	serverName string
}

// NewHandler creates the tool endpoint handler.
func NewHandler(cfg *config.Config, reg *registry.Registry, logger *common.Logger) *Handler {
	return &Handler{
		reg:        reg,
		logger:     logger,
		jwtSecret:  []byte(cfg.Auth.JWTSecret),
		serverName: cfg.Server.Name,
	}
}

// ServeHTTP authenticates the request, builds the per-request execution
// context and answers one JSON-RPC message. Requests without a valid
// identity get 401 with a WWW-Authenticate header per RFC 9728 to trigger
// OAuth discovery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rc, ok := h.requestContext(r)
	if !ok {
		h.unauthorized(w, r)
		return
	}

	logger := h.logger.WithCorrelationId(uuid.NewString())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		writeResponse(w, newErrorResponse(nil, codeParseError, "failed to read request body", nil))
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, newErrorResponse(nil, codeParseError, "invalid JSON payload", nil))
		return
	}
	if req.JSONRPC != jsonrpcVersion {
		writeResponse(w, newErrorResponse(req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil))
		return
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	logger.Debug().Str("method", req.Method).Str("identity", rc.Identity).Msg("handling request")

	switch req.Method {
	case "initialize":
		writeResponse(w, newResponse(req.ID, h.initializeResult()))
	case "ping":
		writeResponse(w, newResponse(req.ID, struct{}{}))
	case "tools/list":
		h.listTools(w, r, rc, req)
	case "tools/call":
		h.callTool(w, r, rc, req, logger)
	default:
		writeResponse(w, newErrorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil))
	}
}

func (h *Handler) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    h.serverName,
			"version": config.GetVersion(),
		},
		"capabilities": map[string]any{
			"tools": map[string]bool{"listChanged": false},
		},
	}
}

// wireTool is the wire form of one catalog entry.
type wireTool struct {
	Name         string             `json:"name"`
	Title        string             `json:"title,omitempty"`
	Description  string             `json:"description,omitempty"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
	Annotations  map[string]any     `json:"annotations,omitempty"`
}

// listTools resolves the catalog for this request's context and serializes
// it in merge order (sorted by name).
func (h *Handler) listTools(w http.ResponseWriter, r *http.Request, rc *registry.RequestContext, req rpcRequest) {
	ctx := registry.WithRequestContext(r.Context(), rc)
	catalog, err := h.reg.Catalog(ctx, rc)
	if err != nil {
		writeResponse(w, newErrorResponse(req.ID, codeInternalError, err.Error(), nil))
		return
	}
	tools := make([]wireTool, 0, len(catalog))
	for _, d := range catalog {
		tools = append(tools, wireTool{
			Name:         d.Name,
			Title:        d.Title,
			Description:  d.Description,
			InputSchema:  d.InputSchema,
			OutputSchema: d.OutputSchema,
			Annotations:  d.Annotations,
		})
	}
	writeResponse(w, newResponse(req.ID, map[string]any{"tools": tools}))
}

// callParams are the parameters of a tools/call request.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// callTool dispatches one invocation. Tool-not-found and argument-binding
// failures map to JSON-RPC error codes; errors raised by the tool itself
// come back as an MCP error result with a 200 response.
func (h *Handler) callTool(w http.ResponseWriter, r *http.Request, rc *registry.RequestContext, req rpcRequest, logger *common.Logger) {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeResponse(w, newErrorResponse(req.ID, codeInvalidParams, "invalid tools/call parameters", nil))
		return
	}
	if params.Name == "" {
		writeResponse(w, newErrorResponse(req.ID, codeInvalidParams, "tool name is required", nil))
		return
	}

	ctx := registry.WithRequestContext(r.Context(), rc)
	result, err := h.reg.Call(ctx, rc, params.Name, params.Arguments)
	if err != nil {
		var unknown *registry.UnknownToolError
		var binding *registry.BindingError
		switch {
		case errors.As(err, &unknown):
			writeResponse(w, newErrorResponse(req.ID, codeToolNotFound, err.Error(), nil))
		case errors.As(err, &binding):
			writeResponse(w, newErrorResponse(req.ID, codeInvalidParams, err.Error(), nil))
		default:
			// Tool-raised error: an error result, not a protocol error.
			logger.Warn().Str("tool", params.Name).Str("error", err.Error()).Msg("tool call failed")
			writeResponse(w, newResponse(req.ID, errorResult(err.Error())))
		}
		return
	}

	writeResponse(w, newResponse(req.ID, successResult(result)))
}

// successResult wraps a tool result for the wire. String results become a
// single text block; anything else is serialized as JSON text as well. The
// structured payload mirrors the derived output schema: object-shaped
// results are carried directly, everything else wrapped under "result".
func successResult(result any) mcp.CallToolResult {
	switch v := result.(type) {
	case nil:
		return mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("")},
		}
	case string:
		return mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(v)},
			StructuredContent: map[string]any{"result": v},
		}
	default:
		text, err := json.Marshal(v)
		if err != nil {
			return *errorResult(fmt.Sprintf("failed to serialize tool result: %v", err))
		}
		return mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(string(text))},
			StructuredContent: structuredPayload(v),
		}
	}
}

// structuredPayload shapes a non-string result to match its output schema:
// structs and maps serialize as objects already, scalars and sequences are
// wrapped the way the schema deriver wraps them.
func structuredPayload(v any) any {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return v
	default:
		return map[string]any{"result": v}
	}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(message)},
		IsError: true,
	}
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// requestContext builds the execution context for one request from its
// bearer token. Returns false when no valid identity is present.
func (h *Handler) requestContext(r *http.Request) (*registry.RequestContext, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	claims, err := validateJWT(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
	if err != nil || claims.Sub == "" {
		return nil, false
	}

	rc := &registry.RequestContext{
		Identity: claims.Sub,
		ClientID: claims.ClientID,
		Header:   r.Header.Clone(),
		Path:     r.URL.Path,
	}
	if claims.Scope != "" {
		rc.Scopes = strings.Fields(claims.Scope)
	}
	return rc, true
}

// unauthorized answers 401 with the protected-resource metadata pointer
// per RFC 9728.
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	resourceMetadata := fmt.Sprintf("%s://%s/.well-known/oauth-protected-resource",
		scheme, sanitizeHost(r.Host))

	w.Header().Set("WWW-Authenticate",
		fmt.Sprintf(`Bearer resource_metadata="%s"`, resourceMetadata))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":             "unauthorized",
		"error_description": "Authentication required to access the tool endpoint",
	})
}

// sanitizeHost strips CR, LF, and quote characters from the Host header to
// prevent header injection.
func sanitizeHost(host string) string {
	host = strings.ReplaceAll(host, "\r", "")
	host = strings.ReplaceAll(host, "\n", "")
	host = strings.ReplaceAll(host, `"`, "")
	return host
}

// jwtClaims holds decoded JWT payload claims for bearer-token validation.
type jwtClaims struct {
	Sub      string `json:"sub"`
	Exp      int64  `json:"exp"`
	Iss      string `json:"iss"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// validateJWT validates a JWT token: checks format, verifies HMAC-SHA256
// signature (if secret is non-empty), and checks expiry.
func validateJWT(token string, secret []byte) (*jwtClaims, error) {
	parts := strings.SplitN(token, ".", 4)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT: expected 3 parts, got %d", len(parts))
	}

	if len(secret) > 0 {
		sigInput := parts[0] + "." + parts[1]
		mac := hmac.New(sha256.New, secret)
		mac.Write([]byte(sigInput))
		expectedSig := mac.Sum(nil)

		actualSig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid JWT signature encoding: %w", err)
		}
		if !hmac.Equal(expectedSig, actualSig) {
			return nil, fmt.Errorf("invalid JWT signature")
		}
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload: %w", err)
	}

	var claims jwtClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("invalid JWT JSON: %w", err)
	}

	if claims.Exp > 0 && claims.Exp < time.Now().Unix() {
		return nil, fmt.Errorf("JWT expired")
	}

	return &claims, nil
}
