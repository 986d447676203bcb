package server

import "encoding/json"

// jsonrpcVersion is the only protocol version accepted.
const jsonrpcVersion = "2.0"

// Standard JSON-RPC error codes, plus the implementation-defined range
// used for tool conditions.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603

	// -32000 to -32099 are reserved for implementation-defined errors.
	codeToolNotFound = -32001
)

// rpcRequest is an incoming JSON-RPC request. ID may be a string, a
// number, or absent (notification).
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcError is the error object of a JSON-RPC response.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// rpcResponse is an outgoing JSON-RPC response. The id always serializes,
// echoing the request id unchanged (including 0) and null when the request
// id could not be read.
type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

func newResponse(id any, result any) rpcResponse {
	return rpcResponse{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

func newErrorResponse(id any, code int, message string, data any) rpcResponse {
	return rpcResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	}
}
