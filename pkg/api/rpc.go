package api

import (
	"encoding/json"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// rpcMethod is one dispatchable JSON-RPC method: decode params, call the
// handler, return its result. Handlers are the same ones REST routes call,
// so both presentations stay byte-for-byte identical in their semantics
// (spec.md §6.2: "mirrors the JSON-RPC methods one-to-one").
type rpcMethod func(c *echo.Context, params json.RawMessage) (any, error)

// rpcDispatcher is a hand-rolled JSON-RPC 2.0 dispatcher (no generated
// stubs, per spec.md §4.8) mapping method name to handler.
type rpcDispatcher struct {
	methods map[string]rpcMethod
}

func newRPCDispatcher() *rpcDispatcher {
	return &rpcDispatcher{methods: make(map[string]rpcMethod)}
}

func (d *rpcDispatcher) register(name string, m rpcMethod) {
	d.methods[name] = m
}

// rpcHandler handles POST /rpc.
func (s *Server) rpcHandler(c *echo.Context) error {
	var req rpcRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcCodeInvalidParams, Message: "malformed JSON-RPC request: " + err.Error()},
		})
	}

	method, ok := s.rpc.methods[req.Method]
	if !ok {
		return c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32601, Message: "method not found: " + req.Method},
		})
	}

	result, err := method(c, req.Params)
	if err != nil {
		kind := aocerrors.KindOf(err)
		return c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: rpcCodeFor(kind), Message: err.Error()},
		})
	}

	return c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func decodeParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
