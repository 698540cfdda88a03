package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRPC(t *testing.T, s *Server, method string, params any) rpcResponse {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "method": method, "id": "1"}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		body["params"] = json.RawMessage(raw)
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "JSON-RPC transport always answers 200")

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRPC_Capabilities(t *testing.T) {
	s, _, _ := newTestServer()
	resp := doRPC(t, s, "capabilities", nil)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestRPC_UnknownMethod(t *testing.T) {
	s, _, _ := newTestServer()
	resp := doRPC(t, s, "does_not_exist", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestRPC_RunAuditThenGetAudit(t *testing.T) {
	s, _, _ := newTestServer()

	runResp := doRPC(t, s, "run_audit", RunAuditRequest{Contract: ".", Profile: "quick"})
	require.Nil(t, runResp.Error)

	result, err := json.Marshal(runResp.Result)
	require.NoError(t, err)
	var audit AuditResult
	require.NoError(t, json.Unmarshal(result, &audit))
	require.NotEmpty(t, audit.AuditID)

	getResp := doRPC(t, s, "get_audit", GetAuditRequest{AuditID: audit.AuditID})
	require.Nil(t, getResp.Error)
}

func TestRPC_GetAuditUnknownIDReturnsDomainError(t *testing.T) {
	s, _, _ := newTestServer()
	resp := doRPC(t, s, "get_audit", GetAuditRequest{AuditID: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcCodeInvalidParams, resp.Error.Code)
}

func TestRPC_MalformedBodyReturnsInvalidParams(t *testing.T) {
	s, _, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpcCodeInvalidParams, resp.Error.Code)
}
