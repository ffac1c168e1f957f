// ABOUTME: Tests for the one-shot HTTP transport.
// ABOUTME: JSON and SSE response bodies, auth header injection, timeout mapping.

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

func TestHTTPExchange_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`))
	}))
	defer server.Close()

	tr := NewHTTP(server.URL, 0, nil)
	require.NoError(t, tr.Connect(context.Background()))

	resp, err := tr.Exchange(context.Background(), jsonrpc.NewRequest(1, jsonrpc.MethodListTools, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tools":[]}`, string(resp.Result))
}

func TestHTTPExchange_SSEResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"ok\":true}}\n\n"))
	}))
	defer server.Close()

	tr := NewHTTP(server.URL, 0, nil)
	require.NoError(t, tr.Connect(context.Background()))

	resp, err := tr.Exchange(context.Background(), jsonrpc.NewRequest(1, jsonrpc.MethodCallTool, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))
}

func TestHTTPExchangeAuthorized_SetsHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	}))
	defer server.Close()

	tr := NewHTTP(server.URL, 0, nil)
	require.NoError(t, tr.Connect(context.Background()))

	_, err := tr.ExchangeAuthorized(context.Background(),
		jsonrpc.NewRequest(1, jsonrpc.MethodCallTool, nil), "Bearer tok-123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestHTTPExchange_DeadlineYieldsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	}))
	defer server.Close()

	tr := NewHTTP(server.URL, 0, nil)
	require.NoError(t, tr.Connect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.Exchange(ctx, jsonrpc.NewRequest(1, jsonrpc.MethodCallTool, nil))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPExchange_Non200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	tr := NewHTTP(server.URL, 0, nil)
	require.NoError(t, tr.Connect(context.Background()))

	_, err := tr.Exchange(context.Background(), jsonrpc.NewRequest(1, jsonrpc.MethodCallTool, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPConnect_EmptyEndpoint(t *testing.T) {
	tr := NewHTTP("", 0, nil)
	assert.Error(t, tr.Connect(context.Background()))
}
