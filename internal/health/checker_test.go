// ABOUTME: Tests for the TTL-cached health checker.
// ABOUTME: Probe outcomes, cache hits within the TTL, unreachable endpoints.

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_HealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"jsonrpc":"2.0","id":"health_check","result":{"tools":[]}}`))
	}))
	defer server.Close()

	checker := NewChecker(time.Minute, time.Second, nil)
	result := checker.Check(context.Background(), server.URL)

	assert.True(t, result.Healthy)
	assert.Greater(t, result.ResponseTime, time.Duration(0))
	assert.Empty(t, result.Error)
}

func TestCheck_UnhealthyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewChecker(time.Minute, time.Second, nil)
	result := checker.Check(context.Background(), server.URL)

	assert.False(t, result.Healthy)
	assert.Contains(t, result.Error, "503")
}

func TestCheck_UnreachableEndpoint(t *testing.T) {
	checker := NewChecker(time.Minute, 200*time.Millisecond, nil)
	result := checker.Check(context.Background(), "http://127.0.0.1:1/rpc")

	assert.False(t, result.Healthy)
	assert.NotEmpty(t, result.Error)
}

func TestCheck_CachesWithinTTL(t *testing.T) {
	var probes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.Write([]byte(`{"jsonrpc":"2.0","id":"health_check","result":{}}`))
	}))
	defer server.Close()

	checker := NewChecker(time.Minute, time.Second, nil)
	first := checker.Check(context.Background(), server.URL)
	second := checker.Check(context.Background(), server.URL)

	require.True(t, first.Healthy)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), probes.Load())
}

func TestForget_DropsCacheEntry(t *testing.T) {
	var probes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.Write([]byte(`{"jsonrpc":"2.0","id":"health_check","result":{}}`))
	}))
	defer server.Close()

	checker := NewChecker(time.Minute, time.Second, nil)
	checker.Check(context.Background(), server.URL)
	checker.Forget(server.URL)
	checker.Check(context.Background(), server.URL)

	assert.Equal(t, int32(2), probes.Load())
}
