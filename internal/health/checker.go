// ABOUTME: TTL-cached liveness probes for remote tool providers.
// ABOUTME: A cheap tools/list POST with its own short timeout, cached for five minutes.

package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// Defaults for cache lifetime and probe budget.
const (
	DefaultTTL          = 5 * time.Minute
	DefaultProbeTimeout = 35 * time.Second
)

// Result is the outcome of one health probe.
type Result struct {
	Healthy      bool
	ResponseTime time.Duration
	Error        string
}

type cacheEntry struct {
	result  Result
	checked time.Time
}

// Checker probes provider endpoints and caches results per endpoint.
// The cache is last-writer-wins and safe for concurrent overwrite.
type Checker struct {
	client *http.Client
	ttl    time.Duration
	budget time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewChecker creates a checker. Zero ttl or probeTimeout fall back to
// the defaults.
func NewChecker(ttl, probeTimeout time.Duration, logger *slog.Logger) *Checker {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if probeTimeout == 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		client: &http.Client{},
		ttl:    ttl,
		budget: probeTimeout,
		logger: logger.With("component", "health"),
		cache:  make(map[string]cacheEntry),
	}
}

// Check probes the endpoint with a tools/list request, returning the
// cached result when one is fresh. Probe failures never propagate as
// errors; they come back as an unhealthy Result.
func (c *Checker) Check(ctx context.Context, endpoint string) Result {
	c.mu.RLock()
	entry, ok := c.cache[endpoint]
	c.mu.RUnlock()
	if ok && time.Since(entry.checked) < c.ttl {
		return entry.result
	}

	result := c.probe(ctx, endpoint)

	c.mu.Lock()
	c.cache[endpoint] = cacheEntry{result: result, checked: time.Now()}
	c.mu.Unlock()

	return result
}

func (c *Checker) probe(ctx context.Context, endpoint string) Result {
	req := &jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		ID:      json.RawMessage(`"health_check"`),
		Method:  jsonrpc.MethodListTools,
		Params:  map[string]any{},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Result{Healthy: false, Error: err.Error()}
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Healthy: false, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Debug("health probe failed", "endpoint", endpoint, "error", err)
		if probeCtx.Err() != nil {
			return Result{Healthy: false, Error: "health check timeout"}
		}
		return Result{Healthy: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	if resp.StatusCode != http.StatusOK {
		return Result{
			Healthy:      false,
			ResponseTime: elapsed,
			Error:        fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return Result{Healthy: true, ResponseTime: elapsed}
}

// Forget drops the cached result for an endpoint.
func (c *Checker) Forget(endpoint string) {
	c.mu.Lock()
	delete(c.cache, endpoint)
	c.mu.Unlock()
}
