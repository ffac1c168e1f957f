// ABOUTME: One-shot HTTP transport: one JSON-RPC POST per exchange.
// ABOUTME: Accepts either plain JSON or an SSE frame as the response body.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

const acceptHeader = "application/json, text/event-stream"

// userAgent identifies this client to providers.
const userAgent = "toolgate/1.0"

// HTTP posts each request to a fixed endpoint. Stateless: no handshake
// survives between calls, so Connect only verifies the endpoint shape.
type HTTP struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTP creates a one-shot HTTP transport. connectTimeout bounds
// connection establishment; the per-call context bounds the read.
func NewHTTP(endpoint string, connectTimeout time.Duration, logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		endpoint: endpoint,
		client:   newHTTPClient(connectTimeout),
		logger:   logger.With("component", "transport.http"),
	}
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:       dialer.DialContext,
			ForceAttemptHTTP2: true,
		},
	}
}

// Kind returns KindHTTP.
func (h *HTTP) Kind() Kind { return KindHTTP }

// Connect is a no-op beyond validating that an endpoint is configured;
// the first real exchange surfaces reachability problems.
func (h *HTTP) Connect(ctx context.Context) error {
	if h.endpoint == "" {
		return fmt.Errorf("empty provider endpoint")
	}
	return nil
}

// Exchange POSTs the request and decodes whichever encoding came back.
func (h *HTTP) Exchange(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	return postJSONRPC(ctx, h.client, h.endpoint, req, "")
}

// ExchangeAuthorized is Exchange with an Authorization header attached.
func (h *HTTP) ExchangeAuthorized(ctx context.Context, req *jsonrpc.Request, authorization string) (*jsonrpc.Response, error) {
	return postJSONRPC(ctx, h.client, h.endpoint, req, authorization)
}

// postJSONRPC is shared by the one-shot and ephemeral-session transports.
func postJSONRPC(ctx context.Context, client *http.Client, target string, req *jsonrpc.Request, authorization string) (*jsonrpc.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", acceptHeader)
	httpReq.Header.Set("User-Agent", userAgent)
	if authorization != "" {
		httpReq.Header.Set("Authorization", authorization)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("posting to provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("reading provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	decoded, err := jsonrpc.DecodeResponse(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	return decoded, nil
}

// Close is a no-op; one-shot HTTP holds no connection state.
func (h *HTTP) Close() error { return nil }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
