// ABOUTME: Ephemeral-session HTTP transport for providers with no fixed call endpoint.
// ABOUTME: A discovery GET yields a session sub-path; all calls target base+sub-path.

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// Session negotiates a session-scoped endpoint on connect. Some provider
// hosts issue every client a sub-path that must be reused for the whole
// session, including re-discovery. When no sub-path can be parsed from
// the discovery frame, the transport degrades to targeting the base
// endpoint directly and reports that via Degraded().
type Session struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	subPath  string
	degraded bool
}

// NewSession creates an ephemeral-session HTTP transport.
func NewSession(endpoint string, connectTimeout time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   newHTTPClient(connectTimeout),
		logger:   logger.With("component", "transport.session"),
	}
}

// Kind returns KindSession.
func (s *Session) Kind() Kind { return KindSession }

// Connect performs the discovery GET and records the session sub-path.
// A missing or unparseable sub-path is not a connection failure: the
// transport falls back to the base endpoint and marks itself degraded.
func (s *Session) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("building discovery request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("session discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session discovery returned HTTP %d", resp.StatusCode)
	}

	// Discovery frames are small; bound the read anyway.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading discovery frame: %w", err)
	}

	subPath := jsonrpc.ExtractSessionPath(raw)

	s.mu.Lock()
	s.subPath = subPath
	s.degraded = subPath == ""
	s.mu.Unlock()

	if subPath == "" {
		s.logger.Warn("no session sub-path in discovery frame, falling back to base endpoint",
			"endpoint", s.endpoint)
	} else {
		s.logger.Debug("session negotiated", "sub_path", subPath)
	}
	return nil
}

// Degraded reports whether the session fell back to the base endpoint
// because no sub-path was parseable.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// SubPath returns the negotiated session sub-path, or "" when degraded.
func (s *Session) SubPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subPath
}

// Exchange POSTs to the session endpoint.
func (s *Session) Exchange(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	return postJSONRPC(ctx, s.client, s.target(), req, "")
}

// ExchangeAuthorized is Exchange with a delegated Authorization header.
func (s *Session) ExchangeAuthorized(ctx context.Context, req *jsonrpc.Request, authorization string) (*jsonrpc.Response, error) {
	return postJSONRPC(ctx, s.client, s.target(), req, authorization)
}

func (s *Session) target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subPath == "" {
		return s.endpoint
	}
	if strings.HasPrefix(s.subPath, "/") {
		return s.endpoint + s.subPath
	}
	return s.endpoint + "/" + s.subPath
}

// Close drops the negotiated session state.
func (s *Session) Close() error {
	s.mu.Lock()
	s.subPath = ""
	s.degraded = false
	s.mu.Unlock()
	return nil
}
