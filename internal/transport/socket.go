// ABOUTME: Persistent-socket transport holding one duplex connection per provider.
// ABOUTME: A background read loop routes responses to pending requests by id.

package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// Socket exchanges newline-delimited JSON-RPC over a single long-lived
// connection. Requests from concurrent callers interleave freely; the
// read loop correlates each response to its caller by request id.
type Socket struct {
	endpoint string
	logger   *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	pending map[string]chan *jsonrpc.Response
	closed  bool
}

// NewSocket creates a persistent-socket transport. The endpoint is a
// host:port pair, optionally with a tcp:// scheme.
func NewSocket(endpoint string, logger *slog.Logger) *Socket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		endpoint: endpoint,
		logger:   logger.With("component", "transport.socket"),
		pending:  make(map[string]chan *jsonrpc.Response),
	}
}

// Kind returns KindSocket.
func (s *Socket) Kind() Kind { return KindSocket }

// Connect dials the provider and starts the read loop.
func (s *Socket) Connect(ctx context.Context) error {
	addr := s.endpoint
	if u, err := url.Parse(addr); err == nil && u.Host != "" {
		addr = u.Host
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing provider: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.closed = false
	s.mu.Unlock()

	go s.readLoop(conn)
	s.logger.Debug("socket connected", "addr", addr)
	return nil
}

// readLoop routes incoming responses to the pending request channels.
// Responses with no matching pending request are logged and dropped.
func (s *Socket) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var resp jsonrpc.Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			s.logger.Debug("skipping unparseable frame", "line", line)
			continue
		}
		key := pendingKey(resp.ID)

		s.mu.Lock()
		ch, ok := s.pending[key]
		if ok {
			delete(s.pending, key)
		}
		s.mu.Unlock()

		if !ok {
			s.logger.Warn("response for unknown request", "id", key)
			continue
		}
		ch <- &resp
	}
	// Connection gone: fail everything still waiting.
	s.failPending()
}

// Exchange registers a pending slot, writes the request, and waits for
// the read loop to deliver the correlated response.
func (s *Socket) Exchange(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	key := pendingKey(req.ID)
	ch := make(chan *jsonrpc.Response, 1)

	s.mu.Lock()
	if s.conn == nil || s.closed {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	s.pending[key] = ch
	conn := s.conn
	s.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		s.dropPending(key)
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	_, err = conn.Write(payload)
	s.mu.Unlock()
	if err != nil {
		s.dropPending(key)
		return nil, fmt.Errorf("writing request: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return resp, nil
	case <-ctx.Done():
		s.dropPending(key)
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// Close shuts the connection down and fails outstanding requests.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.failPending()
	return nil
}

func (s *Socket) dropPending(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

func (s *Socket) failPending() {
	s.mu.Lock()
	for key, ch := range s.pending {
		close(ch)
		delete(s.pending, key)
	}
	s.mu.Unlock()
}

func pendingKey(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}
