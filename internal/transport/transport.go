// ABOUTME: Transport abstraction for tool providers plus the timeout tiers they share.
// ABOUTME: Four kinds: process-pipe (stdio), persistent socket, one-shot HTTP, ephemeral-session HTTP.

package transport

import (
	"context"
	"errors"
	"time"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// Kind identifies the wire mechanism used to reach a provider.
type Kind string

const (
	// KindStdio launches the provider as a subprocess and frames
	// newline-delimited JSON-RPC over its pipes.
	KindStdio Kind = "stdio"

	// KindSocket keeps one duplex connection open and correlates
	// responses to requests by id.
	KindSocket Kind = "socket"

	// KindHTTP POSTs one JSON-RPC body per call; the response may be
	// plain JSON or an SSE frame.
	KindHTTP Kind = "http"

	// KindSession negotiates a session-scoped sub-path on a discovery
	// GET and targets base+sub-path for every subsequent call.
	KindSession Kind = "session"
)

// Transport errors. Callers classify these into user-facing result kinds.
var (
	ErrNotConnected = errors.New("transport not connected")
	ErrTimeout      = errors.New("transport deadline exceeded")
	ErrClosed       = errors.New("transport closed")
)

// Transport is one connection-shaped way of exchanging JSON-RPC messages
// with a provider. Implementations must be safe for concurrent use and
// must honor context cancellation on every blocking operation.
type Transport interface {
	// Kind returns the transport kind.
	Kind() Kind

	// Connect establishes the underlying channel. It is an error to call
	// Exchange before Connect has succeeded.
	Connect(ctx context.Context) error

	// Exchange sends one request and waits for the correlated response.
	// A deadline on ctx bounds the whole exchange; expiry surfaces as an
	// error wrapping ErrTimeout, never as a partial response.
	Exchange(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)

	// Close tears down the channel. Safe to call more than once.
	Close() error
}

// Authorizer is implemented by transports that can attach a per-call
// Authorization header. Only the HTTP-shaped transports do.
type Authorizer interface {
	ExchangeAuthorized(ctx context.Context, req *jsonrpc.Request, authorization string) (*jsonrpc.Response, error)
}

// Timeouts holds the two call-timeout tiers plus the connect split.
// Values come from configuration; zero fields fall back to defaults.
type Timeouts struct {
	// Connect bounds connection establishment.
	Connect time.Duration

	// Interactive bounds calls to providers that answer directly.
	Interactive time.Duration

	// Workflow bounds calls to providers that run multi-step remote
	// workflows, which may themselves call third-party services.
	Workflow time.Duration
}

// Default timeout tiers.
const (
	DefaultConnectTimeout     = 30 * time.Second
	DefaultInteractiveTimeout = 20 * time.Second
	DefaultWorkflowTimeout    = 5 * time.Minute
)

// WithDefaults fills zero fields with the default tiers.
func (t Timeouts) WithDefaults() Timeouts {
	if t.Connect == 0 {
		t.Connect = DefaultConnectTimeout
	}
	if t.Interactive == 0 {
		t.Interactive = DefaultInteractiveTimeout
	}
	if t.Workflow == 0 {
		t.Workflow = DefaultWorkflowTimeout
	}
	return t
}
