// ABOUTME: Client is one tool provider: a transport, connection state, and a tool catalog.
// ABOUTME: Connect and discovery never raise; failures land in state plus lastError.

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
	"github.com/chatconnect/toolgate/internal/transport"
)

// protocolVersion is sent in the initialize handshake.
const protocolVersion = "1.0.0"

// clientInfo identifies this host to providers during initialize.
var clientInfo = jsonrpc.ClientInfo{Name: "toolgate", Version: "1.0.0"}

// Client owns one provider connection. All state transitions happen
// under the mutex; reads of state/catalog are cheap and concurrent.
type Client struct {
	cfg       Config
	tr        transport.Transport
	timeouts  transport.Timeouts
	fallbacks *FallbackCatalog
	logger    *slog.Logger
	nextID    atomic.Int64

	mu      sync.RWMutex
	state   State
	tools   []ToolDescriptor
	lastErr error
}

// New creates a client for the given config. The transport is chosen by
// cfg.Kind. fallbacks may be nil to disable fallback catalogs.
func New(cfg Config, timeouts transport.Timeouts, fallbacks *FallbackCatalog, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "provider", "connection_id", cfg.ConnectionID)
	timeouts = timeouts.WithDefaults()

	var tr transport.Transport
	switch cfg.Kind {
	case transport.KindStdio:
		tr = transport.NewStdio(cfg.Endpoint, logger)
	case transport.KindSocket:
		tr = transport.NewSocket(cfg.Endpoint, logger)
	case transport.KindSession:
		tr = transport.NewSession(cfg.Endpoint, timeouts.Connect, logger)
	default:
		tr = transport.NewHTTP(cfg.Endpoint, timeouts.Connect, logger)
	}

	return &Client{
		cfg:       cfg,
		tr:        tr,
		timeouts:  timeouts,
		fallbacks: fallbacks,
		logger:    logger,
		state:     StateDisconnected,
	}
}

// Config returns the immutable provider config.
func (c *Client) Config() Config { return c.cfg }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError returns the most recent connection-level failure, if any.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Tools returns a copy of the discovered catalog. Empty until the
// connection reaches a usable state and discovery has run.
func (c *Client) Tools() []ToolDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ToolDescriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// HasTool reports whether the catalog contains the named tool.
func (c *Client) HasTool(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// SessionSubPath returns the negotiated session sub-path for
// ephemeral-session providers, "" otherwise.
func (c *Client) SessionSubPath() string {
	if s, ok := c.tr.(*transport.Session); ok {
		return s.SubPath()
	}
	return ""
}

// Connect establishes the transport, performs the initialize handshake
// where the transport requires one, and runs tool discovery. It never
// returns an error: failure leaves the client in StateFailed with
// LastError set, and the return value reports usability.
func (c *Client) Connect(ctx context.Context) bool {
	c.setState(StateConnecting, nil)

	connectCtx, cancel := context.WithTimeout(ctx, c.timeouts.Connect)
	defer cancel()

	if err := c.tr.Connect(connectCtx); err != nil {
		c.logger.Warn("provider connect failed", "error", err)
		c.setState(StateFailed, err)
		return false
	}

	// Stream transports expect an initialize exchange before anything
	// else; the HTTP kinds are stateless and skip straight to discovery.
	if c.tr.Kind() == transport.KindStdio || c.tr.Kind() == transport.KindSocket {
		if err := c.initialize(ctx); err != nil {
			c.logger.Warn("provider initialize failed", "error", err)
			c.tr.Close()
			c.setState(StateFailed, err)
			return false
		}
	}

	state := StateConnected
	if s, ok := c.tr.(*transport.Session); ok && s.Degraded() {
		state = StateConnectedDegraded
	}
	c.setState(state, nil)
	c.logger.Info("provider connected",
		"name", c.cfg.DisplayName, "kind", c.tr.Kind(), "state", state)

	// Discovery completes before Connect returns so no call can race an
	// unpopulated catalog on this connection.
	c.DiscoverTools(ctx)
	return true
}

func (c *Client) initialize(ctx context.Context) error {
	req := jsonrpc.NewRequest(c.nextID.Add(1), jsonrpc.MethodInitialize, jsonrpc.InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ClientInfo:      clientInfo,
	})

	callCtx, cancel := context.WithTimeout(ctx, c.timeouts.Interactive)
	defer cancel()

	resp, err := c.tr.Exchange(callCtx, req)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize rejected: %s", resp.Error.Message)
	}
	return nil
}

// DiscoverTools refreshes the catalog via tools/list. Failure is a valid
// terminal state, not an error: the catalog is left empty (or filled
// from the fallback catalog for providers that have one) and the
// connection stays usable.
func (c *Client) DiscoverTools(ctx context.Context) []ToolDescriptor {
	if !c.State().Usable() {
		return nil
	}

	req := jsonrpc.NewRequest(c.nextID.Add(1), jsonrpc.MethodListTools, map[string]any{})

	callCtx, cancel := context.WithTimeout(ctx, c.timeouts.Interactive)
	defer cancel()

	resp, err := c.tr.Exchange(callCtx, req)
	if err != nil {
		c.logger.Warn("tool discovery failed", "error", err)
		return c.applyFallbackCatalog()
	}
	if resp.Error != nil {
		c.logger.Warn("tool discovery rejected", "error", resp.Error.Message)
		return c.applyFallbackCatalog()
	}

	var result struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		c.logger.Warn("tool discovery unparseable", "error", err)
		return c.applyFallbackCatalog()
	}

	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()

	c.logger.Info("tools discovered", "count", len(result.Tools))
	return c.Tools()
}

// applyFallbackCatalog fills the catalog from the static fallback set
// so the agent can still attempt calls; a failed attempt then yields a
// proper typed error downstream instead of "no such tool".
func (c *Client) applyFallbackCatalog() []ToolDescriptor {
	if c.fallbacks == nil {
		return nil
	}
	tools := c.fallbacks.Lookup(c.cfg.Endpoint)
	if len(tools) == 0 {
		return nil
	}
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	c.logger.Info("using fallback catalog", "count", len(tools))
	return c.Tools()
}

// Call invokes a tool. authorization, when non-empty, is attached as an
// Authorization header on transports that support it. The result is
// always a typed CallResult; a deadline expiry yields ErrorTimeout with
// a suggestion, never a hang or a partial payload.
func (c *Client) Call(ctx context.Context, name string, args map[string]any, authorization string) *CallResult {
	if !c.State().Usable() {
		return ResultError(ErrorConnection,
			fmt.Sprintf("provider %q is not connected", c.cfg.DisplayName),
			"Reconnect the provider and try again")
	}

	args = withDefaultArguments(name, args)

	budget := c.timeouts.Interactive
	if c.tr.Kind() == transport.KindSession || IsWorkflowTool(name) {
		budget = c.timeouts.Workflow
	}
	callCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	req := jsonrpc.NewRequest(c.nextID.Add(1), jsonrpc.MethodCallTool, jsonrpc.CallToolParams{
		Name:      name,
		Arguments: args,
	})

	var (
		resp *jsonrpc.Response
		err  error
	)
	if auth, ok := c.tr.(transport.Authorizer); ok && authorization != "" {
		resp, err = auth.ExchangeAuthorized(callCtx, req, authorization)
	} else {
		resp, err = c.tr.Exchange(callCtx, req)
	}
	if err != nil {
		return c.callFailure(name, budget, err)
	}
	return ClassifyResponse(resp)
}

func (c *Client) callFailure(name string, budget time.Duration, err error) *CallResult {
	if errors.Is(err, transport.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ResultError(ErrorTimeout,
			fmt.Sprintf("tool %q did not answer within %s", name, budget),
			"Simplify the remote workflow or check it for stuck steps, then retry")
	}
	return ResultError(ErrorConnection, err.Error(),
		"Check that the provider is reachable and reconnect")
}

// Close tears down the transport and resets the catalog.
func (c *Client) Close() error {
	err := c.tr.Close()
	c.mu.Lock()
	c.state = StateDisconnected
	c.tools = nil
	c.mu.Unlock()
	return err
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	c.state = state
	if err != nil {
		c.lastErr = err
	}
	c.mu.Unlock()
}
