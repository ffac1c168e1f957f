// ABOUTME: Registry of provider connections and the single dispatch path for tool calls.
// ABOUTME: Connection writes are serialized; reads and calls run concurrently.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/chatconnect/toolgate/internal/health"
	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/transport"
)

// TokenSource supplies delegated Authorization header values for
// providers that require per-user credentials. Implemented by the auth
// store; nil disables delegated auth.
type TokenSource interface {
	Authorization(ctx context.Context, userID int64, connectionID, providerClass string) (string, error)
}

// CallOptions carries the optional routing inputs of a tool call.
type CallOptions struct {
	// ConnectionHint pins the call to one connection. Ignored when the
	// hinted connection is absent or unusable.
	ConnectionHint string

	// UserID selects delegated credentials. Zero means none.
	UserID int64
}

// ProviderInfo is a read-only snapshot of one connection for listings.
type ProviderInfo struct {
	ConnectionID string
	DisplayName  string
	Kind         transport.Kind
	Endpoint     string
	State        provider.State
	ToolCount    int
}

// Registry owns every provider connection. A single writer mutates the
// connection map; lookups and calls take the read lock only long enough
// to snapshot what they need.
type Registry struct {
	timeouts  transport.Timeouts
	fallbacks *provider.FallbackCatalog
	tokens    TokenSource
	checker   *health.Checker
	logger    *slog.Logger

	mu    sync.RWMutex
	conns map[string]*provider.Client
}

// New creates an empty registry. tokens and checker may be nil to
// disable delegated auth and the pre-flight health gate respectively.
func New(timeouts transport.Timeouts, fallbacks *provider.FallbackCatalog, tokens TokenSource, checker *health.Checker, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		timeouts:  timeouts.WithDefaults(),
		fallbacks: fallbacks,
		tokens:    tokens,
		checker:   checker,
		logger:    logger.With("component", "registry"),
		conns:     make(map[string]*provider.Client),
	}
}

// Connect establishes (or re-establishes) the connection for cfg.
// Reconnecting an existing ConnectionID closes the old connection and
// replaces it; the operation is idempotent. The client is retained even
// on failure so listings can report its state, but resolution skips it.
func (r *Registry) Connect(ctx context.Context, cfg provider.Config) bool {
	client := provider.New(cfg, r.timeouts, r.fallbacks, r.logger)

	r.mu.Lock()
	if old, ok := r.conns[cfg.ConnectionID]; ok {
		old.Close()
		r.logger.Info("replacing provider connection", "connection_id", cfg.ConnectionID)
	}
	r.conns[cfg.ConnectionID] = client
	r.mu.Unlock()

	return client.Connect(ctx)
}

// Disconnect closes and removes one connection. Returns false when the
// connection was not registered.
func (r *Registry) Disconnect(connectionID string) bool {
	r.mu.Lock()
	client, ok := r.conns[connectionID]
	if ok {
		delete(r.conns, connectionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	client.Close()
	r.logger.Info("provider disconnected", "connection_id", connectionID)
	return true
}

// Close tears down every connection.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*provider.Client)
	r.mu.Unlock()

	for _, client := range conns {
		client.Close()
	}
}

// Get returns the client for a connection id.
func (r *Registry) Get(connectionID string) (*provider.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.conns[connectionID]
	return client, ok
}

// connectionIDs returns the registered ids in lexical order, which is
// also the precedence order for unhinted tool resolution.
func (r *Registry) connectionIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ListAllTools flattens every usable connection's catalog, annotating
// each descriptor with its connection id and provider display name.
// Order is lexical by connection id, catalog order within a connection.
func (r *Registry) ListAllTools() []provider.ToolDescriptor {
	var out []provider.ToolDescriptor
	for _, id := range r.connectionIDs() {
		client, ok := r.Get(id)
		if !ok || !client.State().Usable() {
			continue
		}
		cfg := client.Config()
		for _, tool := range client.Tools() {
			tool.ConnectionID = cfg.ConnectionID
			tool.ProviderName = cfg.DisplayName
			out = append(out, tool)
		}
	}
	return out
}

// Infos snapshots every connection, usable or not, in lexical order.
func (r *Registry) Infos() []ProviderInfo {
	var out []ProviderInfo
	for _, id := range r.connectionIDs() {
		client, ok := r.Get(id)
		if !ok {
			continue
		}
		cfg := client.Config()
		out = append(out, ProviderInfo{
			ConnectionID: cfg.ConnectionID,
			DisplayName:  cfg.DisplayName,
			Kind:         cfg.Kind,
			Endpoint:     cfg.Endpoint,
			State:        client.State(),
			ToolCount:    len(client.Tools()),
		})
	}
	return out
}

// Summary renders a short human-readable provider roster.
func (r *Registry) Summary() string {
	infos := r.Infos()
	if len(infos) == 0 {
		return "No tool providers connected."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d provider(s):\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&b, "  %s (%s, %s): %s, %d tool(s)\n",
			info.DisplayName, info.ConnectionID, info.Kind, info.State, info.ToolCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// resolve picks the connection serving a tool: the explicit hint when it
// is usable and carries the tool, otherwise the first usable connection
// in lexical id order whose catalog contains it.
func (r *Registry) resolve(name, hint string) *provider.Client {
	if hint != "" {
		if client, ok := r.Get(hint); ok && client.State().Usable() && client.HasTool(name) {
			return client
		}
	}
	for _, id := range r.connectionIDs() {
		client, ok := r.Get(id)
		if !ok || !client.State().Usable() {
			continue
		}
		if client.HasTool(name) {
			return client
		}
	}
	return nil
}

// CallTool resolves the tool to a connection and dispatches it. Every
// outcome is a typed CallResult; an unresolvable tool yields a
// tool-not-available error enumerating what is connected.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any, opts CallOptions) *provider.CallResult {
	client := r.resolve(name, opts.ConnectionHint)
	if client == nil {
		return r.notAvailable(name)
	}
	cfg := client.Config()

	if result := r.preflight(ctx, name, cfg); result != nil {
		return result
	}

	authorization := r.authorization(ctx, opts.UserID, cfg)

	r.logger.Info("dispatching tool call",
		"tool", name, "connection_id", cfg.ConnectionID, "user_id", opts.UserID)
	return client.Call(ctx, name, args, authorization)
}

// preflight runs the health gate for workflow-class tools on HTTP-shaped
// transports, failing fast instead of burning the full workflow timeout.
func (r *Registry) preflight(ctx context.Context, name string, cfg provider.Config) *provider.CallResult {
	if r.checker == nil || !provider.IsWorkflowTool(name) {
		return nil
	}
	if cfg.Kind != transport.KindHTTP && cfg.Kind != transport.KindSession {
		return nil
	}
	res := r.checker.Check(ctx, cfg.Endpoint)
	if res.Healthy {
		return nil
	}
	r.logger.Warn("provider failed pre-flight health check",
		"connection_id", cfg.ConnectionID, "error", res.Error)
	return provider.ResultError(provider.ErrorConnection,
		fmt.Sprintf("provider %q failed its health check: %s", cfg.DisplayName, res.Error),
		"The provider looks unreachable right now; wait a moment and retry")
}

func (r *Registry) authorization(ctx context.Context, userID int64, cfg provider.Config) string {
	if r.tokens == nil || userID == 0 || cfg.AuthHint == "" {
		return ""
	}
	authorization, err := r.tokens.Authorization(ctx, userID, cfg.ConnectionID, cfg.AuthHint)
	if err != nil {
		r.logger.Warn("delegated credential lookup failed",
			"user_id", userID, "connection_id", cfg.ConnectionID,
			"provider_class", cfg.AuthHint, "error", err)
		return ""
	}
	return authorization
}

func (r *Registry) notAvailable(name string) *provider.CallResult {
	tools := r.ListAllTools()
	if len(tools) == 0 {
		return provider.ResultError(provider.ErrorToolNotAvailable,
			fmt.Sprintf("tool %q is not available: no tool providers are connected", name),
			"Connect a tool provider first")
	}

	names := make([]string, 0, len(tools))
	providerSet := make(map[string]struct{})
	var providers []string
	for _, t := range tools {
		names = append(names, t.Name)
		if _, seen := providerSet[t.ProviderName]; !seen {
			providerSet[t.ProviderName] = struct{}{}
			providers = append(providers, t.ProviderName)
		}
	}
	return provider.ResultError(provider.ErrorToolNotAvailable,
		fmt.Sprintf("tool %q is not available. Available tools: %s (from %s)",
			name, strings.Join(names, ", "), strings.Join(providers, ", ")),
		"Pick one of the available tools or connect the provider that serves this one")
}
