// ABOUTME: Core data types for tool providers: configs, descriptors, schemas, call results.
// ABOUTME: CallResult is the typed outcome every call path returns instead of raising.

package provider

import (
	"encoding/json"
	"fmt"

	"github.com/chatconnect/toolgate/internal/transport"
)

// Config describes one provider to connect to. Immutable after creation.
type Config struct {
	// ConnectionID uniquely identifies this connection in the registry.
	ConnectionID string `yaml:"connection_id"`

	// DisplayName is shown to users in tool listings and messages.
	DisplayName string `yaml:"display_name"`

	// Kind selects the transport.
	Kind transport.Kind `yaml:"kind"`

	// Endpoint is the transport-specific address: a command line for
	// stdio, host:port for socket, a URL for the HTTP kinds.
	Endpoint string `yaml:"endpoint"`

	// AuthHint names the provider class used for delegated-credential
	// lookup (e.g. "gmail"). Empty means no delegated auth.
	AuthHint string `yaml:"auth_hint,omitempty"`
}

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"

	// StateConnectedDegraded means an ephemeral-session provider is
	// usable but fell back to its base endpoint because no session
	// sub-path was negotiated.
	StateConnectedDegraded State = "connected_degraded"

	StateFailed State = "failed"
)

// Usable reports whether calls may be attempted in this state.
func (s State) Usable() bool {
	return s == StateConnected || s == StateConnectedDegraded
}

// Property is one declared parameter in a tool schema.
type Property struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Schema is the declared argument schema of a tool. Only the pieces the
// validation engine needs; anything deeper is passed through untouched.
type Schema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDescriptor is one named capability discovered from a provider.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`

	// ConnectionID and ProviderName are filled in by the registry when
	// aggregating catalogs; providers do not send them.
	ConnectionID string `json:"-"`
	ProviderName string `json:"-"`
}

// UnmarshalJSON accepts both schema spellings providers use:
// "parameters" (legacy) and "inputSchema" (current protocol).
func (t *ToolDescriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  Schema `json:"parameters"`
		InputSchema Schema `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Name = raw.Name
	t.Description = raw.Description
	t.Parameters = raw.Parameters
	if t.Parameters.Properties == nil && raw.InputSchema.Properties != nil {
		t.Parameters = raw.InputSchema
	}
	return nil
}

// ErrorKind classifies call failures for deterministic user messaging.
type ErrorKind string

const (
	ErrorConnection       ErrorKind = "connection_error"
	ErrorTimeout          ErrorKind = "timeout"
	ErrorToolNotAvailable ErrorKind = "tool_not_available"
	ErrorValidation       ErrorKind = "validation_error"
	ErrorProvider         ErrorKind = "provider_error"
	ErrorParse            ErrorKind = "parse_error"
)

// CallError is the error arm of a CallResult.
type CallError struct {
	Kind       ErrorKind
	Message    string
	Suggestion string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// CallResult is the discriminated outcome of a tool call. Exactly one of
// the three arms is populated: Payload (success), Err (failure), or
// AuthorizationURL (the user must complete delegated auth and retry).
type CallResult struct {
	Payload          json.RawMessage
	Err              *CallError
	AuthorizationURL string
}

// Success reports whether the call produced a payload.
func (r *CallResult) Success() bool {
	return r.Err == nil && r.AuthorizationURL == ""
}

// AuthRequired reports whether the call needs delegated authorization.
func (r *CallResult) AuthRequired() bool {
	return r.AuthorizationURL != ""
}

// ResultSuccess builds the success arm. The payload is the provider's
// result passed through unmodified; interpretation is the caller's job.
func ResultSuccess(payload json.RawMessage) *CallResult {
	return &CallResult{Payload: payload}
}

// ResultError builds the failure arm.
func ResultError(kind ErrorKind, message, suggestion string) *CallResult {
	return &CallResult{Err: &CallError{Kind: kind, Message: message, Suggestion: suggestion}}
}

// ResultAuthRequired builds the authorization-needed arm.
func ResultAuthRequired(url string) *CallResult {
	return &CallResult{AuthorizationURL: url}
}
