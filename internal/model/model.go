// ABOUTME: Boundary types for the language-model client: catalog in, text or requested calls out.
// ABOUTME: The model vendor behind Client is opaque; only this shape is depended on.

package model

import (
	"context"

	"github.com/chatconnect/toolgate/internal/provider"
)

// Roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// CatalogEntry is one provider-agnostic tool offered to the model's
// function-calling interface.
type CatalogEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  provider.Schema `json:"parameters"`
}

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestedCall is one tool invocation the model asked for.
type RequestedCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Reply is the model's answer: free text, requested calls, or both.
type Reply struct {
	Text  string
	Calls []RequestedCall
}

// Client is the language-model API boundary. Implementations perform
// one completion given the system prompt, history, and tool catalog.
// Tool results are fed back as RoleTool history messages on the next
// Complete call.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, history []Message, catalog []CatalogEntry) (*Reply, error)
}

// ToolResultMessage wraps a rendered tool outcome as a history turn.
func ToolResultMessage(toolName, content string) Message {
	return Message{Role: RoleTool, Content: toolName + ": " + content}
}
