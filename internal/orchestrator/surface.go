// ABOUTME: Direct produced surface: tool listing, single calls, confirmations, intent detection.
// ABOUTME: Thin delegates for callers that bypass the chat flow.

package orchestrator

import (
	"context"
	"strings"

	"github.com/chatconnect/toolgate/internal/confirm"
	"github.com/chatconnect/toolgate/internal/intent"
	"github.com/chatconnect/toolgate/internal/model"
	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/registry"
)

// ListAvailableTools returns the aggregated catalog, optionally
// filtered by a case-insensitive substring of the tool name.
func (o *Orchestrator) ListAvailableTools(filter string) []provider.ToolDescriptor {
	tools := o.registry.ListAllTools()
	if filter == "" {
		return tools
	}
	needle := strings.ToLower(filter)
	var out []provider.ToolDescriptor
	for _, t := range tools {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			out = append(out, t)
		}
	}
	return out
}

// CallTool validates and dispatches one call outside the chat flow.
func (o *Orchestrator) CallTool(ctx context.Context, name string, args map[string]any, userID int64) *provider.CallResult {
	return o.executeCall(ctx, userID, model.RequestedCall{Name: name, Arguments: args})
}

// CreateConfirmation registers a pending confirmation directly.
func (o *Orchestrator) CreateConfirmation(userID, chatID int64, intentType, originalMessage string, providerClasses []string) string {
	return o.confirmations.Create(userID, chatID, intentType, originalMessage, providerClasses).ID
}

// Confirm resolves a pending confirmation.
func (o *Orchestrator) Confirm(id string) (*confirm.Confirmation, bool) {
	return o.confirmations.Confirm(id)
}

// Cancel removes a pending confirmation.
func (o *Orchestrator) Cancel(id string) (*confirm.Confirmation, bool) {
	return o.confirmations.Cancel(id)
}

// GetConfirmation returns a pending confirmation by id.
func (o *Orchestrator) GetConfirmation(id string) (*confirm.Confirmation, bool) {
	return o.confirmations.Get(id)
}

// DetectIntent classifies text against the connected provider classes.
func (o *Orchestrator) DetectIntent(text string) (*intent.Match, bool) {
	if o.intents == nil {
		return nil, false
	}
	return o.intents.Detect(text, o.availableClasses())
}

// Registry exposes the underlying registry for callers that manage
// connections directly.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }
