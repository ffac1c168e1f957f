// ABOUTME: Top-level message flow: intent, confirmation, model completion, validated tool calls.
// ABOUTME: Every dependency is injected at construction; no ambient singletons.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatconnect/toolgate/internal/confirm"
	"github.com/chatconnect/toolgate/internal/intent"
	"github.com/chatconnect/toolgate/internal/model"
	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/registry"
	"github.com/chatconnect/toolgate/internal/validate"
	"github.com/chatconnect/toolgate/internal/verify"
)

const defaultSystemPrompt = "You are a helpful assistant with access to external tools. " +
	"Use a tool when the user's request needs one; otherwise answer directly."

// Orchestrator routes one user message through intent detection, the
// confirmation gate, and the model's tool-calling loop.
type Orchestrator struct {
	registry      *registry.Registry
	confirmations *confirm.Manager
	intents       *intent.Matcher
	model         model.Client
	systemPrompt  string
	logger        *slog.Logger
}

// New wires an orchestrator. intents may be nil to disable the intent
// gate; mc may be nil for deployments that only use the direct surface.
func New(reg *registry.Registry, confirmations *confirm.Manager, intents *intent.Matcher, mc model.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:      reg,
		confirmations: confirmations,
		intents:       intents,
		model:         mc,
		systemPrompt:  defaultSystemPrompt,
		logger:        logger.With("component", "orchestrator"),
	}
}

// SetSystemPrompt overrides the default system prompt.
func (o *Orchestrator) SetSystemPrompt(prompt string) { o.systemPrompt = prompt }

// HandleMessage processes one user message and returns the reply text.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, chatID int64, text string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 2 {
		switch strings.ToLower(fields[0]) {
		case "confirm":
			return o.handleConfirm(ctx, userID, fields[1])
		case "cancel":
			return o.handleCancel(fields[1]), nil
		}
	}

	if o.intents != nil {
		if match, ok := o.intents.Detect(text, o.availableClasses()); ok {
			if len(match.AvailableProviderClasses) == 0 {
				return intent.Respond(match), nil
			}
			c := o.confirmations.Create(userID, chatID, match.IntentType, text, match.AvailableProviderClasses)
			return confirm.RequestMessage(c), nil
		}
	}

	return o.complete(ctx, userID, text)
}

func (o *Orchestrator) handleConfirm(ctx context.Context, userID int64, id string) (string, error) {
	c, ok := o.confirmations.Confirm(id)
	if !ok {
		return "⏰ That confirmation has expired or was already handled. Please make your request again.", nil
	}
	o.confirmations.ExecuteConfirmed(id)

	reply, err := o.complete(ctx, userID, c.OriginalMessage)
	if err != nil {
		return "", err
	}
	return confirm.ExecutingMessage(c) + "\n\n" + reply, nil
}

func (o *Orchestrator) handleCancel(id string) string {
	c, ok := o.confirmations.Cancel(id)
	if !ok {
		return "⏰ That confirmation has expired or was already handled."
	}
	return confirm.CancelledMessage(c)
}

// complete runs one model completion, executes any requested calls, and
// asks the model for a follow-up over the tool results.
func (o *Orchestrator) complete(ctx context.Context, userID int64, text string) (string, error) {
	if o.model == nil {
		return "", fmt.Errorf("no model client configured")
	}

	catalog := o.registry.CatalogForModel()
	history := []model.Message{{Role: model.RoleUser, Content: text}}

	reply, err := o.model.Complete(ctx, o.systemPrompt, history, catalog)
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}
	if len(reply.Calls) == 0 {
		return reply.Text, nil
	}

	if reply.Text != "" {
		history = append(history, model.Message{Role: model.RoleAssistant, Content: reply.Text})
	}

	var rendered []string
	for _, call := range reply.Calls {
		result := o.executeCall(ctx, userID, call)
		outcome := verify.Execution(call.Name, result)
		o.logger.Info("tool call finished",
			"tool", call.Name, "verified", outcome.Status, "detail", outcome.Detail)

		msg := registry.UserFacingMessage(call.Name, result)
		rendered = append(rendered, msg)
		history = append(history, model.ToolResultMessage(call.Name, msg))
	}

	followUp, err := o.model.Complete(ctx, o.systemPrompt, history, catalog)
	if err != nil || followUp.Text == "" {
		if err != nil {
			o.logger.Warn("follow-up completion failed", "error", err)
		}
		return strings.Join(rendered, "\n\n"), nil
	}
	return followUp.Text, nil
}

// executeCall validates against the live catalog and dispatches. A
// validation failure short-circuits with zero network activity.
func (o *Orchestrator) executeCall(ctx context.Context, userID int64, call model.RequestedCall) *provider.CallResult {
	vres := validate.Check(o.registry.ListAllTools(), call.Name, call.Arguments)
	if !vres.Valid {
		messages := make([]string, 0, len(vres.Issues))
		for _, issue := range vres.Issues {
			messages = append(messages, issue.Message)
		}
		return provider.ResultError(provider.ErrorValidation,
			strings.Join(messages, "; "),
			"Provide the missing or mistyped parameters and try again")
	}
	return o.registry.CallTool(ctx, call.Name, call.Arguments, registry.CallOptions{UserID: userID})
}

// availableClasses lists the provider classes currently usable, for
// intent partitioning: a connection's auth hint when set, otherwise its
// connection id.
func (o *Orchestrator) availableClasses() []string {
	var out []string
	for _, info := range o.registry.Infos() {
		if !info.State.Usable() {
			continue
		}
		class := info.ConnectionID
		if hint := o.authHint(info.ConnectionID); hint != "" {
			class = hint
		}
		out = append(out, class)
	}
	return out
}

func (o *Orchestrator) authHint(connectionID string) string {
	client, ok := o.registry.Get(connectionID)
	if !ok {
		return ""
	}
	return client.Config().AuthHint
}
