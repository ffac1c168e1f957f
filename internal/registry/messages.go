// ABOUTME: Deterministic user-facing message rendering for tool call outcomes.
// ABOUTME: Each CallResult arm maps to exactly one chat message shape.

package registry

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/chatconnect/toolgate/internal/provider"
)

const payloadPreviewLimit = 500

// UserFacingMessage renders a CallResult as the chat message shown to
// the user. The mapping is total and deterministic: same result, same
// message.
func UserFacingMessage(toolName string, result *provider.CallResult) string {
	switch {
	case result.AuthRequired():
		return fmt.Sprintf("🔐 %s needs your authorization.\n\nOpen this link to connect your account, then ask me again:\n%s",
			toolName, result.AuthorizationURL)
	case result.Err != nil:
		msg := fmt.Sprintf("❌ %s failed: %s", toolName, result.Err.Message)
		if result.Err.Suggestion != "" {
			msg += fmt.Sprintf("\n\n💡 %s", result.Err.Suggestion)
		}
		return msg
	default:
		preview := payloadPreview(result.Payload)
		if preview == "" {
			return fmt.Sprintf("✅ %s completed successfully.", toolName)
		}
		return fmt.Sprintf("✅ %s completed successfully.\n\n%s", toolName, preview)
	}
}

// payloadPreview extracts the human-readable part of a success payload:
// the first content block's text when the provider sent one, otherwise
// the raw JSON, truncated either way.
func payloadPreview(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(payload, &result); err == nil && len(result.Content) > 0 && result.Content[0].Text != "" {
		return truncate(result.Content[0].Text, payloadPreviewLimit)
	}
	return truncate(string(payload), payloadPreviewLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
