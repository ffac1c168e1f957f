// ABOUTME: Post-call verification heuristics: did the provider actually do the thing?
// ABOUTME: Category-specific evidence checks with an optimistic default.

package verify

import (
	"encoding/json"
	"strings"

	"github.com/chatconnect/toolgate/internal/provider"
)

// Status is the verification verdict for one executed call.
type Status string

const (
	// StatusVerified means the payload carried positive evidence of the
	// side effect (an id, an explicit success flag).
	StatusVerified Status = "verified"

	// StatusAssumed means no category heuristic applied and the call is
	// assumed to have worked because it did not fail.
	StatusAssumed Status = "assumed"

	// StatusFailed means the payload contradicts success.
	StatusFailed Status = "failed"

	// StatusAuthRequired means the payload is an authorization demand
	// dressed up as a result.
	StatusAuthRequired Status = "auth_required"
)

// Outcome is the verdict plus the evidence it rests on.
type Outcome struct {
	Status Status
	Detail string
}

// Execution inspects a call result for evidence that the side effect
// actually happened. Errors and auth demands map directly; success
// payloads go through the heuristic for the tool's category, and tools
// without one are assumed fine.
func Execution(toolName string, result *provider.CallResult) Outcome {
	if result.AuthRequired() {
		return Outcome{Status: StatusAuthRequired, Detail: "provider returned an authorization URL"}
	}
	if result.Err != nil {
		return Outcome{Status: StatusFailed, Detail: result.Err.Message}
	}

	text := payloadText(result.Payload)
	lowerName := strings.ToLower(toolName)

	switch {
	case strings.Contains(lowerName, "send-email") || strings.Contains(lowerName, "gmail"):
		return verifyEmailSent(text)
	default:
		return verifyGeneric(text)
	}
}

// verifyEmailSent looks for the evidence a mail API leaves behind: a
// message id in the response. An OAuth shape or an explicit error text
// overrides optimism.
func verifyEmailSent(text string) Outcome {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "oauth") && strings.Contains(lower, "url"):
		return Outcome{Status: StatusAuthRequired, Detail: "response asks for account authorization"}
	case strings.Contains(lower, "message_id") || strings.Contains(lower, `"id"`):
		return Outcome{Status: StatusVerified, Detail: "response contains a message id"}
	case strings.Contains(lower, "error"):
		return Outcome{Status: StatusFailed, Detail: "response reports an error"}
	default:
		return Outcome{Status: StatusAssumed, Detail: "no message id found; assuming delivery"}
	}
}

// verifyGeneric honors an explicit success flag when one is present and
// stays optimistic otherwise.
func verifyGeneric(text string) Outcome {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err == nil {
		if success, ok := fields["success"].(bool); ok {
			if success {
				return Outcome{Status: StatusVerified, Detail: "response reports success"}
			}
			return Outcome{Status: StatusFailed, Detail: "response reports success=false"}
		}
	}
	if strings.Contains(strings.ToLower(text), "error") {
		return Outcome{Status: StatusFailed, Detail: "response mentions an error"}
	}
	return Outcome{Status: StatusAssumed, Detail: "no contrary evidence in response"}
}

// payloadText pulls the text the heuristics scan: the first content
// block's text when present, otherwise the raw payload.
func payloadText(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(payload, &result); err == nil && len(result.Content) > 0 && result.Content[0].Text != "" {
		return result.Content[0].Text
	}
	return string(payload)
}
