// ABOUTME: Pure message formatters for the four confirmation moments.
// ABOUTME: Requested, executing, cancelled, expired; deterministic given the entry.

package confirm

import (
	"fmt"
	"strings"
)

const messagePreviewLimit = 100

// RequestMessage asks the user to approve or reject the detected action.
func RequestMessage(c *Confirmation) string {
	preview := c.OriginalMessage
	if len(preview) > messagePreviewLimit {
		preview = preview[:messagePreviewLimit] + "..."
	}
	return fmt.Sprintf(`🔐 **Action Confirmation Required**

**Action:** %s
**Message:** %q
**Providers:** %s

**Confirmation ID:** `+"`%s`"+`

**To proceed, please respond with:**
- `+"`confirm %s`"+` - to execute the action
- `+"`cancel %s`"+` - to cancel the action

**⏰ This confirmation expires in 5 minutes.**`,
		intentTitle(c.IntentType), preview, strings.Join(c.ProviderClasses, ", "),
		c.ID, c.ID, c.ID)
}

// ExecutingMessage announces that the confirmed action is running.
func ExecutingMessage(c *Confirmation) string {
	return fmt.Sprintf(`🚀 **Executing Action**

**Action:** %s
**Providers:** %s

Processing your request... This may take a few moments.`,
		intentTitle(c.IntentType), strings.Join(c.ProviderClasses, ", "))
}

// CancelledMessage acknowledges a cancellation.
func CancelledMessage(c *Confirmation) string {
	return fmt.Sprintf(`❌ **Action Cancelled**

**Action:** %s

The action has been cancelled. You can try again anytime.`, intentTitle(c.IntentType))
}

// ExpiredMessage explains that the window closed.
func ExpiredMessage(c *Confirmation) string {
	return fmt.Sprintf(`⏰ **Confirmation Expired**

**Action:** %s

The confirmation has expired. Please make your request again to get a new confirmation.`,
		intentTitle(c.IntentType))
}

// intentTitle renders "file_operations" as "File Operations".
func intentTitle(intentType string) string {
	words := strings.Split(intentType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
