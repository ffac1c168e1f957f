// ABOUTME: Canned responses for a detected intent: setup guide or confirmation request.
// ABOUTME: Which one depends solely on whether any required provider class is available.

package intent

import (
	"fmt"
	"strings"
)

// Respond renders the user-facing reply for a match: a setup guide when
// none of the required provider classes are connected, a confirmation
// request when at least one is.
func Respond(m *Match) string {
	if len(m.AvailableProviderClasses) == 0 {
		return setupGuide(m)
	}
	return confirmationRequest(m)
}

func setupGuide(m *Match) string {
	required := strings.Join(m.RequiredProviderClasses, ", ")
	if required == "" {
		required = "None configured"
	}
	return fmt.Sprintf(`🔧 **%s Setup Required**

%s

**To get started:**
1. Go to Settings → Tool Providers
2. Add the required provider(s): %s
3. Configure your credentials
4. Try your request again

**Available providers for this action:**
%s

Would you like me to help you with something else, or would you prefer to set up the providers first?`,
		titleCase(m.Description), m.setupGuide,
		strings.Join(m.RequiredProviderClasses, ", "), required)
}

func confirmationRequest(m *Match) string {
	return fmt.Sprintf(`✅ **%s Available**

%s

**Available providers:** %s

**What I can do:** %s

Please confirm if you'd like me to proceed with this action.`,
		titleCase(m.Description), m.confirmationMessage,
		strings.Join(m.AvailableProviderClasses, ", "), m.Description)
}

// titleCase uppercases the first letter of each space-separated word,
// leaving parenthesized tails alone.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
