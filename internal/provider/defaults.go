// ABOUTME: Per-provider-class call defaults: workflow-class detection and argument backfill.
// ABOUTME: Workflow hosts reject calls missing an "instruction", so one is supplied when absent.

package provider

import "strings"

// workflowPrefixes mark tool families served by multi-step remote
// workflows, which get the long timeout tier and a pre-flight health gate.
var workflowPrefixes = []string{"mcp_", "gmail", "google_drive", "drive"}

// IsWorkflowTool reports whether the named tool belongs to a
// workflow-class provider family.
func IsWorkflowTool(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range workflowPrefixes {
		if strings.HasPrefix(lower, p) || strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// instructionDefaults backfills the free-text "instruction" argument for
// tool families whose hosts require it even when the schema marks it
// optional.
var instructionDefaults = map[string]string{
	"google_drive-list-files":            "List all files in the root directory",
	"google_drive-find-file":             "Find files by name or type",
	"google_drive-find-folder":           "Find folders by name",
	"google_drive-search-shared-drives":  "List all shared drives",
	"google_drive-list-access-proposals": "List pending access proposals",
	"gmail-send-email":                   "Send an email with the specified content",
	"mcp_Gmail_gmail-send-email":         "Send an email with the specified content",
	"youtube-search":                     "Search for videos or get video information",
	"youtube-get-video-info":             "Search for videos or get video information",
}

// withDefaultArguments returns args with class defaults applied. The
// input map is never mutated.
func withDefaultArguments(name string, args map[string]any) map[string]any {
	def, ok := instructionDefaults[name]
	if !ok {
		return args
	}
	if _, present := args["instruction"]; present {
		return args
	}
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out["instruction"] = def
	return out
}
