// ABOUTME: Pluggable fallback catalogs keyed by endpoint pattern.
// ABOUTME: Lets the agent attempt calls to providers whose own discovery failed.

package provider

import (
	"strings"
	"sync"
)

// FallbackCatalog maps endpoint substrings to static tool catalogs.
// New provider families are registered additively; nothing is inlined
// at the call sites that consult it.
type FallbackCatalog struct {
	mu      sync.RWMutex
	entries []fallbackEntry
}

type fallbackEntry struct {
	pattern string
	tools   []ToolDescriptor
}

// NewFallbackCatalog creates an empty catalog registry.
func NewFallbackCatalog() *FallbackCatalog {
	return &FallbackCatalog{}
}

// Register adds a catalog for endpoints containing pattern. Later
// registrations with the same pattern replace earlier ones.
func (f *FallbackCatalog) Register(pattern string, tools []ToolDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.pattern == pattern {
			f.entries[i].tools = tools
			return
		}
	}
	f.entries = append(f.entries, fallbackEntry{pattern: pattern, tools: tools})
}

// Lookup returns the catalog for the first registered pattern contained
// in the endpoint, or nil when no family matches.
func (f *FallbackCatalog) Lookup(endpoint string) []ToolDescriptor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.entries {
		if strings.Contains(endpoint, e.pattern) {
			out := make([]ToolDescriptor, len(e.tools))
			copy(out, e.tools)
			return out
		}
	}
	return nil
}

// DefaultFallbacks returns the built-in catalogs for the workflow
// provider families the original deployment shipped with.
func DefaultFallbacks() *FallbackCatalog {
	f := NewFallbackCatalog()
	f.Register("pipedream", []ToolDescriptor{
		{
			Name:        "gmail-send-email",
			Description: "Send an email through the connected Gmail account",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"instruction": {Type: "string", Description: "What to send and to whom"},
					"to":          {Type: "string", Description: "Recipient address"},
					"subject":     {Type: "string", Description: "Message subject"},
					"body":        {Type: "string", Description: "Message body"},
				},
				Required: []string{"instruction"},
			},
		},
		{
			Name:        "google_drive-list-files",
			Description: "List files and folders in Google Drive",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"instruction": {Type: "string", Description: "What files to list"},
					"folder_id":   {Type: "string", Description: "Folder to list, defaults to root"},
				},
				Required: []string{"instruction"},
			},
		},
	})
	return f
}
