// ABOUTME: Pre-dispatch argument validation against declared tool schemas.
// ABOUTME: Unknown tool, missing required params, primitive type mismatches; nothing deeper.

package validate

import (
	"fmt"

	"github.com/chatconnect/toolgate/internal/provider"
)

// Issue is one validation failure, attributed to a parameter where one
// applies.
type Issue struct {
	Parameter string
	Message   string
}

// Result is the outcome of validating one prospective call.
type Result struct {
	Valid  bool
	Issues []Issue
}

// Check validates a prospective call against the catalog before any
// network traffic happens. An unknown tool produces exactly one issue
// and no further checks.
func Check(catalog []provider.ToolDescriptor, name string, args map[string]any) Result {
	tool, ok := lookup(catalog, name)
	if !ok {
		return Result{Issues: []Issue{{
			Message: fmt.Sprintf("unknown tool %q", name),
		}}}
	}
	return Arguments(tool, args)
}

// Arguments validates args against one tool's declared schema.
func Arguments(tool provider.ToolDescriptor, args map[string]any) Result {
	var issues []Issue

	for _, required := range tool.Parameters.Required {
		if _, present := args[required]; !present {
			issues = append(issues, Issue{
				Parameter: required,
				Message:   fmt.Sprintf("missing required parameter %q", required),
			})
		}
	}

	for param, value := range args {
		prop, declared := tool.Parameters.Properties[param]
		if !declared || prop.Type == "" {
			continue
		}
		if !typeMatches(prop.Type, value) {
			issues = append(issues, Issue{
				Parameter: param,
				Message:   fmt.Sprintf("parameter %q must be of type %s", param, prop.Type),
			})
		}
	}

	return Result{Valid: len(issues) == 0, Issues: issues}
}

// typeMatches checks the primitive JSON types only. Declared types this
// engine does not recognize pass; nested object and array contents are
// the provider's problem.
func typeMatches(declared string, value any) bool {
	if value == nil {
		return true
	}
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer", "number":
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	default:
		return true
	}
}

func lookup(catalog []provider.ToolDescriptor, name string) (provider.ToolDescriptor, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return provider.ToolDescriptor{}, false
}
