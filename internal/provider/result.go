// ABOUTME: Ordered classifiers that turn a decoded JSON-RPC response into a CallResult.
// ABOUTME: Error-shaped beats auth-shaped beats success; first classifier to claim it wins.

package provider

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// classifier inspects a response and either claims it by returning a
// CallResult or returns nil to let the next classifier try.
type classifier func(resp *jsonrpc.Response) *CallResult

// classifiers in interpretation order (explicit error, auth-required,
// provider-reported argument error, success pass-through).
var resultClassifiers = []classifier{
	classifyRPCError,
	classifyAuthRequired,
	classifyArgumentError,
	classifySuccess,
}

// ClassifyResponse maps a decoded response onto the CallResult union.
func ClassifyResponse(resp *jsonrpc.Response) *CallResult {
	for _, classify := range resultClassifiers {
		if result := classify(resp); result != nil {
			return result
		}
	}
	// classifySuccess always claims, but keep a typed floor anyway.
	return ResultError(ErrorParse, "provider response had neither result nor error", "Check the provider's protocol compliance")
}

func classifyRPCError(resp *jsonrpc.Response) *CallResult {
	if resp.Error == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(resp.Error.Message), "oauth") {
		return ResultError(ErrorProvider, resp.Error.Message,
			"Authenticate with the provider first, then retry")
	}
	return ResultError(ErrorProvider, resp.Error.Message,
		"The provider rejected the call; check the arguments and try again")
}

// classifyAuthRequired recognizes authorization-URL-shaped results.
// Providers spell the field several ways.
func classifyAuthRequired(resp *jsonrpc.Response) *CallResult {
	if resp.Result == nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Result, &fields); err != nil {
		return nil
	}
	for _, key := range []string{"oauth_url", "auth_url", "authorization_url"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var url string
		if err := json.Unmarshal(raw, &url); err == nil && url != "" {
			return ResultAuthRequired(url)
		}
	}
	return nil
}

// classifyArgumentError digs into result.content[0].text for the
// argument-parsing failures some workflow hosts report inside an
// otherwise successful envelope.
func classifyArgumentError(resp *jsonrpc.Response) *CallResult {
	if resp.Result == nil {
		return nil
	}
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || len(result.Content) == 0 {
		return nil
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Error parsing arguments") {
		return nil
	}
	message := "The tool requires specific parameters that weren't provided"
	suggestion := "Try rephrasing the request with more specific details"
	if strings.Contains(text, "instruction") && strings.Contains(text, "Required") {
		message = "The tool needs a more specific instruction about what to do"
		suggestion = "Describe the action concretely, e.g. 'list all files in the root folder' instead of 'list files'"
	}
	return ResultError(ErrorValidation, message, suggestion)
}

func classifySuccess(resp *jsonrpc.Response) *CallResult {
	if resp.Result == nil || !utf8.Valid(resp.Result) {
		return nil
	}
	return ResultSuccess(resp.Result)
}
