// ABOUTME: Tests for the end-to-end message flow with a scripted model client.
// ABOUTME: Intent gating, confirmation round-trips, validated tool dispatch.

package orchestrator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatconnect/toolgate/internal/confirm"
	"github.com/chatconnect/toolgate/internal/intent"
	"github.com/chatconnect/toolgate/internal/model"
	"github.com/chatconnect/toolgate/internal/provider"
	"github.com/chatconnect/toolgate/internal/registry"
	"github.com/chatconnect/toolgate/internal/transport"
)

// scriptedModel returns canned replies in order, then empty text.
type scriptedModel struct {
	replies []*model.Reply
	calls   int
}

func (s *scriptedModel) Complete(ctx context.Context, systemPrompt string, history []model.Message, catalog []model.CatalogEntry) (*model.Reply, error) {
	if s.calls < len(s.replies) {
		reply := s.replies[s.calls]
		s.calls++
		return reply, nil
	}
	s.calls++
	return &model.Reply{Text: ""}, nil
}

// calcBackend is a mock provider that counts how many tools/call
// requests actually hit the wire.
type calcBackend struct {
	*httptest.Server
	toolCalls atomic.Int32
}

func calcServer(t *testing.T) *calcBackend {
	t.Helper()
	backend := &calcBackend{}
	backend.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"tools/call"`) {
			backend.toolCalls.Add(1)
			w.Write([]byte(`{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"5"}]}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"tools":[
			{"name":"calc_add","description":"add two numbers","parameters":{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}}
		]}}`))
	}))
	t.Cleanup(backend.Close)
	return backend
}

func newOrchestrator(t *testing.T, mc model.Client) (*Orchestrator, *calcBackend) {
	t.Helper()
	reg := registry.New(transport.Timeouts{}, nil, nil, nil, nil)
	backend := calcServer(t)
	ok := reg.Connect(context.Background(), provider.Config{
		ConnectionID: "calc",
		DisplayName:  "Calculator",
		Kind:         transport.KindHTTP,
		Endpoint:     backend.URL,
	})
	require.True(t, ok)

	return New(reg, confirm.NewManager(0, nil), intent.NewMatcher(), mc, nil), backend
}

func TestHandleMessage_PlainTextAnswer(t *testing.T) {
	mc := &scriptedModel{replies: []*model.Reply{{Text: "just an answer"}}}
	o, _ := newOrchestrator(t, mc)

	reply, err := o.HandleMessage(context.Background(), 1, 5, "what is the capital of France")
	require.NoError(t, err)
	assert.Equal(t, "just an answer", reply)
}

func TestHandleMessage_ToolCallFlow(t *testing.T) {
	mc := &scriptedModel{replies: []*model.Reply{
		{Calls: []model.RequestedCall{{Name: "calc_add", Arguments: map[string]any{"a": 2.0, "b": 3.0}}}},
		{Text: "the sum is 5"},
	}}
	o, backend := newOrchestrator(t, mc)

	reply, err := o.HandleMessage(context.Background(), 1, 5, "add 2 and 3 please")
	require.NoError(t, err)
	assert.Equal(t, "the sum is 5", reply)
	assert.Equal(t, int32(1), backend.toolCalls.Load())
}

func TestHandleMessage_ValidationShortCircuits(t *testing.T) {
	mc := &scriptedModel{replies: []*model.Reply{
		{Calls: []model.RequestedCall{{Name: "calc_add", Arguments: map[string]any{"a": 2.0}}}},
	}}
	o, backend := newOrchestrator(t, mc)

	reply, err := o.HandleMessage(context.Background(), 1, 5, "add 2 and something")
	require.NoError(t, err)
	assert.Contains(t, reply, "missing required parameter")
	assert.Contains(t, reply, "b")

	// The failed validation short-circuits before dispatch: the provider
	// never sees a tools/call.
	assert.Equal(t, int32(0), backend.toolCalls.Load())
}

func TestHandleMessage_IntentGatesBehindConfirmation(t *testing.T) {
	mc := &scriptedModel{}
	o, _ := newOrchestrator(t, mc)

	// The calc connection has no auth hint, so its class is "calc";
	// email intent finds nothing available and returns the setup guide.
	reply, err := o.HandleMessage(context.Background(), 1, 5, "send an email to alice")
	require.NoError(t, err)
	assert.Contains(t, reply, "Setup Required")
	assert.Zero(t, mc.calls)
}

func TestHandleMessage_ConfirmationRoundTrip(t *testing.T) {
	mc := &scriptedModel{replies: []*model.Reply{{Text: "email drafted"}}}
	reg := registry.New(transport.Timeouts{}, nil, nil, nil, nil)
	server := calcServer(t)
	require.True(t, reg.Connect(context.Background(), provider.Config{
		ConnectionID: "gmail-conn",
		DisplayName:  "Gmail",
		Kind:         transport.KindHTTP,
		Endpoint:     server.URL,
		AuthHint:     "gmail",
	}))
	o := New(reg, confirm.NewManager(0, nil), intent.NewMatcher(), mc, nil)

	ask, err := o.HandleMessage(context.Background(), 1, 5, "send an email to alice")
	require.NoError(t, err)
	require.Contains(t, ask, "Action Confirmation Required")

	id := extractConfirmationID(t, ask)
	reply, err := o.HandleMessage(context.Background(), 1, 5, "confirm "+id)
	require.NoError(t, err)
	assert.Contains(t, reply, "Executing Action")
	assert.Contains(t, reply, "email drafted")

	// The entry is consumed: a second confirm misses.
	again, err := o.HandleMessage(context.Background(), 1, 5, "confirm "+id)
	require.NoError(t, err)
	assert.Contains(t, again, "expired or was already handled")
}

func TestHandleMessage_CancelFlow(t *testing.T) {
	mc := &scriptedModel{}
	reg := registry.New(transport.Timeouts{}, nil, nil, nil, nil)
	server := calcServer(t)
	require.True(t, reg.Connect(context.Background(), provider.Config{
		ConnectionID: "gmail-conn",
		DisplayName:  "Gmail",
		Kind:         transport.KindHTTP,
		Endpoint:     server.URL,
		AuthHint:     "gmail",
	}))
	o := New(reg, confirm.NewManager(0, nil), intent.NewMatcher(), mc, nil)

	ask, err := o.HandleMessage(context.Background(), 1, 5, "send an email to alice")
	require.NoError(t, err)
	id := extractConfirmationID(t, ask)

	reply, err := o.HandleMessage(context.Background(), 1, 5, "cancel "+id)
	require.NoError(t, err)
	assert.Contains(t, reply, "Action Cancelled")
	assert.Zero(t, mc.calls)
}

func TestListAvailableTools_Filter(t *testing.T) {
	o, _ := newOrchestrator(t, &scriptedModel{})

	all := o.ListAvailableTools("")
	require.Len(t, all, 1)

	none := o.ListAvailableTools("gmail")
	assert.Empty(t, none)

	some := o.ListAvailableTools("CALC")
	assert.Len(t, some, 1)
}

func TestCallTool_DirectSurface(t *testing.T) {
	o, _ := newOrchestrator(t, &scriptedModel{})

	result := o.CallTool(context.Background(), "calc_add", map[string]any{"a": 2.0, "b": 3.0}, 0)
	require.True(t, result.Success())
}

// extractConfirmationID pulls the uuid out of a confirmation request
// message's "confirm <id>" line.
func extractConfirmationID(t *testing.T, message string) string {
	t.Helper()
	for _, line := range strings.Split(message, "\n") {
		if idx := strings.Index(line, "`confirm "); idx >= 0 {
			rest := line[idx+len("`confirm "):]
			if end := strings.Index(rest, "`"); end > 0 {
				return rest[:end]
			}
		}
	}
	t.Fatal("no confirmation id in message")
	return ""
}
