package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

func newTestDispatcher(t *testing.T, capabilities ...Capability) *Dispatcher {
	t.Helper()
	registry, err := NewRegistry(capabilities...)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return NewDispatcher(registry)
}

func TestExecuteUnknownToolFails(t *testing.T) {
	dispatcher := newTestDispatcher(t, echoCapability())

	result := dispatcher.Execute(context.Background(), conversations.ToolCall{ID: "call_1", Name: "teleport", Arguments: "{}"})

	if result.Success() {
		t.Fatalf("expected failure for unknown tool")
	}
	if result.Error != "unknown tool: teleport" {
		t.Fatalf("unexpected error %q", result.Error)
	}

	message := result.Message()
	if message.Role != conversations.RoleTool || message.ToolCallID != "call_1" || !message.IsError {
		t.Fatalf("unexpected tool result message %+v", message)
	}
	if !strings.Contains(message.Content, "teleport") {
		t.Fatalf("expected message to name the tool, got %q", message.Content)
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	dispatcher := newTestDispatcher(t, echoCapability())

	testCases := []struct {
		name      string
		arguments string
		field     string
	}{
		{name: "missing required field", arguments: `{}`, field: "text"},
		{name: "empty arguments", arguments: ``, field: "text"},
		{name: "wrong type", arguments: `{"text":3}`, field: "text"},
		{name: "unexpected field", arguments: `{"text":"a","loud":true}`, field: "loud"},
		{name: "not json", arguments: `{"text":`, field: "JSON"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := dispatcher.Execute(context.Background(), conversations.ToolCall{ID: "1", Name: "echo", Arguments: testCase.arguments})
			if result.Success() {
				t.Fatalf("expected validation failure")
			}
			if !strings.Contains(result.Error, testCase.field) {
				t.Fatalf("expected error to mention %q, got %q", testCase.field, result.Error)
			}
		})
	}
}

func TestExecuteConvertsHandlerErrorsAndPanics(t *testing.T) {
	failing := Capability{Name: "failing", Handler: func(context.Context, json.RawMessage) (Output, error) {
		return Output{}, errors.New("canvas unavailable")
	}}
	panicking := Capability{Name: "panicking", Handler: func(context.Context, json.RawMessage) (Output, error) {
		panic("boom")
	}}
	dispatcher := newTestDispatcher(t, failing, panicking)

	result := dispatcher.Execute(context.Background(), conversations.ToolCall{Name: "failing"})
	if result.Success() || !strings.Contains(result.Error, "canvas unavailable") {
		t.Fatalf("expected handler error in failure, got %+v", result)
	}

	result = dispatcher.Execute(context.Background(), conversations.ToolCall{Name: "panicking"})
	if result.Success() || !strings.Contains(result.Error, "panicked") {
		t.Fatalf("expected panic to become a failure, got %+v", result)
	}
}

func TestExecuteSuccessCarriesPayloadAndDrawCommands(t *testing.T) {
	drawing := NewCapability("draw", "Draw a state", func(_ context.Context, args echoArguments) (Output, error) {
		return Output{
			Payload:      map[string]any{"success": true},
			DrawCommands: []conversations.DrawCommand{{"type": "addState", "label": args.Text}},
		}, nil
	})
	dispatcher := newTestDispatcher(t, drawing)

	result := dispatcher.Execute(context.Background(), conversations.ToolCall{ID: "call_9", Name: "draw", Arguments: `{"text":"q0"}`})
	if !result.Success() {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if string(result.Payload) != `{"success":true}` {
		t.Fatalf("unexpected payload %s", result.Payload)
	}
	if len(result.DrawCommands) != 1 || result.DrawCommands[0]["label"] != "q0" {
		t.Fatalf("unexpected draw commands %+v", result.DrawCommands)
	}

	message := result.Message()
	if message.IsError || message.Content != `{"success":true}` || message.Name != "draw" {
		t.Fatalf("unexpected message %+v", message)
	}
}

func TestNilRegistryTreatsEveryToolAsUnknown(t *testing.T) {
	result := NewDispatcher(nil).Execute(context.Background(), conversations.ToolCall{Name: "anything"})
	if result.Success() || result.Error != "unknown tool: anything" {
		t.Fatalf("unexpected result %+v", result)
	}
}
