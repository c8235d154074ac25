package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "message", event: NewMessage("generate", "text"), expected: KindMessage},
		{name: "message delta", event: NewMessageDelta("generate", "te"), expected: KindMessage},
		{name: "tool result", event: NewToolResult("dispatch", "call_1", "draw", true, ""), expected: KindToolResult},
		{name: "draw commands", event: NewDrawCommands("dispatch", nil), expected: KindDrawCommands},
		{name: "understanding update", event: NewUnderstandingUpdate("assess", conversations.UnderstandingMastered), expected: KindUnderstandingUpdate},
		{name: "done", event: NewDone("s", "t"), expected: KindDone},
		{name: "error", event: NewError("boom"), expected: KindError},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestOnlyDoneAndErrorAreTerminal(t *testing.T) {
	if !IsTerminal(NewDone("s", "t")) || !IsTerminal(NewError("x")) {
		t.Fatalf("expected done and error to be terminal")
	}
	if IsTerminal(NewMessage("generate", "hi")) {
		t.Fatalf("expected message not to be terminal")
	}
}

func TestEncodeUsesTypeDiscriminatorAndKindFields(t *testing.T) {
	encoded, err := Encode(NewDrawCommands("dispatch", []conversations.DrawCommand{{"type": "addState", "label": "q0"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(encoded), "\n") {
		t.Fatalf("expected a single-line frame, got %s", encoded)
	}

	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if fields["type"] != "draw_commands" {
		t.Fatalf("unexpected type %v", fields["type"])
	}
	if _, ok := fields["commands"]; !ok {
		t.Fatalf("expected commands field in %s", encoded)
	}
	if _, ok := fields["content"]; ok {
		t.Fatalf("expected no content field in %s", encoded)
	}
}

func TestDecodeRestoresEncodedEvents(t *testing.T) {
	original := NewToolResult("dispatch", "call_1", "draw_common_dfa", false, "unknown tool: draw_common_dfa")
	encoded, err := Encode(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := decoded.(ToolResult)
	if !ok {
		t.Fatalf("expected ToolResult, got %T", decoded)
	}
	if result.Success || result.Error != original.Error || result.CallID != "call_1" {
		t.Fatalf("unexpected decoded event %+v", result)
	}
	if !result.Timestamp().Equal(original.Timestamp()) {
		t.Fatalf("expected timestamp to survive encoding")
	}

	if _, err := Decode([]byte(`{"type":"teleport"}`)); err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
}
