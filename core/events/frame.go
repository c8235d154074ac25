package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

// frame is the wire shape of every event. Only the fields of the event's
// kind are populated.
type frame struct {
	Type      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Node      string    `json:"node,omitempty"`

	Content string `json:"content,omitempty"`
	Delta   bool   `json:"delta,omitempty"`

	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	Commands []conversations.DrawCommand      `json:"commands,omitempty"`
	Level    conversations.UnderstandingLevel `json:"level,omitempty"`

	SessionID string `json:"session_id,omitempty"`
	TurnID    string `json:"turn_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Encode renders an event as a single-line JSON object.
func Encode(e Event) ([]byte, error) {
	f := frame{Type: e.Kind(), Timestamp: e.Timestamp()}

	switch e := e.(type) {
	case Message:
		f.Node, f.Content, f.Delta = e.Node, e.Content, e.Delta
	case ToolResult:
		success := e.Success
		f.Node, f.CallID, f.Name, f.Success, f.Error = e.Node, e.CallID, e.Name, &success, e.Error
	case DrawCommands:
		f.Node, f.Commands = e.Node, e.Commands
	case UnderstandingUpdate:
		f.Node, f.Level = e.Node, e.Level
	case Done:
		f.SessionID, f.TurnID = e.SessionID, e.TurnID
	case Error:
		f.Message = e.Message
	default:
		return nil, fmt.Errorf("unsupported event kind %q", e.Kind())
	}

	return json.Marshal(f)
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode event frame: %w", err)
	}

	base := newBaseAt(f.Type, f.Timestamp)
	switch f.Type {
	case KindMessage:
		return Message{Base: base, Node: f.Node, Content: f.Content, Delta: f.Delta}, nil
	case KindToolResult:
		return ToolResult{Base: base, Node: f.Node, CallID: f.CallID, Name: f.Name, Success: f.Success != nil && *f.Success, Error: f.Error}, nil
	case KindDrawCommands:
		return DrawCommands{Base: base, Node: f.Node, Commands: f.Commands}, nil
	case KindUnderstandingUpdate:
		return UnderstandingUpdate{Base: base, Node: f.Node, Level: f.Level}, nil
	case KindDone:
		return Done{Base: base, SessionID: f.SessionID, TurnID: f.TurnID}, nil
	case KindError:
		return Error{Base: base, Message: f.Message}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", f.Type)
	}
}
