package events

import "github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"

const (
	KindMessage             Kind = "message"
	KindToolResult          Kind = "tool_result"
	KindDrawCommands        Kind = "draw_commands"
	KindUnderstandingUpdate Kind = "understanding_update"
	KindDone                Kind = "done"
	KindError               Kind = "error"
)

// Message carries assistant text produced by a node.
type Message struct {
	Base
	Node    string
	Content string
	// Delta marks a streamed segment rather than the complete message.
	Delta bool
}

func NewMessage(node, content string) Message {
	return Message{Base: NewBase(KindMessage), Node: node, Content: content}
}

func NewMessageDelta(node, segment string) Message {
	return Message{Base: NewBase(KindMessage), Node: node, Content: segment, Delta: true}
}

// ToolResult reports the outcome of a single tool invocation.
type ToolResult struct {
	Base
	Node    string
	CallID  string
	Name    string
	Success bool
	Error   string
}

func NewToolResult(node, callID, name string, success bool, err string) ToolResult {
	return ToolResult{Base: NewBase(KindToolResult), Node: node, CallID: callID, Name: name, Success: success, Error: err}
}

type DrawCommands struct {
	Base
	Node     string
	Commands []conversations.DrawCommand
}

func NewDrawCommands(node string, commands []conversations.DrawCommand) DrawCommands {
	return DrawCommands{Base: NewBase(KindDrawCommands), Node: node, Commands: commands}
}

type UnderstandingUpdate struct {
	Base
	Node  string
	Level conversations.UnderstandingLevel
}

func NewUnderstandingUpdate(node string, level conversations.UnderstandingLevel) UnderstandingUpdate {
	return UnderstandingUpdate{Base: NewBase(KindUnderstandingUpdate), Node: node, Level: level}
}

// Done terminates a successful stream.
type Done struct {
	Base
	SessionID string
	TurnID    string
}

func NewDone(sessionID, turnID string) Done {
	return Done{Base: NewBase(KindDone), SessionID: sessionID, TurnID: turnID}
}

// Error terminates a failed stream.
type Error struct {
	Base
	Message string
}

func NewError(message string) Error {
	return Error{Base: NewBase(KindError), Message: message}
}

// IsTerminal reports whether no further events follow e in its stream.
func IsTerminal(e Event) bool {
	switch e.Kind() {
	case KindDone, KindError:
		return true
	default:
		return false
	}
}
