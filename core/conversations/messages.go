package conversations

// Role identifies who authored a message in the session history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of a tool invocation, linked to the
	// assistant request through ToolCallID.
	RoleTool Role = "tool"
)

// ToolCall is a structured tool invocation request attached to an assistant
// message. Arguments holds the raw JSON object produced by the generator.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single entry of the session history.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are only set on tool result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// NewToolResultMessage creates the history entry answering the tool call with
// the given id.
func NewToolResultMessage(callID, name, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		Name:       name,
		IsError:    isError,
	}
}

func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
