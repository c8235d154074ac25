package groq

import (
	"encoding/json"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/jinzhu/copier"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	// Index is only present on streamed fragments.
	Index    *int             `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string             `json:"type"`
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	ToolChoice  *string   `json:"tool_choice,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Role      string     `json:"role,omitempty"`
			Content   string     `json:"content,omitempty"`
			ToolCalls []toolCall `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	XGroq *struct {
		Usage *usage `json:"usage,omitempty"`
	} `json:"x_groq,omitempty"`
}

type usage struct {
	QueueTime               float64 `json:"queue_time"`
	PromptTokens            int     `json:"prompt_tokens"`
	CompletionTokens        int     `json:"completion_tokens"`
	TotalTokens             int     `json:"total_tokens"`
	TotalTime               float64 `json:"total_time"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details,omitempty"`
}

func toMessages(instructions string, history []conversations.Message) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, entry := range history {
		switch entry.Role {
		case conversations.RoleUser:
			messages = append(messages, message{
				Role:    messageRoleUser,
				Content: entry.Content,
			})

		case conversations.RoleAssistant:
			msg := message{Role: messageRoleAssistant, Content: entry.Content}
			for _, call := range entry.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:   call.ID,
					Type: "function",
					Function: toolCallFunction{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			messages = append(messages, msg)

		case conversations.RoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    entry.Content,
				Name:       entry.Name,
				ToolCallID: entry.ToolCallID,
			})
		}
	}
	return messages
}

func toTools(definitions []llms.ToolDefinition) []Tool {
	if len(definitions) == 0 {
		return nil
	}

	tools := make([]Tool, 0, len(definitions))
	for _, definition := range definitions {
		var function functionDefinition
		if err := copier.Copy(&function, &definition); err != nil {
			logger.Warn("skipping tool definition", "tool", definition.Name, "error", err)
			continue
		}
		tools = append(tools, Tool{Type: "function", Function: function})
	}
	return tools
}
