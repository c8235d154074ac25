package llms

import (
	"encoding/json"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

// Request carries everything a response generator needs to produce the next
// assistant message of a tutoring turn.
type Request struct {
	History            []conversations.Message
	Topic              string
	UnderstandingLevel conversations.UnderstandingLevel
	Attempts           int
	ProblemContext     string
	// CanvasState is a read-only snapshot of the learner's canvas.
	CanvasState map[string]any
	Tools       []ToolDefinition
}

// ToolDefinition describes a tool the generator may request. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Response is a single assistant message produced by a generator.
type Response struct {
	Content   string
	ToolCalls []conversations.ToolCall
	Usage     *Usage
}
