package orchestration

import (
	"context"
	"fmt"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/assessment"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Node names a step of the turn state machine.
type Node string

const (
	NodeAssess   Node = "assess"
	NodeGenerate Node = "generate"
	NodeDispatch Node = "dispatch"
	NodeFinalize Node = "finalize"

	nodeEnd Node = ""
)

// Delta is the change a node applied to the session state. A node emits
// exactly one completion delta. The generate node may precede it with
// segment deltas carrying only streamed text.
type Delta struct {
	Node Node

	Segment string

	Messages           []conversations.Message
	ToolResults        []tools.Result
	DrawCommands       []conversations.DrawCommand
	UnderstandingLevel *conversations.UnderstandingLevel
	Attempts           *int
}

func (d Delta) isSegment() bool {
	return d.Segment != ""
}

// turn runs the node sequence assess, generate, then dispatch when the
// assistant requested tools, then finalize, mutating state in place.
type turn struct {
	id    string
	state *conversations.State

	generator  generator
	dispatcher *tools.Dispatcher
	tools      []llms.ToolDefinition
	assessor   assessment.Assessor

	emit func(Delta)

	response     string
	drawCommands []conversations.DrawCommand
}

func (t *turn) run(ctx context.Context) error {
	for node := NodeAssess; node != nodeEnd; {
		next, err := t.step(ctx, node)
		if err != nil {
			return fmt.Errorf("%s node failed: %w", node, err)
		}
		node = next
	}
	return nil
}

func (t *turn) step(ctx context.Context, node Node) (Node, error) {
	ctx, span := tracer.Start(ctx, "run "+string(node)+" node")
	defer span.End()
	span.SetAttributes(attribute.String("turn.id", t.id))

	var (
		next  Node
		delta Delta
		err   error
	)
	switch node {
	case NodeAssess:
		next, delta = t.assess()
	case NodeGenerate:
		next, delta, err = t.generate(ctx)
	case NodeDispatch:
		next, delta = t.dispatch(ctx)
	case NodeFinalize:
		next, delta = t.finalize()
	default:
		err = fmt.Errorf("unknown node %q", node)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nodeEnd, err
	}

	delta.Node = node
	t.emit(delta)
	return next, nil
}

func (t *turn) assess() (Node, Delta) {
	message, ok := t.state.LastUserMessage()
	if !ok {
		return NodeGenerate, Delta{}
	}

	level := t.assessor(message.Content)
	t.state.UnderstandingLevel = level
	return NodeGenerate, Delta{UnderstandingLevel: &level}
}

func (t *turn) generate(ctx context.Context) (Node, Delta, error) {
	request := llms.Request{
		History:            t.state.Clone().History,
		Topic:              t.state.Topic,
		UnderstandingLevel: t.state.UnderstandingLevel,
		Attempts:           t.state.Attempts,
		ProblemContext:     t.state.ProblemContext,
		CanvasState:        t.state.CanvasState,
		Tools:              t.tools,
	}

	response, err := t.generator.generate(ctx, request, func(segment string) {
		if segment != "" {
			t.emit(Delta{Node: NodeGenerate, Segment: segment})
		}
	})
	if err != nil {
		return nodeEnd, Delta{}, fmt.Errorf("%w: %w", ErrGeneratorFailed, err)
	}

	toolCalls := make([]conversations.ToolCall, 0, len(response.ToolCalls))
	for _, call := range response.ToolCalls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		toolCalls = append(toolCalls, call)
	}

	message := conversations.NewAssistantMessage(response.Content, toolCalls...)
	t.state.History = append(t.state.History, message)
	t.response = response.Content

	if message.HasToolCalls() {
		return NodeDispatch, Delta{Messages: []conversations.Message{message}}, nil
	}
	return NodeFinalize, Delta{Messages: []conversations.Message{message}}, nil
}

// dispatch runs the requested tools in order. A failing tool still answers
// its call with a tool result message and never aborts the turn.
func (t *turn) dispatch(ctx context.Context) (Node, Delta) {
	last := t.state.History[len(t.state.History)-1]

	delta := Delta{}
	for _, call := range last.ToolCalls {
		result := t.dispatcher.Execute(ctx, call)

		message := result.Message()
		t.state.History = append(t.state.History, message)
		delta.Messages = append(delta.Messages, message)
		delta.ToolResults = append(delta.ToolResults, result)

		if result.Success() {
			t.state.DrawCommands = append(t.state.DrawCommands, result.DrawCommands...)
			t.drawCommands = append(t.drawCommands, result.DrawCommands...)
			delta.DrawCommands = append(delta.DrawCommands, result.DrawCommands...)
		}
	}
	return NodeFinalize, delta
}

func (t *turn) finalize() (Node, Delta) {
	t.state.Attempts++
	attempts := t.state.Attempts
	return nodeEnd, Delta{Attempts: &attempts}
}
