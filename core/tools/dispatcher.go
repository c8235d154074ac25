package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Result is the outcome of a single tool invocation. Exactly one of Payload
// or Error is meaningful, depending on Success.
type Result struct {
	CallID       string
	Name         string
	Payload      json.RawMessage
	DrawCommands []conversations.DrawCommand
	Error        string
}

func Success(call conversations.ToolCall, payload json.RawMessage, drawCommands []conversations.DrawCommand) Result {
	return Result{CallID: call.ID, Name: call.Name, Payload: payload, DrawCommands: drawCommands}
}

func Failure(call conversations.ToolCall, format string, args ...any) Result {
	return Result{CallID: call.ID, Name: call.Name, Error: fmt.Sprintf(format, args...)}
}

func (r Result) Success() bool {
	return r.Error == ""
}

// Message returns the tool result history entry answering the call.
func (r Result) Message() conversations.Message {
	if r.Success() {
		return conversations.NewToolResultMessage(r.CallID, r.Name, string(r.Payload), false)
	}

	content, err := json.Marshal(map[string]any{"success": false, "error": r.Error})
	if err != nil {
		content = []byte(r.Error)
	}
	return conversations.NewToolResultMessage(r.CallID, r.Name, string(content), true)
}

// Dispatcher resolves tool calls against a registry. It keeps no state
// between calls and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Execute runs a single tool call. Every failure, including a panicking
// handler, is reported as a failed Result rather than an error.
func (d *Dispatcher) Execute(ctx context.Context, call conversations.ToolCall) Result {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)

	result := d.execute(ctx, call)
	span.SetAttributes(attribute.Bool("tool.success", result.Success()))
	if !result.Success() {
		span.SetStatus(codes.Error, result.Error)
		logger.Debug("tool call failed", "tool", call.Name, "call_id", call.ID, "error", result.Error)
	}
	return result
}

func (d *Dispatcher) execute(ctx context.Context, call conversations.ToolCall) Result {
	capability, ok := d.registry.Lookup(call.Name)
	if !ok {
		return Failure(call, "unknown tool: %s", call.Name)
	}

	arguments := json.RawMessage(strings.TrimSpace(call.Arguments))
	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}
	if !json.Valid(arguments) {
		return Failure(call, "invalid arguments for %s: not a valid JSON document", call.Name)
	}
	if err := d.registry.validate(call.Name, arguments); err != nil {
		return Failure(call, "invalid arguments for %s: %v", call.Name, err)
	}

	output, err := invoke(ctx, capability.Handler, arguments)
	if err != nil {
		return Failure(call, "%s failed: %v", call.Name, err)
	}

	payload, err := json.Marshal(output.Payload)
	if err != nil {
		return Failure(call, "%s returned an unencodable result: %v", call.Name, err)
	}
	return Success(call, payload, output.DrawCommands)
}

func invoke(ctx context.Context, handler Handler, arguments json.RawMessage) (output Output, err error) {
	recovered := panics.Try(func() {
		output, err = handler(ctx, arguments)
	})
	if recovered != nil {
		return Output{}, fmt.Errorf("handler panicked: %v", recovered.Value)
	}
	return output, err
}
