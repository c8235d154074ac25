package orchestration

import (
	"context"
	"fmt"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/events"
)

// EventSink delivers events to a connected client. A Send error is treated
// as a disconnect.
type EventSink interface {
	Send(ctx context.Context, event events.Event) error
}

type EventSinkFunc func(ctx context.Context, event events.Event) error

func (f EventSinkFunc) Send(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

type eventStreamer struct {
	sink EventSink
}

func newEventStreamer(sink EventSink) *eventStreamer {
	return &eventStreamer{sink: sink}
}

// stream forwards deltas as events until the turn ends, then emits the
// terminal event. When the client goes away it stops emitting and leaves the
// turn to finish on its own.
func (s *eventStreamer) stream(ctx context.Context, deltas *deltaQueue, results <-chan turnOutcome) error {
	for {
		delta, ok, err := deltas.pop(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
		}
		if !ok {
			break
		}
		for _, event := range eventsFor(delta) {
			if err := s.emit(ctx, event); err != nil {
				return err
			}
		}
	}

	outcome := <-results
	if outcome.err != nil {
		if err := s.emit(ctx, events.NewError(outcome.err.Error())); err != nil {
			return err
		}
		return outcome.err
	}
	return s.emit(ctx, events.NewDone(outcome.result.SessionID, outcome.result.TurnID))
}

func (s *eventStreamer) emit(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	if err := s.sink.Send(ctx, event); err != nil {
		return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	return nil
}

// eventsFor maps a delta to client events in the fixed order message,
// tool_result, draw_commands, understanding_update.
func eventsFor(delta Delta) []events.Event {
	node := string(delta.Node)
	if delta.isSegment() {
		return []events.Event{events.NewMessageDelta(node, delta.Segment)}
	}

	var out []events.Event
	for _, message := range delta.Messages {
		if message.Role == conversations.RoleAssistant && message.Content != "" {
			out = append(out, events.NewMessage(node, message.Content))
		}
	}
	for _, result := range delta.ToolResults {
		out = append(out, events.NewToolResult(node, result.CallID, result.Name, result.Success(), result.Error))
	}
	if len(delta.DrawCommands) > 0 {
		out = append(out, events.NewDrawCommands(node, delta.DrawCommands))
	}
	if delta.UnderstandingLevel != nil {
		out = append(out, events.NewUnderstandingUpdate(node, *delta.UnderstandingLevel))
	}
	return out
}
