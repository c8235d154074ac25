package orchestration

import (
	"context"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/assessment"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
	"golang.org/x/sync/semaphore"
)

type OrchestratorOption func(*Orchestrator)

// ConversationStore persists session state between turns. Load returns
// stores.ErrNotFound for sessions that were never saved.
type ConversationStore interface {
	Load(ctx context.Context, sessionID string) (conversations.State, error)
	Save(ctx context.Context, sessionID string, state conversations.State) error
}

// SessionDeleter is implemented by stores that can forget a session.
type SessionDeleter interface {
	Delete(ctx context.Context, sessionID string) error
}

// Generator produces the next assistant message in one call.
type Generator interface {
	Generate(ctx context.Context, request llms.Request) (*llms.Response, error)
}

// StreamingGenerator produces the next assistant message as a stream of
// chunks, which are forwarded to the client as they arrive.
type StreamingGenerator interface {
	GenerateStream(ctx context.Context, request llms.Request) llms.Stream
}

// WithGenerator sets the response generator. Clients that can also stream
// are used in streaming mode.
func WithGenerator(client Generator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.generator.client = client
		if streaming, ok := client.(StreamingGenerator); ok {
			o.generator.streaming = streaming
		}
	}
}

func WithStreamingGenerator(client StreamingGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.generator.streaming = client
	}
}

func WithStore(store ConversationStore) OrchestratorOption {
	return func(o *Orchestrator) {
		if store != nil {
			o.store = store
		}
	}
}

// WithTools sets the capabilities offered to the generator.
func WithTools(registry *tools.Registry) OrchestratorOption {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

func WithAssessor(assessor assessment.Assessor) OrchestratorOption {
	return func(o *Orchestrator) {
		if assessor != nil {
			o.assessor = assessor
		}
	}
}

// WithDefaultTopic sets the topic of sessions whose first turn names none.
func WithDefaultTopic(topic string) OrchestratorOption {
	return func(o *Orchestrator) {
		if topic != "" {
			o.defaultTopic = topic
		}
	}
}

// WithTurnTimeout bounds a whole turn, including generator and tool calls.
// Zero disables the bound.
func WithTurnTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.turnTimeout = timeout
	}
}

// WithMaxConcurrentTurns caps turns running at once across all sessions.
// Zero means unlimited.
func WithMaxConcurrentTurns(limit int64) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.limiter = semaphore.NewWeighted(limit)
		} else {
			o.limiter = nil
		}
	}
}

// WithRejectConcurrentTurns makes a second turn for a busy session fail with
// ErrSessionBusy instead of waiting for the first one.
func WithRejectConcurrentTurns(reject bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.rejectConcurrent = reject
	}
}

// WithEventBuffer sets the initial capacity of the per-turn delta queue. The
// queue grows past it, a slow client never makes the turn wait.
func WithEventBuffer(size int) OrchestratorOption {
	return func(o *Orchestrator) {
		if size >= 0 {
			o.eventBuffer = size
		}
	}
}
