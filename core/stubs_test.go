package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/events"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools/automata"
)

// scriptedGenerator answers every request with the same response after an
// optional delay.
type scriptedGenerator struct {
	response llms.Response
	err      error
	delay    time.Duration
	panics   bool

	mu       sync.Mutex
	requests []llms.Request
}

func (g *scriptedGenerator) Generate(ctx context.Context, request llms.Request) (*llms.Response, error) {
	g.mu.Lock()
	g.requests = append(g.requests, request)
	g.mu.Unlock()

	if g.panics {
		panic("generator exploded")
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	response := g.response
	return &response, nil
}

// blockingGenerator waits for release before answering. When hold is set,
// only requests whose latest message equals hold are held back.
type blockingGenerator struct {
	hold    string
	started chan struct{}
	release chan struct{}
}

func (g blockingGenerator) Generate(ctx context.Context, request llms.Request) (*llms.Response, error) {
	if g.hold != "" {
		if last := request.History[len(request.History)-1]; last.Content != g.hold {
			return &llms.Response{Content: "answered"}, nil
		}
	}

	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
		return &llms.Response{Content: "released"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type streamChunk struct {
	content  string
	toolCall *conversations.ToolCall
}

func (streamChunk) FinishReason() *string { return nil }

type contentChunk struct{ streamChunk }

func (c contentChunk) Content() string { return c.content }

type toolCallChunk struct{ streamChunk }

func (c toolCallChunk) ToolCall() conversations.ToolCall { return *c.toolCall }

type streamingGenerator struct {
	segments  []string
	toolCalls []conversations.ToolCall
	interval  time.Duration
}

type sliceStream struct {
	generator streamingGenerator
}

func (g streamingGenerator) GenerateStream(context.Context, llms.Request) llms.Stream {
	return sliceStream{generator: g}
}

func (s sliceStream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, segment := range s.generator.segments {
			if s.generator.interval > 0 {
				time.Sleep(s.generator.interval)
			}
			if !yield(contentChunk{streamChunk{content: segment}}, nil) {
				return
			}
		}
		for _, call := range s.generator.toolCalls {
			if !yield(toolCallChunk{streamChunk{toolCall: &call}}, nil) {
				return
			}
		}
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	onSend func(events.Event)
}

func (s *recordingSink) Send(_ context.Context, event events.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	onSend := s.onSend
	s.mu.Unlock()

	if onSend != nil {
		onSend(event)
	}
	return nil
}

func (s *recordingSink) kinds() []events.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]events.Kind, 0, len(s.events))
	for _, event := range s.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (s *recordingSink) snapshot() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

// failingStore loads like an empty store and fails every save.
type failingStore struct{}

func (failingStore) Load(context.Context, string) (conversations.State, error) {
	return conversations.NewState(""), nil
}

func (failingStore) Save(context.Context, string, conversations.State) error {
	return errors.New("disk full")
}

func automataRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	catalog, err := automata.DefaultCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	registry, err := tools.NewRegistry(automata.Capabilities(catalog)...)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return registry
}

func toolCall(id, name, arguments string) conversations.ToolCall {
	return conversations.ToolCall{ID: id, Name: name, Arguments: arguments}
}
