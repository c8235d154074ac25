package orchestration

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/assessment"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/events"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores/memory"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultSessionID   = "default_session"
	DefaultTurnTimeout = 2 * time.Minute
	DefaultEventBuffer = 64
)

var (
	ErrGeneratorNotConfigured = errors.New("response generator not configured")
	ErrGeneratorFailed        = errors.New("response generation failed")
	ErrSessionBusy            = errors.New("session already has a turn in progress")
	ErrClientDisconnected     = errors.New("client disconnected")
	ErrOrchestratorClosed     = errors.New("orchestrator closed")
	ErrResetNotSupported      = errors.New("conversation store cannot delete sessions")

	errEmptyResponse = errors.New("generator returned no response")
)

// TurnRequest is one learner message. Nil optional fields keep the values
// stored with the session.
type TurnRequest struct {
	SessionID      string
	Message        string
	ProblemContext *string
	CanvasState    map[string]any
	Topic          *string
}

func (r TurnRequest) sessionID() string {
	if r.SessionID == "" {
		return DefaultSessionID
	}
	return r.SessionID
}

func (r TurnRequest) apply(state *conversations.State) {
	if r.ProblemContext != nil {
		state.ProblemContext = *r.ProblemContext
	}
	if r.Topic != nil && *r.Topic != "" {
		state.Topic = *r.Topic
	}
	if r.CanvasState != nil {
		state.CanvasState = maps.Clone(r.CanvasState)
	}
}

// TurnResult describes a completed and persisted turn.
type TurnResult struct {
	TurnID    string
	SessionID string
	// Response is the assistant text generated during the turn.
	Response string
	// DrawCommands holds only the commands produced during the turn.
	DrawCommands []conversations.DrawCommand
	State        conversations.State
}

type turnOutcome struct {
	result *TurnResult
	err    error
}

type Orchestrator struct {
	generator    generator
	store        ConversationStore
	registry     *tools.Registry
	dispatcher   *tools.Dispatcher
	assessor     assessment.Assessor
	defaultTopic string

	sessions         *sessionLocks
	rejectConcurrent bool
	limiter          *semaphore.Weighted
	turnTimeout      time.Duration
	eventBuffer      int

	mu       sync.RWMutex
	closed   bool
	inflight conc.WaitGroup
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:        memory.New(),
		assessor:     assessment.Keyword,
		defaultTopic: conversations.DefaultTopic,
		sessions:     newSessionLocks(),
		turnTimeout:  DefaultTurnTimeout,
		eventBuffer:  DefaultEventBuffer,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.dispatcher = tools.NewDispatcher(o.registry)
	return o
}

// Close rejects new turns and waits for running ones, including turns whose
// client has already disconnected, to finish persisting.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.inflight.Wait()
}

func (o *Orchestrator) GeneratorConfigured() bool {
	return o.generator.configured()
}

// Tools returns the names of the capabilities offered to the generator.
func (o *Orchestrator) Tools() []string {
	return o.registry.Names()
}

// RunTurn runs a turn to completion and returns its result. If ctx ends
// first, RunTurn returns early while the turn still completes and persists.
func (o *Orchestrator) RunTurn(ctx context.Context, request TurnRequest) (*TurnResult, error) {
	results, err := o.start(ctx, request, func(Delta) {}, nil)
	if err != nil {
		return nil, err
	}

	select {
	case outcome := <-results:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StreamTurn runs a turn and streams its state deltas to sink as typed
// events, ending with a done or error event. ctx is the client connection,
// its cancellation stops emission but not the turn.
func (o *Orchestrator) StreamTurn(ctx context.Context, request TurnRequest, sink EventSink) error {
	streamer := newEventStreamer(sink)

	deltas := newDeltaQueue(o.eventBuffer)
	results, err := o.start(ctx, request, deltas.push, deltas.close)
	if err != nil {
		if emitErr := streamer.emit(ctx, errorEvent(err)); emitErr != nil {
			return emitErr
		}
		return err
	}

	return streamer.stream(ctx, deltas, results)
}

// Session returns the persisted state of a session, or a fresh state when
// the session has no turns yet.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (conversations.State, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return o.loadState(ctx, sessionID)
}

// ResetSession forgets a session once its running turn, if any, is done.
func (o *Orchestrator) ResetSession(ctx context.Context, sessionID string) error {
	deleter, ok := o.store.(SessionDeleter)
	if !ok {
		return ErrResetNotSupported
	}

	release, err := o.sessions.acquire(ctx, sessionID, false)
	if err != nil {
		return err
	}
	defer release()

	if err := deleter.Delete(ctx, sessionID); err != nil && !errors.Is(err, stores.ErrNotFound) {
		return fmt.Errorf("failed to reset session %q: %w", sessionID, err)
	}
	return nil
}

func (o *Orchestrator) start(ctx context.Context, request TurnRequest, emit func(Delta), finish func()) (<-chan turnOutcome, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return nil, ErrOrchestratorClosed
	}
	if !o.generator.configured() {
		return nil, ErrGeneratorNotConfigured
	}

	turnID := uuid.NewString()
	results := make(chan turnOutcome, 1)
	worker := panicSafeNamedWorker("turn", func(context.Context) error {
		result, err := o.execute(ctx, turnID, request, emit)
		results <- turnOutcome{result: result, err: err}
		return nil
	})

	o.inflight.Go(func() {
		if finish != nil {
			defer finish()
		}
		if err := worker(ctx); err != nil {
			logger.Error("turn crashed", "turn_id", turnID, "error", err)
			results <- turnOutcome{err: err}
		}
	})
	return results, nil
}

// execute runs one turn under the session lock. Waiting for the lock follows
// requestCtx, the turn itself runs detached from it.
func (o *Orchestrator) execute(requestCtx context.Context, turnID string, request TurnRequest, emit func(Delta)) (result *TurnResult, err error) {
	sessionID := request.sessionID()

	ctx, span := tracer.Start(context.WithoutCancel(requestCtx), "run turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("turn.id", turnID),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	release, err := o.sessions.acquire(requestCtx, sessionID, o.rejectConcurrent)
	if err != nil {
		return nil, err
	}
	defer release()

	if o.limiter != nil {
		if err := o.limiter.Acquire(requestCtx, 1); err != nil {
			return nil, fmt.Errorf("waiting for turn capacity: %w", err)
		}
		defer o.limiter.Release(1)
	}

	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	state, err := o.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	request.apply(&state)
	state.History = append(state.History, conversations.NewUserMessage(request.Message))

	t := &turn{
		id:         turnID,
		state:      &state,
		generator:  o.generator,
		dispatcher: o.dispatcher,
		tools:      o.registry.Definitions(),
		assessor:   o.assessor,
		emit:       emit,
	}
	if err := t.run(ctx); err != nil {
		return nil, err
	}

	if err := o.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to persist session %q: %w", sessionID, err)
	}
	span.SetAttributes(
		attribute.Int("turn.attempts", state.Attempts),
		attribute.String("turn.understanding_level", string(state.UnderstandingLevel)),
	)
	logger.Debug("turn completed", "session_id", sessionID, "turn_id", turnID, "attempts", state.Attempts)

	return &TurnResult{
		TurnID:       turnID,
		SessionID:    sessionID,
		Response:     t.response,
		DrawCommands: t.drawCommands,
		State:        state,
	}, nil
}

func (o *Orchestrator) loadState(ctx context.Context, sessionID string) (conversations.State, error) {
	state, err := o.store.Load(ctx, sessionID)
	if errors.Is(err, stores.ErrNotFound) {
		return conversations.NewState(o.defaultTopic), nil
	}
	if err != nil {
		return conversations.State{}, fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}
	return state, nil
}

func errorEvent(err error) events.Event {
	return events.NewError(err.Error())
}
