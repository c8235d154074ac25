// Package server exposes the tutor orchestrator over HTTP, server-sent
// events and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	orchestration "github.com/SharminSirajudeen/ai-tutor-mvp/core"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	Version = "0.1.0"

	DefaultWriteTimeout = 10 * time.Second
)

type Server struct {
	orchestrator *orchestration.Orchestrator
	logger       zerolog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWriteTimeout bounds every event write to a streaming client. A client
// that cannot take an event within it is treated as disconnected.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.writeTimeout = timeout
		}
	}
}

// WithCheckOrigin overrides the WebSocket origin check. All origins are
// accepted by default.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

func New(orchestrator *orchestration.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orchestrator: orchestrator,
		logger:       zerolog.Nop(),
		writeTimeout: DefaultWriteTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, logged and traced HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/v1/chat/ws", s.handleChatWebSocket)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)

	return otelhttp.NewHandler(s.logRequests(mux), "tutord")
}

// chatRequest is the body of every chat endpoint and of each WebSocket
// message.
type chatRequest struct {
	Message        string         `json:"message"`
	SessionID      string         `json:"session_id"`
	ProblemContext *string        `json:"problem_context"`
	CanvasState    map[string]any `json:"canvas_state"`
	Topic          *string        `json:"topic"`
}

func (r chatRequest) validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message must not be empty")
	}
	return nil
}

func (r chatRequest) turnRequest() orchestration.TurnRequest {
	return orchestration.TurnRequest{
		SessionID:      r.SessionID,
		Message:        r.Message,
		ProblemContext: r.ProblemContext,
		CanvasState:    r.CanvasState,
		Topic:          r.Topic,
	}
}

type chatResponse struct {
	Response           string                           `json:"response"`
	DrawCommands       []conversations.DrawCommand      `json:"draw_commands"`
	UnderstandingLevel conversations.UnderstandingLevel `json:"understanding_level"`
	SessionID          string                           `json:"session_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	var request chatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(&request); err != nil {
		return chatRequest{}, errors.New("invalid JSON body")
	}
	return request, request.validate()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}

// statusFor maps orchestrator errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestration.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, orchestration.ErrGeneratorNotConfigured),
		errors.Is(err, orchestration.ErrOrchestratorClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, orchestration.ErrGeneratorFailed):
		return http.StatusBadGateway
	case errors.Is(err, orchestration.ErrResetNotSupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
