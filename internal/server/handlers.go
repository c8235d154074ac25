package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	orchestration "github.com/SharminSirajudeen/ai-tutor-mvp/core"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/events"
)

type healthResponse struct {
	Status              string            `json:"status"`
	Message             string            `json:"message"`
	Version             string            `json:"version"`
	GeneratorConfigured bool              `json:"generator_configured"`
	Tools               []string          `json:"tools"`
	Endpoints           map[string]string `json:"endpoints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:              "ok",
		Message:             "AI tutor is running",
		Version:             Version,
		GeneratorConfigured: s.orchestrator.GeneratorConfigured(),
		Tools:               s.orchestrator.Tools(),
		Endpoints: map[string]string{
			"chat":           "POST /api/v1/chat",
			"chat_stream":    "POST /api/v1/chat/stream",
			"chat_websocket": "GET /api/v1/chat/ws",
			"session":        "GET /api/v1/sessions/{id}",
			"reset_session":  "DELETE /api/v1/sessions/{id}",
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	request, err := decodeChatRequest(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.orchestrator.RunTurn(r.Context(), request.turnRequest())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.logger.Error().Err(err).Str("session_id", request.SessionID).Msg("turn failed")
		s.writeError(w, statusFor(err), err)
		return
	}

	drawCommands := result.DrawCommands
	if drawCommands == nil {
		drawCommands = []conversations.DrawCommand{}
	}
	s.writeJSON(w, http.StatusOK, chatResponse{
		Response:           result.Response,
		DrawCommands:       drawCommands,
		UnderstandingLevel: result.State.UnderstandingLevel,
		SessionID:          result.SessionID,
	})
}

// streamSink writes each event as one SSE data frame, or as one line of
// NDJSON, and flushes it immediately.
type streamSink struct {
	w            http.ResponseWriter
	controller   *http.ResponseController
	writeTimeout time.Duration
	ndjson       bool
}

func newStreamSink(w http.ResponseWriter, writeTimeout time.Duration, ndjson bool) streamSink {
	return streamSink{
		w:            w,
		controller:   http.NewResponseController(w),
		writeTimeout: writeTimeout,
		ndjson:       ndjson,
	}
}

func (s streamSink) Send(_ context.Context, event events.Event) error {
	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	if err := s.controller.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if s.ndjson {
		_, err = fmt.Fprintf(s.w, "%s\n", data)
	} else {
		_, err = fmt.Fprintf(s.w, "data: %s\n\n", data)
	}
	if err != nil {
		return err
	}
	return s.controller.Flush()
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	request, err := decodeChatRequest(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ndjson := r.URL.Query().Get("format") == "ndjson"
	sink := newStreamSink(w, s.writeTimeout, ndjson)
	// Later requests on a kept-alive connection must not inherit the deadline.
	defer sink.controller.SetWriteDeadline(time.Time{})

	if ndjson {
		w.Header().Set("Content-Type", "application/x-ndjson")
	} else {
		w.Header().Set("Content-Type", "text/event-stream")
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := sink.controller.Flush(); err != nil {
		s.logger.Warn().Err(err).Msg("streaming unsupported")
		return
	}

	err = s.orchestrator.StreamTurn(r.Context(), request.turnRequest(), sink)
	s.logTurnEnd(request.SessionID, err)
}

func (s *Server) logTurnEnd(sessionID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, orchestration.ErrClientDisconnected):
		s.logger.Debug().Str("session_id", sessionID).Msg("client disconnected, turn continues")
	default:
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.orchestrator.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ResetSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
