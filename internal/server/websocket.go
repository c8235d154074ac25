package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/events"
	"github.com/gorilla/websocket"
)

// websocketSink writes one JSON text message per event.
type websocketSink struct {
	conn         *websocket.Conn
	mu           *sync.Mutex
	writeTimeout time.Duration
}

func (s websocketSink) Send(_ context.Context, event events.Event) error {
	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// handleChatWebSocket runs one turn per chat request received on the
// connection. Requests arriving while a turn streams are queued behind it.
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := websocketSink{conn: conn, mu: &sync.Mutex{}, writeTimeout: s.writeTimeout}
	requests := make(chan []byte, 8)
	go func() {
		defer cancel()
		defer close(requests)
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			select {
			case requests <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for data := range requests {
		var request chatRequest
		if err := json.Unmarshal(data, &request); err != nil {
			if err := sink.Send(ctx, events.NewError("invalid JSON message")); err != nil {
				return
			}
			continue
		}
		if err := request.validate(); err != nil {
			if err := sink.Send(ctx, events.NewError(err.Error())); err != nil {
				return
			}
			continue
		}

		err := s.orchestrator.StreamTurn(ctx, request.turnRequest(), sink)
		s.logTurnEnd(request.SessionID, err)
		if ctx.Err() != nil {
			return
		}
	}
}
