package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/zoya/internal/protocol"
	"github.com/ent0n29/zoya/internal/session"
)

// handleSessionWS runs text turns over a websocket. Turns are processed in
// arrival order by one worker; a stop control bypasses the queue so it can
// cut an in-flight playback.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.metrics.ObserveSessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 64)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		defer close(outbound)
		s.runConnection(ctx, sessionID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				// Drain so the worker never blocks on a dead connection.
				for range outbound {
				}
				return
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(s.sessions.InactivityTimeout()))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.sessions.InactivityTimeout()))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.sessions.InactivityTimeout()))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.enqueue(ctx, outbound, errorEvent(sessionID, "invalid_client_message", err.Error()))
			continue
		}
		if control, ok := parsed.(protocol.ClientControl); ok && control.Action == protocol.ActionStop {
			if err := s.sessions.Interrupt(sessionID); err != nil {
				s.enqueue(ctx, outbound, errorEvent(sessionID, "session_not_found", err.Error()))
				continue
			}
			s.metrics.ObserveInterrupt()
			s.enqueue(ctx, outbound, protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "stopped"})
			continue
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-workerDone
	<-writerDone
	s.metrics.ObserveSessionEvent("ws_disconnected")
}

func (s *Server) runConnection(ctx context.Context, sessionID string, inbound <-chan any, outbound chan<- any) {
	for msg := range inbound {
		if ctx.Err() != nil {
			continue
		}
		switch m := msg.(type) {
		case protocol.ClientTurn:
			if m.SessionID != sessionID {
				s.enqueue(ctx, outbound, errorEvent(sessionID, "session_mismatch", "message session_id does not match the connection"))
				continue
			}
			turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
			turn, err := s.sessions.Turn(turnCtx, sessionID, m.Query, strings.ToLower(strings.TrimSpace(m.Language)))
			cancel()
			if err != nil {
				s.enqueue(ctx, outbound, sessionErrorEvent(sessionID, err))
				continue
			}
			resp := session.NewTurnResponse(sessionID, turn)
			s.enqueue(ctx, outbound, protocol.AssistantTurn{
				Type:           protocol.TypeAssistantTurn,
				SessionID:      sessionID,
				TurnID:         resp.TurnID,
				Classification: resp.Classification,
				Backend:        resp.Backend,
				Language:       resp.Language,
				Reply:          resp.Reply,
				Failures:       resp.Failures,
				DurationMS:     resp.DurationMS,
			})
		case protocol.ClientControl:
			if err := s.sessions.Reset(sessionID); err != nil {
				s.enqueue(ctx, outbound, sessionErrorEvent(sessionID, err))
				continue
			}
			s.metrics.ObserveSessionEvent("reset")
			s.enqueue(ctx, outbound, protocol.SystemEvent{Type: protocol.TypeSystemEvent, SessionID: sessionID, Code: "memory_reset"})
		}
	}
}

func (s *Server) enqueue(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case outbound <- msg:
	case <-ctx.Done():
	}
}

func errorEvent(sessionID, code, detail string) protocol.ErrorEvent {
	return protocol.ErrorEvent{Type: protocol.TypeErrorEvent, SessionID: sessionID, Code: code, Detail: detail}
}

func sessionErrorEvent(sessionID string, err error) protocol.ErrorEvent {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return errorEvent(sessionID, "session_not_found", err.Error())
	case errors.Is(err, session.ErrEnded):
		return errorEvent(sessionID, "session_ended", err.Error())
	default:
		return errorEvent(sessionID, "internal_error", err.Error())
	}
}
