package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/emiliopalmerini/framescope/internal/chat"
	"github.com/emiliopalmerini/framescope/internal/domain"
)

// wsMessage is a server-to-client chat frame.
type wsMessage struct {
	Type       string             `json:"type"`
	Content    string             `json:"content,omitempty"`
	Charts     []any              `json:"charts,omitempty"`
	TokenUsage *domain.TokenUsage `json:"token_usage,omitempty"`
}

type wsRequest struct {
	Message string `json:"message"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.cfg.CORSOrigins, r.Header.Get("Origin"))
		},
	}
}

// handleChatWS runs one chat turn per received {"message": ...} frame and
// streams the turn back as text_delta, tool_status and message_end frames.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}
	defer conn.Close()

	s.deps.Store.GetOrCreate(sessionID)
	ctx := r.Context()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "session", sessionID, "error", err)
			}
			return
		}

		var writeErr error
		send := func(m wsMessage) {
			if writeErr == nil {
				writeErr = conn.WriteJSON(m)
			}
		}

		reply, err := s.deps.Chat.Stream(ctx, sessionID, req.Message, func(e domain.Event) {
			switch e.Type {
			case domain.EventText:
				send(wsMessage{Type: "text_delta", Content: e.Text})
			case domain.EventToolStart:
				send(wsMessage{Type: "tool_status", Content: "Using " + e.ToolName + "..."})
			}
		})
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			send(wsMessage{Type: "error", Content: err.Error()})
		case err != nil:
			s.logger.Error("chat turn failed", "session", sessionID, "error", err)
			send(wsMessage{Type: "text_delta", Content: "An error occurred: " + err.Error()})
			send(wsMessage{Type: "message_end"})
		case reply.Failed():
			send(wsMessage{Type: "text_delta", Content: reply.Text})
			send(wsMessage{Type: "message_end"})
		default:
			send(wsMessage{Type: "message_end", Charts: reply.Charts, TokenUsage: reply.Usage})
		}
		if writeErr != nil {
			s.logger.Debug("websocket write failed", "session", sessionID, "error", writeErr)
			return
		}
	}
}
