package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/knowbase/knowbase/internal/logging"
)

const (
	wsReadLimit  = 1 << 20 // 1MB
	wsIdleLimit  = 10 * time.Minute
	wsWriteLimit = 30 * time.Second
)

// ChatFrame is one inbound chat message. The session id is optional on
// the first frame; every reply echoes the id to use next.
type ChatFrame struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// handleChat upgrades to WebSocket and runs the conversation loop: one
// reply per inbound frame, with review and confirmation handled across
// frames by the conversation engine.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	log := s.log.Sub("ws")
	log.Debug().Str("remote", r.RemoteAddr).Msg("chat connection opened")

	// The session id carries across frames so a client can omit it
	// after the first exchange.
	var sessionID string

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleLimit))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Msg("chat connection closed")
			} else {
				log.Warn().Err(err).Msg("chat read error")
			}
			return
		}

		var frame ChatFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			writeChatError(conn, log, "invalid_frame", "malformed JSON frame")
			continue
		}
		if frame.SessionID != "" {
			sessionID = frame.SessionID
		}

		reply, err := s.deps.Chat.Converse(r.Context(), sessionID, frame.Message)
		if err != nil {
			log.Error().Err(err).Msg("conversation turn failed")
			writeChatError(conn, log, "turn_failed", "internal error, please retry")
			continue
		}
		sessionID = reply.SessionID

		conn.SetWriteDeadline(time.Now().Add(wsWriteLimit))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Msg("chat write error")
			return
		}
	}
}

func writeChatError(conn *websocket.Conn, log *logging.Logger, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteLimit))
	if err := conn.WriteJSON(ErrorResponse{Error: code, Message: message}); err != nil {
		log.Warn().Err(err).Msg("chat error write failed")
	}
}
