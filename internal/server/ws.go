package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/ayusman/formcheck/internal/session"
)

const (
	wsWriteWait   = 5 * time.Second
	wsMaxFrameLen = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler analyzes frames sent over a websocket. Every text message is
// one frame request; the reply is the frame result.
type StreamHandler struct {
	sessions *session.Manager
}

func NewStreamHandler(sessions *session.Manager) *StreamHandler {
	return &StreamHandler{sessions: sessions}
}

type streamError struct {
	Error string `json:"error"`
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.sessions.Get(id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrameLen)

	log.Debugf("stream opened for session %s", id)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("stream %s read: %s", id, err)
			}
			return
		}

		// The session may have been ended or reaped since the last frame.
		s, err := h.sessions.Get(id)
		if err != nil {
			h.closeEnded(conn, id)
			return
		}

		var reply any
		var req api.FrameRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			reply = streamError{Error: "invalid frame"}
		} else if res, ok, err := api.ProcessFrame(r.Context(), s, req); err != nil {
			reply = streamError{Error: err.Error()}
		} else if !ok {
			reply = map[string]any{"detected": false}
		} else {
			reply = res
		}

		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(reply); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				log.Debugf("stream %s write: %s", id, err)
			}
			return
		}
	}
}

func (h *StreamHandler) closeEnded(conn *websocket.Conn, id string) {
	log.Debugf("stream %s: session ended", id)
	deadline := time.Now().Add(wsWriteWait)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return
	}
	if err := conn.WriteJSON(streamError{Error: "session ended"}); err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Debugf("stream %s close: %s", id, err)
	}
}
