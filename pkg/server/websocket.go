package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

var errNotText = errors.New("expected a text message")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Allow all origins (clients authenticate with a token instead)
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket evaluates every text message received on the connection
// and answers each with one JSON reply, in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("websocket connected: %s", r.RemoteAddr)
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("websocket read from %s: %v", r.RemoteAddr, err)
			}
			log.Infof("websocket disconnected: %s", r.RemoteAddr)
			return
		}

		var reply evalResponse
		if msgType != websocket.TextMessage {
			reply = evalResponse{Error: errNotText.Error()}
		} else {
			reply, _ = s.evaluate(r.Context(), string(msg))
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Debugf("websocket write to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}
