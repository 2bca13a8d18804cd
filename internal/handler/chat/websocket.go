package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/openrouter-relay/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler relays chat messages over a websocket, one reply per frame.
type WebSocketHandler struct {
	relay    Replier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a websocket handler backed by relay.
func NewWebSocketHandler(relay Replier) *WebSocketHandler {
	return &WebSocketHandler{
		relay: relay,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /ws/chat.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleWebSocket)
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log.Printf("[websocket] new connection %s", connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error on %s: %v", connID, err)
			}
			log.Printf("[websocket] connection %s closed", connID)
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.writeFrame(conn, h.handleFrame(ctx, raw))
	}
}

// handleFrame relays one inbound frame and builds the frame to send back.
func (h *WebSocketHandler) handleFrame(ctx context.Context, raw []byte) chat.Frame {
	var payload chat.Request
	if err := json.Unmarshal(raw, &payload); err != nil {
		return chat.Frame{Type: "error", Error: "invalid request body", Status: http.StatusBadRequest}
	}

	reply, err := h.relay.Reply(ctx, payload.Message)
	if err != nil {
		status, message := describeError(err)
		log.Printf("[websocket] relay failed status=%d: %v", status, err)
		return chat.Frame{Type: "error", Error: message, Status: status}
	}

	return chat.Frame{Type: "reply", Reply: reply}
}

// pingLoop must only use WriteControl; it runs concurrently with writeFrame.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) writeFrame(conn *websocket.Conn, frame chat.Frame) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}
