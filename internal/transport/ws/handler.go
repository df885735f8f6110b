package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"poker24/internal/gateway"
	"poker24/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	dispatcher *gateway.Dispatcher
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, dispatcher *gateway.Dispatcher) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		dispatcher: dispatcher,
	}
}

// GameWS handles GET /v1/ws?token=...
// Text frames carry the same commands as the command queue; replies come back on the
// same connection and lobby broadcasts go to every connection.
func (h *Handler) GameWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		Name: claims.Name,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}

	if err := h.hub.Register(conn); err != nil {
		wsConn.Close()
		return
	}

	log.Printf("Player %s connected via WebSocket", claims.Name)

	// Commands run under a context that ends with the connection
	ctx, cancel := context.WithCancel(context.Background())
	go h.writePump(wsConn, conn, cancel)
	go h.readPump(ctx, cancel, wsConn, conn)
}

func (h *Handler) readPump(ctx context.Context, cancel context.CancelFunc, wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		cancel()
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply, err := h.dispatcher.HandleAs(ctx, conn.Name, string(data))
		if err != nil {
			log.Printf("Dropping command from %s: %v", conn.Name, err)
			continue
		}
		if reply == "" {
			continue
		}
		if err := h.hub.SendTo(conn, reply); err != nil {
			break
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		cancel()
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
