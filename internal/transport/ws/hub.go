package ws

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrHubClosed = errors.New("hub is closed")

// Hub manages the WebSocket connections of logged-in players.
// There is one lobby, so every broadcast goes to every connection.
type Hub struct {
	// Player name -> connection; a newer connection replaces an older one
	conns map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}
	closeOnce  sync.Once

	// Broadcasts and direct replies share one queue so each client sees them in order
	outbound chan *outboundMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	Name string
	Send chan []byte
	Hub  *Hub
}

// outboundMessage goes to conn, or to everyone when conn is nil
type outboundMessage struct {
	conn *Connection
	data []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		outbound:   make(chan *outboundMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if old, ok := h.conns[conn.Name]; ok {
				close(old.Send)
				log.Printf("Player %s reconnected, dropping the previous connection", conn.Name)
			}
			h.conns[conn.Name] = conn
			h.mu.Unlock()
			log.Printf("Player %s connected", conn.Name)

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.Name]; ok && existing == conn {
				delete(h.conns, conn.Name)
				close(conn.Send)
				log.Printf("Player %s disconnected", conn.Name)
			}
			h.mu.Unlock()

		case msg := <-h.outbound:
			h.mu.RLock()
			if msg.conn == nil {
				for _, conn := range h.conns {
					deliver(conn, msg.data)
				}
			} else if existing, ok := h.conns[msg.conn.Name]; ok && existing == msg.conn {
				// Send is only closed by this loop, so it is safe to write while registered
				deliver(msg.conn, msg.data)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for name, conn := range h.conns {
				delete(h.conns, name)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) error {
	select {
	case h.register <- conn:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues message for every connection (implements service.Broadcaster)
func (h *Hub) Broadcast(ctx context.Context, message string) error {
	if h.closed() {
		return ErrHubClosed
	}
	select {
	case h.outbound <- &outboundMessage{data: []byte(message)}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendTo queues message for a single connection
func (h *Hub) SendTo(conn *Connection, message string) error {
	if h.closed() {
		return ErrHubClosed
	}
	select {
	case h.outbound <- &outboundMessage{conn: conn, data: []byte(message)}:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Count returns the number of connected players
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Close disconnects everyone and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
