//go:build !tinygo

package telemetry

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	hubClientBuffer = 64
	hubWriteTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Command is a single operator command received from a websocket client.
type Command struct {
	Cmd string `json:"cmd"`
}

// Hub streams frames as JSON to every connected websocket client. Slow clients
// lose frames instead of stalling Emit.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	commands func(byte)
}

type hubClient struct {
	conn *websocket.Conn
	send chan Frame
}

// NewHub creates a hub. commands, if not nil, receives the first byte of each
// {"cmd": "..."} message sent by clients.
func NewHub(commands func(byte)) *Hub {
	return &Hub{
		clients:  make(map[*hubClient]struct{}),
		commands: commands,
	}
}

// Emit implements Sink.
func (h *Hub) Emit(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- f:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry: websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan Frame, hubClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
}

func (h *Hub) writeLoop(c *hubClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
			if err := c.conn.WriteJSON(f); err != nil {
				log.Printf("telemetry: websocket write error: %v", err)
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *hubClient) {
	for {
		var msg Command
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("telemetry: websocket error: %v", err)
			}
			return
		}
		if h.commands != nil && len(msg.Cmd) > 0 {
			h.commands(msg.Cmd[0])
		}
	}
}
