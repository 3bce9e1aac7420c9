package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/telemetry"
)

// Message types sent on /api/live.
const (
	MessageStateInit = "state_init"
	MessageFrame     = "frame"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// envelope is the wire format of live messages.
type envelope struct {
	Type string           `json:"type"`
	Ts   *time.Time       `json:"ts,omitempty"`
	Data *telemetry.Frame `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// HubConfig sizes the hub queues. Zero values use defaults.
type HubConfig struct {
	SendBuf      int
	BroadcastBuf int
}

// Hub broadcasts telemetry frames to WebSocket clients. It implements
// telemetry.Publisher; Publish never blocks the control loop, and clients
// that cannot keep up are disconnected.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}
	last    *telemetry.Frame

	sendBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("live client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.closeSend()
	h.logger.Info("live client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

// Publish implements telemetry.Publisher.
func (h *Hub) Publish(f telemetry.Frame) {
	h.mu.Lock()
	h.last = &f
	h.mu.Unlock()

	msg, err := marshalFrame(MessageFrame, &f)
	if err != nil {
		h.logger.Warn("live frame marshal failed", "error", err)
		return
	}
	h.BroadcastBytes(msg)
}

// BroadcastBytes enqueues a serialized message for all clients. If the hub
// queue is full the message is dropped.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("live broadcast queue full, dropping message", "bytes", len(msg))
	}
}

func marshalFrame(kind string, f *telemetry.Frame) ([]byte, error) {
	ts := time.Now().UTC()
	if f != nil && !f.Time.IsZero() {
		ts = f.Time.UTC()
	}
	return json.Marshal(envelope{Type: kind, Ts: &ts, Data: f})
}

// ServeHTTP upgrades the connection, registers the client and sends a
// state_init message carrying the most recent frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn, r.RemoteAddr)
	h.register <- client

	// The pumps outlive the handler; net/http cancels r.Context() on return.
	go client.writePump()
	go client.readPump()

	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	initMsg, err := marshalFrame(MessageStateInit, last)
	if err != nil {
		h.logger.Warn("live state_init marshal failed", "error", err)
		return
	}
	select {
	case client.send <- initMsg:
	default:
		h.unregister <- client
	}
}

// Client is one WebSocket connection of the hub.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	closeOnce  sync.Once
	remoteAddr string
}

func newClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.sendBuf),
		remoteAddr: remoteAddr,
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes queued messages and pings. It exits on write error or
// when send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards incoming messages to process control frames, then
// unregisters the client on the first read error.
func (c *Client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("read", err)
			c.hub.unregister <- c
			return
		}
	}
}

func (c *Client) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.hub.logger.Debug("live client closed", "remote_addr", c.remoteAddr, "op", op, "code", code, "reason", text)
		return
	}
	c.hub.logger.Debug("live client error", "remote_addr", c.remoteAddr, "op", op, "error", err)
}
