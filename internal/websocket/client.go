package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrClientDisconnected = fmt.Errorf("client disconnected")

// Client is one live transport session. It owns the two pump goroutines and
// the buffered outbound channel; everything above it talks to the connection
// through Send.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Session
	userID  uint
	send    chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	closed int32 // atomic flag, set once the client is done
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
	c.session = hub.processor.Open(userID, c)
	return c
}

// ConnID returns the registry identifier allocated for this transport session.
func (c *Client) ConnID() string {
	return c.session.ConnID()
}

// UserID implements Subscriber.
func (c *Client) UserID() uint {
	return c.userID
}

// Send implements Subscriber. It never blocks: when the buffer is full the
// client is considered congested and dropped, per the best-effort delivery
// policy. The send channel is never closed; teardown happens through the
// closed flag and context so concurrent broadcasters can only ever see a
// fast error, never a send on a closed channel.
func (c *Client) Send(ev *Event) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		slog.Warn("Send buffer full, dropping client", "connID", c.ConnID(), "userID", c.userID)
		c.close()
		return ErrClientDisconnected
	}
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
	}
}

// readPump reads frames off the socket and hands each one to the processor
// synchronously, which keeps events from a single connection in order.
// Abrupt transport closure at any point lands in the deferred cleanup, which
// unregisters the connection immediately.
func (c *Client) readPump() {
	defer func() {
		c.close()

		select {
		case c.hub.unregister <- c:
		case <-time.After(5 * time.Second):
			slog.Warn("Timeout sending unregister request", "connID", c.ConnID(), "userID", c.userID)
			c.hub.processor.Close(c.session)
		}

		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "connID", c.ConnID(), "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "connID", c.ConnID(), "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "connID", c.ConnID(), "userID", c.userID, "error", err)
			}
			return
		}

		c.hub.processor.HandleEvent(c.ctx, c.session, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("Error writing message", "connID", c.ConnID(), "error", err)
				return
			}

		case <-ticker.C:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// ServeWS upgrades the HTTP request and attaches the connection to the hub.
// The caller must have verified the user's identity already; the core never
// re-verifies credentials per event.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := NewClient(hub, conn, userID)
	slog.Info("New WebSocket connection established", "connID", client.ConnID(), "userID", userID)

	select {
	case hub.register <- client:
	case <-time.After(5 * time.Second):
		slog.Error("Timeout sending registration request", "connID", client.ConnID(), "userID", userID)
		hub.processor.Close(client.session)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
