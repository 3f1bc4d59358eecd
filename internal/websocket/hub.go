package websocket

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"

	"log/slog"

	"github.com/gorilla/websocket"
)

// Presence mirrors connect/disconnect onto an external presence store. The
// redis service implements it; the hub tolerates a nil implementation.
type Presence interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

// Hub owns the set of live clients and their lifecycle: registration,
// presence updates, and shutdown. Event dispatch does not pass through the
// hub loop; each client's read pump calls the processor directly, so
// connections process concurrently while the registry and room router
// serialize their own mutations.
type Hub struct {
	processor *Processor
	presence  Presence
	upgrader  websocket.Upgrader

	// Registered clients
	clients map[*Client]bool

	// Register requests from new connections
	register chan *Client

	// Unregister requests from closing connections
	unregister chan *Client

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

func NewHub(processor *Processor, presence Presence) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		processor:  processor,
		presence:   presence,
		upgrader:   newUpgrader(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
				return true
			}
			for _, allowed := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
				if origin == strings.TrimSpace(allowed) && allowed != "" {
					return true
				}
			}
			return false
		},
	}
}

// Processor exposes the event processor for the HTTP layer and tests.
func (h *Hub) Processor() *Processor {
	return h.processor
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			h.closeAllClients()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	slog.Info("Client registered", "connID", client.ConnID(), "userID", client.UserID(), "total", total)

	if h.presence != nil {
		if err := h.presence.SetUserOnline(h.ctx, client.UserID()); err != nil {
			slog.Error("Failed to set user online", "userID", client.UserID(), "error", err)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	total := len(h.clients)
	h.mu.Unlock()

	h.processor.Close(client.session)
	client.close()

	slog.Info("Client unregistered", "connID", client.ConnID(), "userID", client.UserID(), "total", total)

	if h.presence != nil {
		if err := h.presence.SetUserOffline(context.Background(), client.UserID()); err != nil {
			slog.Error("Failed to set user offline", "userID", client.UserID(), "error", err)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		h.processor.Close(client.session)
		client.close()
		client.conn.Close()
	}

	slog.Info("Closed client connections", "count", len(clients))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
