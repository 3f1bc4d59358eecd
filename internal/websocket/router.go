package websocket

import (
	"log/slog"
	"sort"
	"sync"
)

// Subscriber is the router's view of one connection: a non-blocking outbound
// channel plus the identity it carries. *Client implements it; tests use
// in-memory fakes.
type Subscriber interface {
	// Send enqueues an event for delivery. It must not block; a subscriber
	// that cannot accept the event returns an error and the delivery is
	// skipped.
	Send(ev *Event) error

	// UserID returns the verified identity attached to the connection.
	UserID() uint
}

// RoomRouter maps a space to the set of connections currently joined to it and
// performs fan-out of outbound events. Delivery is best-effort per recipient:
// a slow or closed connection is logged and skipped, never propagated to the
// sender.
type RoomRouter struct {
	mu    sync.RWMutex
	rooms map[uint]map[string]Subscriber
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		rooms: make(map[uint]map[string]Subscriber),
	}
}

// Subscribe adds the connection to the space's fan-out set. No-op if already
// present.
func (rt *RoomRouter) Subscribe(spaceID uint, connID string, sub Subscriber) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room := rt.rooms[spaceID]
	if room == nil {
		room = make(map[string]Subscriber)
		rt.rooms[spaceID] = room
	}
	room[connID] = sub
}

// Unsubscribe removes the connection from the space's fan-out set. No-op if
// absent. The room entry is dropped entirely once empty.
func (rt *RoomRouter) Unsubscribe(spaceID uint, connID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[spaceID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(rt.rooms, spaceID)
	}
}

// Broadcast delivers the event to every connection subscribed to the space,
// except excludeConnID when non-empty. Failed deliveries are skipped.
func (rt *RoomRouter) Broadcast(spaceID uint, ev *Event, excludeConnID string) {
	rt.mu.RLock()
	room := rt.rooms[spaceID]
	targets := make(map[string]Subscriber, len(room))
	for connID, sub := range room {
		targets[connID] = sub
	}
	rt.mu.RUnlock()

	for connID, sub := range targets {
		if connID == excludeConnID {
			continue
		}
		if err := sub.Send(ev); err != nil {
			slog.Debug("Skipping undeliverable recipient",
				"spaceID", spaceID, "connID", connID, "event", ev.Type, "error", err)
		}
	}
}

// LiveCount returns the space's current subscriber count. New joins are
// capacity-checked against this number, not the durable membership count, so
// only currently-present occupants count against capacity.
func (rt *RoomRouter) LiveCount(spaceID uint) int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.rooms[spaceID])
}

// Occupants returns the user ids of the space's current subscribers, sorted
// for stable snapshot payloads.
func (rt *RoomRouter) Occupants(spaceID uint) []uint {
	rt.mu.RLock()
	room := rt.rooms[spaceID]
	ids := make([]uint, 0, len(room))
	for _, sub := range room {
		ids = append(ids, sub.UserID())
	}
	rt.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
