package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle position of one connection.
type State int32

const (
	StateUnbound State = iota // registered, no space joined yet
	StateBound                // joined a space
	StateClosed               // unregistered, terminal
)

// Session is the processor's handle for one live connection. State
// transitions happen only inside the processor; the atomic lets pump
// goroutines observe Closed without taking the processor lock.
type Session struct {
	connID string
	userID uint
	sub    Subscriber
	state  atomic.Int32
}

func (s *Session) ConnID() string { return s.connID }
func (s *Session) State() State   { return State(s.state.Load()) }

const streamPublishTimeout = 5 * time.Second

// Processor validates and dispatches the three inbound event types, applying
// the persistence-vs-ephemeral policy per type: chat is appended to storage
// before any broadcast, movement is fanned out and discarded.
//
// Transition table, from (state, event):
//
//	Unbound, joinSpace    -> authorize + capacity check; Bound on success,
//	                         snapshot to requester only; error payload and no
//	                         state change otherwise
//	Bound,   joinSpace    -> rebind; old room unsubscribed, new room subscribed
//	Bound,   movement     -> broadcast excluding sender if the claimed
//	                         (user, space) matches the live binding, else
//	                         silently dropped
//	Unbound, movement     -> silently dropped
//	Bound,   chatMessage  -> persist then broadcast including sender;
//	                         persistence failure surfaced to sender only
//	Unbound, chatMessage  -> error payload to sender only
//	any,     disconnect   -> Closed, no broadcast
type Processor struct {
	registry *Registry
	rooms    *RoomRouter
	auth     *Authorizer
	messages MessageStore
	stream   StreamPublisher // optional, may be nil

	// Serializes bind/subscribe/unregister so the registry binding and the
	// room subscription always move together.
	joinMu sync.Mutex
}

func NewProcessor(registry *Registry, rooms *RoomRouter, auth *Authorizer, messages MessageStore, stream StreamPublisher) *Processor {
	return &Processor{
		registry: registry,
		rooms:    rooms,
		auth:     auth,
		messages: messages,
		stream:   stream,
	}
}

// Open registers a new connection and returns its session in the Unbound
// state. Called on transport accept, after identity verification.
func (p *Processor) Open(userID uint, sub Subscriber) *Session {
	connID := p.registry.Register()
	s := &Session{connID: connID, userID: userID, sub: sub}
	s.state.Store(int32(StateUnbound))
	return s
}

// HandleEvent decodes and dispatches one inbound frame. Events from a single
// connection are handled in the order received because each connection's read
// loop calls this synchronously.
func (p *Processor) HandleEvent(ctx context.Context, s *Session, raw []byte) {
	if s.State() == StateClosed {
		return
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.sub.Send(NewErrorEvent(ErrCodeInvalidEvent, "invalid event format"))
		return
	}
	if err := ev.Validate(); err != nil {
		s.sub.Send(NewErrorEvent(ErrCodeInvalidEvent, err.Error()))
		return
	}

	switch ev.Type {
	case EventTypeJoinSpace:
		var data JoinSpaceData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			s.sub.Send(NewErrorEvent(ErrCodeInvalidEvent, "invalid join payload"))
			return
		}
		p.handleJoin(ctx, s, data)

	case EventTypeMovement:
		var data MovementData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			// Movement is best-effort; malformed frames are dropped like
			// stale ones.
			return
		}
		p.handleMovement(s, data)

	case EventTypeChatMessage:
		var data ChatMessageData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			s.sub.Send(NewErrorEvent(ErrCodeInvalidEvent, "invalid chat payload"))
			return
		}
		p.handleChat(ctx, s, data)
	}
}

func (p *Processor) handleJoin(ctx context.Context, s *Session, data JoinSpaceData) {
	if data.UserID != 0 && data.UserID != s.userID {
		s.sub.Send(NewSpaceJoinErrorEvent(ErrCodeNotAuthorized, "user does not match connection identity"))
		return
	}

	decision, err := p.auth.Authorize(ctx, s.userID, data.SpaceID)
	if err != nil {
		slog.Error("Join authorization failed", "connID", s.connID, "userID", s.userID, "spaceID", data.SpaceID, "error", err)
		s.sub.Send(NewSpaceJoinErrorEvent(ErrCodePersistenceFailed, "authorization unavailable"))
		return
	}

	switch decision.Verdict {
	case VerdictNotFound:
		s.sub.Send(NewSpaceJoinErrorEvent(ErrCodeSpaceNotFound, "space not found"))
		return
	case VerdictDenied:
		s.sub.Send(NewSpaceJoinErrorEvent(ErrCodeNotAuthorized, "not authorized to join this space"))
		return
	}

	p.joinMu.Lock()

	// The authorization above may have outlived the connection.
	if s.State() == StateClosed {
		p.joinMu.Unlock()
		return
	}

	prev, bound := p.registry.CurrentBinding(s.connID)
	rejoining := bound && prev.SpaceID == data.SpaceID
	if !rejoining && p.rooms.LiveCount(data.SpaceID) >= decision.Space.MaxUsers {
		p.joinMu.Unlock()
		s.sub.Send(NewSpaceJoinErrorEvent(ErrCodeSpaceFull, "space is full"))
		return
	}

	old, err := p.registry.BindSpace(s.connID, s.userID, data.SpaceID)
	if err != nil {
		// Unregistered between the state check and the bind.
		p.joinMu.Unlock()
		return
	}
	if old != nil && old.SpaceID != data.SpaceID {
		p.rooms.Unsubscribe(old.SpaceID, s.connID)
	}
	p.rooms.Subscribe(data.SpaceID, s.connID, s.sub)
	s.state.Store(int32(StateBound))

	snapshot := &SpaceSnapshot{
		ID:          decision.Space.ID,
		Name:        decision.Space.Name,
		Description: decision.Space.Description,
		Type:        decision.Space.Type,
		MaxUsers:    decision.Space.MaxUsers,
		OwnerID:     decision.Space.OwnerID,
		Occupants:   p.rooms.Occupants(data.SpaceID),
		LiveCount:   p.rooms.LiveCount(data.SpaceID),
	}
	p.joinMu.Unlock()

	slog.Info("Connection joined space", "connID", s.connID, "userID", s.userID, "spaceID", data.SpaceID)
	s.sub.Send(NewSpaceJoinedEvent(snapshot))
}

// handleMovement fans the position out to the room, excluding the sender.
// Movement never touches persistence; a stale or forged claim is dropped
// without a reply since movement is high-frequency and best-effort.
func (p *Processor) handleMovement(s *Session, data MovementData) {
	binding, ok := p.registry.CurrentBinding(s.connID)
	if !ok || binding.UserID != data.UserID || binding.SpaceID != data.SpaceID {
		slog.Debug("Dropping movement with stale binding", "connID", s.connID, "claimedSpaceID", data.SpaceID)
		return
	}

	p.rooms.Broadcast(binding.SpaceID, NewUserMovedEvent(binding.UserID, data.Position), s.connID)
}

// handleChat persists the message, then broadcasts the stored form to the
// room including the sender. Persist-then-broadcast ordering is mandatory:
// content that fails to persist is never seen by anyone.
func (p *Processor) handleChat(ctx context.Context, s *Session, data ChatMessageData) {
	binding, ok := p.registry.CurrentBinding(s.connID)
	if !ok || binding.UserID != data.UserID || binding.SpaceID != data.SpaceID {
		s.sub.Send(NewErrorEvent(ErrCodeNotAuthorized, "not joined to this space"))
		return
	}
	if data.Content == "" {
		s.sub.Send(NewErrorEvent(ErrCodeInvalidEvent, "message content is required"))
		return
	}

	msg, err := p.messages.AppendMessage(ctx, binding.SpaceID, binding.UserID, data.Content)
	if err != nil {
		slog.Error("Chat message persistence failed", "connID", s.connID, "spaceID", binding.SpaceID, "error", err)
		s.sub.Send(NewErrorEvent(ErrCodePersistenceFailed, "message could not be saved"))
		return
	}

	// The append may have outlived the connection; the row stays, the
	// broadcast does not happen on its behalf.
	if s.State() == StateClosed {
		return
	}

	p.rooms.Broadcast(binding.SpaceID, NewChatMessageEvent(msg.ToResponse()), "")

	if p.stream != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), streamPublishTimeout)
			defer cancel()
			if err := p.stream.PublishMessage(ctx, msg); err != nil {
				slog.Warn("Chat stream publish failed", "messageID", msg.ID, "error", err)
			}
		}()
	}
}

// Close unregisters the connection and releases its room subscription. Safe
// to call more than once and concurrently with in-flight events; peers
// receive no notification for the disconnect itself.
func (p *Processor) Close(s *Session) {
	p.joinMu.Lock()
	defer p.joinMu.Unlock()

	if !s.state.CompareAndSwap(int32(StateBound), int32(StateClosed)) &&
		!s.state.CompareAndSwap(int32(StateUnbound), int32(StateClosed)) {
		return
	}

	if last := p.registry.Unregister(s.connID); last != nil {
		p.rooms.Unsubscribe(last.SpaceID, s.connID)
	}
	slog.Debug("Connection closed", "connID", s.connID, "userID", s.userID)
}
