package websocket

import (
	"encoding/json"
	"fmt"

	"space-service/internal/models"
)

// EventType represents the type of a real-time event using a custom enum type
// for better type safety
type EventType string

// Wire-level event names. Inbound events come from clients, outbound events
// are emitted by the server.
const (
	// Inbound
	EventTypeJoinSpace   EventType = "joinSpace"
	EventTypeMovement    EventType = "movement"
	EventTypeChatMessage EventType = "chatMessage"

	// Outbound
	EventTypeSpaceJoined    EventType = "spaceJoined"
	EventTypeSpaceJoinError EventType = "spaceJoinError"
	EventTypeUserMoved      EventType = "userMoved"
	EventTypeNewChatMessage EventType = "newChatMessage"
	EventTypeError          EventType = "error"
)

// String returns the string representation of the EventType
func (et EventType) String() string {
	return string(et)
}

// IsInbound reports whether the event type is one a client may send.
func (et EventType) IsInbound() bool {
	switch et {
	case EventTypeJoinSpace, EventTypeMovement, EventTypeChatMessage:
		return true
	default:
		return false
	}
}

// Event is the wire envelope for every websocket frame in both directions.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Validate checks the envelope of a client frame.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if !e.Type.IsInbound() {
		return fmt.Errorf("unsupported event type: %s", e.Type)
	}
	return nil
}

// Error payload codes, surfaced to the requesting connection only.
const (
	ErrCodeSpaceNotFound     = "SPACE_NOT_FOUND"
	ErrCodeNotAuthorized     = "NOT_AUTHORIZED"
	ErrCodeSpaceFull         = "SPACE_FULL"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
	ErrCodeInvalidEvent      = "INVALID_EVENT"
)

// Position is a point in space coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Inbound payloads

type JoinSpaceData struct {
	SpaceID uint `json:"spaceId"`
	UserID  uint `json:"userId"`
}

type MovementData struct {
	SpaceID  uint     `json:"spaceId"`
	UserID   uint     `json:"userId"`
	Position Position `json:"position"`
}

type ChatMessageData struct {
	SpaceID uint   `json:"spaceId"`
	UserID  uint   `json:"userId"`
	Content string `json:"content"`
}

// Outbound payloads

// SpaceSnapshot is the join confirmation sent to the requester only. It
// reflects who is connected right now, not the durable membership roll.
type SpaceSnapshot struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	MaxUsers    int    `json:"maxUsers"`
	OwnerID     uint   `json:"ownerId"`
	Occupants   []uint `json:"occupants"`
	LiveCount   int    `json:"liveCount"`
}

type UserMovedData struct {
	UserID   uint     `json:"userId"`
	Position Position `json:"position"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event constructors for type safety and consistency

func newEvent(t EventType, payload interface{}) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload structs are plain data; marshal cannot fail for them.
		data = nil
	}
	return &Event{Type: t, Data: data}
}

// NewSpaceJoinedEvent creates the join confirmation carrying the space snapshot.
func NewSpaceJoinedEvent(snapshot *SpaceSnapshot) *Event {
	return newEvent(EventTypeSpaceJoined, snapshot)
}

// NewSpaceJoinErrorEvent creates a join failure response.
func NewSpaceJoinErrorEvent(code, message string) *Event {
	return newEvent(EventTypeSpaceJoinError, ErrorData{Code: code, Message: message})
}

// NewUserMovedEvent creates the movement broadcast payload.
func NewUserMovedEvent(userID uint, pos Position) *Event {
	return newEvent(EventTypeUserMoved, UserMovedData{UserID: userID, Position: pos})
}

// NewChatMessageEvent creates the broadcast carrying the persisted message.
func NewChatMessageEvent(msg models.MessageResponse) *Event {
	return newEvent(EventTypeNewChatMessage, msg)
}

// NewErrorEvent creates a generic error response.
func NewErrorEvent(code, message string) *Event {
	return newEvent(EventTypeError, ErrorData{Code: code, Message: message})
}
