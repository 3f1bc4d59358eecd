package websocket

import (
	"context"

	"space-service/internal/models"
)

// SpaceStore is the persistence contract the core needs to authorize joins.
// The postgres repository implements it; lookups return
// gorm.ErrRecordNotFound when the space is absent.
type SpaceStore interface {
	GetSpace(ctx context.Context, id uint) (*models.Space, error)
	IsMember(ctx context.Context, userID, spaceID uint) (bool, error)
}

// MessageStore appends a chat message and returns the persisted row with the
// server-assigned id and timestamp and the sender preloaded.
type MessageStore interface {
	AppendMessage(ctx context.Context, spaceID, senderID uint, content string) (*models.Message, error)
}

// StreamPublisher mirrors persisted chat messages onto an event stream for
// downstream consumers. Publishing is fire-and-forget: failures are logged,
// never surfaced to the sender.
type StreamPublisher interface {
	PublishMessage(ctx context.Context, msg *models.Message) error
}
