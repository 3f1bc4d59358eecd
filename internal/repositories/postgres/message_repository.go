package postgres

import (
	"context"

	"space-service/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

// AppendMessage implements websocket.MessageStore. The returned row carries
// the server-assigned id and timestamp with the sender preloaded, ready for
// broadcast.
func (r *MessageRepository) AppendMessage(ctx context.Context, spaceID, senderID uint, content string) (*models.Message, error) {
	msg := models.Message{
		SpaceID:  spaceID,
		SenderID: senderID,
		Content:  content,
		Type:     models.MessageTypeText,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Preload("Sender").First(&msg, "id = ?", msg.ID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListBySpace returns the most recent messages for a space, newest first.
func (r *MessageRepository) ListBySpace(ctx context.Context, spaceID uint, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("space_id = ?", spaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
