package models

import (
	"time"

	"gorm.io/gorm"
)

// Message type constants
const (
	MessageTypeText = "TEXT"
)

/** --------------------ENTITIES-------------------- */
// Message represents a persisted chat message within a space
type Message struct {
	gorm.Model
	SpaceID  uint   `gorm:"not null;index" json:"spaceId"`
	SenderID uint   `gorm:"not null" json:"senderId"`
	Content  string `gorm:"not null" json:"content"`
	Type     string `gorm:"not null;type:varchar(10);default:'TEXT'" json:"type"`

	Sender User  `gorm:"foreignKey:SenderID" json:"-"`
	Space  Space `gorm:"foreignKey:SpaceID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// MessageResponse is the canonical stored form broadcast back to clients.
// The server-assigned id and timestamp come from the persisted row, never
// from the sender's draft.
type MessageResponse struct {
	ID        uint        `json:"id"`
	SpaceID   uint        `json:"spaceId"`
	SenderID  uint        `json:"senderId"`
	Content   string      `json:"content"`
	Type      string      `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	Sender    UserSummary `json:"sender"`
}

// ToResponse converts the entity to its broadcast form. Sender must be
// preloaded.
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SpaceID:   m.SpaceID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
		Sender:    m.Sender.Summary(),
	}
}
