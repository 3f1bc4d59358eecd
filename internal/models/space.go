package models

import (
	"time"

	"gorm.io/gorm"
)

// Space visibility constants
const (
	SpaceTypePublic  = "PUBLIC"
	SpaceTypePrivate = "PRIVATE"
)

// Member role constants
const (
	MemberRoleOwner  = "OWNER"
	MemberRoleMember = "MEMBER"
)

// Space represents a named virtual space users can occupy
type Space struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `gorm:"not null;type:varchar(10);check:type IN ('PUBLIC', 'PRIVATE')" json:"type"`
	MaxUsers    int    `gorm:"not null;default:10" json:"maxUsers"`
	OwnerID     uint   `gorm:"not null" json:"ownerId"`

	Owner   User          `gorm:"foreignKey:OwnerID" json:"-"`
	Members []SpaceMember `gorm:"foreignKey:SpaceID" json:"-"`
}

// SpaceMember is the durable membership relation between a user and a space
type SpaceMember struct {
	gorm.Model
	SpaceID uint   `gorm:"not null;uniqueIndex:idx_space_user" json:"spaceId"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_space_user" json:"userId"`
	Role    string `gorm:"not null;type:varchar(10);check:role IN ('OWNER', 'MEMBER')" json:"role"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

/** -------------------- DTOs -------------------- */

type CreateSpaceRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type" binding:"required,oneof=PUBLIC PRIVATE"`
	MaxUsers    int    `json:"maxUsers" binding:"required,min=1,max=500"`
}

type SpaceResponse struct {
	ID           uint        `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Type         string      `json:"type"`
	MaxUsers     int         `json:"maxUsers"`
	OwnerID      uint        `json:"ownerId"`
	Owner        UserSummary `json:"owner"`
	MemberCount  int         `json:"memberCount"`
	MessageCount int         `json:"messageCount,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type SpaceDetailResponse struct {
	SpaceResponse
	Members  []SpaceMemberResponse `json:"members"`
	Messages []MessageResponse     `json:"messages"`
}

type SpaceMemberResponse struct {
	Role string      `json:"role"`
	User UserSummary `json:"user"`
}

// ToResponse converts the entity to its API response form. Owner must be
// preloaded; member counts are supplied by the caller.
func (s *Space) ToResponse(memberCount int) SpaceResponse {
	return SpaceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Type:        s.Type,
		MaxUsers:    s.MaxUsers,
		OwnerID:     s.OwnerID,
		Owner:       s.Owner.Summary(),
		MemberCount: memberCount,
		CreatedAt:   s.CreatedAt,
	}
}
