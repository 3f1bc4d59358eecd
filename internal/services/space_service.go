package services

import (
	"context"
	"errors"
	"fmt"

	"space-service/internal/models"
	"space-service/internal/repositories/postgres"

	"gorm.io/gorm"
)

var (
	ErrSpaceNotFound  = errors.New("space not found")
	ErrSpacePrivate   = errors.New("space is private")
	ErrSpaceFull      = errors.New("space is full")
	ErrAlreadyMember  = errors.New("already a member of this space")
	ErrNotSpaceMember = errors.New("not a member of this space")
)

const recentMessageLimit = 50

// MembershipInvalidator drops a cached authorization decision after this
// process creates a membership, so the real-time layer sees it immediately.
// *websocket.Authorizer implements it.
type MembershipInvalidator interface {
	Invalidate(userID, spaceID uint)
}

type SpaceService struct {
	spaces      *postgres.SpaceRepository
	messages    *postgres.MessageRepository
	invalidator MembershipInvalidator // optional
}

func NewSpaceService(spaces *postgres.SpaceRepository, messages *postgres.MessageRepository, invalidator MembershipInvalidator) *SpaceService {
	return &SpaceService{
		spaces:      spaces,
		messages:    messages,
		invalidator: invalidator,
	}
}

// Create persists a new space with the creator as its OWNER member.
func (s *SpaceService) Create(ctx context.Context, ownerID uint, req *models.CreateSpaceRequest) (*models.SpaceResponse, error) {
	space := models.Space{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		MaxUsers:    req.MaxUsers,
		OwnerID:     ownerID,
	}
	if err := s.spaces.Create(ctx, &space); err != nil {
		return nil, fmt.Errorf("failed to create space: %w", err)
	}

	created, err := s.spaces.FindByID(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload space: %w", err)
	}

	resp := created.ToResponse(len(created.Members))
	return &resp, nil
}

// List returns public spaces plus private ones the user belongs to.
func (s *SpaceService) List(ctx context.Context, userID uint) ([]models.SpaceResponse, error) {
	spaces, err := s.spaces.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	results := make([]models.SpaceResponse, 0, len(spaces))
	for _, space := range spaces {
		count, err := s.spaces.CountMembers(ctx, space.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		results = append(results, space.ToResponse(int(count)))
	}
	return results, nil
}

// GetByID returns the space detail with members and recent messages. Private
// spaces are only visible to members.
func (s *SpaceService) GetByID(ctx context.Context, userID, spaceID uint) (*models.SpaceDetailResponse, error) {
	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, fmt.Errorf("failed to load space: %w", err)
	}

	isMember := false
	members := make([]models.SpaceMemberResponse, 0, len(space.Members))
	for _, m := range space.Members {
		if m.UserID == userID {
			isMember = true
		}
		members = append(members, models.SpaceMemberResponse{
			Role: m.Role,
			User: m.User.Summary(),
		})
	}

	if space.Type == models.SpaceTypePrivate && !isMember {
		return nil, ErrNotSpaceMember
	}

	recent, err := s.messages.ListBySpace(ctx, spaceID, recentMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	messages := make([]models.MessageResponse, 0, len(recent))
	for _, m := range recent {
		messages = append(messages, m.ToResponse())
	}

	detail := models.SpaceDetailResponse{
		SpaceResponse: space.ToResponse(len(space.Members)),
		Members:       members,
		Messages:      messages,
	}
	detail.MessageCount = len(messages)
	return &detail, nil
}

// Join creates a MEMBER row for the user. Private spaces reject joins, full
// spaces (by durable member count) reject joins, duplicates reject joins.
// The membership cache entry is invalidated so a websocket join that follows
// sees the new row without waiting for expiry.
func (s *SpaceService) Join(ctx context.Context, userID, spaceID uint) (*models.SpaceDetailResponse, error) {
	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, fmt.Errorf("failed to load space: %w", err)
	}

	if space.Type == models.SpaceTypePrivate {
		return nil, ErrSpacePrivate
	}
	if len(space.Members) >= space.MaxUsers {
		return nil, ErrSpaceFull
	}
	for _, m := range space.Members {
		if m.UserID == userID {
			return nil, ErrAlreadyMember
		}
	}

	if err := s.spaces.AddMember(ctx, spaceID, userID, models.MemberRoleMember); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(userID, spaceID)
	}

	return s.GetByID(ctx, userID, spaceID)
}
