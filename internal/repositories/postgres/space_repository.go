package postgres

import (
	"context"

	"space-service/internal/models"

	"gorm.io/gorm"
)

type SpaceRepository struct {
	db *gorm.DB
}

func NewSpaceRepository(db *gorm.DB) *SpaceRepository {
	return &SpaceRepository{db}
}

// Create persists the space and its owner membership in one transaction.
func (r *SpaceRepository) Create(ctx context.Context, space *models.Space) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(space).Error; err != nil {
			return err
		}
		member := models.SpaceMember{
			SpaceID: space.ID,
			UserID:  space.OwnerID,
			Role:    models.MemberRoleOwner,
		}
		return tx.Create(&member).Error
	})
}

func (r *SpaceRepository) FindByID(ctx context.Context, id uint) (*models.Space, error) {
	var space models.Space
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members.User").
		First(&space, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// ListVisible returns public spaces plus private ones the user belongs to.
func (r *SpaceRepository) ListVisible(ctx context.Context, userID uint) ([]*models.Space, error) {
	var spaces []*models.Space
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("type = ?", models.SpaceTypePublic).
		Or("id IN (?)", r.db.Model(&models.SpaceMember{}).
			Select("space_id").
			Where("user_id = ?", userID)).
		Find(&spaces).Error
	return spaces, err
}

func (r *SpaceRepository) CountMembers(ctx context.Context, spaceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SpaceMember{}).
		Where("space_id = ?", spaceID).
		Count(&count).Error
	return count, err
}

func (r *SpaceRepository) AddMember(ctx context.Context, spaceID, userID uint, role string) error {
	member := models.SpaceMember{SpaceID: spaceID, UserID: userID, Role: role}
	return r.db.WithContext(ctx).Create(&member).Error
}

// GetSpace implements websocket.SpaceStore.
func (r *SpaceRepository) GetSpace(ctx context.Context, id uint) (*models.Space, error) {
	var space models.Space
	err := r.db.WithContext(ctx).First(&space, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// IsMember implements websocket.SpaceStore.
func (r *SpaceRepository) IsMember(ctx context.Context, userID, spaceID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SpaceMember{}).
		Where("space_id = ? AND user_id = ?", spaceID, userID).
		Count(&count).Error
	return count > 0, err
}
