package repository

import (
	"context"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModerationRepository stores the append-only moderation audit trail.
type ModerationRepository struct {
	DB *gorm.DB
}

func NewModerationRepository(db *gorm.DB) *ModerationRepository {
	return &ModerationRepository{DB: db}
}

func (r *ModerationRepository) Append(ctx context.Context, a *entity.ModerationAction) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *ModerationRepository) List(ctx context.Context, restaurantID string, limit, offset int) ([]entity.ModerationAction, error) {
	q := r.DB.WithContext(ctx)
	if restaurantID != "" {
		q = q.Where("restaurant_id = ?", restaurantID)
	}
	var actions []entity.ModerationAction
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&actions).Error
	return actions, err
}
