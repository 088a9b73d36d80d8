package repository

import (
	"context"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LikeRepository struct {
	DB *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{DB: db}
}

func (r *LikeRepository) WithTx(tx *gorm.DB) *LikeRepository {
	return &LikeRepository{DB: tx}
}

func (r *LikeRepository) Find(ctx context.Context, userID, restaurantID string) (*entity.Like, error) {
	var like entity.Like
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *LikeRepository) Create(ctx context.Context, like *entity.Like) error {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(like).Error
}

func (r *LikeRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&entity.Like{}, "id = ?", id).Error
}

func (r *LikeRepository) UserIDsByRestaurant(ctx context.Context, restaurantID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&entity.Like{}).
		Where("restaurant_id = ?", restaurantID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *LikeRepository) DeleteByRestaurant(ctx context.Context, restaurantID string) error {
	return r.DB.WithContext(ctx).Delete(&entity.Like{}, "restaurant_id = ?", restaurantID).Error
}
