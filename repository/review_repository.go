package repository

import (
	"context"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) WithTx(tx *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: tx}
}

func (r *ReviewRepository) Create(ctx context.Context, rev *entity.Review) error {
	return r.DB.WithContext(ctx).Create(rev).Error
}

func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*entity.Review, error) {
	var rev entity.Review
	if err := r.DB.WithContext(ctx).First(&rev, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rev *entity.Review) error {
	return r.DB.WithContext(ctx).Save(rev).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id).Error
}

// SetStatus moves a review from one status to another. Zero rows means the
// review is missing or no longer in from.
func (r *ReviewRepository) SetStatus(ctx context.Context, id string, from, to entity.ReviewStatus) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&entity.Review{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.DB.WithContext(ctx).
		Where("restaurant_id = ? AND status = ?", restaurantID, entity.ReviewActive).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepository) IncrementHelpful(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&entity.Review{}).Where("id = ?", id).
		Update("helpful_count", gorm.Expr("helpful_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteByRestaurant(ctx context.Context, restaurantID string) error {
	return r.DB.WithContext(ctx).Delete(&entity.Review{}, "restaurant_id = ?", restaurantID).Error
}
