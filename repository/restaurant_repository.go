package repository

import (
	"context"
	"strings"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"gorm.io/gorm"
)

type RestaurantRepository struct {
	DB *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{DB: db}
}

func (r *RestaurantRepository) WithTx(tx *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{DB: tx}
}

// RestaurantFilter narrows List. Zero values mean "any".
type RestaurantFilter struct {
	Status  entity.ModerationStatus
	OwnerID string
	City    string
	Cuisine string
	Price   entity.PriceRange
	Query   string
	Limit   int
	Offset  int
}

func (r *RestaurantRepository) Create(ctx context.Context, rest *entity.Restaurant) error {
	return r.DB.WithContext(ctx).Create(rest).Error
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id string) (*entity.Restaurant, error) {
	var rest entity.Restaurant
	if err := r.DB.WithContext(ctx).First(&rest, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *RestaurantRepository) List(ctx context.Context, f RestaurantFilter) ([]entity.Restaurant, error) {
	q := r.DB.WithContext(ctx).Model(&entity.Restaurant{})
	if f.Status != "" {
		q = q.Where("moderation_status = ?", f.Status)
	}
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.City != "" {
		q = q.Where("LOWER(address_city) = ?", strings.ToLower(f.City))
	}
	if f.Price != "" {
		q = q.Where("price_range = ?", f.Price)
	}
	if f.Cuisine != "" {
		// cuisine is a JSON array of strings; match the quoted element
		q = q.Where("cuisine LIKE ?", `%"`+f.Cuisine+`"%`)
	}
	if f.Query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rests []entity.Restaurant
	err := q.Order("created_at DESC").Find(&rests).Error
	return rests, err
}

// UpdateContent writes owner-editable fields. Moderation, rating, like count
// and owner are never part of updates.
func (r *RestaurantRepository) UpdateContent(ctx context.Context, id string, updates map[string]any) error {
	return r.DB.WithContext(ctx).Model(&entity.Restaurant{}).Where("id = ?", id).Updates(updates).Error
}

// DecideModeration writes a decision only while the restaurant is still
// pending. Zero rows affected means someone else decided first.
func (r *RestaurantRepository) DecideModeration(ctx context.Context, id string, m entity.Moderation) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&entity.Restaurant{}).
		Where("id = ? AND moderation_status = ?", id, entity.ModerationPending).
		Updates(map[string]any{
			"moderation_status":           m.Status,
			"moderation_moderator_id":     m.ModeratorID,
			"moderation_reviewed_at":      m.ReviewedAt,
			"moderation_rejection_reason": m.RejectionReason,
		})
	return res.RowsAffected, res.Error
}

func (r *RestaurantRepository) UpdateRating(ctx context.Context, id string, rating entity.Rating) error {
	return r.DB.WithContext(ctx).Model(&entity.Restaurant{}).Where("id = ?", id).
		Updates(map[string]any{
			"rating_average": rating.Average,
			"rating_count":   rating.Count,
		}).Error
}

// AddLikes adjusts like_count by delta, never going below zero.
func (r *RestaurantRepository) AddLikes(ctx context.Context, id string, delta int) error {
	return r.DB.WithContext(ctx).Model(&entity.Restaurant{}).Where("id = ?", id).
		Update("like_count", gorm.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta)).Error
}

func (r *RestaurantRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&entity.Restaurant{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *RestaurantRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Restaurant, error) {
	var rests []entity.Restaurant
	if len(ids) == 0 {
		return rests, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rests).Error
	return rests, err
}
