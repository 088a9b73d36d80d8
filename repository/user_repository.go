package repository

import (
	"context"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserRepository talks to the users table only.
type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, userID string, updates map[string]any) error {
	return r.DB.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role entity.Role) error {
	res := r.DB.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PromoteIfRole changes the role only while the stored role still equals
// from. It reports whether a row was changed.
func (r *UserRepository) PromoteIfRole(ctx context.Context, userID string, from, to entity.Role) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID)
	if from == entity.RoleRegistered {
		// rows written before the rename still carry "user" or nothing
		q = q.Where("role IN ?", []string{string(entity.RoleRegistered), "user", ""})
	} else {
		q = q.Where("role = ?", from)
	}
	res := q.Update("role", to)
	return res.RowsAffected > 0, res.Error
}

// ExistsWithRole is a LIMIT 1 probe; used by the admin bootstrap.
func (r *UserRepository) ExistsWithRole(ctx context.Context, role entity.Role) (bool, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&entity.User{}).
		Where("role = ?", role).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

func (r *UserRepository) ListByRole(ctx context.Context, role entity.Role, limit, offset int) ([]entity.User, error) {
	var users []entity.User
	q := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateClaims(ctx context.Context, userID string, claims datatypes.JSONMap) error {
	res := r.DB.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Update("claims", claims)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) SaveFavorites(ctx context.Context, userID string, favorites []string) error {
	return r.DB.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		Update("favorites", datatypes.JSONSlice[string](favorites)).Error
}
