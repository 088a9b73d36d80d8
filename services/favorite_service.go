package services

import (
	"context"
	"errors"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// FavoriteService toggles likes. The likes table, restaurants.like_count and
// users.favorites change together.
type FavoriteService struct {
	db          *gorm.DB
	likes       *repository.LikeRepository
	restaurants *repository.RestaurantRepository
	users       *repository.UserRepository
}

func NewFavoriteService(db *gorm.DB, likes *repository.LikeRepository, restaurants *repository.RestaurantRepository, users *repository.UserRepository) *FavoriteService {
	return &FavoriteService{db: db, likes: likes, restaurants: restaurants, users: users}
}

func (s *FavoriteService) Toggle(ctx context.Context, userID, restaurantID string) (*LikeResult, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}

	var res LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurants := s.restaurants.WithTx(tx)
		likes := s.likes.WithTx(tx)
		users := s.users.WithTx(tx)

		rest, err := restaurants.FindByID(ctx, restaurantID)
		if err != nil {
			return lookupErr(err, "restaurant")
		}
		if rest.Moderation.Status != entity.ModerationApproved {
			return notFound("restaurant not found")
		}
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user")
		}

		like, err := likes.Find(ctx, userID, restaurantID)
		switch {
		case err == nil:
			if err := likes.Delete(ctx, like.ID); err != nil {
				return backend("failed to remove like", err)
			}
			if err := restaurants.AddLikes(ctx, restaurantID, -1); err != nil {
				return backend("failed to update like count", err)
			}
			res.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := likes.Create(ctx, &entity.Like{UserID: userID, RestaurantID: restaurantID}); err != nil {
				return backend("failed to add like", err)
			}
			if err := restaurants.AddLikes(ctx, restaurantID, 1); err != nil {
				return backend("failed to update like count", err)
			}
			res.Liked = true
		default:
			return backend("failed to load like", err)
		}

		favorites := withoutID(u.Favorites, restaurantID)
		if res.Liked {
			favorites = append(favorites, restaurantID)
		}
		if err := users.SaveFavorites(ctx, userID, favorites); err != nil {
			return backend("failed to update favorites", err)
		}

		updated, err := restaurants.FindByID(ctx, restaurantID)
		if err != nil {
			return lookupErr(err, "restaurant")
		}
		res.LikeCount = updated.LikeCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// List returns the caller's approved favorites, most recently liked first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]entity.Restaurant, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	rests, err := s.restaurants.FindByIDs(ctx, u.Favorites)
	if err != nil {
		return nil, backend("failed to load favorites", err)
	}

	byID := make(map[string]entity.Restaurant, len(rests))
	for _, r := range rests {
		byID[r.ID] = r
	}
	out := make([]entity.Restaurant, 0, len(rests))
	for i := len(u.Favorites) - 1; i >= 0; i-- {
		r, ok := byID[u.Favorites[i]]
		if ok && r.Moderation.Status == entity.ModerationApproved {
			out = append(out, r)
		}
	}
	return out, nil
}
