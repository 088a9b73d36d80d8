package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

const maxReviewLength = 5000

type ReviewInput struct {
	Rating    int
	Content   string
	VisitDate *time.Time
}

// ReviewPatch holds the author-editable fields; nil leaves a field as is.
type ReviewPatch struct {
	Rating    *int
	Content   *string
	VisitDate *time.Time
}

// ReviewService keeps each restaurant's rating aggregate in step with its
// active reviews. Every write and its recomputation share one transaction.
type ReviewService struct {
	db          *gorm.DB
	reviews     *repository.ReviewRepository
	restaurants *repository.RestaurantRepository
	users       *repository.UserRepository
	enforcer    *authz.Enforcer
}

func NewReviewService(
	db *gorm.DB,
	reviews *repository.ReviewRepository,
	restaurants *repository.RestaurantRepository,
	users *repository.UserRepository,
	enforcer *authz.Enforcer,
) *ReviewService {
	return &ReviewService{db: db, reviews: reviews, restaurants: restaurants, users: users, enforcer: enforcer}
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func (s *ReviewService) caller(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, forbidden("user profile not found")
	}
	if err != nil {
		return nil, backend("failed to load caller", err)
	}
	return u, nil
}

// applyRating recomputes and stores the aggregate of restaurantID inside tx.
func applyRating(ctx context.Context, restaurants *repository.RestaurantRepository, restaurantID string, op RatingOp, newRating, oldRating int) error {
	rest, err := restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return lookupErr(err, "restaurant")
	}
	next := RecomputeRating(rest.Rating, op, newRating, oldRating)
	if err := restaurants.UpdateRating(ctx, restaurantID, next); err != nil {
		return backend("failed to update rating", err)
	}
	metrics.RatingRecomputed(string(op))
	return nil
}

func (s *ReviewService) Create(ctx context.Context, userID, restaurantID string, in ReviewInput) (*entity.Review, error) {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.enforcer.Allowed(u.Role, authz.ObjReviews, authz.ActWrite) {
		return nil, forbidden("you cannot write reviews")
	}
	if !validRating(in.Rating) {
		return nil, invalid("rating must be between 1 and 5")
	}
	content := strings.TrimSpace(in.Content)
	if len(content) > maxReviewLength {
		return nil, invalid("review is too long")
	}

	rev := &entity.Review{
		RestaurantID: restaurantID,
		UserID:       u.ID,
		Rating:       in.Rating,
		Content:      content,
		VisitDate:    in.VisitDate,
		Status:       entity.ReviewActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurants := s.restaurants.WithTx(tx)
		rest, err := restaurants.FindByID(ctx, restaurantID)
		if err != nil {
			return lookupErr(err, "restaurant")
		}
		if rest.Moderation.Status != entity.ModerationApproved {
			return notFound("restaurant not found")
		}
		if err := s.reviews.WithTx(tx).Create(ctx, rev); err != nil {
			return backend("failed to save review", err)
		}
		return applyRating(ctx, restaurants, restaurantID, RatingCreate, rev.Rating, 0)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// Update is limited to the review's author.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, patch ReviewPatch) (*entity.Review, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	if patch.Rating != nil && !validRating(*patch.Rating) {
		return nil, invalid("rating must be between 1 and 5")
	}

	var rev *entity.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)
		var err error
		rev, err = reviews.FindByID(ctx, reviewID)
		if err != nil {
			return lookupErr(err, "review")
		}
		if rev.UserID != userID {
			return forbidden("only the author can edit this review")
		}

		oldRating := rev.Rating
		if patch.Rating != nil {
			rev.Rating = *patch.Rating
		}
		if patch.Content != nil {
			content := strings.TrimSpace(*patch.Content)
			if len(content) > maxReviewLength {
				return invalid("review is too long")
			}
			rev.Content = content
		}
		if patch.VisitDate != nil {
			rev.VisitDate = patch.VisitDate
		}
		if err := reviews.Save(ctx, rev); err != nil {
			return backend("failed to save review", err)
		}

		if rev.Status != entity.ReviewActive || rev.Rating == oldRating {
			return nil
		}
		return applyRating(ctx, s.restaurants.WithTx(tx), rev.RestaurantID, RatingUpdate, rev.Rating, oldRating)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// Delete is allowed to the author and to anyone the policy lets delete any
// review.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)
		rev, err := reviews.FindByID(ctx, reviewID)
		if err != nil {
			return lookupErr(err, "review")
		}
		if rev.UserID != u.ID && !s.enforcer.Allowed(u.Role, authz.ObjReviews, authz.ActDeleteAny) {
			return forbidden("only the author or a moderator can delete this review")
		}
		if err := reviews.Delete(ctx, rev.ID); err != nil {
			return backend("failed to delete review", err)
		}
		if rev.Status != entity.ReviewActive {
			return nil
		}
		return applyRating(ctx, s.restaurants.WithTx(tx), rev.RestaurantID, RatingDelete, rev.Rating, 0)
	})
}

// Hide takes an active review out of public listings and out of the
// restaurant's rating. The author still sees it in ListMine.
func (s *ReviewService) Hide(ctx context.Context, userID, reviewID string) (*entity.Review, error) {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.enforcer.Allowed(u.Role, authz.ObjReviews, authz.ActHide) {
		return nil, forbidden("only moderators can hide reviews")
	}

	var rev *entity.Review
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)
		var err error
		rev, err = reviews.FindByID(ctx, reviewID)
		if err != nil {
			return lookupErr(err, "review")
		}
		rows, err := reviews.SetStatus(ctx, rev.ID, entity.ReviewActive, entity.ReviewHidden)
		if err != nil {
			return backend("failed to hide review", err)
		}
		if rows == 0 {
			return conflict("review is already hidden")
		}
		rev.Status = entity.ReviewHidden
		return applyRating(ctx, s.restaurants.WithTx(tx), rev.RestaurantID, RatingDelete, rev.Rating, 0)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID string, page Page) ([]entity.Review, error) {
	page = page.Normalize()
	reviews, err := s.reviews.ListByRestaurant(ctx, restaurantID, page.Limit, page.Offset)
	if err != nil {
		return nil, backend("failed to load reviews", err)
	}
	return reviews, nil
}

func (s *ReviewService) ListMine(ctx context.Context, userID string, page Page) ([]entity.Review, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	page = page.Normalize()
	reviews, err := s.reviews.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, backend("failed to load reviews", err)
	}
	return reviews, nil
}

func (s *ReviewService) MarkHelpful(ctx context.Context, userID, reviewID string) error {
	if userID == "" {
		return unauthenticated("authentication required")
	}
	err := s.reviews.IncrementHelpful(ctx, reviewID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("review not found")
	}
	if err != nil {
		return backend("failed to update review", err)
	}
	return nil
}
