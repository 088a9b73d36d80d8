package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/events"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

const noReasonPlaceholder = "no reason given"

// Pusher delivers a payload to the live connections of a user.
type Pusher interface {
	Push(userID string, payload any)
}

type NotificationService struct {
	repo   *repository.NotificationRepository
	pusher Pusher
}

// NewNotificationService accepts a nil pusher when live delivery is off.
func NewNotificationService(repo *repository.NotificationRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

// NotifyModeration stores the owner's notification for a decision. Guest
// submissions and non-changes produce nothing and return nil.
func (s *NotificationService) NotifyModeration(ctx context.Context, ev events.RestaurantModerated) (*entity.Notification, error) {
	if !ev.StatusChanged() {
		return nil, nil
	}
	if ev.OwnerID == "" || ev.OwnerID == entity.GuestOwner {
		logging.Ctx(ctx).Debug().Str("restaurant_id", ev.RestaurantID).Msg("guest submission, no notification")
		return nil, nil
	}

	n := buildModerationNotification(ev)
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationCreated(string(n.Type))

	logging.Ctx(ctx).Info().
		Str("user_id", n.UserID).
		Str("restaurant_id", ev.RestaurantID).
		Str("type", string(n.Type)).
		Msg("notification created")
	return n, nil
}

// PushRestaurantModerated sends the decision's stored notification to the
// owner's open connections.
func (s *NotificationService) PushRestaurantModerated(ctx context.Context, ev events.RestaurantModerated) error {
	if s.pusher == nil || ev.Notification == nil {
		return nil
	}
	s.pusher.Push(ev.Notification.UserID, ev.Notification)
	return nil
}

func buildModerationNotification(ev events.RestaurantModerated) *entity.Notification {
	n := &entity.Notification{
		UserID:    ev.OwnerID,
		RelatedID: ev.RestaurantID,
	}
	switch ev.Status {
	case entity.ModerationApproved:
		n.Type = entity.NotificationRestaurantApproved
		n.Title = "Restaurant approved"
		n.Message = fmt.Sprintf("Your restaurant %q has been approved and is now visible to everyone.", ev.RestaurantTitle)
	case entity.ModerationRejected:
		reason := ev.Reason
		if strings.TrimSpace(reason) == "" {
			reason = noReasonPlaceholder
		}
		n.Type = entity.NotificationRestaurantRejected
		n.Title = "Restaurant rejected"
		n.Message = fmt.Sprintf("Your restaurant %q was rejected. Reason: %s", ev.RestaurantTitle, reason)
	default:
		n.Type = entity.NotificationOther
		n.Title = "Restaurant status changed"
		n.Message = fmt.Sprintf("The status of %q is now %s.", ev.RestaurantTitle, ev.Status)
	}
	return n
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page Page) ([]entity.Notification, error) {
	if userID == "" {
		return nil, unauthenticated("authentication required")
	}
	page = page.Normalize()
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return nil, backend("failed to load notifications", err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return unauthenticated("authentication required")
	}
	err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("notification not found")
	}
	if err != nil {
		return backend("failed to update notification", err)
	}
	return nil
}

// MarkAllRead returns how many notifications were flipped.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, unauthenticated("authentication required")
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, backend("failed to update notifications", err)
	}
	return n, nil
}
