package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/events"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/gorm"
)

// Notifier stores the owner's notification for a decision. A nil
// notification with a nil error means none was due.
type Notifier interface {
	NotifyModeration(ctx context.Context, ev events.RestaurantModerated) (*entity.Notification, error)
}

// Publisher fans a finished decision out to live subscribers.
type Publisher interface {
	PublishRestaurantModerated(ctx context.Context, ev events.RestaurantModerated) error
}

type ModerateInput struct {
	RestaurantID string
	Status       entity.ModerationStatus
	// Comments is the rejection reason, stored as supplied; nil is stored
	// as "".
	Comments *string
}

type ModerationResult struct {
	Message       string
	Restaurant    *entity.Restaurant
	OwnerPromoted bool
}

// ModerationService runs the pending -> approved/rejected workflow.
type ModerationService struct {
	users       *repository.UserRepository
	restaurants *repository.RestaurantRepository
	actions     *repository.ModerationRepository
	identity    identity.Provider
	enforcer    *authz.Enforcer
	notifier    Notifier
	publisher   Publisher
	now         func() time.Time
}

func NewModerationService(
	users *repository.UserRepository,
	restaurants *repository.RestaurantRepository,
	actions *repository.ModerationRepository,
	idp identity.Provider,
	enforcer *authz.Enforcer,
	notifier Notifier,
	publisher Publisher,
) *ModerationService {
	return &ModerationService{
		users:       users,
		restaurants: restaurants,
		actions:     actions,
		identity:    idp,
		enforcer:    enforcer,
		notifier:    notifier,
		publisher:   publisher,
		now:         time.Now,
	}
}

// requireModerator loads the caller and checks the stored role, not the
// role carried in the token.
func (s *ModerationService) requireModerator(ctx context.Context, callerID string) (*entity.User, error) {
	if callerID == "" {
		return nil, unauthenticated("authentication required")
	}
	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forbidden("only moderators and administrators can moderate restaurants")
		}
		return nil, backend("failed to load caller", err)
	}
	if !s.enforcer.Allowed(caller.Role, authz.ObjRestaurants, authz.ActModerate) {
		return nil, forbidden("only moderators and administrators can moderate restaurants")
	}
	return caller, nil
}

// Moderate applies a decision. Steps after the status write are not rolled
// back when a later one fails; the error is returned with the earlier steps
// left in place.
func (s *ModerationService) Moderate(ctx context.Context, callerID string, in ModerateInput) (*ModerationResult, error) {
	caller, err := s.requireModerator(ctx, callerID)
	if err != nil {
		return nil, err
	}

	in.RestaurantID = strings.TrimSpace(in.RestaurantID)
	if in.RestaurantID == "" || in.Status == "" {
		return nil, invalid("restaurantId and status are required")
	}
	if !in.Status.Valid() {
		return nil, invalid("status must be one of approved, rejected, pending")
	}

	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, lookupErr(err, "restaurant")
	}
	log := logging.Ctx(ctx).With().
		Str("restaurant_id", rest.ID).
		Str("moderator_id", caller.ID).
		Str("status", string(in.Status)).
		Logger()

	if in.Status == entity.ModerationPending {
		if rest.Moderation.Status == entity.ModerationPending {
			return &ModerationResult{Message: "Restaurant is already pending moderation", Restaurant: rest}, nil
		}
		return nil, conflict("a moderated restaurant cannot be returned to pending")
	}
	if rest.Moderation.Status.Decided() {
		return nil, conflict("restaurant has already been moderated")
	}

	now := s.now().UTC()
	moderatorID := caller.ID
	decision := entity.Moderation{
		Status:      in.Status,
		ModeratorID: &moderatorID,
		ReviewedAt:  &now,
	}
	var reason string
	if in.Comments != nil {
		reason = *in.Comments
	}
	if in.Status == entity.ModerationRejected {
		decision.RejectionReason = &reason
	}

	rows, err := s.restaurants.DecideModeration(ctx, rest.ID, decision)
	if err != nil {
		log.Error().Err(err).Msg("moderation status write failed")
		return nil, backend("failed to moderate restaurant", err)
	}
	if rows == 0 {
		return nil, conflict("restaurant has already been moderated")
	}
	metrics.ModerationDecision(string(in.Status))

	previous := rest.Moderation.Status
	rest.Moderation.Status = decision.Status
	rest.Moderation.ModeratorID = decision.ModeratorID
	rest.Moderation.ReviewedAt = decision.ReviewedAt
	rest.Moderation.RejectionReason = decision.RejectionReason

	result := &ModerationResult{Restaurant: rest}
	if in.Status == entity.ModerationApproved {
		result.Message = "Restaurant approved"
		promoted, err := s.promoteOwner(ctx, rest)
		if err != nil {
			log.Error().Err(err).Str("owner_id", rest.OwnerID).Msg("owner promotion failed")
			return nil, backend("failed to moderate restaurant", err)
		}
		result.OwnerPromoted = promoted
	} else {
		result.Message = "Restaurant rejected"
	}

	action := &entity.ModerationAction{
		RestaurantID: rest.ID,
		ModeratorID:  caller.ID,
		Action:       in.Status,
	}
	if in.Status == entity.ModerationRejected || reason != "" {
		action.Reason = &reason
	}
	if err := s.actions.Append(ctx, action); err != nil {
		log.Error().Err(err).Msg("audit append failed")
		return nil, backend("failed to moderate restaurant", err)
	}

	ev := events.RestaurantModerated{
		RestaurantID:    rest.ID,
		RestaurantTitle: rest.Title,
		OwnerID:         rest.OwnerID,
		ModeratorID:     caller.ID,
		PreviousStatus:  previous,
		Status:          in.Status,
		Reason:          reason,
		DecidedAt:       now,
	}
	n, err := s.notifier.NotifyModeration(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("owner_id", rest.OwnerID).Msg("owner notification failed")
		return nil, backend("failed to moderate restaurant", err)
	}
	ev.Notification = n

	if err := s.publisher.PublishRestaurantModerated(ctx, ev); err != nil {
		log.Error().Err(err).Msg("publish moderation event failed")
		return nil, backend("failed to moderate restaurant", err)
	}

	log.Info().Bool("owner_promoted", result.OwnerPromoted).Msg("restaurant moderated")
	return result, nil
}

// promoteOwner raises a registered owner to owner and mirrors the role into
// the identity claims. Guests and users holding any other role are skipped.
func (s *ModerationService) promoteOwner(ctx context.Context, rest *entity.Restaurant) (bool, error) {
	if rest.OwnedByGuest() {
		return false, nil
	}
	promoted, err := s.users.PromoteIfRole(ctx, rest.OwnerID, entity.RoleRegistered, entity.RoleOwner)
	if err != nil || !promoted {
		return false, err
	}
	if err := s.identity.SetRole(ctx, rest.OwnerID, entity.RoleOwner); err != nil {
		return true, err
	}
	metrics.RoleChanged(string(entity.RoleOwner))
	return true, nil
}

// Queue lists restaurants in the given moderation state, pending by default.
func (s *ModerationService) Queue(ctx context.Context, callerID string, status entity.ModerationStatus, page Page) ([]entity.Restaurant, error) {
	if _, err := s.requireModerator(ctx, callerID); err != nil {
		return nil, err
	}
	if status == "" {
		status = entity.ModerationPending
	}
	if !status.Valid() {
		return nil, invalid("status must be one of approved, rejected, pending")
	}
	page = page.Normalize()
	rests, err := s.restaurants.List(ctx, repository.RestaurantFilter{Status: status, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, backend("failed to load restaurants", err)
	}
	return rests, nil
}

// History returns the audit trail, optionally for one restaurant.
func (s *ModerationService) History(ctx context.Context, callerID, restaurantID string, page Page) ([]entity.ModerationAction, error) {
	if _, err := s.requireModerator(ctx, callerID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	actions, err := s.actions.List(ctx, restaurantID, page.Limit, page.Offset)
	if err != nil {
		return nil, backend("failed to load moderation history", err)
	}
	return actions, nil
}
