// Package events fans moderation decisions out to live subscribers over an
// in-process watermill pub/sub.
package events

import (
	"time"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

const TopicRestaurantModerated = "restaurant.moderated"

// RestaurantModerated is published once per moderation decision, after every
// stored effect of the decision has been written.
type RestaurantModerated struct {
	RestaurantID    string                  `json:"restaurantId"`
	RestaurantTitle string                  `json:"restaurantTitle"`
	OwnerID         string                  `json:"ownerId"`
	ModeratorID     string                  `json:"moderatorId"`
	PreviousStatus  entity.ModerationStatus `json:"previousStatus"`
	Status          entity.ModerationStatus `json:"status"`
	Reason          string                  `json:"reason,omitempty"`
	DecidedAt       time.Time               `json:"decidedAt"`

	// Notification is the owner's stored notification, nil when none was
	// created.
	Notification *entity.Notification `json:"notification,omitempty"`
}

// StatusChanged mirrors the old update trigger's guard: only a real change
// to a non-pending status produces side effects.
func (e RestaurantModerated) StatusChanged() bool {
	return e.Status != e.PreviousStatus && e.Status != entity.ModerationPending
}
