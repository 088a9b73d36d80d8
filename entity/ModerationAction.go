package entity

import "time"

// ModerationAction is the append-only audit trail of moderation decisions.
type ModerationAction struct {
	ID           string           `gorm:"primaryKey;size:128" json:"id"`
	RestaurantID string           `gorm:"not null;index" json:"restaurantId"`
	ModeratorID  string           `gorm:"not null;index" json:"moderatorId"`
	Action       ModerationStatus `gorm:"not null" json:"action"`
	Reason       *string          `json:"reason,omitempty"`
	CreatedAt    time.Time        `gorm:"index" json:"timestamp"`
}

func (ModerationAction) TableName() string { return "moderation_actions" }
