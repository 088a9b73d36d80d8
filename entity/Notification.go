package entity

import "time"

type NotificationType string

const (
	NotificationRestaurantApproved NotificationType = "restaurant_approved"
	NotificationRestaurantRejected NotificationType = "restaurant_rejected"
	NotificationOther              NotificationType = "other"
)

// Notification is written once by the moderation flow; only Read changes
// afterwards.
type Notification struct {
	ID        string           `gorm:"primaryKey;size:128" json:"id"`
	UserID    string           `gorm:"not null;index" json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `gorm:"not null" json:"type"`
	RelatedID string           `json:"relatedId,omitempty"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
