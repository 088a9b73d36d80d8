package entity

import (
	"time"
)

type ReviewStatus string

const (
	ReviewActive ReviewStatus = "active"
	ReviewHidden ReviewStatus = "hidden"
)

type Review struct {
	Model
	RestaurantID string       `gorm:"not null;index" json:"restaurantId"`
	UserID       string       `gorm:"not null;index" json:"userId"`
	Rating       int          `gorm:"not null" json:"rating"`
	Content      string       `json:"content"`
	VisitDate    *time.Time   `json:"visitDate,omitempty"`
	HelpfulCount int          `gorm:"not null;default:0" json:"helpfulCount"`
	Status       ReviewStatus `gorm:"not null;default:active" json:"status"`
}

func (Review) TableName() string { return "reviews" }
