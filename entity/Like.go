package entity

import "time"

type Like struct {
	ID           string    `gorm:"primaryKey;size:128" json:"id"`
	UserID       string    `gorm:"not null;uniqueIndex:idx_like_user_restaurant" json:"userId"`
	RestaurantID string    `gorm:"not null;uniqueIndex:idx_like_user_restaurant;index" json:"restaurantId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Like) TableName() string { return "likes" }
