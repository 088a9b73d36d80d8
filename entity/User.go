package entity

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Model
	DisplayName string `json:"displayName"`
	Username    string `gorm:"index" json:"username"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	City        string `json:"city"`
	Role        Role   `gorm:"not null;default:registered;index" json:"role"`
	AvatarURL   string `json:"avatarUrl"`

	// ids of liked restaurants, kept in sync with the likes table
	Favorites datatypes.JSONSlice[string] `json:"favorites"`

	// local identity provider only
	PasswordHash string            `json:"-"`
	Claims       datatypes.JSONMap `json:"-"`
}

func (User) TableName() string { return "users" }

// AfterFind normalises legacy role values once, when the row is loaded.
func (u *User) AfterFind(tx *gorm.DB) error {
	u.Role = NormalizeRole(u.Role)
	return nil
}

func (u *User) HasFavorite(restaurantID string) bool {
	for _, id := range u.Favorites {
		if id == restaurantID {
			return true
		}
	}
	return false
}
