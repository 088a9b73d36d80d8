package entity

import (
	"time"

	"gorm.io/datatypes"
)

// GuestOwner is stored as owner id for submissions made without signing in.
const GuestOwner = "guest"

type PriceRange string

const (
	PriceBudget    PriceRange = "$"
	PriceModerate  PriceRange = "$$"
	PriceExpensive PriceRange = "$$$"
	PriceLuxury    PriceRange = "$$$$"
)

func (p PriceRange) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PriceExpensive, PriceLuxury:
		return true
	}
	return false
}

type Address struct {
	Street     string `json:"street"`
	City       string `gorm:"index" json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Contact struct {
	Phone   string            `json:"phone"`
	Website string            `json:"website"`
	Social  datatypes.JSONMap `json:"social"`
}

type MenuItem struct {
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ContactPerson is the submitter's contact details captured at submission
// time, not the restaurant's public contact.
type ContactPerson struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	IsOwner bool   `json:"isOwner"`
}

// Moderation is embedded in the restaurant row. ModeratorID and ReviewedAt
// are written together by a moderation decision and stay nil while pending.
type Moderation struct {
	Status          ModerationStatus `gorm:"not null;default:pending;index" json:"status"`
	ModeratorID     *string          `json:"moderatorId,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewedAt,omitempty"`
	RejectionReason *string          `json:"rejectionReason,omitempty"`
	ContactPerson   ContactPerson    `gorm:"embedded;embeddedPrefix:contact_person_" json:"contactPerson"`
}

type Restaurant struct {
	Model
	Title       string   `gorm:"not null;index" json:"title"`
	Description string   `json:"description"`
	Address     Address  `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Location    GeoPoint `gorm:"embedded;embeddedPrefix:location_" json:"location"`

	MainImage string                      `json:"mainImage"`
	Gallery   datatypes.JSONSlice[string] `json:"gallery"`

	Contact    Contact                       `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Cuisine    datatypes.JSONSlice[string]   `json:"cuisine"`
	Features   datatypes.JSONSlice[string]   `json:"features"`
	PriceRange PriceRange                    `json:"priceRange"`
	Menu       datatypes.JSONSlice[MenuItem] `json:"menu"`

	Rating    Rating `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	LikeCount int    `gorm:"not null;default:0" json:"likeCount"`

	OwnerID    string     `gorm:"not null;index" json:"ownerId"`
	Moderation Moderation `gorm:"embedded;embeddedPrefix:moderation_" json:"moderation"`
}

func (Restaurant) TableName() string { return "restaurants" }

func (r *Restaurant) OwnedByGuest() bool { return r.OwnerID == GuestOwner || r.OwnerID == "" }
