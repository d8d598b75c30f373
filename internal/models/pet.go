package models

import (
	"time"

	"gorm.io/gorm"
)

// Pet is a pet profile owned by a user
type Pet struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID   string `gorm:"not null;index" json:"owner_id"`
	Name      string `gorm:"not null" json:"name"`
	Species   string `json:"species"`
	AvatarURL string `json:"avatar_url"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PetFollow is a user following a pet profile. Following a pet pulls its owner's posts into home.
type PetFollow struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string    `gorm:"not null;index" json:"follower_id"`
	PetID      string    `gorm:"not null;index" json:"pet_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Place is a named location posts can be checked in to
type Place struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Latitude  float64   `gorm:"not null;index:idx_places_lat_lng" json:"latitude"`
	Longitude float64   `gorm:"not null;index:idx_places_lat_lng" json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (pf *PetFollow) BeforeCreate(tx *gorm.DB) error {
	if pf.ID == "" {
		pf.ID = generateUUID()
	}
	return nil
}

func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
