package models

import (
	"time"
)

// User is a campus community member. Accounts start inactive and are
// activated through email verification.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	FullName          string    `gorm:"not null;size:255" json:"full_name"`
	HashedPassword    string    `gorm:"not null" json:"-"`
	IsActive          bool      `gorm:"not null;default:false" json:"is_active"`
	IsAdmin           bool      `gorm:"not null;default:false" json:"is_admin"`
	ProfileImage      *string   `gorm:"size:500" json:"profile_image,omitempty"`
	VerificationToken *string   `gorm:"size:64;index" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Incidents []Incident `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
