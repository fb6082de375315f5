package models

import (
	"time"
)

// IncidentCategory is the closed set of report categories.
type IncidentCategory string

const (
	CategoryDamages              IncidentCategory = "damages"
	CategoryLostAndFound         IncidentCategory = "lost_and_found"
	CategoryAccidents            IncidentCategory = "accidents"
	CategoryEnvironmentalHazards IncidentCategory = "environmental_hazards"
	CategoryNoticesSuggestions   IncidentCategory = "notices_suggestions"
	CategoryComplaints           IncidentCategory = "complaints"
)

// Categories lists every valid category in display order.
func Categories() []IncidentCategory {
	return []IncidentCategory{
		CategoryDamages,
		CategoryLostAndFound,
		CategoryAccidents,
		CategoryEnvironmentalHazards,
		CategoryNoticesSuggestions,
		CategoryComplaints,
	}
}

func (c IncidentCategory) Valid() bool {
	switch c {
	case CategoryDamages, CategoryLostAndFound, CategoryAccidents,
		CategoryEnvironmentalHazards, CategoryNoticesSuggestions, CategoryComplaints:
		return true
	}
	return false
}

// IncidentStatus is the moderation lifecycle state of an incident.
type IncidentStatus string

const (
	StatusActive   IncidentStatus = "active"
	StatusResolved IncidentStatus = "resolved"
	StatusArchived IncidentStatus = "archived"
	StatusFlagged  IncidentStatus = "flagged"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusArchived, StatusFlagged:
		return true
	}
	return false
}

// Incident is a user-submitted report of a campus issue.
//
// UpdatedAt is managed by the services, not by GORM: it stays nil until the
// incident is first mutated (author edit or moderation), so resolution-time
// analytics can tell "never touched" apart from "updated at creation".
type Incident struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"not null;size:200" json:"title"`
	Description string           `gorm:"not null;type:text" json:"description"`
	Category    IncidentCategory `gorm:"not null;size:50;index" json:"category"`
	Status      IncidentStatus   `gorm:"not null;size:20;default:'active';index" json:"status"`
	Location    *string          `gorm:"size:100" json:"location,omitempty"`
	ImageURL    *string          `gorm:"size:500" json:"image_url,omitempty"`
	AuthorID    uint             `gorm:"not null;index" json:"author_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	Author    User       `gorm:"foreignKey:AuthorID" json:"-"`
	Comments  []Comment  `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Comment is a reply on an incident. Deleted together with its incident.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"not null;type:text" json:"content"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	IncidentID uint      `gorm:"not null;index" json:"incident_id"`
	IsFlagged  bool      `gorm:"not null;default:false;index" json:"is_flagged"`
	CreatedAt  time.Time `json:"created_at"`

	Author   User     `gorm:"foreignKey:AuthorID" json:"-"`
	Incident Incident `gorm:"foreignKey:IncidentID" json:"-"`
}
