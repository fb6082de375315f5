package models

import (
	"time"
)

// ReactionType is the closed set of reactions a user can leave on an incident.
type ReactionType string

const (
	ReactionLike      ReactionType = "like"
	ReactionHelpful   ReactionType = "helpful"
	ReactionConcerned ReactionType = "concerned"
	ReactionResolved  ReactionType = "resolved"
)

func (r ReactionType) Valid() bool {
	switch r {
	case ReactionLike, ReactionHelpful, ReactionConcerned, ReactionResolved:
		return true
	}
	return false
}

// Reaction holds at most one entry per (user, incident) pair; repeating the
// same type removes it, a different type replaces it.
type Reaction struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Type       ReactionType `gorm:"not null;size:20" json:"type"`
	UserID     uint         `gorm:"not null;uniqueIndex:idx_reactions_user_incident,priority:1" json:"user_id"`
	IncidentID uint         `gorm:"not null;uniqueIndex:idx_reactions_user_incident,priority:2;index" json:"incident_id"`
	CreatedAt  time.Time    `json:"created_at"`

	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Incident Incident `gorm:"foreignKey:IncidentID" json:"-"`
}
