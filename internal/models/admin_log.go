package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit severity levels.
const (
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// AdminLog is an append-only audit record of an administrative action.
// Rows are never updated or deleted by normal operation.
type AdminLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Action     string         `gorm:"not null;size:100;index" json:"action"`
	TargetType string         `gorm:"size:50" json:"target_type"`
	TargetID   uint           `json:"target_id"`
	Details    datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"details"`
	Level      string         `gorm:"size:20;not null;default:'INFO';index" json:"level"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
