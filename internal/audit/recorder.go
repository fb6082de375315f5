package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/campuswatch/ireport-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder writes the append-only admin audit trail. Entries are never
// updated or deleted by application code.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit entry. A failed write must never unwind the
// moderation action that triggered it, so failures are logged and swallowed.
func (r *Recorder) Record(adminID uint, action, targetType string, targetID uint, details map[string]interface{}, level string) {
	if level == "" {
		level = models.LevelInfo
	}

	entry := models.AdminLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Level:      level,
		CreatedAt:  time.Now(),
	}

	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			slog.Error("failed to marshal audit details",
				"action", action, "admin_id", adminID, "error", err)
		} else {
			entry.Details = datatypes.JSON(b)
		}
	}

	if err := r.db.Create(&entry).Error; err != nil {
		slog.Error("failed to write audit log",
			"action", action, "admin_id", adminID,
			"target_type", targetType, "target_id", targetID, "error", err)
	}
}

// List returns audit entries newest first, optionally filtered by level.
func (r *Recorder) List(level string, limit, offset int) ([]models.AdminLog, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.Model(&models.AdminLog{})
	if level != "" {
		query = query.Where("level = ?", level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AdminLog
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}
