package audit

import (
	"testing"

	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRecorder(t *testing.T) (*Recorder, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AdminLog{}))
	return NewRecorder(db), db
}

func TestRecordWritesEntry(t *testing.T) {
	rec, db := newTestRecorder(t)

	rec.Record(7, "incident_flag", "incident", 42, map[string]interface{}{
		"old_status": "active",
		"new_status": "flagged",
	}, models.LevelInfo)

	var logs []models.AdminLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)

	assert.Equal(t, uint(7), logs[0].AdminID)
	assert.Equal(t, "incident_flag", logs[0].Action)
	assert.Equal(t, "incident", logs[0].TargetType)
	assert.Equal(t, uint(42), logs[0].TargetID)
	assert.Equal(t, models.LevelInfo, logs[0].Level)
	assert.Contains(t, string(logs[0].Details), "flagged")
}

func TestRecordDefaultsLevel(t *testing.T) {
	rec, db := newTestRecorder(t)

	rec.Record(1, "user_deletion", "user", 2, nil, "")

	var entry models.AdminLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.LevelInfo, entry.Level)
	assert.Empty(t, entry.Details)
}

func TestListNewestFirstWithFilter(t *testing.T) {
	rec, _ := newTestRecorder(t)

	rec.Record(1, "first", "incident", 1, nil, models.LevelInfo)
	rec.Record(1, "second", "incident", 2, nil, models.LevelWarning)
	rec.Record(1, "third", "incident", 3, nil, models.LevelWarning)

	logs, total, err := rec.List("", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, logs, 3)

	logs, total, err = rec.List(models.LevelWarning, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, entry := range logs {
		assert.Equal(t, models.LevelWarning, entry.Level)
	}

	// Pagination.
	logs, _, err = rec.List("", 1, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
