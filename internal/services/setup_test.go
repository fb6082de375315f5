package services

import (
	"sync"
	"testing"
	"time"

	"github.com/campuswatch/ireport-backend/internal/audit"
	"github.com/campuswatch/ireport-backend/internal/config"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Incident{},
		&models.Comment{},
		&models.Reaction{},
		&models.AdminLog{},
		&models.SystemLog{},
	))
	return db
}

func newUploadStore(t *testing.T) *upload.Store {
	t.Helper()
	s := upload.NewStore(t.TempDir(), 5*1024*1024)
	require.NoError(t, s.EnsureDirs())
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  30 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
		AppBaseURL:       "http://localhost:3000",
	}
}

// recordingMailer captures outgoing mail for assertions.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func seedUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Email:          email,
		FullName:       "Test User",
		HashedPassword: "$2a$10$unused",
		IsActive:       true,
		IsAdmin:        isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedIncident(t *testing.T, db *gorm.DB, authorID uint, category models.IncidentCategory, status models.IncidentStatus) *models.Incident {
	t.Helper()
	incident := &models.Incident{
		Title:       "Broken window in the library",
		Description: "The east wing window has been shattered since Monday.",
		Category:    category,
		Status:      status,
		AuthorID:    authorID,
	}
	require.NoError(t, db.Create(incident).Error)
	return incident
}

func auditRecorder(db *gorm.DB) *audit.Recorder {
	return audit.NewRecorder(db)
}

func auditEntries(t *testing.T, db *gorm.DB) []models.AdminLog {
	t.Helper()
	var logs []models.AdminLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	return logs
}
