package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentsReportJSON(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	user := seedUser(t, db, "user@campus.edu", false)

	incident := seedIncident(t, db, user.ID, models.CategoryDamages, models.StatusActive)
	require.NoError(t, db.Create(&models.Comment{Content: "c", AuthorID: user.ID, IncidentID: incident.ID}).Error)

	report, err := svc.IncidentsReport(nil, nil, false, "json")
	require.NoError(t, err)

	assert.Equal(t, "json", report.Format)
	assert.Equal(t, 1, report.Total)
	assert.NotEmpty(t, report.GeneratedAt)

	rows, ok := report.Data.([]dto.IncidentReportRow)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, incident.Title, rows[0].Title)
	assert.Equal(t, user.Email, rows[0].AuthorEmail)
	assert.Equal(t, int64(1), rows[0].CommentsCount)
	assert.False(t, rows[0].HasImage)
	assert.Nil(t, rows[0].UpdatedAt)
	assert.Empty(t, rows[0].Comments, "comments stay out unless requested")
}

func TestIncidentsReportWithComments(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	author := seedUser(t, db, "author@campus.edu", false)
	commenter := seedUser(t, db, "commenter@campus.edu", false)

	incident := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)
	require.NoError(t, db.Create(&models.Comment{Content: "first", AuthorID: author.ID, IncidentID: incident.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Content: "second", AuthorID: commenter.ID, IncidentID: incident.ID, IsFlagged: true}).Error)

	report, err := svc.IncidentsReport(nil, nil, true, "json")
	require.NoError(t, err)

	rows, ok := report.Data.([]dto.IncidentReportRow)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].CommentsCount)

	require.Len(t, rows[0].Comments, 2)
	assert.Equal(t, "first", rows[0].Comments[0].Content)
	assert.Equal(t, author.Email, rows[0].Comments[0].AuthorEmail)
	assert.Equal(t, "second", rows[0].Comments[1].Content)
	assert.Equal(t, commenter.Email, rows[0].Comments[1].AuthorEmail)
	assert.True(t, rows[0].Comments[1].IsFlagged)

	// The flat rendering keeps only the count column.
	report, err = svc.IncidentsReport(nil, nil, true, "csv")
	require.NoError(t, err)
	data, ok := report.Data.(string)
	require.True(t, ok)

	records, csvErr := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, csvErr)
	require.Len(t, records, 2)
	assert.NotContains(t, records[0], "comments")
	assert.Contains(t, records[0], "comments_count")
	assert.NotContains(t, data, "first")
}

func TestIncidentsReportDateRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	user := seedUser(t, db, "user@campus.edu", false)

	seedIncident(t, db, user.ID, models.CategoryDamages, models.StatusActive)
	old := seedIncident(t, db, user.ID, models.CategoryComplaints, models.StatusActive)
	stale := time.Now().AddDate(0, -2, 0)
	require.NoError(t, db.Model(old).Update("created_at", stale).Error)

	since := time.Now().AddDate(0, -1, 0)
	report, err := svc.IncidentsReport(&since, nil, false, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
}

func TestIncidentsReportCSV(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	user := seedUser(t, db, "user@campus.edu", false)
	seedIncident(t, db, user.ID, models.CategoryDamages, models.StatusActive)
	seedIncident(t, db, user.ID, models.CategoryComplaints, models.StatusResolved)

	report, err := svc.IncidentsReport(nil, nil, false, "csv")
	require.NoError(t, err)

	assert.Equal(t, "csv", report.Format)
	assert.Contains(t, report.Filename, "incidents_report_")

	data, ok := report.Data.(string)
	require.True(t, ok)

	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "title", records[0][1])
}

func TestUsersReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	active := seedUser(t, db, "active@campus.edu", false)
	inactive := seedUser(t, db, "inactive@campus.edu", false)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	incident := seedIncident(t, db, active.ID, models.CategoryDamages, models.StatusActive)
	require.NoError(t, db.Create(&models.Comment{Content: "c", AuthorID: active.ID, IncidentID: incident.ID}).Error)
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionLike, UserID: active.ID, IncidentID: incident.ID}).Error)

	report, err := svc.UsersReport(true, "json")
	require.NoError(t, err)
	rows, ok := report.Data.([]dto.UserReportRow)
	require.True(t, ok)
	assert.Len(t, rows, 2)

	report, err = svc.UsersReport(false, "json")
	require.NoError(t, err)
	rows, ok = report.Data.([]dto.UserReportRow)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, active.Email, rows[0].Email)
	assert.Equal(t, int64(3), rows[0].TotalActivity)
}

func TestUsersReportCSV(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportService(db)
	seedUser(t, db, "only@campus.edu", false)

	report, err := svc.UsersReport(true, "csv")
	require.NoError(t, err)

	data, ok := report.Data.(string)
	require.True(t, ok)

	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "email", records[0][1])
	assert.Equal(t, "only@campus.edu", records[1][1])
}
