package services

import (
	"bytes"
	"os"
	"testing"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserAdminService(t *testing.T) (*UserAdminService, *gorm.DB, *upload.Store) {
	t.Helper()
	db := newTestDB(t)
	store := newUploadStore(t)
	return NewUserAdminService(db, store, auditRecorder(db)), db, store
}

func boolptr(b bool) *bool { return &b }

func TestListUsersWithCounts(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	alice := seedUser(t, db, "alice@campus.edu", false)
	bob := seedUser(t, db, "bob@campus.edu", false)

	incident := seedIncident(t, db, alice.ID, models.CategoryDamages, models.StatusActive)
	require.NoError(t, db.Create(&models.Comment{Content: "noted", AuthorID: alice.ID, IncidentID: incident.ID}).Error)
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionLike, UserID: bob.ID, IncidentID: incident.ID}).Error)

	users, err := svc.ListUsers(UserListFilter{SortBy: "incidents_count", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, alice.ID, users[0].UserID)
	assert.Equal(t, int64(1), users[0].IncidentsCount)
	assert.Equal(t, int64(1), users[0].CommentsCount)
	assert.NotNil(t, users[0].LastActivity)

	assert.Equal(t, bob.ID, users[1].UserID)
	assert.Equal(t, int64(1), users[1].ReactionsCount)
	assert.Zero(t, users[1].IncidentsCount)
}

func TestListUsersFilters(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	seedUser(t, db, "active@campus.edu", false)
	admin := seedUser(t, db, "admin@campus.edu", true)

	inactive := seedUser(t, db, "inactive@campus.edu", false)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	users, err := svc.ListUsers(UserListFilter{IsActive: boolptr(false)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, inactive.ID, users[0].UserID)
	assert.Nil(t, users[0].LastActivity, "no content means no last activity")

	users, err = svc.ListUsers(UserListFilter{IsAdmin: boolptr(true)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].UserID)

	users, err = svc.ListUsers(UserListFilter{Search: "INACTIVE"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, inactive.ID, users[0].UserID)
}

func TestUserDetails(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	user := seedUser(t, db, "detail@campus.edu", false)

	active := seedIncident(t, db, user.ID, models.CategoryDamages, models.StatusActive)
	seedIncident(t, db, user.ID, models.CategoryComplaints, models.StatusResolved)
	require.NoError(t, db.Create(&models.Comment{Content: "mine", AuthorID: user.ID, IncidentID: active.ID, IsFlagged: true}).Error)

	details, err := svc.UserDetails(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), details.Statistics.TotalIncidents)
	assert.Equal(t, int64(1), details.Statistics.ActiveIncidents)
	assert.Equal(t, int64(1), details.Statistics.ResolvedIncidents)
	assert.Equal(t, int64(1), details.Statistics.FlaggedComments)
	assert.Len(t, details.RecentIncidents, 2)
	assert.Len(t, details.RecentComments, 1)

	_, err = svc.UserDetails(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetUserStatusGuards(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	admin := seedUser(t, db, "admin@campus.edu", true)
	otherAdmin := seedUser(t, db, "admin2@campus.edu", true)
	user := seedUser(t, db, "user@campus.edu", false)

	// Admins cannot change their own status.
	_, err := svc.SetUserStatus(admin.ID, admin.ID, &dto.UserStatusRequest{IsActive: false})
	assert.ErrorIs(t, err, ErrSelfModification)

	// Admin accounts cannot be deactivated.
	_, err = svc.SetUserStatus(admin.ID, otherAdmin.ID, &dto.UserStatusRequest{IsActive: false})
	assert.ErrorIs(t, err, ErrAdminProtected)

	msg, err := svc.SetUserStatus(admin.ID, user.ID, &dto.UserStatusRequest{IsActive: false})
	require.NoError(t, err)
	assert.Contains(t, msg, "deactivated")

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.False(t, updated.IsActive)

	logs := auditEntries(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, "user_status_change", logs[0].Action)
}

func TestSetAdminStatusGuards(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	admin := seedUser(t, db, "admin@campus.edu", true)
	user := seedUser(t, db, "user@campus.edu", false)

	_, err := svc.SetAdminStatus(admin.ID, admin.ID, &dto.AdminStatusRequest{IsAdmin: false})
	assert.ErrorIs(t, err, ErrSelfModification)

	msg, err := svc.SetAdminStatus(admin.ID, user.ID, &dto.AdminStatusRequest{IsAdmin: true})
	require.NoError(t, err)
	assert.Contains(t, msg, "granted")

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.True(t, updated.IsAdmin)

	logs := auditEntries(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin_privilege_change", logs[0].Action)
	assert.Equal(t, models.LevelWarning, logs[0].Level)
}

func TestDeleteUserGuards(t *testing.T) {
	svc, db, _ := newUserAdminService(t)
	admin := seedUser(t, db, "admin@campus.edu", true)
	otherAdmin := seedUser(t, db, "admin2@campus.edu", true)

	assert.ErrorIs(t, svc.DeleteUser(admin.ID, otherAdmin.ID, nil), ErrAdminProtected)
	assert.ErrorIs(t, svc.DeleteUser(admin.ID, 99999, nil), ErrUserNotFound)
}

func TestDeleteUserRemovesContentAndFiles(t *testing.T) {
	svc, db, store := newUserAdminService(t)
	admin := seedUser(t, db, "admin@campus.edu", true)
	user := seedUser(t, db, "doomed@campus.edu", false)
	bystander := seedUser(t, db, "bystander@campus.edu", false)

	profileRel, err := store.Save(bytes.NewReader([]byte("avatar")), "me.txt", "text/plain", 6, upload.SaveOptions{
		Folder: "profile_images", Class: upload.ClassDocument,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("profile_image", profileRel).Error)

	imageRel, err := store.Save(bytes.NewReader([]byte("img")), "photo.txt", "text/plain", 3, upload.SaveOptions{
		Folder: "incident_images", Class: upload.ClassDocument,
	})
	require.NoError(t, err)

	incident := &models.Incident{
		Title:       "Doomed user's incident",
		Description: "Will disappear together with its author.",
		Category:    models.CategoryDamages,
		Status:      models.StatusActive,
		ImageURL:    &imageRel,
		AuthorID:    user.ID,
	}
	require.NoError(t, db.Create(incident).Error)
	require.NoError(t, db.Create(&models.Comment{Content: "by bystander", AuthorID: bystander.ID, IncidentID: incident.ID}).Error)
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionLike, UserID: user.ID, IncidentID: incident.ID}).Error)

	require.NoError(t, svc.DeleteUser(admin.ID, user.ID, strptr("spam account")))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&userCount).Error)
	assert.Zero(t, userCount)

	// Their incident goes, including the bystander's comment under it.
	var incidents, comments, reactions int64
	require.NoError(t, db.Model(&models.Incident{}).Count(&incidents).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Reaction{}).Count(&reactions).Error)
	assert.Zero(t, incidents)
	assert.Zero(t, comments)
	assert.Zero(t, reactions)

	for _, rel := range []string{profileRel, imageRel} {
		full, ok := store.Resolve(rel)
		require.True(t, ok)
		_, statErr := os.Stat(full)
		assert.True(t, os.IsNotExist(statErr), "stored file %s must be removed", rel)
	}

	logs := auditEntries(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, "user_deletion", logs[0].Action)
	assert.Equal(t, models.LevelWarning, logs[0].Level)
}
