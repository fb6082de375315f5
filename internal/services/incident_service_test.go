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

func newIncidentService(t *testing.T) (*IncidentService, *gorm.DB, *upload.Store) {
	t.Helper()
	db := newTestDB(t)
	store := newUploadStore(t)
	return NewIncidentService(db, store), db, store
}

func strptr(s string) *string { return &s }

func TestCreateIncident(t *testing.T) {
	svc, _, _ := newIncidentService(t)
	author := seedUser(t, svc.db, "author@campus.edu", false)

	resp, err := svc.Create(author.ID, &dto.CreateIncidentRequest{
		Title:       "  Flooded basement  ",
		Description: "Water is leaking into the basement of dorm B.",
		Category:    "Environmental_Hazards",
		Location:    strptr(" Dorm B "),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Flooded basement", resp.Title)
	assert.Equal(t, "environmental_hazards", resp.Category)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.Location)
	assert.Equal(t, "Dorm B", *resp.Location)
	assert.Nil(t, resp.UpdatedAt, "a fresh incident has no update timestamp")
	assert.Equal(t, author.ID, resp.Author.ID)
}

func TestCreateIncidentValidation(t *testing.T) {
	svc, _, _ := newIncidentService(t)
	author := seedUser(t, svc.db, "author@campus.edu", false)

	_, err := svc.Create(author.ID, &dto.CreateIncidentRequest{
		Title: "ab", Description: "long enough description", Category: "damages",
	}, nil)
	assert.ErrorIs(t, err, ErrTitleTooShort)

	_, err = svc.Create(author.ID, &dto.CreateIncidentRequest{
		Title: "Valid title", Description: "too short", Category: "damages",
	}, nil)
	assert.ErrorIs(t, err, ErrDescriptionTooShort)

	_, err = svc.Create(author.ID, &dto.CreateIncidentRequest{
		Title: "Valid title", Description: "long enough description", Category: "gossip",
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCreateIncidentValidationRemovesStoredImage(t *testing.T) {
	svc, db, store := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)

	rel, err := store.Save(bytes.NewReader([]byte("fake image bytes")), "photo.txt", "text/plain", 16, upload.SaveOptions{
		Folder: "incident_images", Class: upload.ClassDocument,
	})
	require.NoError(t, err)

	_, err = svc.Create(author.ID, &dto.CreateIncidentRequest{
		Title: "ab", Description: "long enough description", Category: "damages",
	}, &rel)
	assert.ErrorIs(t, err, ErrTitleTooShort)

	full, ok := store.Resolve(rel)
	require.True(t, ok)
	_, statErr := os.Stat(full)
	assert.True(t, os.IsNotExist(statErr), "stored image must not survive a rejected incident")

	var count int64
	require.NoError(t, db.Model(&models.Incident{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListExcludesArchived(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)

	seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)
	seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusResolved)
	archived := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusArchived)

	list, total, err := svc.List(author.ID, IncidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, item := range list {
		assert.NotEqual(t, archived.ID, item.ID)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	other := seedUser(t, db, "other@campus.edu", false)

	a := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)
	b := seedIncident(t, db, author.ID, models.CategoryComplaints, models.StatusActive)

	// b gets two reactions, a gets none.
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionLike, UserID: author.ID, IncidentID: b.ID}).Error)
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionHelpful, UserID: other.ID, IncidentID: b.ID}).Error)

	list, _, err := svc.List(author.ID, IncidentFilter{Category: "damages"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, _, err = svc.List(author.ID, IncidentFilter{SortBy: "reactions_count", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, int64(2), list[0].ReactionCount)

	_, _, err = svc.List(author.ID, IncidentFilter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSearchMatchesTitleDescriptionLocation(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)

	library := &models.Incident{
		Title:       "Broken chair",
		Description: "A chair collapsed in the reading room.",
		Category:    models.CategoryDamages,
		Status:      models.StatusActive,
		Location:    strptr("Main Library"),
		AuthorID:    author.ID,
	}
	require.NoError(t, db.Create(library).Error)
	seedIncident(t, db, author.ID, models.CategoryAccidents, models.StatusActive)

	list, total, err := svc.Search(author.ID, SearchFilter{Query: "LIBRARY"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, library.ID, list[0].ID)

	_, _, err = svc.Search(author.ID, SearchFilter{Query: "x"})
	assert.Error(t, err)
}

func TestGetHidesArchivedFromNonAdmins(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	archived := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusArchived)

	_, err := svc.Get(author.ID, archived.ID, false)
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	resp, err := svc.Get(author.ID, archived.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "archived", resp.Status)

	_, err = svc.Get(author.ID, 99999, true)
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestUpdateIncidentAuthorOnly(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	other := seedUser(t, db, "other@campus.edu", false)
	incident := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)

	_, err := svc.Update(other.ID, incident.ID, &dto.UpdateIncidentRequest{Title: strptr("Hijacked")})
	assert.ErrorIs(t, err, ErrNotIncidentAuthor)

	resp, err := svc.Update(author.ID, incident.ID, &dto.UpdateIncidentRequest{Title: strptr("New title")})
	require.NoError(t, err)
	assert.Equal(t, "New title", resp.Title)
	assert.NotNil(t, resp.UpdatedAt, "an edit must stamp updated_at")
}

func TestDeleteIncidentRemovesImageAndChildren(t *testing.T) {
	svc, db, store := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)

	rel, err := store.Save(bytes.NewReader([]byte("fake image bytes")), "photo.txt", "text/plain", 16, upload.SaveOptions{
		Folder: "incident_images", Class: upload.ClassDocument,
	})
	require.NoError(t, err)

	incident := &models.Incident{
		Title:       "Incident with image",
		Description: "Something broke and here is the photo.",
		Category:    models.CategoryDamages,
		Status:      models.StatusActive,
		ImageURL:    &rel,
		AuthorID:    author.ID,
	}
	require.NoError(t, db.Create(incident).Error)
	require.NoError(t, db.Create(&models.Comment{Content: "same here", AuthorID: author.ID, IncidentID: incident.ID}).Error)
	require.NoError(t, db.Create(&models.Reaction{Type: models.ReactionLike, UserID: author.ID, IncidentID: incident.ID}).Error)

	require.NoError(t, svc.Delete(author.ID, incident.ID, false))

	full, ok := store.Resolve(rel)
	require.True(t, ok)
	_, statErr := os.Stat(full)
	assert.True(t, os.IsNotExist(statErr), "image file must be removed with the incident")

	var comments, reactions int64
	require.NoError(t, db.Model(&models.Comment{}).Where("incident_id = ?", incident.ID).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Reaction{}).Where("incident_id = ?", incident.ID).Count(&reactions).Error)
	assert.Zero(t, comments)
	assert.Zero(t, reactions)

	// Second delete reports not found.
	assert.ErrorIs(t, svc.Delete(author.ID, incident.ID, false), ErrIncidentNotFound)
}

func TestDeleteIncidentAuthorization(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	other := seedUser(t, db, "other@campus.edu", false)
	admin := seedUser(t, db, "admin@campus.edu", true)

	incident := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)
	assert.ErrorIs(t, svc.Delete(other.ID, incident.ID, false), ErrNotIncidentAuthor)
	require.NoError(t, svc.Delete(admin.ID, incident.ID, true))
}

func TestComments(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	incident := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)

	_, err := svc.AddComment(author.ID, incident.ID, &dto.CreateCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = svc.AddComment(author.ID, 99999, &dto.CreateCommentRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	first, err := svc.AddComment(author.ID, incident.ID, &dto.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, author.ID, first.Author.ID)

	_, err = svc.AddComment(author.ID, incident.ID, &dto.CreateCommentRequest{Content: "second"})
	require.NoError(t, err)

	comments, err := svc.Comments(incident.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
}

func TestToggleReaction(t *testing.T) {
	svc, db, _ := newIncidentService(t)
	author := seedUser(t, db, "author@campus.edu", false)
	other := seedUser(t, db, "other@campus.edu", false)
	incident := seedIncident(t, db, author.ID, models.CategoryDamages, models.StatusActive)

	_, err := svc.ToggleReaction(author.ID, incident.ID, "applause")
	assert.ErrorIs(t, err, ErrInvalidReaction)

	_, err = svc.ToggleReaction(author.ID, 99999, "like")
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	// No existing reaction: added.
	resp, err := svc.ToggleReaction(author.ID, incident.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, "added", resp.Result)
	assert.Equal(t, int64(1), resp.Counts["like"])

	// Different type: updated in place, still one row.
	resp, err = svc.ToggleReaction(author.ID, incident.ID, "helpful")
	require.NoError(t, err)
	assert.Equal(t, "updated", resp.Result)
	assert.Equal(t, int64(1), resp.Counts["helpful"])
	assert.Zero(t, resp.Counts["like"])

	// Second user reacts independently.
	resp, err = svc.ToggleReaction(other.ID, incident.ID, "helpful")
	require.NoError(t, err)
	assert.Equal(t, "added", resp.Result)
	assert.Equal(t, int64(2), resp.Counts["helpful"])

	// Same type again: removed.
	resp, err = svc.ToggleReaction(author.ID, incident.ID, "helpful")
	require.NoError(t, err)
	assert.Equal(t, "removed", resp.Result)
	assert.Equal(t, int64(1), resp.Counts["helpful"])

	var rows int64
	require.NoError(t, db.Model(&models.Reaction{}).Where("incident_id = ?", incident.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "at most one reaction per user per incident")
}
