package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/audit"
	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"gorm.io/gorm"
)

var (
	ErrSelfModification = errors.New("cannot modify your own account")
	ErrAdminProtected   = errors.New("cannot perform this action on an admin account")
)

// UserAdminService is the admin surface over user accounts: listing with
// activity stats, status and privilege changes, and deletion.
type UserAdminService struct {
	db    *gorm.DB
	store *upload.Store
	audit *audit.Recorder
}

func NewUserAdminService(db *gorm.DB, store *upload.Store, recorder *audit.Recorder) *UserAdminService {
	return &UserAdminService{db: db, store: store, audit: recorder}
}

// UserListFilter narrows and orders the admin user listing.
type UserListFilter struct {
	Search    string
	IsActive  *bool
	IsAdmin   *bool
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// ListUsers returns users with their contribution counts and last activity.
func (s *UserAdminService) ListUsers(f UserListFilter) ([]dto.UserAnalytics, error) {
	query := s.db.Model(&models.User{})

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}
	if f.IsAdmin != nil {
		query = query.Where("is_admin = ?", *f.IsAdmin)
	}

	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	switch f.SortBy {
	case "email":
		query = query.Order("email " + order)
	case "full_name":
		query = query.Order("full_name " + order)
	case "incidents_count":
		query = query.Order("(SELECT COUNT(*) FROM incidents WHERE incidents.author_id = users.id) " + order)
	default:
		query = query.Order("created_at " + order)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.User
	if err := query.Limit(limit).Offset(f.Offset).Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]dto.UserAnalytics, 0, len(users))
	for i := range users {
		user := &users[i]

		var incidents, comments, reactions int64
		if err := s.db.Model(&models.Incident{}).Where("author_id = ?", user.ID).Count(&incidents).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Comment{}).Where("author_id = ?", user.ID).Count(&comments).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Reaction{}).Where("user_id = ?", user.ID).Count(&reactions).Error; err != nil {
			return nil, err
		}

		last, err := s.lastActivity(user.ID)
		if err != nil {
			return nil, err
		}

		out = append(out, dto.UserAnalytics{
			UserID:         user.ID,
			Email:          user.Email,
			FullName:       user.FullName,
			IncidentsCount: incidents,
			CommentsCount:  comments,
			ReactionsCount: reactions,
			LastActivity:   last,
			AccountAgeDays: int(time.Since(user.CreatedAt).Hours() / 24),
			IsActive:       user.IsActive,
		})
	}
	return out, nil
}

// lastActivity is the latest of the user's incident, comment or reaction
// timestamps, nil when they have none.
func (s *UserAdminService) lastActivity(userID uint) (*time.Time, error) {
	var candidates []*time.Time

	for _, q := range []struct {
		model  interface{}
		column string
	}{
		{&models.Incident{}, "author_id"},
		{&models.Comment{}, "author_id"},
		{&models.Reaction{}, "user_id"},
	} {
		var latest *time.Time
		err := s.db.Model(q.model).
			Select("MAX(created_at)").
			Where(q.column+" = ?", userID).
			Scan(&latest).Error
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, latest)
	}

	var last *time.Time
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if last == nil || c.After(*last) {
			last = c
		}
	}
	return last, nil
}

// UserDetails returns an account with its statistics and recent activity.
func (s *UserAdminService) UserDetails(userID uint) (*dto.UserDetails, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var stats dto.UserDetailStats
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalIncidents, s.db.Model(&models.Incident{}).Where("author_id = ?", userID)},
		{&stats.ActiveIncidents, s.db.Model(&models.Incident{}).Where("author_id = ? AND status = ?", userID, models.StatusActive)},
		{&stats.ResolvedIncidents, s.db.Model(&models.Incident{}).Where("author_id = ? AND status = ?", userID, models.StatusResolved)},
		{&stats.TotalComments, s.db.Model(&models.Comment{}).Where("author_id = ?", userID)},
		{&stats.FlaggedComments, s.db.Model(&models.Comment{}).Where("author_id = ? AND is_flagged = ?", userID, true)},
		{&stats.TotalReactions, s.db.Model(&models.Reaction{}).Where("user_id = ?", userID)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var incidents []models.Incident
	if err := s.db.Where("author_id = ?", userID).
		Order("created_at DESC").Limit(20).Find(&incidents).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.Where("author_id = ?", userID).
		Order("created_at DESC").Limit(20).Find(&comments).Error; err != nil {
		return nil, err
	}

	details := &dto.UserDetails{
		User:       userResponse(&user),
		Statistics: stats,
	}
	for i := range incidents {
		details.RecentIncidents = append(details.RecentIncidents, dto.UserIncidentSummary{
			ID:        incidents[i].ID,
			Title:     incidents[i].Title,
			Category:  string(incidents[i].Category),
			Status:    string(incidents[i].Status),
			CreatedAt: incidents[i].CreatedAt,
		})
	}
	for i := range comments {
		details.RecentComments = append(details.RecentComments, dto.UserCommentSummary{
			ID:         comments[i].ID,
			Content:    truncate(comments[i].Content, 100),
			IncidentID: comments[i].IncidentID,
			IsFlagged:  comments[i].IsFlagged,
			CreatedAt:  comments[i].CreatedAt,
		})
	}
	return details, nil
}

// SetUserStatus activates or deactivates an account. Admins cannot be
// deactivated and admins cannot change their own status.
func (s *UserAdminService) SetUserStatus(adminID uint, userID uint, req *dto.UserStatusRequest) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "", ErrUserNotFound
	}

	if user.ID == adminID {
		return "", ErrSelfModification
	}
	if user.IsAdmin && !req.IsActive {
		return "", ErrAdminProtected
	}

	oldStatus := user.IsActive
	if err := s.db.Model(&user).Update("is_active", req.IsActive).Error; err != nil {
		return "", fmt.Errorf("failed to update user status: %w", err)
	}

	s.audit.Record(adminID, "user_status_change", "user", userID, map[string]interface{}{
		"old_status": oldStatus,
		"new_status": req.IsActive,
		"reason":     reasonOrNil(req.Reason),
	}, models.LevelInfo)

	if req.IsActive {
		return "User activated successfully", nil
	}
	return "User deactivated successfully", nil
}

// SetAdminStatus grants or revokes admin privileges. Self-changes are
// rejected so the last admin cannot lock themselves out by accident.
func (s *UserAdminService) SetAdminStatus(adminID uint, userID uint, req *dto.AdminStatusRequest) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "", ErrUserNotFound
	}

	if user.ID == adminID {
		return "", ErrSelfModification
	}

	oldStatus := user.IsAdmin
	if err := s.db.Model(&user).Update("is_admin", req.IsAdmin).Error; err != nil {
		return "", fmt.Errorf("failed to update admin status: %w", err)
	}

	s.audit.Record(adminID, "admin_privilege_change", "user", userID, map[string]interface{}{
		"old_admin_status": oldStatus,
		"new_admin_status": req.IsAdmin,
	}, models.LevelWarning)

	if req.IsAdmin {
		return "Admin privileges granted successfully", nil
	}
	return "Admin privileges revoked successfully", nil
}

// DeleteUser removes an account with all its content and stored files.
// Admin accounts cannot be deleted at all.
func (s *UserAdminService) DeleteUser(adminID uint, userID uint, reason *string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	if user.IsAdmin {
		return ErrAdminProtected
	}
	if user.ID == adminID {
		return ErrSelfModification
	}

	var incidentsWithImages []models.Incident
	if err := s.db.Where("author_id = ? AND image_url IS NOT NULL", userID).
		Find(&incidentsWithImages).Error; err != nil {
		return err
	}

	s.audit.Record(adminID, "user_deletion", "user", userID, map[string]interface{}{
		"deleted_user_email": user.Email,
		"deleted_user_name":  user.FullName,
		"reason":             reasonOrNil(reason),
	}, models.LevelWarning)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var incidentIDs []uint
		if err := tx.Model(&models.Incident{}).Where("author_id = ?", userID).
			Pluck("id", &incidentIDs).Error; err != nil {
			return err
		}
		if len(incidentIDs) > 0 {
			if err := tx.Where("incident_id IN ?", incidentIDs).Delete(&models.Reaction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("incident_id IN ?", incidentIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Incident{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for i := range incidentsWithImages {
		if incidentsWithImages[i].ImageURL != nil {
			s.store.Delete(*incidentsWithImages[i].ImageURL)
		}
	}
	if user.ProfileImage != nil {
		s.store.Delete(*user.ProfileImage)
	}
	return nil
}
