package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/audit"
	"github.com/campuswatch/ireport-backend/internal/config"
	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/mailer"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"gorm.io/gorm"
)

var (
	ErrInvalidAction = errors.New("invalid moderation action")
	ErrNoItems       = errors.New("no item IDs provided")
)

// Moderation actions for incidents. Comments only support flag, unflag and
// delete.
const (
	ActionFlag     = "flag"
	ActionUnflag   = "unflag"
	ActionArchive  = "archive"
	ActionResolve  = "resolve"
	ActionActivate = "activate"
	ActionDelete   = "delete"
)

var incidentStatusForAction = map[string]models.IncidentStatus{
	ActionFlag:     models.StatusFlagged,
	ActionUnflag:   models.StatusActive,
	ActionArchive:  models.StatusArchived,
	ActionResolve:  models.StatusResolved,
	ActionActivate: models.StatusActive,
}

// ModerationService carries out admin actions against incidents and
// comments. Every action lands one entry in the audit trail; notification
// mail and the audit write itself are best effort.
type ModerationService struct {
	db     *gorm.DB
	store  *upload.Store
	audit  *audit.Recorder
	mailer mailer.Sender
	cfg    *config.Config
}

func NewModerationService(db *gorm.DB, store *upload.Store, recorder *audit.Recorder, sender mailer.Sender, cfg *config.Config) *ModerationService {
	return &ModerationService{db: db, store: store, audit: recorder, mailer: sender, cfg: cfg}
}

// ModerateIncident applies one action to one incident. Status actions stamp
// updated_at; delete removes the incident, its children and its image file.
func (s *ModerationService) ModerateIncident(adminID uint, incidentID uint, req *dto.ModerationRequest) (string, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))

	var incident models.Incident
	if err := s.db.Preload("Author").First(&incident, incidentID).Error; err != nil {
		return "", ErrIncidentNotFound
	}

	if action == ActionDelete {
		s.audit.Record(adminID, "incident_deletion", "incident", incidentID, map[string]interface{}{
			"incident_title": incident.Title,
			"author_email":   incident.Author.Email,
			"reason":         reasonOrNil(req.Reason),
		}, models.LevelWarning)

		if err := s.deleteIncident(&incident); err != nil {
			return "", err
		}
		return "Incident deleted successfully", nil
	}

	newStatus, ok := incidentStatusForAction[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}

	oldStatus := incident.Status
	now := time.Now()
	err := s.db.Model(&incident).Updates(map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to moderate incident: %w", err)
	}

	s.audit.Record(adminID, "incident_"+action, "incident", incidentID, map[string]interface{}{
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
		"reason":     reasonOrNil(req.Reason),
	}, models.LevelInfo)

	if req.NotifyUser {
		if err := s.mailer.Send(incident.Author.Email,
			mailer.IncidentUpdateSubject(incident.Title),
			mailer.IncidentUpdateBody(s.cfg.AppBaseURL, incident.Title, pastTense(action))); err != nil {
			slog.Error("failed to send moderation notification",
				"incident_id", incident.ID, "action", action, "error", err)
		}
	}

	return fmt.Sprintf("Incident %s successfully", pastTense(action)), nil
}

// BulkModerateIncidents applies one action to a set of incidents. Items that
// fail are skipped so one bad row never aborts the rest; the response counts
// what actually went through.
func (s *ModerationService) BulkModerateIncidents(adminID uint, req *dto.BulkModerationRequest) (*dto.BulkResult, error) {
	if len(req.ItemIDs) == 0 {
		return nil, ErrNoItems
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	newStatus, statusAction := incidentStatusForAction[action]
	if !statusAction && action != ActionDelete {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
	if action == ActionUnflag {
		return nil, fmt.Errorf("%w: %q is not a bulk action", ErrInvalidAction, req.Action)
	}

	var incidents []models.Incident
	if err := s.db.Where("id IN ?", req.ItemIDs).Find(&incidents).Error; err != nil {
		return nil, err
	}
	if len(incidents) == 0 {
		return nil, ErrIncidentNotFound
	}

	processed := 0
	for i := range incidents {
		incident := &incidents[i]
		oldStatus := incident.Status

		var err error
		if action == ActionDelete {
			err = s.deleteIncident(incident)
		} else {
			err = s.db.Model(incident).Updates(map[string]interface{}{
				"status":     newStatus,
				"updated_at": time.Now(),
			}).Error
		}
		if err != nil {
			slog.Error("bulk moderation item failed",
				"incident_id", incident.ID, "action", action, "error", err)
			continue
		}

		details := map[string]interface{}{
			"reason":         reasonOrNil(req.Reason),
			"bulk_operation": true,
		}
		if action != ActionDelete {
			details["old_status"] = string(oldStatus)
			details["new_status"] = string(newStatus)
		}
		s.audit.Record(adminID, "bulk_incident_"+action, "incident", incident.ID, details, models.LevelInfo)

		processed++
	}

	return &dto.BulkResult{
		Message:   "Bulk action completed",
		Processed: processed,
		Requested: len(req.ItemIDs),
	}, nil
}

// ModerateComment flags, unflags or deletes a comment.
func (s *ModerationService) ModerateComment(adminID uint, commentID uint, req *dto.ModerationRequest) (string, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))

	var comment models.Comment
	if err := s.db.Preload("Author").First(&comment, commentID).Error; err != nil {
		return "", ErrCommentNotFound
	}

	switch action {
	case ActionDelete:
		s.audit.Record(adminID, "comment_deletion", "comment", commentID, map[string]interface{}{
			"comment_content": truncate(comment.Content, 100),
			"author_email":    comment.Author.Email,
			"incident_id":     comment.IncidentID,
			"reason":          reasonOrNil(req.Reason),
		}, models.LevelWarning)

		if err := s.db.Delete(&comment).Error; err != nil {
			return "", fmt.Errorf("failed to delete comment: %w", err)
		}
		return "Comment deleted successfully", nil

	case ActionFlag, ActionUnflag:
		oldFlagged := comment.IsFlagged
		flagged := action == ActionFlag
		if err := s.db.Model(&comment).Update("is_flagged", flagged).Error; err != nil {
			return "", fmt.Errorf("failed to moderate comment: %w", err)
		}

		s.audit.Record(adminID, "comment_"+action, "comment", commentID, map[string]interface{}{
			"old_flagged_status": oldFlagged,
			"new_flagged_status": flagged,
			"reason":             reasonOrNil(req.Reason),
		}, models.LevelInfo)

		return fmt.Sprintf("Comment %s successfully", pastTense(action)), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
}

// ModerationQueueFilter narrows the incident moderation listing.
type ModerationQueueFilter struct {
	Status      string
	Category    string
	FlaggedOnly bool
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string
}

// IncidentsForModeration lists incidents with engagement counts and age for
// the admin queue.
func (s *ModerationService) IncidentsForModeration(f ModerationQueueFilter) ([]dto.IncidentModerationItem, error) {
	query := s.db.Model(&models.Incident{})

	if f.Status != "" {
		status := models.IncidentStatus(f.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
		}
		query = query.Where("status = ?", status)
	}
	if f.Category != "" {
		category := models.IncidentCategory(f.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
		}
		query = query.Where("category = ?", category)
	}
	if f.FlaggedOnly {
		query = query.Where("status = ?", models.StatusFlagged)
	}

	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	switch f.SortBy {
	case "title":
		query = query.Order("title " + order)
	case "comments_count":
		query = query.Order("(SELECT COUNT(*) FROM comments WHERE comments.incident_id = incidents.id) " + order)
	case "reactions_count":
		query = query.Order("(SELECT COUNT(*) FROM reactions WHERE reactions.incident_id = incidents.id) " + order)
	default:
		query = query.Order("created_at " + order)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var incidents []models.Incident
	if err := query.Preload("Author").Limit(limit).Offset(f.Offset).Find(&incidents).Error; err != nil {
		return nil, err
	}

	items := make([]dto.IncidentModerationItem, 0, len(incidents))
	for i := range incidents {
		incident := &incidents[i]

		var commentsCount, reactionsCount int64
		if err := s.db.Model(&models.Comment{}).Where("incident_id = ?", incident.ID).Count(&commentsCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Reaction{}).Where("incident_id = ?", incident.ID).Count(&reactionsCount).Error; err != nil {
			return nil, err
		}

		items = append(items, dto.IncidentModerationItem{
			ID:             incident.ID,
			Title:          incident.Title,
			Category:       string(incident.Category),
			Status:         string(incident.Status),
			AuthorEmail:    incident.Author.Email,
			Location:       incident.Location,
			CommentsCount:  commentsCount,
			ReactionsCount: reactionsCount,
			DaysOpen:       int(time.Since(incident.CreatedAt).Hours() / 24),
			CreatedAt:      incident.CreatedAt,
		})
	}
	return items, nil
}

// CommentsForModeration lists comments newest first, optionally only flagged
// ones or those under one incident.
func (s *ModerationService) CommentsForModeration(flaggedOnly bool, incidentID uint, limit, offset int) ([]dto.CommentModerationItem, error) {
	query := s.db.Model(&models.Comment{})

	if flaggedOnly {
		query = query.Where("is_flagged = ?", true)
	}
	if incidentID != 0 {
		query = query.Where("incident_id = ?", incidentID)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var comments []models.Comment
	if err := query.Preload("Author").Preload("Incident").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	items := make([]dto.CommentModerationItem, 0, len(comments))
	for i := range comments {
		comment := &comments[i]
		items = append(items, dto.CommentModerationItem{
			ID:      comment.ID,
			Content: comment.Content,
			Author: dto.UserRef{
				ID:       comment.Author.ID,
				FullName: comment.Author.FullName,
				Email:    comment.Author.Email,
			},
			Incident: dto.IncidentRef{
				ID:     comment.Incident.ID,
				Title:  comment.Incident.Title,
				Status: string(comment.Incident.Status),
			},
			IsFlagged: comment.IsFlagged,
			CreatedAt: comment.CreatedAt,
		})
	}
	return items, nil
}

func (s *ModerationService) deleteIncident(incident *models.Incident) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("incident_id = ?", incident.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("incident_id = ?", incident.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(incident).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if incident.ImageURL != nil {
		s.store.Delete(*incident.ImageURL)
	}
	return nil
}

func pastTense(action string) string {
	switch action {
	case ActionFlag:
		return "flagged"
	case ActionUnflag:
		return "unflagged"
	case ActionArchive:
		return "archived"
	case ActionResolve:
		return "resolved"
	case ActionActivate:
		return "activated"
	case ActionDelete:
		return "deleted"
	}
	return action
}

func reasonOrNil(reason *string) interface{} {
	if reason == nil {
		return nil
	}
	return *reason
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
