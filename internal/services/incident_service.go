package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"gorm.io/gorm"
)

var (
	ErrIncidentNotFound    = errors.New("incident not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrNotIncidentAuthor   = errors.New("not authorized to modify this incident")
	ErrInvalidCategory     = errors.New("invalid incident category")
	ErrInvalidStatus       = errors.New("invalid incident status")
	ErrInvalidReaction     = errors.New("invalid reaction type")
	ErrTitleTooShort       = errors.New("title must be at least 3 characters")
	ErrDescriptionTooShort = errors.New("description must be at least 10 characters")
	ErrEmptyComment        = errors.New("comment content is required")
)

type IncidentService struct {
	db    *gorm.DB
	store *upload.Store
}

func NewIncidentService(db *gorm.DB, store *upload.Store) *IncidentService {
	return &IncidentService{db: db, store: store}
}

// IncidentFilter narrows and orders incident listings.
type IncidentFilter struct {
	Category  string
	Status    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// SearchFilter is a text search across title, description and location.
type SearchFilter struct {
	Query    string
	Category string
	Location string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Create validates and stores a new incident. imageURL is the already-saved
// storage path of an attached photo, or nil; on any failure the file is
// removed again so nothing orphaned stays on disk.
func (s *IncidentService) Create(authorID uint, req *dto.CreateIncidentRequest, imageURL *string) (*dto.IncidentResponse, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	category := models.IncidentCategory(strings.ToLower(strings.TrimSpace(req.Category)))

	discard := func(err error) (*dto.IncidentResponse, error) {
		if imageURL != nil {
			s.store.Delete(*imageURL)
		}
		return nil, err
	}

	if len(title) < 3 {
		return discard(ErrTitleTooShort)
	}
	if len(description) < 10 {
		return discard(ErrDescriptionTooShort)
	}
	if !category.Valid() {
		return discard(fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category))
	}

	var location *string
	if req.Location != nil {
		if trimmed := strings.TrimSpace(*req.Location); trimmed != "" {
			location = &trimmed
		}
	}

	incident := models.Incident{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      models.StatusActive,
		Location:    location,
		ImageURL:    imageURL,
		AuthorID:    authorID,
	}

	if err := s.db.Create(&incident).Error; err != nil {
		return discard(fmt.Errorf("failed to create incident: %w", err))
	}

	return s.respond(&incident, authorID)
}

// List returns non-archived incidents with engagement counts, sortable by
// creation time, title or engagement.
func (s *IncidentService) List(viewerID uint, f IncidentFilter) ([]dto.IncidentResponse, int64, error) {
	query := s.db.Model(&models.Incident{}).Where("status <> ?", models.StatusArchived)

	if f.Category != "" {
		category := models.IncidentCategory(f.Category)
		if !category.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
		}
		query = query.Where("category = ?", category)
	}
	if f.Status != "" {
		status := models.IncidentStatus(f.Status)
		if !status.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	switch f.SortBy {
	case "title":
		query = query.Order("title " + order)
	case "reactions_count":
		query = query.Order("(SELECT COUNT(*) FROM reactions WHERE reactions.incident_id = incidents.id) " + order)
	case "comments_count":
		query = query.Order("(SELECT COUNT(*) FROM comments WHERE comments.incident_id = incidents.id) " + order)
	default:
		query = query.Order("created_at " + order)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var incidents []models.Incident
	if err := query.Preload("Author").Limit(limit).Offset(f.Offset).Find(&incidents).Error; err != nil {
		return nil, 0, err
	}

	return s.respondAll(incidents, viewerID, total)
}

// Search matches the query against title, description and location,
// case-insensitively, excluding archived incidents.
func (s *IncidentService) Search(viewerID uint, f SearchFilter) ([]dto.IncidentResponse, int64, error) {
	q := strings.TrimSpace(f.Query)
	if len(q) < 2 {
		return nil, 0, errors.New("search query must be at least 2 characters")
	}

	pattern := "%" + strings.ToLower(q) + "%"
	query := s.db.Model(&models.Incident{}).
		Where("status <> ?", models.StatusArchived).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(COALESCE(location, '')) LIKE ?",
			pattern, pattern, pattern)

	if f.Category != "" {
		category := models.IncidentCategory(f.Category)
		if !category.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
		}
		query = query.Where("category = ?", category)
	}
	if f.Location != "" {
		query = query.Where("LOWER(COALESCE(location, '')) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", *f.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var incidents []models.Incident
	if err := query.Preload("Author").Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&incidents).Error; err != nil {
		return nil, 0, err
	}

	return s.respondAll(incidents, viewerID, total)
}

// Get returns one incident. Archived incidents are hidden from non-admins
// as if they did not exist.
func (s *IncidentService) Get(viewerID uint, incidentID uint, isAdmin bool) (*dto.IncidentResponse, error) {
	var incident models.Incident
	if err := s.db.Preload("Author").First(&incident, incidentID).Error; err != nil {
		return nil, ErrIncidentNotFound
	}

	if incident.Status == models.StatusArchived && !isAdmin {
		return nil, ErrIncidentNotFound
	}

	return s.respond(&incident, viewerID)
}

// Update applies author edits and stamps updated_at.
func (s *IncidentService) Update(userID uint, incidentID uint, req *dto.UpdateIncidentRequest) (*dto.IncidentResponse, error) {
	var incident models.Incident
	if err := s.db.Preload("Author").First(&incident, incidentID).Error; err != nil {
		return nil, ErrIncidentNotFound
	}

	if incident.AuthorID != userID {
		return nil, ErrNotIncidentAuthor
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			return nil, ErrTitleTooShort
		}
		updates["title"] = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if len(description) < 10 {
			return nil, ErrDescriptionTooShort
		}
		updates["description"] = description
	}
	if req.Category != nil {
		category := models.IncidentCategory(strings.ToLower(strings.TrimSpace(*req.Category)))
		if !category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *req.Category)
		}
		updates["category"] = category
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			updates["location"] = nil
		} else {
			updates["location"] = location
		}
	}

	if len(updates) == 0 {
		return s.respond(&incident, userID)
	}

	updates["updated_at"] = time.Now()
	if err := s.db.Model(&incident).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	if err := s.db.Preload("Author").First(&incident, incidentID).Error; err != nil {
		return nil, err
	}
	return s.respond(&incident, userID)
}

// Delete removes an incident with its comments, reactions and stored image.
// Allowed for the author or an admin.
func (s *IncidentService) Delete(userID uint, incidentID uint, isAdmin bool) error {
	var incident models.Incident
	if err := s.db.First(&incident, incidentID).Error; err != nil {
		return ErrIncidentNotFound
	}

	if incident.AuthorID != userID && !isAdmin {
		return ErrNotIncidentAuthor
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("incident_id = ?", incidentID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("incident_id = ?", incidentID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&incident).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if incident.ImageURL != nil {
		s.store.Delete(*incident.ImageURL)
	}
	return nil
}

func (s *IncidentService) AddComment(userID uint, incidentID uint, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	var incident models.Incident
	if err := s.db.First(&incident, incidentID).Error; err != nil {
		return nil, ErrIncidentNotFound
	}

	comment := models.Comment{
		Content:    content,
		AuthorID:   userID,
		IncidentID: incidentID,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := s.db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	resp := commentResponse(&comment)
	return &resp, nil
}

// Comments returns an incident's comments newest first.
func (s *IncidentService) Comments(incidentID uint) ([]dto.CommentResponse, error) {
	var incident models.Incident
	if err := s.db.First(&incident, incidentID).Error; err != nil {
		return nil, ErrIncidentNotFound
	}

	var comments []models.Comment
	if err := s.db.Preload("Author").
		Where("incident_id = ?", incidentID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	out := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, commentResponse(&comments[i]))
	}
	return out, nil
}

// ToggleReaction implements the three-way toggle: no reaction adds one,
// repeating the same type removes it, a different type replaces it.
func (s *IncidentService) ToggleReaction(userID uint, incidentID uint, reactionType string) (*dto.ReactionResponse, error) {
	rtype := models.ReactionType(strings.ToLower(strings.TrimSpace(reactionType)))
	if !rtype.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReaction, reactionType)
	}

	var incident models.Incident
	if err := s.db.First(&incident, incidentID).Error; err != nil {
		return nil, ErrIncidentNotFound
	}

	result := ""
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Reaction
		err := tx.Where("user_id = ? AND incident_id = ?", userID, incidentID).First(&existing).Error
		switch {
		case err == nil && existing.Type == rtype:
			result = "removed"
			return tx.Delete(&existing).Error
		case err == nil:
			result = "updated"
			return tx.Model(&existing).Update("type", rtype).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = "added"
			return tx.Create(&models.Reaction{
				Type:       rtype,
				UserID:     userID,
				IncidentID: incidentID,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	counts, err := s.reactionCounts(incidentID)
	if err != nil {
		return nil, err
	}
	return &dto.ReactionResponse{Result: result, Counts: counts}, nil
}

func (s *IncidentService) reactionCounts(incidentID uint) (map[string]int64, error) {
	type row struct {
		Type  string
		Count int64
	}
	var rows []row
	err := s.db.Model(&models.Reaction{}).
		Select("type, COUNT(*) as count").
		Where("incident_id = ?", incidentID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}

func (s *IncidentService) respond(incident *models.Incident, viewerID uint) (*dto.IncidentResponse, error) {
	if incident.Author.ID == 0 {
		if err := s.db.First(&incident.Author, incident.AuthorID).Error; err != nil {
			return nil, err
		}
	}
	list, _, err := s.respondAll([]models.Incident{*incident}, viewerID, 1)
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *IncidentService) respondAll(incidents []models.Incident, viewerID uint, total int64) ([]dto.IncidentResponse, int64, error) {
	out := make([]dto.IncidentResponse, 0, len(incidents))
	for i := range incidents {
		incident := &incidents[i]

		var commentCount, reactionCount int64
		if err := s.db.Model(&models.Comment{}).Where("incident_id = ?", incident.ID).Count(&commentCount).Error; err != nil {
			return nil, 0, err
		}
		if err := s.db.Model(&models.Reaction{}).Where("incident_id = ?", incident.ID).Count(&reactionCount).Error; err != nil {
			return nil, 0, err
		}

		var userReaction *string
		var own models.Reaction
		if err := s.db.Where("user_id = ? AND incident_id = ?", viewerID, incident.ID).First(&own).Error; err == nil {
			t := string(own.Type)
			userReaction = &t
		}

		counts, err := s.reactionCounts(incident.ID)
		if err != nil {
			return nil, 0, err
		}

		out = append(out, dto.IncidentResponse{
			ID:            incident.ID,
			Title:         incident.Title,
			Description:   incident.Description,
			Category:      string(incident.Category),
			Status:        string(incident.Status),
			Location:      incident.Location,
			ImageURL:      incident.ImageURL,
			Author:        userResponse(&incident.Author),
			CommentCount:  commentCount,
			ReactionCount: reactionCount,
			Reactions:     counts,
			UserReaction:  userReaction,
			CreatedAt:     incident.CreatedAt,
			UpdatedAt:     incident.UpdatedAt,
		})
	}
	return out, total, nil
}

func commentResponse(comment *models.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		Content:    comment.Content,
		Author:     userResponse(&comment.Author),
		IncidentID: comment.IncidentID,
		IsFlagged:  comment.IsFlagged,
		CreatedAt:  comment.CreatedAt,
	}
}
