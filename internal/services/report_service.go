package services

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"gorm.io/gorm"
)

// ReportService generates exportable incident and user activity reports in
// JSON or CSV.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// IncidentsReport exports incidents, optionally bounded by creation time.
// With includeComments the JSON form nests each incident's comments; the CSV
// form always stays flat and carries only the comment count.
func (s *ReportService) IncidentsReport(startDate, endDate *time.Time, includeComments bool, format string) (*dto.Report, error) {
	query := s.db.Model(&models.Incident{}).Preload("Author")
	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}

	var incidents []models.Incident
	if err := query.Order("created_at DESC").Find(&incidents).Error; err != nil {
		return nil, err
	}

	rows := make([]dto.IncidentReportRow, 0, len(incidents))
	for i := range incidents {
		incident := &incidents[i]

		var commentsCount, reactionsCount int64
		if err := s.db.Model(&models.Comment{}).Where("incident_id = ?", incident.ID).Count(&commentsCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Reaction{}).Where("incident_id = ?", incident.ID).Count(&reactionsCount).Error; err != nil {
			return nil, err
		}

		var updatedAt *string
		if incident.UpdatedAt != nil {
			v := incident.UpdatedAt.Format(time.RFC3339)
			updatedAt = &v
		}

		row := dto.IncidentReportRow{
			ID:             incident.ID,
			Title:          incident.Title,
			Description:    incident.Description,
			Category:       string(incident.Category),
			Status:         string(incident.Status),
			Location:       incident.Location,
			AuthorEmail:    incident.Author.Email,
			AuthorName:     incident.Author.FullName,
			CreatedAt:      incident.CreatedAt.Format(time.RFC3339),
			UpdatedAt:      updatedAt,
			HasImage:       incident.ImageURL != nil,
			CommentsCount:  commentsCount,
			ReactionsCount: reactionsCount,
		}

		if includeComments {
			comments, err := s.incidentComments(incident.ID)
			if err != nil {
				return nil, err
			}
			row.Comments = comments
		}

		rows = append(rows, row)
	}

	now := time.Now().UTC()
	if format == "csv" {
		data, err := incidentsCSV(rows)
		if err != nil {
			return nil, err
		}
		return &dto.Report{
			Format:   "csv",
			Data:     data,
			Filename: fmt.Sprintf("incidents_report_%s.csv", now.Format("20060102_150405")),
		}, nil
	}

	return &dto.Report{
		Format:      "json",
		Data:        rows,
		Total:       len(rows),
		GeneratedAt: now.Format(time.RFC3339),
	}, nil
}

func (s *ReportService) incidentComments(incidentID uint) ([]dto.IncidentReportComment, error) {
	var comments []models.Comment
	err := s.db.Preload("Author").
		Where("incident_id = ?", incidentID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	rows := make([]dto.IncidentReportComment, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, dto.IncidentReportComment{
			ID:          c.ID,
			Content:     c.Content,
			AuthorEmail: c.Author.Email,
			CreatedAt:   c.CreatedAt.Format(time.RFC3339),
			IsFlagged:   c.IsFlagged,
		})
	}
	return rows, nil
}

// UsersReport exports user accounts with their activity counts.
func (s *ReportService) UsersReport(includeInactive bool, format string) (*dto.Report, error) {
	query := s.db.Model(&models.User{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	rows := make([]dto.UserReportRow, 0, len(users))
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

		rows = append(rows, dto.UserReportRow{
			ID:             user.ID,
			Email:          user.Email,
			FullName:       user.FullName,
			IsActive:       user.IsActive,
			IsAdmin:        user.IsAdmin,
			CreatedAt:      user.CreatedAt.Format(time.RFC3339),
			IncidentsCount: incidents,
			CommentsCount:  comments,
			ReactionsCount: reactions,
			TotalActivity:  incidents + comments + reactions,
		})
	}

	now := time.Now().UTC()
	if format == "csv" {
		data, err := usersCSV(rows)
		if err != nil {
			return nil, err
		}
		return &dto.Report{
			Format:   "csv",
			Data:     data,
			Filename: fmt.Sprintf("users_report_%s.csv", now.Format("20060102_150405")),
		}, nil
	}

	return &dto.Report{
		Format:      "json",
		Data:        rows,
		Total:       len(rows),
		GeneratedAt: now.Format(time.RFC3339),
	}, nil
}

func incidentsCSV(rows []dto.IncidentReportRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{
		"id", "title", "description", "category", "status", "location",
		"author_email", "author_name", "created_at", "updated_at",
		"has_image", "comments_count", "reactions_count",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Title,
			r.Description,
			r.Category,
			r.Status,
			deref(r.Location),
			r.AuthorEmail,
			r.AuthorName,
			r.CreatedAt,
			deref(r.UpdatedAt),
			strconv.FormatBool(r.HasImage),
			strconv.FormatInt(r.CommentsCount, 10),
			strconv.FormatInt(r.ReactionsCount, 10),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

func usersCSV(rows []dto.UserReportRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{
		"id", "email", "full_name", "is_active", "is_admin", "created_at",
		"incidents_count", "comments_count", "reactions_count", "total_activity",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Email,
			r.FullName,
			strconv.FormatBool(r.IsActive),
			strconv.FormatBool(r.IsAdmin),
			r.CreatedAt,
			strconv.FormatInt(r.IncidentsCount, 10),
			strconv.FormatInt(r.CommentsCount, 10),
			strconv.FormatInt(r.ReactionsCount, 10),
			strconv.FormatInt(r.TotalActivity, 10),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
