package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/campuswatch/ireport-backend/internal/audit"
	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/middleware"
	"github.com/campuswatch/ireport-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	analyticsService  *services.AnalyticsService
	moderationService *services.ModerationService
	userAdminService  *services.UserAdminService
	reportService     *services.ReportService
	auditRecorder     *audit.Recorder
}

func NewAdminHandler(
	analyticsService *services.AnalyticsService,
	moderationService *services.ModerationService,
	userAdminService *services.UserAdminService,
	reportService *services.ReportService,
	auditRecorder *audit.Recorder,
) *AdminHandler {
	return &AdminHandler{
		analyticsService:  analyticsService,
		moderationService: moderationService,
		userAdminService:  userAdminService,
		reportService:     reportService,
		auditRecorder:     auditRecorder,
	}
}

// --- Analytics ---

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.analyticsService.Dashboard()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to compute dashboard statistics",
		})
	}
	return c.JSON(stats)
}

func (h *AdminHandler) CategoryAnalytics(c *fiber.Ctx) error {
	categories, err := h.analyticsService.Categories()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to compute category analytics",
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *AdminHandler) Trends(c *fiber.Ctx) error {
	trends, err := h.analyticsService.Trends(c.QueryInt("days", 30))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to compute trends",
		})
	}
	return c.JSON(trends)
}

func (h *AdminHandler) Performance(c *fiber.Ctx) error {
	metrics, err := h.analyticsService.Performance()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to compute performance metrics",
		})
	}
	return c.JSON(metrics)
}

// --- User management ---

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := services.UserListFilter{
		Search:    c.Query("search"),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
	}
	if v := c.Query("is_active"); v != "" {
		b := v == "true"
		filter.IsActive = &b
	}
	if v := c.Query("is_admin"); v != "" {
		b := v == "true"
		filter.IsAdmin = &b
	}

	users, err := h.userAdminService.ListUsers(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list users",
		})
	}

	return c.JSON(fiber.Map{"users": users, "total": len(users)})
}

func (h *AdminHandler) UserDetails(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	details, err := h.userAdminService.UserDetails(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "User not found",
		})
	}

	return c.JSON(details)
}

func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.userAdminService.SetUserStatus(middleware.UserID(c), userID, &req)
	if err != nil {
		return c.Status(userAdminErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": message})
}

func (h *AdminHandler) SetAdminStatus(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	var req dto.AdminStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.userAdminService.SetAdminStatus(middleware.UserID(c), userID, &req)
	if err != nil {
		return c.Status(userAdminErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": message})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	var reason *string
	if v := c.Query("reason"); v != "" {
		reason = &v
	}

	if err := h.userAdminService.DeleteUser(middleware.UserID(c), userID, reason); err != nil {
		return c.Status(userAdminErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

func userAdminErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrSelfModification), errors.Is(err, services.ErrAdminProtected):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// --- Incident moderation ---

func (h *AdminHandler) IncidentsForModeration(c *fiber.Ctx) error {
	filter := services.ModerationQueueFilter{
		Status:      c.Query("status"),
		Category:    c.Query("category"),
		FlaggedOnly: c.QueryBool("flagged_only", false),
		Limit:       c.QueryInt("limit", 50),
		Offset:      c.QueryInt("offset", 0),
		SortBy:      c.Query("sort_by", "created_at"),
		SortOrder:   c.Query("sort_order", "desc"),
	}

	incidents, err := h.moderationService.IncidentsForModeration(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list incidents",
		})
	}

	return c.JSON(fiber.Map{"incidents": incidents, "total": len(incidents)})
}

func (h *AdminHandler) ModerateIncident(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	var req dto.ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.moderationService.ModerateIncident(middleware.UserID(c), incidentID, &req)
	if err != nil {
		return c.Status(moderationErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": message})
}

func (h *AdminHandler) BulkModerateIncidents(c *fiber.Ctx) error {
	var req dto.BulkModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.moderationService.BulkModerateIncidents(middleware.UserID(c), &req)
	if err != nil {
		return c.Status(moderationErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(result)
}

// --- Comment moderation ---

func (h *AdminHandler) CommentsForModeration(c *fiber.Ctx) error {
	var incidentID uint
	if v := c.QueryInt("incident_id", 0); v > 0 {
		incidentID = uint(v)
	}

	comments, err := h.moderationService.CommentsForModeration(
		c.QueryBool("flagged_only", false),
		incidentID,
		c.QueryInt("limit", 50),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list comments",
		})
	}

	return c.JSON(fiber.Map{"comments": comments, "total": len(comments)})
}

func (h *AdminHandler) ModerateComment(c *fiber.Ctx) error {
	commentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid comment ID",
		})
	}

	var req dto.ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.moderationService.ModerateComment(middleware.UserID(c), commentID, &req)
	if err != nil {
		return c.Status(moderationErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": message})
}

func moderationErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrIncidentNotFound), errors.Is(err, services.ErrCommentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidAction), errors.Is(err, services.ErrNoItems):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// --- Audit log ---

func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	logs, total, err := h.auditRecorder.List(
		strings.ToUpper(c.Query("level")),
		c.QueryInt("limit", 50),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list audit logs",
		})
	}

	page := dto.AuditLogPage{Logs: make([]dto.AuditLogEntry, 0, len(logs)), Total: total}
	for _, entry := range logs {
		var details map[string]interface{}
		if len(entry.Details) > 0 {
			_ = json.Unmarshal(entry.Details, &details)
		}
		page.Logs = append(page.Logs, dto.AuditLogEntry{
			ID:         entry.ID,
			AdminID:    entry.AdminID,
			Action:     entry.Action,
			TargetType: entry.TargetType,
			TargetID:   entry.TargetID,
			Details:    details,
			Level:      entry.Level,
			CreatedAt:  entry.CreatedAt,
		})
	}

	return c.JSON(page)
}

// --- Reports ---

func (h *AdminHandler) IncidentsReport(c *fiber.Ctx) error {
	var startDate, endDate *time.Time
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid start_date, expected YYYY-MM-DD",
			})
		}
		startDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid end_date, expected YYYY-MM-DD",
			})
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		endDate = &end
	}

	report, err := h.reportService.IncidentsReport(startDate, endDate,
		c.QueryBool("include_comments", false), c.Query("format", "json"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate report",
		})
	}

	return sendReport(c, report)
}

func (h *AdminHandler) UsersReport(c *fiber.Ctx) error {
	report, err := h.reportService.UsersReport(
		c.QueryBool("include_inactive", true),
		c.Query("format", "json"),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate report",
		})
	}

	return sendReport(c, report)
}

// sendReport serves CSV as a file download and JSON inline.
func sendReport(c *fiber.Ctx, report *dto.Report) error {
	if report.Format == "csv" {
		csv, _ := report.Data.(string)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+report.Filename+`"`)
		return c.SendString(csv)
	}
	return c.JSON(report)
}
