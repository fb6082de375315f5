package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/middleware"
	"github.com/campuswatch/ireport-backend/internal/services"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"github.com/gofiber/fiber/v2"
)

type IncidentHandler struct {
	incidentService *services.IncidentService
	store           *upload.Store
}

func NewIncidentHandler(incidentService *services.IncidentService, store *upload.Store) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService, store: store}
}

// Create accepts multipart form data so an image can ride along with the
// report. The image is optional.
func (h *IncidentHandler) Create(c *fiber.Ctx) error {
	req := dto.CreateIncidentRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}
	if loc := c.FormValue("location"); loc != "" {
		req.Location = &loc
	}

	var imageURL *string
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		src, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to read uploaded image",
			})
		}
		relPath, err := h.store.Save(src, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, upload.SaveOptions{
			Folder:      "incident_images",
			Class:       upload.ClassImage,
			Prefix:      "incident",
			ResizeImage: true,
		})
		src.Close()
		if err != nil {
			return c.Status(uploadErrorStatus(err)).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		imageURL = &relPath
	}

	resp, err := h.incidentService.Create(middleware.UserID(c), &req, imageURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *IncidentHandler) List(c *fiber.Ctx) error {
	filter := services.IncidentFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Limit:     c.QueryInt("limit", 20),
		Offset:    c.QueryInt("offset", 0),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
	}

	incidents, total, err := h.incidentService.List(middleware.UserID(c), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) || errors.Is(err, services.ErrInvalidStatus) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list incidents",
		})
	}

	return c.JSON(dto.IncidentListResponse{
		Incidents: incidents,
		Total:     total,
		Page:      filter.Offset/max(filter.Limit, 1) + 1,
		PerPage:   filter.Limit,
	})
}

func (h *IncidentHandler) Search(c *fiber.Ctx) error {
	filter := services.SearchFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		Limit:    c.QueryInt("limit", 20),
		Offset:   c.QueryInt("offset", 0),
	}
	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid date_from, expected YYYY-MM-DD",
			})
		}
		filter.DateFrom = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid date_to, expected YYYY-MM-DD",
			})
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	incidents, total, err := h.incidentService.Search(middleware.UserID(c), filter)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(dto.IncidentListResponse{
		Incidents: incidents,
		Total:     total,
		Page:      filter.Offset/max(filter.Limit, 1) + 1,
		PerPage:   filter.Limit,
	})
}

func (h *IncidentHandler) Get(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	resp, err := h.incidentService.Get(middleware.UserID(c), incidentID, middleware.IsAdminClaim(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Incident not found",
		})
	}

	return c.JSON(resp)
}

func (h *IncidentHandler) Update(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	var req dto.UpdateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.incidentService.Update(middleware.UserID(c), incidentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIncidentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrNotIncidentAuthor):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
	}

	return c.JSON(resp)
}

func (h *IncidentHandler) Delete(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	err = h.incidentService.Delete(middleware.UserID(c), incidentID, middleware.IsAdminClaim(c))
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrNotIncidentAuthor) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete incident",
		})
	}

	return c.JSON(fiber.Map{"message": "Incident deleted successfully"})
}

func (h *IncidentHandler) AddComment(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.incidentService.AddComment(middleware.UserID(c), incidentID, &req)
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *IncidentHandler) Comments(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	comments, err := h.incidentService.Comments(incidentID)
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list comments",
		})
	}

	return c.JSON(fiber.Map{"comments": comments, "total": len(comments)})
}

func (h *IncidentHandler) ToggleReaction(c *fiber.Ctx) error {
	incidentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid incident ID",
		})
	}

	var req dto.ReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.incidentService.ToggleReaction(middleware.UserID(c), incidentID, req.Type)
	if err != nil {
		if errors.Is(err, services.ErrIncidentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrInvalidReaction) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to toggle reaction",
		})
	}

	return c.JSON(resp)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
