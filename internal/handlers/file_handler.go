package handlers

import (
	"errors"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/upload"
	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	store *upload.Store
}

func NewFileHandler(store *upload.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Upload stores a generic attachment. The folder form field picks the
// storage subfolder; unknown folders land in general.
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "No file provided",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to read uploaded file",
		})
	}
	defer src.Close()

	relPath, err := h.store.Save(src, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, upload.SaveOptions{
		Folder: c.FormValue("folder", "general"),
		Class:  upload.ClassAny,
	})
	if err != nil {
		return c.Status(uploadErrorStatus(err)).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "File uploaded successfully",
		"file_path": relPath,
	})
}

// Download streams a stored file. The wildcard path is confined to the
// upload directory by the store.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	full, ok := h.store.Resolve(c.Params("*"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "File not found",
		})
	}
	return c.SendFile(full)
}

func (h *FileHandler) Info(c *fiber.Ctx) error {
	info, ok := h.store.Info(c.Params("*"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "File not found",
		})
	}
	return c.JSON(info)
}

func (h *FileHandler) Delete(c *fiber.Ctx) error {
	if !h.store.Delete(c.Params("*")) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "File not found",
		})
	}
	return c.JSON(fiber.Map{"message": "File deleted successfully"})
}

// uploadErrorStatus maps store validation failures to HTTP statuses. Size
// violations get 413, everything else a plain 400.
func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrNoFile),
		errors.Is(err, upload.ErrMissingExtension),
		errors.Is(err, upload.ErrUnsafeFilename),
		errors.Is(err, upload.ErrInvalidType),
		errors.Is(err, upload.ErrInvalidImage):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
