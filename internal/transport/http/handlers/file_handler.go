package handlers

import (
	"fmt"
	"strings"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/duomind/backend/internal/infrastructure/storage"
	"github.com/duomind/backend/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	store  ports.FileStore
	logger *logger.Logger
}

func NewFileHandler(store ports.FileStore, log *logger.Logger) *FileHandler {
	return &FileHandler{store: store, logger: log}
}

// Download streams a stored file as an attachment.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid filename"})
	}

	f, err := h.store.Open(c.Context(), filename)
	if err != nil {
		if err == storage.ErrFileNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "file not found"})
		}
		h.logger.Errorw("file_download_failed", "filename", filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.SendStream(f)
}
