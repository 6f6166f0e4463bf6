package handlers

import (
	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/infrastructure/logger"
	"github.com/duomind/backend/internal/transport/http/dto"
	"github.com/duomind/backend/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	analytics ports.AnalyticsService
	logger    *logger.Logger
}

func NewAnalyticsHandler(analytics ports.AnalyticsService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: log}
}

func (h *AnalyticsHandler) GetStats(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	stats, err := h.analytics.TaskStats(c.Context(), caller)
	if err != nil {
		h.logger.Errorw("analytics_failed", "caller", caller.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(stats)
}
