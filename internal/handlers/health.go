package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/models"
	"github.com/intrigue/searchforms/internal/visualization"
)

// Health reports the executor in use and the load state of every
// visualization. A failed visualization degrades the status; the service
// keeps answering 200 since forms and searches still work.
func (h *Handler) Health(c *fiber.Ctx) error {
	status := "healthy"
	states := make(map[string]string)
	for _, info := range h.searchService.Visualizations() {
		states[info.ID] = info.State.String()
		if info.State == visualization.StateFailed {
			status = "degraded"
		}
	}

	return c.JSON(models.HealthResponse{
		Status:         status,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Version:        Version,
		Executor:       h.searchService.ExecutorName(),
		Visualizations: states,
	})
}

// NotFound answers unmatched routes.
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found: " + c.Method() + " " + c.Path(),
			Path:    c.Path(),
		},
	})
}
