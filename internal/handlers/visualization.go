package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/models"
)

// ListVisualizations handles GET /v1/visualizations
func (h *Handler) ListVisualizations(c *fiber.Ctx) error {
	return c.JSON(models.VisualizationListResponse{
		Visualizations: h.searchService.Visualizations(),
	})
}

// GetVisualization handles GET /v1/visualizations/:id
func (h *Handler) GetVisualization(c *fiber.Ctx) error {
	info, err := h.searchService.Visualization(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(info)
}

// LoadVisualization handles POST /v1/visualizations/:id/load. A failed
// visualization is retried.
func (h *Handler) LoadVisualization(c *fiber.Ctx) error {
	info, err := h.searchService.LoadVisualization(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(info)
}
