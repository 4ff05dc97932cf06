// Package handlers implements the HTTP endpoints of the search-forms API.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/models"
	"github.com/intrigue/searchforms/internal/services"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger        *logging.Logger
	formService   *services.FormService
	searchService *services.SearchService
}

// New creates a new handler instance
func New(logger *logging.Logger, formService *services.FormService, searchService *services.SearchService) *Handler {
	return &Handler{
		logger:        logger,
		formService:   formService,
		searchService: searchService,
	}
}

// respondError writes service errors with their own status and code.
// Anything else is left to the fiber error handler.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	svcErr, ok := services.AsServiceError(err)
	if !ok {
		return err
	}
	return c.Status(svcErr.HTTPStatus()).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	})
}

// requestContext bounds the work behind one request.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), timeout)
}
