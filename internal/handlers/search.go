package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/models"
	"github.com/intrigue/searchforms/internal/services"
	"github.com/intrigue/searchforms/internal/utils"
)

// searchOptions parses ?visualization=&attribute=.
func searchOptions(c *fiber.Ctx) (services.SearchOptions, error) {
	var params models.SearchParams
	if err := c.QueryParser(&params); err != nil {
		return services.SearchOptions{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := params.Validate(); err != nil {
		return services.SearchOptions{}, err
	}
	return services.SearchOptions{
		Visualization: params.Visualization,
		Attribute:     params.Attribute,
	}, nil
}

func invalidRequest(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: fiberErr.Message,
			},
		})
	}
	return err
}

// Search handles POST /v1/search with a form body
func (h *Handler) Search(c *fiber.Ctx) error {
	opts, err := searchOptions(c)
	if err != nil {
		return invalidRequest(c, err)
	}

	form, err := h.formService.Decode(c.Body())
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := requestContext(c, utils.SearchTimeout)
	defer cancel()

	result, err := h.searchService.Search(ctx, form, opts)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

// SearchForm handles POST /v1/forms/:id/search
func (h *Handler) SearchForm(c *fiber.Ctx) error {
	opts, err := searchOptions(c)
	if err != nil {
		return invalidRequest(c, err)
	}

	ctx, cancel := requestContext(c, utils.SearchTimeout)
	defer cancel()

	result, err := h.searchService.SearchByID(ctx, c.Params("id"), opts)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(result)
}

// Translate handles POST /v1/translate and returns the request a form
// produces without executing it.
func (h *Handler) Translate(c *fiber.Ctx) error {
	form, err := h.formService.Decode(c.Body())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(h.searchService.Translate(form))
}

// Attributes handles GET /v1/attributes
func (h *Handler) Attributes(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	defs, err := h.searchService.AttributeDefinitions(ctx)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.AttributeListResponse{
		Executor:   h.searchService.ExecutorName(),
		Attributes: defs,
	})
}
