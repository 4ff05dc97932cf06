package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/models"
	"github.com/intrigue/searchforms/internal/utils"
)

// ListForms handles GET /v1/forms
func (h *Handler) ListForms(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	list, err := h.formService.List(ctx)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.FormListResponse{Forms: list, Count: len(list)})
}

// CreateForm handles POST /v1/forms
func (h *Handler) CreateForm(c *fiber.Ctx) error {
	form, err := h.formService.Decode(c.Body())
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	created, err := h.formService.Create(ctx, form)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Location("/v1/forms/" + created.ID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetForm handles GET /v1/forms/:id
func (h *Handler) GetForm(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	id := c.Params("id")
	form, err := h.formService.Get(logging.WithFormID(ctx, id), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(form)
}

// SaveForm handles PUT /v1/forms/:id
func (h *Handler) SaveForm(c *fiber.Ctx) error {
	form, err := h.formService.Decode(c.Body())
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	id := c.Params("id")
	saved, err := h.formService.Save(logging.WithFormID(ctx, id), id, form)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(saved)
}

// DeleteForm handles DELETE /v1/forms/:id
func (h *Handler) DeleteForm(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, utils.DefaultRequestTimeout)
	defer cancel()

	id := c.Params("id")
	if err := h.formService.Delete(logging.WithFormID(ctx, id), id); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
