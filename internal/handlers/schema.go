package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
)

// GraphQLSchema handles GET /v1/schema/graphql
func (h *Handler) GraphQLSchema(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/graphql; charset=utf-8")
	return c.SendString(graphql.SDL())
}

// FormSchema handles GET /v1/schema/form
func (h *Handler) FormSchema(c *fiber.Ctx) error {
	return c.JSON(forms.JSONSchema())
}
