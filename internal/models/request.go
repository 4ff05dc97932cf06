package models

import (
	"regexp"

	"github.com/gofiber/fiber/v2"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// SearchParams are the query parameters of the search endpoints
type SearchParams struct {
	Visualization string `query:"visualization"`
	Attribute     string `query:"attribute"`
}

// Validate checks the parameters and returns a *fiber.Error on failure
func (p SearchParams) Validate() error {
	if p.Visualization != "" && !identifierPattern.MatchString(p.Visualization) {
		return fiber.NewError(fiber.StatusBadRequest, "visualization must be a simple identifier")
	}
	if p.Attribute != "" && p.Visualization == "" {
		return fiber.NewError(fiber.StatusBadRequest, "attribute requires a visualization")
	}
	return nil
}
