package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/models"
	"github.com/intrigue/searchforms/internal/services"
)

var statusCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUnprocessableEntity:   "UNPROCESSABLE_ENTITY",
}

// ErrorHandler returns a custom error handler middleware. Service errors
// keep their code and details; fiber errors keep their status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "ERROR",
			Message: "Internal Server Error",
			Path:    c.Path(),
		}

		var fiberErr *fiber.Error
		if svcErr, ok := services.AsServiceError(err); ok {
			status = svcErr.HTTPStatus()
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			detail.Message = fiberErr.Message
			if code, ok := statusCodes[status]; ok {
				detail.Code = code
			}
		}

		log := logger.WithContext(c.UserContext())
		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"error", err,
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error", fields...)
		} else {
			log.Warn("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
