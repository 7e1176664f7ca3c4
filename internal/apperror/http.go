package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusCode maps an error kind to the HTTP status the API answers with.
func StatusCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case IsValidation(err), IsInvalidReportType(err):
		return fiber.StatusBadRequest
	case IsNotFound(err):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusCode(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			msg := "unexpected server error"
			if IsProvisioning(err) {
				msg = err.Error()
			}
			return c.Status(code).JSON(fiber.Map{"error": msg})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
