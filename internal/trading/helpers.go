// Package trading holds the tenant-scoped CRUD endpoints: farmers, buyers,
// lots and bags.
package trading

import (
	"strconv"

	"apmc-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validationf(name, "must be a positive integer, got %q", raw)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validationf(name, "must be a positive integer, got %q", raw)
	}
	return uint(id), nil
}
