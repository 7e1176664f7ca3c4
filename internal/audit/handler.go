package audit

import (
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=lot&entity_id=1&user_id=2&limit=50
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}

		entityID, userID := c.QueryInt("entity_id"), c.QueryInt("user_id")
		if entityID < 0 || userID < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "entity_id and user_id must be positive")
		}
		filter := tenant.AuditFilter{
			EntityType: c.Query("entity_type"),
			EntityID:   uint(entityID),
			UserID:     uint(userID),
			Limit:      c.QueryInt("limit"),
		}

		logs, err := store.ListAuditLogs(c.UserContext(), filter)
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}
