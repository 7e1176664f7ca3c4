package trading

import (
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

// GET /api/settings
// "stored" is what the tenant configured; "effective" has the defaults filled in.
func SettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := tenant.TenantFrom(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"tenant_id": t.ID,
			"stored":    t.Settings,
			"effective": t.Settings.Resolve(),
		})
	}
}
