package dashboard

import (
	"apmc-backend/internal/report"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stats
func StatsHandler(svc *report.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := tenant.StoreFrom(c)
		if err != nil {
			return err
		}
		stats, err := store.GetDashboardStats(c.UserContext(), svc.Today())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}
