package tenant

import (
	"net/http/httptest"
	"testing"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/auth"
	"apmc-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestMiddlewareRejectsUnboundRequests(t *testing.T) {
	cases := []struct {
		name     string
		role     models.UserRole
		tenantID *uuid.UUID
		header   string
		want     int
	}{
		{"staff without tenant", models.RoleStaff, nil, "", fiber.StatusForbidden},
		{"super admin without header", models.RoleSuperAdmin, nil, "", fiber.StatusBadRequest},
		{"super admin with bad header", models.RoleSuperAdmin, nil, "not-a-uuid", fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zap.NewNop())})
			app.Use(func(c *fiber.Ctx) error {
				c.Locals(auth.CtxUserRoleKey, tc.role)
				c.Locals(auth.CtxTenantIDKey, tc.tenantID)
				return c.Next()
			})
			app.Get("/x", Middleware(NewManager(nil, zap.NewNop())), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/x", nil)
			if tc.header != "" {
				req.Header.Set(HeaderTenantID, tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestStoreFromWithoutTenant(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		if _, err := StoreFrom(c); err == nil {
			t.Error("expected error")
		}
		if _, err := TenantFrom(c); err == nil {
			t.Error("expected error")
		}
		return nil
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatal(err)
	}
}
