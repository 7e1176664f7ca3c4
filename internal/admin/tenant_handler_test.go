package admin

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestTenantRoutesRejectMalformedIDs(t *testing.T) {
	m := tenant.NewManager(nil, zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(zap.NewNop())})
	app.Get("/tenants/:id", GetTenantHandler(m))
	app.Put("/tenants/:id/settings", UpdateTenantSettingsHandler(m))
	app.Delete("/tenants/:id", DropTenantHandler(m))

	for _, tc := range []struct{ method, target string }{
		{"GET", "/tenants/42"},
		{"PUT", "/tenants/not-a-uuid/settings"},
		{"DELETE", "/tenants/t_abc"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s %s status = %d", tc.method, tc.target, resp.StatusCode)
		}
	}
}

func TestToTenantResponse(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	ten := &models.Tenant{
		ID:            uuid.New(),
		Name:          "Guntur APMC",
		SchemaName:    "t_0123",
		IsActive:      false,
		DeactivatedAt: &now,
		CreatedAt:     now,
	}
	res := toTenantResponse(ten)
	if res.DeactivatedAt == nil || *res.DeactivatedAt != "2025-02-01 09:30:00" || res.SchemaName != "t_0123" {
		t.Errorf("response = %+v", res)
	}
}
