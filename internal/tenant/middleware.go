package tenant

import (
	"errors"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/auth"
	"apmc-backend/internal/logger"
	"apmc-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxTenantKey = "tenant"
	CtxStoreKey  = "tenant_store"

	HeaderTenantID = "X-Tenant-ID"
)

// Middleware binds the request to one tenant. Tenant users are bound to the
// tenant in their token; super admins pick one with X-Tenant-ID or
// ?tenant_id=. Must run after auth.JWTMiddleware.
func Middleware(m *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := requestedTenant(c)
		if err != nil {
			return err
		}

		t, store, err := m.ActiveStore(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, ErrTenantInactive) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return err
		}

		c.Locals(CtxTenantKey, t)
		c.Locals(CtxStoreKey, store)
		c.Locals(logger.CtxLoggerKey, logger.FromCtx(c).With(
			zap.String("tenant_id", store.TenantID().String()),
			zap.String("tenant_schema", store.Schema()),
		))
		return c.Next()
	}
}

func requestedTenant(c *fiber.Ctx) (uuid.UUID, error) {
	role, ok := auth.RoleFrom(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "missing role")
	}

	if role != models.RoleSuperAdmin {
		tid := auth.TenantIDFrom(c)
		if tid == nil {
			return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "user is not bound to a tenant")
		}
		return *tid, nil
	}

	raw := c.Get(HeaderTenantID)
	if raw == "" {
		raw = c.Query("tenant_id")
	}
	if raw == "" {
		return uuid.Nil, apperror.Validation("tenant_id", "super admin requests need X-Tenant-ID or tenant_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("tenant_id", "must be a UUID")
	}
	return id, nil
}

// StoreFrom returns the Store bound by Middleware.
func StoreFrom(c *fiber.Ctx) (*Store, error) {
	s, ok := c.Locals(CtxStoreKey).(*Store)
	if !ok || s == nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "no tenant bound to request")
	}
	return s, nil
}

// TenantFrom returns the tenant bound by Middleware.
func TenantFrom(c *fiber.Ctx) (*models.Tenant, error) {
	t, ok := c.Locals(CtxTenantKey).(*models.Tenant)
	if !ok || t == nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "no tenant bound to request")
	}
	return t, nil
}
