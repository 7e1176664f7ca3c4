package admin

import (
	"errors"
	"strings"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/auth"
	"apmc-backend/internal/database"
	"apmc-backend/internal/logger"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TenantResponse struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	SchemaName    string                `json:"schema_name"`
	Settings      models.TenantSettings `json:"settings"`
	IsActive      bool                  `json:"is_active"`
	DeactivatedAt *string               `json:"deactivated_at"`
	CreatedAt     string                `json:"created_at"`
}

type CreateTenantRequest struct {
	Name     string                `json:"name"`
	Settings models.TenantSettings `json:"settings"`
}

type CreateTenantUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"` // tenant_admin | staff
}

type TenantUserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	TenantID  *uuid.UUID      `json:"tenant_id"`
	CreatedAt string          `json:"created_at"`
}

const timeLayout = "2006-01-02 15:04:05"

func toTenantResponse(t *models.Tenant) TenantResponse {
	res := TenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		SchemaName: t.SchemaName,
		Settings:   t.Settings,
		IsActive:   t.IsActive,
		CreatedAt:  t.CreatedAt.Format(timeLayout),
	}
	if t.DeactivatedAt != nil {
		s := t.DeactivatedAt.Format(timeLayout)
		res.DeactivatedAt = &s
	}
	return res
}

func tenantID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("id", "must be a tenant UUID")
	}
	return id, nil
}

// ----------------------------------------
// TENANT LIFECYCLE
// ----------------------------------------

// POST /api/admin/tenants
func CreateTenantHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTenantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := m.Provision(c.UserContext(), body.Name, body.Settings)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toTenantResponse(t))
	}
}

// GET /api/admin/tenants?include_inactive=true
func ListTenantsHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenants, err := m.List(c.UserContext(), c.QueryBool("include_inactive"))
		if err != nil {
			return err
		}
		res := make([]TenantResponse, 0, len(tenants))
		for i := range tenants {
			res = append(res, toTenantResponse(&tenants[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/tenants/:id
func GetTenantHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}
		t, err := m.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toTenantResponse(t))
	}
}

// PUT /api/admin/tenants/:id/settings
// Only the keys present in the body change; the rest keep their stored value.
func UpdateTenantSettingsHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}
		var patch models.TenantSettings
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := m.UpdateSettings(c.UserContext(), id, patch)
		if err != nil {
			return err
		}
		logger.FromCtx(c).Info("tenant settings updated", zap.String("tenant_id", id.String()))
		return c.JSON(toTenantResponse(t))
	}
}

// POST /api/admin/tenants/:id/deactivate
func DeactivateTenantHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}
		t, err := m.Deactivate(c.UserContext(), id)
		if err != nil {
			return err
		}
		logger.FromCtx(c).Info("tenant deactivated", zap.String("tenant_id", id.String()))
		return c.JSON(toTenantResponse(t))
	}
}

// DELETE /api/admin/tenants/:id?confirm=<schema_name>
// Drops the tenant's schema and every row in it. The caller has to echo the
// schema name back.
func DropTenantHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}
		t, err := m.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if c.Query("confirm") != t.SchemaName {
			return apperror.Validation("confirm", "must equal the tenant's schema_name")
		}

		if err := m.Destroy(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// TENANT USERS
// ----------------------------------------

// POST /api/admin/tenants/:id/users
func CreateTenantUserHandler(m *tenant.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}
		t, err := m.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if !t.IsActive {
			return fiber.NewError(fiber.StatusConflict, "tenant is deactivated")
		}

		var body CreateTenantUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Role == "" {
			body.Role = models.RoleStaff
		}

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, email and password are required")
		}
		if body.Role != models.RoleTenantAdmin && body.Role != models.RoleStaff {
			return apperror.Validation("role", "must be tenant_admin or staff")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			TenantID:     &t.ID,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "email already registered")
			}
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// GET /api/admin/tenants/:id/users
func ListTenantUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tenantID(c)
		if err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.WithContext(c.UserContext()).
			Where("tenant_id = ?", id).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return err
		}

		res := make([]TenantUserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

func toUserResponse(u *models.User) TenantUserResponse {
	return TenantUserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}
