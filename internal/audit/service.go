package audit

import (
	"context"

	"apmc-backend/internal/auth"
	"apmc-backend/internal/database"
	"apmc-backend/internal/logger"
	"apmc-backend/internal/models"
	"apmc-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Writer is the append-only sink; *tenant.Store implements it.
type Writer interface {
	WriteAudit(ctx context.Context, e tenant.AuditEntry) error
}

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Actor resolves the id and display name of the calling user.
func Actor(c *fiber.Ctx) (uint, string, error) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "missing user")
	}
	if database.DB == nil {
		return userID, "", nil
	}
	var user models.User
	if err := database.DB.WithContext(c.UserContext()).Select("id", "name").First(&user, "id = ?", userID).Error; err != nil {
		return userID, "", err
	}
	return userID, user.Name, nil
}

// WriteLog records a change made by the calling user. A failed audit write is
// logged and never fails the request that caused it.
func WriteLog(c *fiber.Ctx, w Writer, opts LogOptions) {
	userID, userName, err := Actor(c)
	if err != nil {
		logger.FromCtx(c).Warn("audit actor lookup failed", zap.Error(err))
	}

	entry := tenant.AuditEntry{
		UserID:      userID,
		UserName:    userName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		Before:      opts.Before,
		After:       opts.After,
	}
	if err := w.WriteAudit(c.UserContext(), entry); err != nil {
		logger.FromCtx(c).Error("audit log write failed",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}
