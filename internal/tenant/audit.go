package tenant

import (
	"context"
	"encoding/json"
	"fmt"

	"apmc-backend/internal/models"
)

// AuditEntry is one append-only record. Before/After are marshalled to JSON.
type AuditEntry struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func (s *Store) WriteAudit(ctx context.Context, e AuditEntry) error {
	before, err := snapshot(e.Before)
	if err != nil {
		return fmt.Errorf("audit before snapshot: %w", err)
	}
	after, err := snapshot(e.After)
	if err != nil {
		return fmt.Errorf("audit after snapshot: %w", err)
	}

	row := models.AuditLog{
		TenantID:    s.tenantID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: truncate(e.Description, 255),
		BeforeData:  before,
		AfterData:   after,
	}
	if err := s.table(ctx, "audit_logs").Create(&row).Error; err != nil {
		return fmt.Errorf("audit log insert: %w", err)
	}
	return nil
}

type AuditFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := s.table(ctx, "audit_logs")
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// snapshot renders v for a jsonb column; postgres needs the literal "null"
// rather than an empty string.
func snapshot(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
