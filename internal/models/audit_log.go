package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog rows are append-only; nothing in the service updates or deletes them.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null" json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint   `json:"user_id"`
	UserName string `json:"user_name"`

	// farmer, buyer, lot, bag
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`

	Action      AuditAction `json:"action"`
	Description string      `json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
