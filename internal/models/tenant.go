package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one trading business. Its rows live in the postgres schema named
// SchemaName; the tenant record itself stays in the public schema.
type Tenant struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"size:150;not null" json:"name"`
	SchemaName    string         `gorm:"size:63;uniqueIndex;not null" json:"schema_name"`
	Settings      TenantSettings `gorm:"type:jsonb;serializer:json;not null" json:"settings"`
	IsActive      bool           `gorm:"default:true;not null" json:"is_active"`
	DeactivatedAt *time.Time     `json:"deactivated_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
