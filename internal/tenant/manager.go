package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/metrics"
	"apmc-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrTenantInactive is returned when a deactivated tenant's data is requested.
var ErrTenantInactive = errors.New("tenant is deactivated")

// Manager owns the tenant records in the public schema and the lifecycle of
// their namespaces.
type Manager struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewManager(db *gorm.DB, log *zap.Logger) *Manager {
	return &Manager{db: db, log: log}
}

// Provision onboards a tenant: it stores the tenant row and creates its
// schema. If the schema cannot be created the row is removed again and the
// ProvisioningError is returned.
func (m *Manager) Provision(ctx context.Context, name string, settings models.TenantSettings) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name", "is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	t := &models.Tenant{
		ID:         uuid.New(),
		Name:       name,
		SchemaName: NewSchemaID(),
		Settings:   settings,
		IsActive:   true,
	}
	if err := m.db.WithContext(ctx).Create(t).Error; err != nil {
		metrics.TenantProvisioning.WithLabelValues("create", "error").Inc()
		return nil, &apperror.ProvisioningError{SchemaID: t.SchemaName, Op: "create", Err: err}
	}

	if err := CreateTenantSchema(ctx, m.db, t.SchemaName); err != nil {
		metrics.TenantProvisioning.WithLabelValues("create", "error").Inc()
		m.log.Error("tenant schema creation failed",
			zap.String("tenant_id", t.ID.String()),
			zap.String("schema", t.SchemaName),
			zap.Error(err),
		)
		if delErr := m.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", t.ID).Error; delErr != nil {
			m.log.Error("could not remove tenant row after failed provisioning",
				zap.String("tenant_id", t.ID.String()), zap.Error(delErr))
		}
		return nil, err
	}

	metrics.TenantProvisioning.WithLabelValues("create", "ok").Inc()
	m.log.Info("tenant provisioned",
		zap.String("tenant_id", t.ID.String()),
		zap.String("schema", t.SchemaName),
	)
	return t, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	if err := m.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("tenant", id)
		}
		return nil, err
	}
	return &t, nil
}

func (m *Manager) List(ctx context.Context, includeInactive bool) ([]models.Tenant, error) {
	q := m.db.WithContext(ctx).Model(&models.Tenant{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Tenant
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateSettings overlays patch on the stored settings and validates the result.
func (m *Manager) UpdateSettings(ctx context.Context, id uuid.UUID, patch models.TenantSettings) (*models.Tenant, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := t.Settings.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	t.Settings = merged
	if err := m.db.WithContext(ctx).Model(t).Select("settings", "updated_at").Updates(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// Deactivate is the normal way to retire a tenant; data stays in place.
func (m *Manager) Deactivate(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	err = m.db.WithContext(ctx).Model(t).Updates(map[string]any{
		"is_active":      false,
		"deactivated_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	t.IsActive = false
	t.DeactivatedAt = &now
	return t, nil
}

// Destroy drops the tenant's schema, its users and the tenant row. It cannot
// be undone.
func (m *Manager) Destroy(ctx context.Context, id uuid.UUID) error {
	t, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := DropTenantSchema(ctx, m.db, t.SchemaName); err != nil {
		metrics.TenantProvisioning.WithLabelValues("drop", "error").Inc()
		return err
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", t.ID).Delete(&models.User{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tenant{}, "id = ?", t.ID).Error
	})
	if err != nil {
		metrics.TenantProvisioning.WithLabelValues("drop", "error").Inc()
		return &apperror.ProvisioningError{SchemaID: t.SchemaName, Op: "drop", Err: err}
	}
	metrics.TenantProvisioning.WithLabelValues("drop", "ok").Inc()
	m.log.Warn("tenant destroyed", zap.String("tenant_id", t.ID.String()), zap.String("schema", t.SchemaName))
	return nil
}

func (m *Manager) StoreFor(t *models.Tenant) (*Store, error) {
	return NewStore(m.db, t.SchemaName, t.ID)
}

// ActiveStore resolves an active tenant and its Store.
func (m *Manager) ActiveStore(ctx context.Context, id uuid.UUID) (*models.Tenant, *Store, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !t.IsActive {
		return nil, nil, ErrTenantInactive
	}
	s, err := m.StoreFor(t)
	if err != nil {
		return nil, nil, err
	}
	return t, s, nil
}
