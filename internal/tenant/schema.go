package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"apmc-backend/internal/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schema identifiers are generated, never taken from user text, and must match
// this pattern before they are placed in any SQL statement.
var schemaIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

var reservedSchemas = map[string]bool{
	"public":             true,
	"information_schema": true,
	"pg_catalog":         true,
	"pg_toast":           true,
}

// NewSchemaID returns a fresh identifier of the form t_<32 hex chars>.
func NewSchemaID() string {
	return "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func ValidateSchemaID(id string) error {
	if !schemaIDPattern.MatchString(id) {
		return apperror.Validationf("schema_id", "%q must match %s", id, schemaIDPattern.String())
	}
	if reservedSchemas[id] || strings.HasPrefix(id, "pg_") {
		return apperror.Validationf("schema_id", "%q is reserved", id)
	}
	return nil
}

// tableColumns lists the tables every tenant schema must contain and the
// columns the Store relies on. It is checked after CREATE ... IF NOT EXISTS so
// a pre-existing schema with a different shape is rejected.
var tableColumns = map[string][]string{
	"farmers":    {"id", "tenant_id", "name", "mobile", "place", "bank_name", "account_number", "ifsc_code", "created_at", "updated_at"},
	"buyers":     {"id", "tenant_id", "name", "mobile", "address", "gstin", "created_at", "updated_at"},
	"lots":       {"id", "tenant_id", "lot_number", "farmer_id", "buyer_id", "number_of_bags", "variety", "grade", "lot_price", "status", "vehicle_rent", "advance", "unload_hamali", "total_weight", "completed_at", "created_at", "updated_at"},
	"bags":       {"id", "tenant_id", "lot_id", "bag_number", "weight", "grade", "notes", "created_at", "updated_at"},
	"audit_logs": {"id", "tenant_id", "user_id", "user_name", "entity_type", "entity_id", "action", "description", "before_data", "after_data", "created_at"},
}

// schemaDDL returns the statements that build one tenant namespace. The
// identifier must already be validated.
func schemaDDL(schemaID string) []string {
	s := `"` + schemaID + `"`
	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, s),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.farmers (
			id BIGSERIAL PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name VARCHAR(150) NOT NULL,
			mobile VARCHAR(20) NOT NULL,
			place VARCHAR(150) NOT NULL DEFAULT '',
			bank_name VARCHAR(150) NOT NULL DEFAULT '',
			account_number VARCHAR(34) NOT NULL DEFAULT '',
			ifsc_code VARCHAR(11) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_farmers_mobile ON %s.farmers (mobile)`, s),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.buyers (
			id BIGSERIAL PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name VARCHAR(150) NOT NULL,
			mobile VARCHAR(20) NOT NULL DEFAULT '',
			address VARCHAR(255) NOT NULL DEFAULT '',
			gstin VARCHAR(15) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s.lots (
			id BIGSERIAL PRIMARY KEY,
			tenant_id UUID NOT NULL,
			lot_number VARCHAR(50) NOT NULL UNIQUE,
			farmer_id BIGINT NOT NULL REFERENCES %[1]s.farmers(id) ON DELETE RESTRICT,
			buyer_id BIGINT REFERENCES %[1]s.buyers(id) ON DELETE SET NULL,
			number_of_bags INTEGER NOT NULL CHECK (number_of_bags > 0),
			variety VARCHAR(100) NOT NULL DEFAULT '',
			grade VARCHAR(50) NOT NULL DEFAULT '',
			lot_price NUMERIC(12,2),
			status VARCHAR(16) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'cancelled')),
			vehicle_rent NUMERIC(12,2) NOT NULL DEFAULT 0,
			advance NUMERIC(12,2) NOT NULL DEFAULT 0,
			unload_hamali NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_weight NUMERIC(14,3),
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_lots_farmer_id ON %s.lots (farmer_id)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_lots_created_at ON %s.lots (created_at)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_lots_status ON %s.lots (status)`, s),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s.bags (
			id BIGSERIAL PRIMARY KEY,
			tenant_id UUID NOT NULL,
			lot_id BIGINT NOT NULL REFERENCES %[1]s.lots(id) ON DELETE CASCADE,
			bag_number INTEGER NOT NULL CHECK (bag_number > 0),
			weight NUMERIC(10,3) CHECK (weight IS NULL OR weight >= 0),
			grade VARCHAR(50) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (lot_id, bag_number)
		)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_bags_lot_id ON %s.bags (lot_id)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_bags_created_at ON %s.bags (created_at)`, s),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.audit_logs (
			id BIGSERIAL PRIMARY KEY,
			tenant_id UUID NOT NULL,
			user_id BIGINT NOT NULL,
			user_name VARCHAR(100) NOT NULL DEFAULT '',
			entity_type VARCHAR(50) NOT NULL,
			entity_id BIGINT NOT NULL,
			action VARCHAR(20) NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			before_data JSONB,
			after_data JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON %s.audit_logs (entity_type, entity_id)`, s),
	}
}

// CreateTenantSchema provisions the namespace and its tables in one
// transaction. Running it again on a healthy schema is a no-op.
func CreateTenantSchema(ctx context.Context, db *gorm.DB, schemaID string) error {
	if err := ValidateSchemaID(schemaID); err != nil {
		return &apperror.ProvisioningError{SchemaID: schemaID, Op: "create", Err: err}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaDDL(schemaID) {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return verifySchema(tx, schemaID)
	})
	if err != nil {
		return &apperror.ProvisioningError{SchemaID: schemaID, Op: "create", Err: err}
	}
	return nil
}

// DropTenantSchema removes the namespace and everything in it. Authorisation is
// the caller's job.
func DropTenantSchema(ctx context.Context, db *gorm.DB, schemaID string) error {
	if err := ValidateSchemaID(schemaID); err != nil {
		return &apperror.ProvisioningError{SchemaID: schemaID, Op: "drop", Err: err}
	}
	stmt := fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schemaID)
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return &apperror.ProvisioningError{SchemaID: schemaID, Op: "drop", Err: err}
	}
	return nil
}

var errStructureMismatch = errors.New("existing schema does not match the expected structure")

func verifySchema(tx *gorm.DB, schemaID string) error {
	type col struct {
		TableName  string
		ColumnName string
	}
	var cols []col
	err := tx.Raw(`SELECT table_name, column_name FROM information_schema.columns WHERE table_schema = ?`, schemaID).
		Scan(&cols).Error
	if err != nil {
		return err
	}

	have := make(map[string]map[string]bool)
	for _, c := range cols {
		if have[c.TableName] == nil {
			have[c.TableName] = make(map[string]bool)
		}
		have[c.TableName][c.ColumnName] = true
	}

	var missing []string
	for table, want := range tableColumns {
		for _, c := range want {
			if !have[table][c] {
				missing = append(missing, table+"."+c)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %s", errStructureMismatch, strings.Join(missing, ", "))
	}
	return nil
}
