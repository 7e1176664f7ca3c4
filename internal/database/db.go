package database

import (
	"fmt"

	"apmc-backend/internal/config"
	"apmc-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to postgres with the pool settings from cfg. Constraint
// violations are translated to gorm.ErrDuplicatedKey and friends so the tenant
// store can map them onto validation errors.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// Migrate creates the public tables. Tenant tables are created per schema by
// the tenant package.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Tenant{}, &models.User{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Init opens the connection, migrates and stores it in DB.
func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := Open(cfg.DB)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	log.Info("database connected, public schema migrated")
	return nil
}
