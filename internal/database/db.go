package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"backoffice/internal/config"
	"backoffice/internal/logger"
	"backoffice/internal/model"
)

// Models lists every table the back office owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Customer{},
		&model.Branch{},
		&model.Vehicle{},
		&model.SalesInvoice{},
		&model.InvoicePart{},
		&model.OfficialReceipt{},
		&model.ReceiptPayment{},
		&model.ReceiptAllocation{},
		&model.AuditLog{},
	}
}

// NewConnection opens the postgres pool using GORM and migrates the schema
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := Migrate(db); err != nil {
		log.Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}

// Migrate creates or updates the back-office tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
