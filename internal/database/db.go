package database

import (
	"fmt"

	"contapos/internal/config"
	"contapos/internal/logger"
	"contapos/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection opens the PostgreSQL pool through GORM with the zap logger attached
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			log.Warn("failed to auto-migrate models", zap.Error(err))
		}
	}
	return db, nil
}

// Models lists every persisted model in dependency order. Backups dump and
// restore tables in this order.
func Models() []interface{} {
	return []interface{}{
		&model.Permission{},
		&model.Role{},
		&model.Warehouse{},
		&model.User{},
		&model.AuditLog{},
		&model.Setting{},
		&model.DocumentSequence{},
		&model.Currency{},
		&model.Category{},
		&model.Brand{},
		&model.ProductGroup{},
		&model.ProductLine{},
		&model.Product{},
		&model.Inventory{},
		&model.StockMovement{},
		&model.Department{},
		&model.City{},
		&model.Customer{},
		&model.Sale{},
		&model.SaleDetail{},
		&model.SerialNumber{},
		&model.Purchase{},
		&model.PurchaseDetail{},
		&model.Account{},
		&model.AccountingPeriod{},
		&model.JournalEntry{},
		&model.JournalEntryDetail{},
		&model.AccountBalance{},
		&model.TaxProvider{},
		&model.DianConfiguration{},
		&model.InvoiceType{},
		&model.Tax{},
		&model.Resolution{},
		&model.ElectronicInvoice{},
	}
}

// Tables returns the table names of Models, with join tables placed right
// after their owners, ready for a dump or a restore in that order.
func Tables(db *gorm.DB) ([]string, error) {
	var tables []string
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
		tables = append(tables, stmt.Schema.Table)
		for _, rel := range stmt.Schema.Relationships.Many2Many {
			if rel.JoinTable != nil {
				tables = append(tables, rel.JoinTable.Table)
			}
		}
	}
	return tables, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
