package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// BackupRepository copies whole tables in and out as generic rows
type BackupRepository interface {
	Dump(ctx context.Context, table string) ([]map[string]interface{}, error)
	Truncate(ctx context.Context, table string) error
	Load(ctx context.Context, table string, rows []map[string]interface{}) error
}

type backupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) Dump(ctx context.Context, table string) ([]map[string]interface{}, error) {
	rows := []map[string]interface{}{}
	if err := GetDB(ctx, r.db).Table(table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to dump %s: %w", table, err)
	}
	return rows, nil
}

func (r *backupRepository) Truncate(ctx context.Context, table string) error {
	db := GetDB(ctx, r.db)
	return db.Exec("DELETE FROM " + db.Statement.Quote(table)).Error
}

func (r *backupRepository) Load(ctx context.Context, table string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if err := GetDB(ctx, r.db).Table(table).CreateInBatches(rows, 200).Error; err != nil {
		return fmt.Errorf("failed to load %s: %w", table, err)
	}
	return nil
}
