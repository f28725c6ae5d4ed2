package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	List(ctx context.Context, category string) ([]model.Setting, error)
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, value string) error

	ListCurrencies(ctx context.Context, activeOnly bool) ([]model.Currency, error)
	FindCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error)
	CurrencyCodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	SaveCurrency(ctx context.Context, currency *model.Currency) error
	ClearDefaultCurrency(ctx context.Context, exceptID uuid.UUID) error
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) List(ctx context.Context, category string) ([]model.Setting, error) {
	var settings []model.Setting
	db := GetDB(ctx, r.db)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if err := db.Order("category asc, key asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Get returns the value of key, or "" when it is not set
func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var values []string
	if err := GetDB(ctx, r.db).Model(&model.Setting{}).Where("key = ?", key).Limit(1).Pluck("value", &values).Error; err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) error {
	setting := model.Setting{Key: key, Value: value, Category: "general"}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

func (r *settingRepository) ListCurrencies(ctx context.Context, activeOnly bool) ([]model.Currency, error) {
	var currencies []model.Currency
	db := GetDB(ctx, r.db)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	if err := db.Order("is_default desc, code asc").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *settingRepository) FindCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *settingRepository) CurrencyCodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Currency{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *settingRepository) SaveCurrency(ctx context.Context, currency *model.Currency) error {
	return GetDB(ctx, r.db).Save(currency).Error
}

func (r *settingRepository) ClearDefaultCurrency(ctx context.Context, exceptID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Currency{}).Where("id <> ? AND is_default = ?", exceptID, true).Update("is_default", false).Error
}
