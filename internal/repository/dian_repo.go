package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DianRepository interface {
	GetConfiguration(ctx context.Context) (*model.DianConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg *model.DianConfiguration) error

	ListProviders(ctx context.Context) ([]model.TaxProvider, error)
	FindProvider(ctx context.Context, id uuid.UUID) (*model.TaxProvider, error)
	SaveProvider(ctx context.Context, provider *model.TaxProvider) error
	DeleteProvider(ctx context.Context, id uuid.UUID) error

	ListInvoiceTypes(ctx context.Context) ([]model.InvoiceType, error)
	ListTaxes(ctx context.Context, taxType string) ([]model.Tax, error)

	ListResolutions(ctx context.Context) ([]model.Resolution, error)
	FindResolution(ctx context.Context, id uuid.UUID) (*model.Resolution, error)
	ActiveResolutionForUpdate(ctx context.Context) (*model.Resolution, error)
	SaveResolution(ctx context.Context, res *model.Resolution) error
	DeactivateResolutions(ctx context.Context, prefix string, exceptID uuid.UUID) error
	IncrementResolution(ctx context.Context, id uuid.UUID, next int64) error
	DeleteResolution(ctx context.Context, id uuid.UUID) error
	ResolutionInUse(ctx context.Context, id uuid.UUID) (bool, error)

	FindInvoiceBySale(ctx context.Context, saleID uuid.UUID) (*model.ElectronicInvoice, error)
	FindInvoice(ctx context.Context, id uuid.UUID) (*model.ElectronicInvoice, error)
	SaveInvoice(ctx context.Context, inv *model.ElectronicInvoice) error
	ListInvoices(ctx context.Context, status string, page, limit int) ([]model.ElectronicInvoice, int64, error)
}

type dianRepository struct {
	db *gorm.DB
}

func NewDianRepository(db *gorm.DB) DianRepository {
	return &dianRepository{db: db}
}

// GetConfiguration returns the singleton row, or gorm.ErrRecordNotFound
func (r *dianRepository) GetConfiguration(ctx context.Context) (*model.DianConfiguration, error) {
	var cfg model.DianConfiguration
	if err := GetDB(ctx, r.db).Preload("Provider").Order("created_at asc").First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *dianRepository) SaveConfiguration(ctx context.Context, cfg *model.DianConfiguration) error {
	return GetDB(ctx, r.db).Omit("Provider").Save(cfg).Error
}

func (r *dianRepository) ListProviders(ctx context.Context) ([]model.TaxProvider, error) {
	providers := []model.TaxProvider{}
	err := GetDB(ctx, r.db).Order("name asc").Find(&providers).Error
	return providers, err
}

func (r *dianRepository) FindProvider(ctx context.Context, id uuid.UUID) (*model.TaxProvider, error) {
	var provider model.TaxProvider
	if err := GetDB(ctx, r.db).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *dianRepository) SaveProvider(ctx context.Context, provider *model.TaxProvider) error {
	return GetDB(ctx, r.db).Save(provider).Error
}

func (r *dianRepository) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxProvider{}).Error
}

func (r *dianRepository) ListInvoiceTypes(ctx context.Context) ([]model.InvoiceType, error) {
	types := []model.InvoiceType{}
	err := GetDB(ctx, r.db).Order("code asc").Find(&types).Error
	return types, err
}

func (r *dianRepository) ListTaxes(ctx context.Context, taxType string) ([]model.Tax, error) {
	taxes := []model.Tax{}
	db := GetDB(ctx, r.db)
	if taxType != "" {
		db = db.Where("type = ?", taxType)
	}
	err := db.Order("type asc, rate asc").Find(&taxes).Error
	return taxes, err
}

func (r *dianRepository) ListResolutions(ctx context.Context) ([]model.Resolution, error) {
	resolutions := []model.Resolution{}
	err := GetDB(ctx, r.db).Order("is_active desc, valid_from desc").Find(&resolutions).Error
	return resolutions, err
}

func (r *dianRepository) FindResolution(ctx context.Context, id uuid.UUID) (*model.Resolution, error) {
	var res model.Resolution
	if err := GetDB(ctx, r.db).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// ActiveResolutionForUpdate locks the most recent active resolution
func (r *dianRepository) ActiveResolutionForUpdate(ctx context.Context) (*model.Resolution, error) {
	var res model.Resolution
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_active = ?", true).Order("valid_from desc").First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *dianRepository) SaveResolution(ctx context.Context, res *model.Resolution) error {
	return GetDB(ctx, r.db).Save(res).Error
}

func (r *dianRepository) DeactivateResolutions(ctx context.Context, prefix string, exceptID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Resolution{}).
		Where("prefix = ? AND id <> ? AND is_active = ?", prefix, exceptID, true).
		Update("is_active", false).Error
}

func (r *dianRepository) IncrementResolution(ctx context.Context, id uuid.UUID, next int64) error {
	return GetDB(ctx, r.db).Model(&model.Resolution{}).Where("id = ?", id).Update("current_number", next).Error
}

func (r *dianRepository) DeleteResolution(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Resolution{}).Error
}

func (r *dianRepository) ResolutionInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ElectronicInvoice{}).Where("resolution_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *dianRepository) FindInvoiceBySale(ctx context.Context, saleID uuid.UUID) (*model.ElectronicInvoice, error) {
	var inv model.ElectronicInvoice
	if err := GetDB(ctx, r.db).Where("sale_id = ?", saleID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *dianRepository) FindInvoice(ctx context.Context, id uuid.UUID) (*model.ElectronicInvoice, error) {
	var inv model.ElectronicInvoice
	if err := GetDB(ctx, r.db).Preload("Sale").Preload("Sale.Customer").Preload("Resolution").
		First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *dianRepository) SaveInvoice(ctx context.Context, inv *model.ElectronicInvoice) error {
	return GetDB(ctx, r.db).Omit("Sale", "Resolution").Save(inv).Error
}

func (r *dianRepository) ListInvoices(ctx context.Context, status string, page, limit int) ([]model.ElectronicInvoice, int64, error) {
	var invoices []model.ElectronicInvoice
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ElectronicInvoice{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Sale").Order("created_at desc").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}
