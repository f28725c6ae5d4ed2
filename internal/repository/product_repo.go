package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	ActiveOnly bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateCost(ctx context.Context, id uuid.UUID, cost decimal.Decimal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)
	BarcodeExists(ctx context.Context, barcode string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error)
	Search(ctx context.Context, q string, limit int) ([]model.Product, error)
	ActiveStockedIDs(ctx context.Context) ([]uuid.UUID, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit("Category", "Brand", "Group", "Line").Save(product).Error
}

func (r *productRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *productRepository) UpdateCost(ctx context.Context, id uuid.UUID, cost decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("cost", cost).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Preload("Category").Preload("Brand").Preload("Group").Preload("Line").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ? AND is_active = ?", sku, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("barcode = ? AND is_active = ?", barcode, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "sku = ?", sku, excludeID)
}

func (r *productRepository) BarcodeExists(ctx context.Context, barcode string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "barcode = ?", barcode, excludeID)
}

func (r *productRepository) exists(ctx context.Context, cond string, value string, excludeID uuid.UUID) (bool, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Product{}).Where(cond, value)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?) OR barcode LIKE ?", like, like, like)
	}
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.BrandID != nil {
		db = db.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Category").Preload("Brand").
		Order("name asc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search returns the exact barcode match when there is one, otherwise
// active products whose name, SKU or barcode contain q.
func (r *productRepository) Search(ctx context.Context, q string, limit int) ([]model.Product, error) {
	if p, err := r.FindByBarcode(ctx, q); err == nil {
		return []model.Product{*p}, nil
	}

	products := []model.Product{}
	like := "%" + q + "%"
	err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?) OR barcode LIKE ?", like, like, like).
		Order("name asc").Limit(limit).Find(&products).Error
	return products, err
}

// ActiveStockedIDs lists active products that carry stock (services excluded)
func (r *productRepository) ActiveStockedIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("is_active = ? AND is_service = ?", true, false).
		Pluck("id", &ids).Error
	return ids, err
}
