package repository

import (
	"context"
	"time"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleFilter struct {
	From       *time.Time
	To         *time.Time
	CustomerID *uuid.UUID
	UserID     *uuid.UUID
	Status     string
	Type       string
	Search     string
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, page, limit int, filter SaleFilter) ([]model.Sale, int64, error)
	Recent(ctx context.Context, limit int) ([]model.Sale, error)
	Totals(ctx context.Context, filter SaleFilter) (count int64, total string, err error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

// Create inserts the sale together with its details
func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Omit("Customer", "Warehouse", "User").Create(sale).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Details").Preload("Details.Product").
		Preload("Customer").Preload("Customer.City").
		Preload("Warehouse").Preload("User").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("sale_id = ?", id).Find(&sale.Details).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepository) filtered(ctx context.Context, filter SaleFilter) *gorm.DB {
	db := GetDB(ctx, r.db).Model(&model.Sale{})
	if filter.From != nil {
		db = db.Where("sales.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("sales.created_at < ?", *filter.To)
	}
	if filter.CustomerID != nil {
		db = db.Where("sales.customer_id = ?", *filter.CustomerID)
	}
	if filter.UserID != nil {
		db = db.Where("sales.user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("sales.status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("sales.type = ?", filter.Type)
	}
	if filter.Search != "" {
		db = db.Where("LOWER(sales.invoice_number) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return db
}

func (r *saleRepository) List(ctx context.Context, page, limit int, filter SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := r.filtered(ctx, filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Customer").Preload("User").
		Order("sales.created_at desc").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *saleRepository) Recent(ctx context.Context, limit int) ([]model.Sale, error) {
	sales := []model.Sale{}
	err := GetDB(ctx, r.db).Preload("Customer").
		Where("status = ?", model.SaleStatusCompleted).
		Order("created_at desc").Limit(limit).Find(&sales).Error
	return sales, err
}

// Totals returns the number of matching sales and the sum of their totals as text
func (r *saleRepository) Totals(ctx context.Context, filter SaleFilter) (int64, string, error) {
	var result struct {
		Count int64
		Total string
	}
	err := r.filtered(ctx, filter).
		Select("COUNT(*) AS count, CAST(COALESCE(SUM(sales.total), 0) AS TEXT) AS total").
		Scan(&result).Error
	return result.Count, result.Total, err
}
