package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseRepository interface {
	Create(ctx context.Context, wh *model.Warehouse) error
	Update(ctx context.Context, wh *model.Warehouse) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	FindByCode(ctx context.Context, code string) (*model.Warehouse, error)
	List(ctx context.Context, activeOnly bool) ([]model.Warehouse, error)
	ActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type warehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Create(ctx context.Context, wh *model.Warehouse) error {
	return GetDB(ctx, r.db).Create(wh).Error
}

func (r *warehouseRepository) Update(ctx context.Context, wh *model.Warehouse) error {
	return GetDB(ctx, r.db).Save(wh).Error
}

func (r *warehouseRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Warehouse{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *warehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	var wh model.Warehouse
	if err := GetDB(ctx, r.db).First(&wh, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wh, nil
}

func (r *warehouseRepository) FindByCode(ctx context.Context, code string) (*model.Warehouse, error) {
	var wh model.Warehouse
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&wh).Error; err != nil {
		return nil, err
	}
	return &wh, nil
}

func (r *warehouseRepository) List(ctx context.Context, activeOnly bool) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	db := GetDB(ctx, r.db)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	if err := db.Order("code asc").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *warehouseRepository) ActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&model.Warehouse{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
