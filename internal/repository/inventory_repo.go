package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockFilter struct {
	WarehouseID  *uuid.UUID
	ProductID    *uuid.UUID
	LowStockOnly bool
	Search       string
}

type InventoryRepository interface {
	Create(ctx context.Context, inv *model.Inventory) error
	Save(ctx context.Context, inv *model.Inventory) error
	Find(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error)
	// FindForUpdate locks the row until the surrounding transaction ends
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error)
	EnsureRow(ctx context.Context, productID, warehouseID uuid.UUID, minStock, maxStock decimal.Decimal) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Inventory, error)
	List(ctx context.Context, page, limit int, filter StockFilter) ([]model.Inventory, int64, error)
	LowStock(ctx context.Context, limit int) ([]model.Inventory, error)
	CountLowStock(ctx context.Context) (int64, error)

	CreateMovement(ctx context.Context, mv *model.StockMovement) error
	ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)

	CreateSerials(ctx context.Context, serials []model.SerialNumber) error
	SerialsExist(ctx context.Context, serials []string) ([]string, error)
	ListSerials(ctx context.Context, productID uuid.UUID, status string) ([]model.SerialNumber, error)
	AvailableSerialsForUpdate(ctx context.Context, productID, warehouseID uuid.UUID, serials []string, limit int) ([]model.SerialNumber, error)
	MarkSerialsSold(ctx context.Context, ids []uuid.UUID, saleID uuid.UUID) error
	MoveSerials(ctx context.Context, ids []uuid.UUID, warehouseID uuid.UUID) error
	ReleaseSerials(ctx context.Context, saleID uuid.UUID) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, inv *model.Inventory) error {
	return GetDB(ctx, r.db).Create(inv).Error
}

func (r *inventoryRepository) Save(ctx context.Context, inv *model.Inventory) error {
	return GetDB(ctx, r.db).Omit("Product", "Warehouse").Save(inv).Error
}

func (r *inventoryRepository) Find(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	if err := GetDB(ctx, r.db).Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepository) EnsureRow(ctx context.Context, productID, warehouseID uuid.UUID, minStock, maxStock decimal.Decimal) error {
	inv := model.Inventory{ProductID: productID, WarehouseID: warehouseID, MinStock: minStock, MaxStock: maxStock}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&inv).Error
}

func (r *inventoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	if err := GetDB(ctx, r.db).Preload("Warehouse").Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepository) List(ctx context.Context, page, limit int, filter StockFilter) ([]model.Inventory, int64, error) {
	var rows []model.Inventory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Where("products.is_active = ?", true)
	if filter.WarehouseID != nil {
		db = db.Where("inventory.warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		db = db.Where("inventory.product_id = ?", *filter.ProductID)
	}
	if filter.LowStockOnly {
		db = db.Where("inventory.min_stock > 0 AND inventory.quantity <= inventory.min_stock")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("LOWER(products.name) LIKE LOWER(?) OR LOWER(products.sku) LIKE LOWER(?)", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Warehouse").
		Order("products.name asc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *inventoryRepository) lowStockQuery(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).Model(&model.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Where("products.is_active = ? AND inventory.min_stock > 0 AND inventory.quantity <= inventory.min_stock", true)
}

func (r *inventoryRepository) LowStock(ctx context.Context, limit int) ([]model.Inventory, error) {
	var rows []model.Inventory
	if err := r.lowStockQuery(ctx).Preload("Product").Preload("Warehouse").
		Order("inventory.quantity asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepository) CountLowStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.lowStockQuery(ctx).Count(&count).Error
	return count, err
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(mv).Error
}

func (r *inventoryRepository) ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var rows []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *inventoryRepository) CreateSerials(ctx context.Context, serials []model.SerialNumber) error {
	if len(serials) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&serials).Error
}

// SerialsExist returns which of the given serials are already registered
func (r *inventoryRepository) SerialsExist(ctx context.Context, serials []string) ([]string, error) {
	existing := []string{}
	if len(serials) == 0 {
		return existing, nil
	}
	err := GetDB(ctx, r.db).Model(&model.SerialNumber{}).Where("serial IN ?", serials).Pluck("serial", &existing).Error
	return existing, err
}

func (r *inventoryRepository) ListSerials(ctx context.Context, productID uuid.UUID, status string) ([]model.SerialNumber, error) {
	serials := []model.SerialNumber{}
	db := GetDB(ctx, r.db).Where("product_id = ?", productID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("serial asc").Find(&serials).Error
	return serials, err
}

// AvailableSerialsForUpdate locks available serials of a product in a warehouse.
// When serials is non-empty only those are considered, otherwise the oldest ones up to limit.
func (r *inventoryRepository) AvailableSerialsForUpdate(ctx context.Context, productID, warehouseID uuid.UUID, serials []string, limit int) ([]model.SerialNumber, error) {
	rows := []model.SerialNumber{}
	db := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ? AND status = ?", productID, warehouseID, model.SerialAvailable)
	if len(serials) > 0 {
		db = db.Where("serial IN ?", serials)
	}
	err := db.Order("created_at asc").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *inventoryRepository) MarkSerialsSold(ctx context.Context, ids []uuid.UUID, saleID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.SerialNumber{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": model.SerialSold, "sale_id": saleID}).Error
}

func (r *inventoryRepository) MoveSerials(ctx context.Context, ids []uuid.UUID, warehouseID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.SerialNumber{}).Where("id IN ?", ids).
		Update("warehouse_id", warehouseID).Error
}

func (r *inventoryRepository) ReleaseSerials(ctx context.Context, saleID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.SerialNumber{}).Where("sale_id = ?", saleID).
		Updates(map[string]interface{}{"status": model.SerialAvailable, "sale_id": nil}).Error
}
