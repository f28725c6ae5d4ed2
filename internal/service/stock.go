package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// quantityPlaces matches the decimal(12,3) quantity columns
const quantityPlaces = 3

// checkQuantity accepts positive quantities with at most three decimals.
// Serial-tracked products move whole units only.
func checkQuantity(field string, q decimal.Decimal, product *model.Product) error {
	if !q.IsPositive() {
		return validationError("%s must be positive", field)
	}
	if !q.Equal(q.Round(quantityPlaces)) {
		return validationError("%s allows at most %d decimals", field, quantityPlaces)
	}
	if product != nil && product.TrackSerial && !q.Equal(q.Truncate(0)) {
		return validationError("%s: %s is serial-tracked and needs whole units", field, product.SKU)
	}
	return nil
}

func checkStockLimits(minStock, maxStock decimal.Decimal) error {
	if minStock.IsNegative() || maxStock.IsNegative() {
		return validationError("stock limits can not be negative")
	}
	if maxStock.IsPositive() && minStock.GreaterThan(maxStock) {
		return validationError("min_stock can not exceed max_stock")
	}
	return nil
}

// lockOrder returns the product ids of qty sorted so every writer locks
// inventory rows in the same order
func lockOrder(qty map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// lockStockRow returns the locked inventory row, creating it when the
// product predates the warehouse
func lockStockRow(ctx context.Context, repo repository.InventoryRepository, productID, warehouseID uuid.UUID) (*model.Inventory, error) {
	inv, err := repo.FindForUpdate(ctx, productID, warehouseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := repo.EnsureRow(ctx, productID, warehouseID, decimal.Zero, decimal.Zero); err != nil {
			return nil, fmt.Errorf("failed to create inventory row: %w", err)
		}
		inv, err = repo.FindForUpdate(ctx, productID, warehouseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock: %w", err)
	}
	return inv, nil
}

// moveStock applies delta to the locked row and writes the kardex line.
// A result below zero fails with ErrInsufficientStock. Must run inside a transaction.
func moveStock(ctx context.Context, repo repository.InventoryRepository, actorID string, product *model.Product, warehouseID uuid.UUID, delta decimal.Decimal, movementType, reference string) (StockChange, error) {
	inv, err := lockStockRow(ctx, repo, product.ID, warehouseID)
	if err != nil {
		return StockChange{}, err
	}
	if inv.Quantity.Add(delta).IsNegative() {
		return StockChange{}, fmt.Errorf("%w: %s has %s units, %s requested", ErrInsufficientStock, product.SKU, inv.Quantity, delta.Neg())
	}

	inv.Quantity = inv.Quantity.Add(delta)
	if err := repo.Save(ctx, inv); err != nil {
		return StockChange{}, fmt.Errorf("failed to update stock: %w", err)
	}

	mv := &model.StockMovement{
		ProductID:   product.ID,
		WarehouseID: warehouseID,
		Type:        movementType,
		Quantity:    delta,
		StockAfter:  inv.Quantity,
		Reference:   reference,
		UserID:      parseUserID(actorID),
	}
	if err := repo.CreateMovement(ctx, mv); err != nil {
		return StockChange{}, fmt.Errorf("failed to record stock movement: %w", err)
	}
	return newStockChange(product, inv), nil
}

func newStockChange(product *model.Product, inv *model.Inventory) StockChange {
	return StockChange{
		ProductID:   product.ID,
		SKU:         product.SKU,
		ProductName: product.Name,
		WarehouseID: inv.WarehouseID,
		Quantity:    inv.Quantity,
		MinStock:    inv.MinStock,
	}
}
