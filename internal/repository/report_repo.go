package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleTotalsRow aggregates completed sales over a date range
type SaleTotalsRow struct {
	Count    int64
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// SalePoint is a single completed sale used to build time series
type SalePoint struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

type ProfitRow struct {
	SalesCount int64
	Revenue    decimal.Decimal
}

type CostRow struct {
	UnitsSold   decimal.Decimal
	CostOfGoods decimal.Decimal
}

// ReportRepository runs the read-only aggregate queries behind the dashboard and reports
type ReportRepository interface {
	SaleTotals(ctx context.Context, from, to time.Time) (SaleTotalsRow, error)
	SalePoints(ctx context.Context, from, to time.Time) ([]SalePoint, error)
	PaymentMethodTotals(ctx context.Context, from, to time.Time) ([]model.PaymentMethodTotal, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.ProductRanking, error)
	InventoryValuation(ctx context.Context, warehouseID *uuid.UUID) ([]model.InventoryValuationRow, error)
	CustomerReport(ctx context.Context, from, to time.Time) ([]model.CustomerReportRow, error)
	Revenue(ctx context.Context, from, to time.Time) (ProfitRow, error)
	CostOfGoods(ctx context.Context, from, to time.Time) (CostRow, error)
	CountActiveProducts(ctx context.Context) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) completedSales(ctx context.Context, from, to time.Time) *gorm.DB {
	return GetDB(ctx, r.db).Table("sales").
		Where("sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?", model.SaleStatusCompleted, from, to)
}

func (r *reportRepository) SaleTotals(ctx context.Context, from, to time.Time) (SaleTotalsRow, error) {
	var row SaleTotalsRow
	err := r.completedSales(ctx, from, to).
		Select("COUNT(*) AS count, COALESCE(SUM(subtotal), 0) AS subtotal, COALESCE(SUM(discount_amount), 0) AS discount, COALESCE(SUM(tax_amount), 0) AS tax, COALESCE(SUM(total), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return row, fmt.Errorf("failed to query sale totals: %w", err)
	}
	return row, nil
}

func (r *reportRepository) SalePoints(ctx context.Context, from, to time.Time) ([]SalePoint, error) {
	points := []SalePoint{}
	err := r.completedSales(ctx, from, to).
		Select("created_at, total").
		Order("created_at asc").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sales series: %w", err)
	}
	return points, nil
}

func (r *reportRepository) PaymentMethodTotals(ctx context.Context, from, to time.Time) ([]model.PaymentMethodTotal, error) {
	rows := []model.PaymentMethodTotal{}
	err := r.completedSales(ctx, from, to).
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("payment_method").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.ProductRanking, error) {
	rankings := []model.ProductRanking{}
	err := GetDB(ctx, r.db).Table("sale_details").
		Select("products.id AS product_id, products.name AS product_name, products.sku AS product_sku, SUM(sale_details.quantity) AS total_quantity, COALESCE(SUM(sale_details.subtotal), 0) AS total_value").
		Joins("JOIN products ON products.id = sale_details.product_id").
		Joins("JOIN sales ON sales.id = sale_details.sale_id").
		Where("sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?", model.SaleStatusCompleted, from, to).
		Group("products.id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}

func (r *reportRepository) InventoryValuation(ctx context.Context, warehouseID *uuid.UUID) ([]model.InventoryValuationRow, error) {
	rows := []model.InventoryValuationRow{}
	db := GetDB(ctx, r.db).Table("inventory").
		Select("products.id AS product_id, products.sku, products.name AS product_name, warehouses.code AS warehouse_code, warehouses.name AS warehouse_name, inventory.quantity, products.cost AS unit_cost, products.price1 AS sale_price").
		Joins("JOIN products ON products.id = inventory.product_id").
		Joins("JOIN warehouses ON warehouses.id = inventory.warehouse_id").
		Where("products.is_active = ? AND products.is_service = ? AND inventory.quantity > 0", true, false)
	if warehouseID != nil {
		db = db.Where("inventory.warehouse_id = ?", *warehouseID)
	}
	if err := db.Order("products.name asc, warehouses.code asc").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query inventory valuation: %w", err)
	}
	return rows, nil
}

// dbTime scans aggregated timestamps. Postgres hands back time.Time while
// SQLite returns the text it stored.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var dbTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func (t *dbTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp value %T", value)
}

func (t dbTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

func (t *dbTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed, true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

type customerAggregate struct {
	CustomerID     string
	FullName       string
	DocumentNumber string
	SalesCount     int64
	TotalAmount    decimal.Decimal
	LastPurchase   dbTime
}

func (r *reportRepository) CustomerReport(ctx context.Context, from, to time.Time) ([]model.CustomerReportRow, error) {
	var scanned []customerAggregate
	err := r.completedSales(ctx, from, to).
		Select("customers.id AS customer_id, customers.full_name, customers.document_number, COUNT(sales.id) AS sales_count, COALESCE(SUM(sales.total), 0) AS total_amount, MAX(sales.created_at) AS last_purchase").
		Joins("JOIN customers ON customers.id = sales.customer_id").
		Group("customers.id, customers.full_name, customers.document_number").
		Order("total_amount DESC").
		Scan(&scanned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query customer report: %w", err)
	}

	rows := make([]model.CustomerReportRow, 0, len(scanned))
	for _, s := range scanned {
		row := model.CustomerReportRow{
			CustomerID:     s.CustomerID,
			FullName:       s.FullName,
			DocumentNumber: s.DocumentNumber,
			SalesCount:     s.SalesCount,
			TotalAmount:    s.TotalAmount,
		}
		if s.LastPurchase.Valid {
			at := s.LastPurchase.Time
			row.LastPurchase = &at
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *reportRepository) Revenue(ctx context.Context, from, to time.Time) (ProfitRow, error) {
	var row ProfitRow
	err := r.completedSales(ctx, from, to).
		Select("COUNT(*) AS sales_count, COALESCE(SUM(subtotal - discount_amount), 0) AS revenue").
		Scan(&row).Error
	return row, err
}

func (r *reportRepository) CostOfGoods(ctx context.Context, from, to time.Time) (CostRow, error) {
	var row CostRow
	err := GetDB(ctx, r.db).Table("sale_details").
		Select("COALESCE(SUM(sale_details.quantity), 0) AS units_sold, COALESCE(SUM(sale_details.quantity * sale_details.unit_cost), 0) AS cost_of_goods").
		Joins("JOIN sales ON sales.id = sale_details.sale_id").
		Where("sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?", model.SaleStatusCompleted, from, to).
		Scan(&row).Error
	return row, err
}

func (r *reportRepository) CountActiveProducts(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
