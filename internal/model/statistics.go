package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats is the cached summary shown on the home screen
type DashboardStats struct {
	TodaySalesCount int64           `json:"today_sales_count"`
	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
	MonthSalesTotal decimal.Decimal `json:"month_sales_total"`
	ProductCount    int64           `json:"product_count"`
	CustomerCount   int64           `json:"customer_count"`
	LowStockCount   int64           `json:"low_stock_count"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// ProductRanking is a product ordered by units sold
type ProductRanking struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductSKU    string          `json:"product_sku"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// DailySales is one point of the sales time series
type DailySales struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type PaymentMethodTotal struct {
	PaymentMethod string          `json:"payment_method"`
	Count         int64           `json:"count"`
	Total         decimal.Decimal `json:"total"`
}

type SalesSummary struct {
	From            time.Time            `json:"from"`
	To              time.Time            `json:"to"`
	Count           int64                `json:"count"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Discount        decimal.Decimal      `json:"discount"`
	Tax             decimal.Decimal      `json:"tax"`
	Total           decimal.Decimal      `json:"total"`
	AverageTicket   decimal.Decimal      `json:"average_ticket"`
	Daily           []DailySales         `json:"daily"`
	ByPaymentMethod []PaymentMethodTotal `json:"by_payment_method"`
}

type InventoryValuationRow struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type InventoryValuation struct {
	Rows       []InventoryValuationRow `json:"rows"`
	TotalUnits decimal.Decimal         `json:"total_units"`
	TotalCost  decimal.Decimal         `json:"total_cost"`
	TotalPrice decimal.Decimal         `json:"total_price"`
}

type CustomerReportRow struct {
	CustomerID     string          `json:"customer_id"`
	FullName       string          `json:"full_name"`
	DocumentNumber string          `json:"document_number"`
	SalesCount     int64           `json:"sales_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	LastPurchase   *time.Time      `json:"last_purchase"`
}

type ProfitReport struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Revenue     decimal.Decimal `json:"revenue"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	MarginPct   decimal.Decimal `json:"margin_percent"`
	SalesCount  int64           `json:"sales_count"`
	UnitsSold   decimal.Decimal `json:"units_sold"`
}
