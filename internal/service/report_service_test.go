package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	customer *model.Customer
	coffee   *ProductResponse
	tea      *ProductResponse
}

// seedSales books three completed sales and one cancelled sale for today
func seedSales(t *testing.T, env *testEnv) reportFixture {
	t.Helper()
	customer, err := env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		DocumentType:   model.DocCC,
		DocumentNumber: "52123456",
		FirstName:      "Marta",
		LastName:       "Rincón",
	})
	require.NoError(t, err)

	f := reportFixture{
		customer: customer,
		coffee:   env.createProduct(t, "CAFE-250", "10000", 10),
		tea:      env.createProduct(t, "TE-100", "5000", 3),
	}
	_, err = env.inventory.SetStockLimits(env.ctx, env.actor, StockLimitsRequest{
		ProductID:   f.tea.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		MinStock:    units(5),
	})
	require.NoError(t, err)

	sell := func(customerID string, productID uuid.UUID, quantity decimal.Decimal) *model.Sale {
		sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
			CustomerID:  customerID,
			WarehouseID: env.warehouse.ID.String(),
			Lines:       []SaleLineRequest{{ProductID: productID.String(), Quantity: quantity}},
		})
		require.NoError(t, err)
		return sale
	}
	sell(customer.ID.String(), f.coffee.ID, units(2))
	sell(customer.ID.String(), f.coffee.ID, dec("1.5"))
	sell("", f.tea.ID, units(1))
	cancelled := sell("", f.coffee.ID, units(1))
	_, err = env.sales.CancelSale(env.ctx, env.actor, cancelled.ID.String(), "error de caja")
	require.NoError(t, err)
	return f
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	bom := []byte("\ufeff")
	require.True(t, bytes.HasPrefix(data, bom))
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestDashboardService_Stats(t *testing.T) {
	env := newTestEnv(t)
	f := seedSales(t, env)

	stats, err := env.dashboard.Stats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TodaySalesCount)
	// 23800 + 17850 + 5950
	assert.True(t, dec("47600").Equal(stats.TodaySalesTotal), stats.TodaySalesTotal.String())
	assert.True(t, dec("47600").Equal(stats.MonthSalesTotal), stats.MonthSalesTotal.String())
	assert.Equal(t, int64(2), stats.ProductCount)
	assert.Equal(t, env.count(t, &model.Customer{}), stats.CustomerCount)
	assert.Equal(t, int64(1), stats.LowStockCount)

	low, err := env.dashboard.LowStock(env.ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, f.tea.ID, low[0].ProductID)

	top, err := env.dashboard.TopProducts(env.ctx, 5, 7)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, f.coffee.ID.String(), top[0].ProductID)
	assert.True(t, dec("3.5").Equal(top[0].TotalQuantity), top[0].TotalQuantity.String())

	recent, err := env.dashboard.RecentSales(env.ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	_, err = env.dashboard.TopProducts(env.ctx, 5, 400)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_CustomerReport(t *testing.T) {
	env := newTestEnv(t)
	f := seedSales(t, env)
	before := time.Now().Add(-time.Minute)

	rows, err := env.reports.CustomerReport(env.ctx, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, f.customer.ID.String(), row.CustomerID)
	assert.Equal(t, int64(2), row.SalesCount)
	assert.True(t, dec("41650").Equal(row.TotalAmount), row.TotalAmount.String())
	require.NotNil(t, row.LastPurchase)
	assert.True(t, row.LastPurchase.After(before), row.LastPurchase.String())
}

func TestReportService_ProfitAndValuation(t *testing.T) {
	env := newTestEnv(t)
	seedSales(t, env)

	profit, err := env.reports.ProfitReport(env.ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), profit.SalesCount)
	assert.True(t, dec("40000").Equal(profit.Revenue), profit.Revenue.String())
	// products cost half their price
	assert.True(t, dec("20000").Equal(profit.CostOfGoods), profit.CostOfGoods.String())
	assert.True(t, dec("20000").Equal(profit.GrossProfit), profit.GrossProfit.String())
	assert.True(t, dec("50").Equal(profit.MarginPct), profit.MarginPct.String())
	assert.True(t, dec("4.5").Equal(profit.UnitsSold), profit.UnitsSold.String())

	valuation, err := env.reports.InventoryValuation(env.ctx, "")
	require.NoError(t, err)
	require.Len(t, valuation.Rows, 2)
	assert.True(t, dec("8.5").Equal(valuation.TotalUnits), valuation.TotalUnits.String())
	// 6.5 * 5000 + 2 * 2500
	assert.True(t, dec("37500").Equal(valuation.TotalCost), valuation.TotalCost.String())

	summary, err := env.reports.SalesSummary(env.ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Count)
	assert.True(t, dec("47600").Equal(summary.Total), summary.Total.String())

	_, err = env.reports.SalesSummary(env.ctx, "2024-02-10", "2024-02-01")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_CSVExports(t *testing.T) {
	env := newTestEnv(t)
	seedSales(t, env)

	data, err := env.reports.ExportInventoryCSV(env.ctx, env.warehouse.ID.String())
	require.NoError(t, err)
	records := readCSV(t, data)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"sku", "producto", "bodega", "cantidad", "costo_unitario", "costo_total", "precio_venta", "valor_venta"}, records[0])
	assert.Equal(t, "CAFE-250", records[1][0])
	assert.Equal(t, "6.5", records[1][3])
	assert.Equal(t, []string{"TOTAL", "", "", "8.5", "", "37500.00", "", "75000.00"}, records[3])

	data, err = env.reports.ExportSalesCSV(env.ctx, "", "")
	require.NoError(t, err)
	records = readCSV(t, data)
	require.Len(t, records, 5)
	assert.Equal(t, "numero", records[0][0])
	statuses := map[string]int{}
	for _, r := range records[1:] {
		statuses[r[len(r)-1]]++
	}
	assert.Equal(t, 3, statuses[model.SaleStatusCompleted])
	assert.Equal(t, 1, statuses[model.SaleStatusCancelled])
}
