package service

import (
	"strings"
	"testing"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) secondWarehouse(t *testing.T) *model.Warehouse {
	t.Helper()
	wh, err := e.settings.CreateWarehouse(e.ctx, e.actor, WarehouseRequest{Code: "sur", Name: "Bodega Sur"})
	require.NoError(t, err)
	return wh
}

func (e *testEnv) movementsOf(t *testing.T, productID uuid.UUID) []model.StockMovement {
	t.Helper()
	rows, _, err := e.inventory.ListMovements(e.ctx, productID.String(), 1, 50)
	require.NoError(t, err)
	return rows
}

func (e *testEnv) serialProduct(t *testing.T, sku string, serials ...string) *ProductResponse {
	t.Helper()
	p, err := e.inventory.CreateProduct(e.ctx, e.actor, ProductRequest{
		SKU:         sku,
		Name:        "Celular " + sku,
		Cost:        decimal.NewFromInt(400000),
		Price1:      decimal.NewFromInt(650000),
		TaxRate:     decimal.NewFromInt(19),
		TrackSerial: true,
	})
	require.NoError(t, err)

	_, err = e.inventory.RegisterSerials(e.ctx, e.actor, RegisterSerialsRequest{
		ProductID:   p.ID.String(),
		WarehouseID: e.warehouse.ID.String(),
		Serials:     serials,
	})
	require.NoError(t, err)
	_, err = e.inventory.AdjustStock(e.ctx, e.actor, AdjustStockRequest{
		ProductID:   p.ID.String(),
		WarehouseID: e.warehouse.ID.String(),
		NewQuantity: units(int64(len(serials))),
		Reason:      "conteo inicial",
	})
	require.NoError(t, err)
	return p
}

func TestInventoryService_AdjustStockSetsAbsoluteQuantity(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "AZUCAR-KG", "4200", 10)

	inv, err := env.inventory.AdjustStock(env.ctx, env.actor, AdjustStockRequest{
		ProductID:   product.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		NewQuantity: dec("7.250"),
		Reason:      "merma",
	})
	require.NoError(t, err)
	assert.True(t, dec("7.25").Equal(inv.Quantity), inv.Quantity.String())
	env.assertStock(t, product.ID, "7.25")

	var adjust *model.StockMovement
	for _, mv := range env.movementsOf(t, product.ID) {
		if mv.Type == model.MovementAdjust {
			mv := mv
			adjust = &mv
		}
	}
	require.NotNil(t, adjust)
	assert.True(t, dec("-2.75").Equal(adjust.Quantity), adjust.Quantity.String())
	assert.True(t, dec("7.25").Equal(adjust.StockAfter), adjust.StockAfter.String())
	assert.Equal(t, "AJUSTE: merma", adjust.Reference)

	t.Run("negative quantity", func(t *testing.T) {
		_, err := env.inventory.AdjustStock(env.ctx, env.actor, AdjustStockRequest{
			ProductID:   product.ID.String(),
			WarehouseID: env.warehouse.ID.String(),
			NewQuantity: units(-1),
			Reason:      "error",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("more than three decimals", func(t *testing.T) {
		_, err := env.inventory.AdjustStock(env.ctx, env.actor, AdjustStockRequest{
			ProductID:   product.ID.String(),
			WarehouseID: env.warehouse.ID.String(),
			NewQuantity: dec("1.0005"),
			Reason:      "báscula",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("zero empties the row", func(t *testing.T) {
		_, err := env.inventory.AdjustStock(env.ctx, env.actor, AdjustStockRequest{
			ProductID:   product.ID.String(),
			WarehouseID: env.warehouse.ID.String(),
			NewQuantity: decimal.Zero,
			Reason:      "vencido",
		})
		require.NoError(t, err)
		env.assertStock(t, product.ID, "0")
	})
}

func TestInventoryService_TransferStockMovesUnits(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "HARINA-KG", "3600", 10)
	south := env.secondWarehouse(t)

	err := env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
		ProductID:       product.ID.String(),
		FromWarehouseID: env.warehouse.ID.String(),
		ToWarehouseID:   south.ID.String(),
		Quantity:        dec("3.5"),
		Notes:           "reposición",
	})
	require.NoError(t, err)

	env.assertStock(t, product.ID, "6.5")
	got := env.stockIn(t, product.ID, south.ID)
	assert.True(t, dec("3.5").Equal(got), got.String())

	kinds := map[string]decimal.Decimal{}
	for _, mv := range env.movementsOf(t, product.ID) {
		kinds[mv.Type] = mv.Quantity
	}
	require.Contains(t, kinds, model.MovementTransferOut)
	require.Contains(t, kinds, model.MovementTransferIn)
	assert.True(t, dec("-3.5").Equal(kinds[model.MovementTransferOut]))
	assert.True(t, dec("3.5").Equal(kinds[model.MovementTransferIn]))

	t.Run("more than available", func(t *testing.T) {
		err := env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
			ProductID:       product.ID.String(),
			FromWarehouseID: env.warehouse.ID.String(),
			ToWarehouseID:   south.ID.String(),
			Quantity:        units(7),
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		env.assertStock(t, product.ID, "6.5")
	})

	t.Run("same warehouse", func(t *testing.T) {
		err := env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
			ProductID:       product.ID.String(),
			FromWarehouseID: env.warehouse.ID.String(),
			ToWarehouseID:   env.warehouse.ID.String(),
			Quantity:        units(1),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("serials on a plain product", func(t *testing.T) {
		err := env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
			ProductID:       product.ID.String(),
			FromWarehouseID: env.warehouse.ID.String(),
			ToWarehouseID:   south.ID.String(),
			Quantity:        units(1),
			Serials:         []string{"X1"},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestInventoryService_TransferCarriesSerialNumbers(t *testing.T) {
	env := newTestEnv(t)
	product := env.serialProduct(t, "CEL-A15", "sn-001", "sn-002", "sn-003")
	south := env.secondWarehouse(t)

	err := env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
		ProductID:       product.ID.String(),
		FromWarehouseID: env.warehouse.ID.String(),
		ToWarehouseID:   south.ID.String(),
		Quantity:        units(2),
		Serials:         []string{"sn-002", "sn-003"},
	})
	require.NoError(t, err)

	serials, err := env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialAvailable)
	require.NoError(t, err)
	location := map[string]uuid.UUID{}
	for _, sn := range serials {
		location[sn.Serial] = sn.WarehouseID
	}
	assert.Equal(t, env.warehouse.ID, location["SN-001"])
	assert.Equal(t, south.ID, location["SN-002"])
	assert.Equal(t, south.ID, location["SN-003"])

	// the transferred units can be sold from the destination
	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: south.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(2)}},
	})
	require.NoError(t, err)
	require.Len(t, sale.Details, 1)
	assert.ElementsMatch(t, []string{"SN-002", "SN-003"}, strings.Split(sale.Details[0].Serials, ","))

	sold, err := env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialSold)
	require.NoError(t, err)
	assert.Len(t, sold, 2)

	_, err = env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "devolución")
	require.NoError(t, err)
	available, err := env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialAvailable)
	require.NoError(t, err)
	assert.Len(t, available, 3)
	got := env.stockIn(t, product.ID, south.ID)
	assert.True(t, units(2).Equal(got), got.String())
}

func TestInventoryService_TransferNeedsEnoughSerials(t *testing.T) {
	env := newTestEnv(t)
	product := env.serialProduct(t, "CEL-B20", "sn-101", "sn-102")
	south := env.secondWarehouse(t)

	// stock counted above the registered serials
	_, err := env.inventory.AdjustStock(env.ctx, env.actor, AdjustStockRequest{
		ProductID:   product.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		NewQuantity: units(3),
		Reason:      "conteo",
	})
	require.NoError(t, err)

	err = env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
		ProductID:       product.ID.String(),
		FromWarehouseID: env.warehouse.ID.String(),
		ToWarehouseID:   south.ID.String(),
		Quantity:        units(3),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	env.assertStock(t, product.ID, "3")
	serials, err := env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialAvailable)
	require.NoError(t, err)
	for _, sn := range serials {
		assert.Equal(t, env.warehouse.ID, sn.WarehouseID, sn.Serial)
	}

	err = env.inventory.TransferStock(env.ctx, env.actor, TransferStockRequest{
		ProductID:       product.ID.String(),
		FromWarehouseID: env.warehouse.ID.String(),
		ToWarehouseID:   south.ID.String(),
		Quantity:        dec("1.5"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaleService_SerialTrackedSaleAndCancel(t *testing.T) {
	env := newTestEnv(t)
	product := env.serialProduct(t, "CEL-C30", "imei-1", "imei-2")

	_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1), Serials: []string{"imei-9"}}},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1), Serials: []string{"imei-2"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "IMEI-2", sale.Details[0].Serials)
	env.assertStock(t, product.ID, "1")

	sold, err := env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialSold)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	require.NotNil(t, sold[0].SaleID)
	assert.Equal(t, sale.ID, *sold[0].SaleID)

	_, err = env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: dec("0.5")}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "cambio de equipo")
	require.NoError(t, err)
	env.assertStock(t, product.ID, "2")
	sold, err = env.inventory.ListSerials(env.ctx, product.ID.String(), model.SerialSold)
	require.NoError(t, err)
	assert.Empty(t, sold)
}

func TestSaleService_FractionalQuantity(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "QUESO-KG", "20000", 5)

	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: dec("2.5")}},
	})
	require.NoError(t, err)

	assert.True(t, dec("50000").Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, dec("9500").Equal(sale.TaxAmount), sale.TaxAmount.String())
	assert.True(t, dec("2.5").Equal(sale.Details[0].Quantity))
	env.assertStock(t, product.ID, "2.5")

	_, err = env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: dec("0.0001")}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}
