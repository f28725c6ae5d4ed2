package service

import (
	"testing"

	"contapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSupplier(t *testing.T, env *testEnv) *model.Customer {
	t.Helper()
	supplier, err := env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		Type:           model.CustomerTypeSupplier,
		DocumentType:   model.DocNIT,
		DocumentNumber: "800197268",
		BusinessName:   "Distribuidora Andina SAS",
	})
	require.NoError(t, err)
	return supplier
}

func TestPurchaseService_CreatePurchaseAddsStockAndCost(t *testing.T) {
	env := newTestEnv(t)
	supplier := createSupplier(t, env)
	product := env.createProduct(t, "TORN-10", "10000", 2)

	purchase, err := env.purchases.CreatePurchase(env.ctx, env.actor, PurchaseRequest{
		SupplierID:      supplier.ID.String(),
		WarehouseID:     env.warehouse.ID.String(),
		SupplierInvoice: "FV-1020",
		Lines:           []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: units(5), UnitCost: decimal.NewFromInt(8000)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "COM-000001", purchase.PurchaseNumber)
	assert.Equal(t, model.PurchaseStatusReceived, purchase.Status)
	assert.True(t, decimal.NewFromInt(40000).Equal(purchase.Subtotal), purchase.Subtotal.String())
	assert.True(t, decimal.NewFromInt(47600).Equal(purchase.Total), purchase.Total.String())
	env.assertStock(t, product.ID, "7")

	updated, err := env.productRepo.FindByID(env.ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8000).Equal(updated.Cost), updated.Cost.String())
}

func TestPurchaseService_RequiresSupplier(t *testing.T) {
	env := newTestEnv(t)
	client, err := env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		DocumentType:   model.DocCC,
		DocumentNumber: "1020304050",
		FirstName:      "Ana",
		LastName:       "Gómez",
	})
	require.NoError(t, err)
	product := env.createProduct(t, "TORN-12", "10000", 0)

	_, err = env.purchases.CreatePurchase(env.ctx, env.actor, PurchaseRequest{
		SupplierID:  client.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: units(1), UnitCost: decimal.NewFromInt(100)}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int64(0), env.count(t, &model.Purchase{}))
}

func TestPurchaseService_CancelTakesStockBack(t *testing.T) {
	env := newTestEnv(t)
	supplier := createSupplier(t, env)
	product := env.createProduct(t, "CABLE-2M", "6000", 0)

	purchase, err := env.purchases.CreatePurchase(env.ctx, env.actor, PurchaseRequest{
		SupplierID:  supplier.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []PurchaseLineRequest{{ProductID: product.ID.String(), Quantity: units(4), UnitCost: decimal.NewFromInt(3000)}},
	})
	require.NoError(t, err)
	env.assertStock(t, product.ID, "4")

	_, err = env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(3)}},
	})
	require.NoError(t, err)

	_, err = env.purchases.CancelPurchase(env.ctx, env.actor, purchase.ID.String(), "devolución")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	env.assertStock(t, product.ID, "1")
}

func TestPurchaseService_RepeatedLinesMoveStockOnce(t *testing.T) {
	env := newTestEnv(t)
	supplier := createSupplier(t, env)
	nails := env.createProduct(t, "PUNTILLA-KG", "9000", 1)
	glue := env.createProduct(t, "PEGANTE", "15000", 0)

	purchase, err := env.purchases.CreatePurchase(env.ctx, env.actor, PurchaseRequest{
		SupplierID:  supplier.ID.String(),
		WarehouseID: env.warehouse.ID.String(),
		Lines: []PurchaseLineRequest{
			{ProductID: nails.ID.String(), Quantity: dec("2"), UnitCost: decimal.NewFromInt(7000)},
			{ProductID: glue.ID.String(), Quantity: units(4), UnitCost: decimal.NewFromInt(11000)},
			{ProductID: nails.ID.String(), Quantity: dec("3.5"), UnitCost: decimal.NewFromInt(7500)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, purchase.Details, 3)
	// 2*7000 + 4*11000 + 3.5*7500
	assert.True(t, dec("84250").Equal(purchase.Subtotal), purchase.Subtotal.String())

	env.assertStock(t, nails.ID, "6.5")
	env.assertStock(t, glue.ID, "4")

	var received []model.StockMovement
	for _, mv := range env.movementsOf(t, nails.ID) {
		if mv.Reference == purchase.PurchaseNumber {
			received = append(received, mv)
		}
	}
	require.Len(t, received, 1)
	assert.True(t, dec("5.5").Equal(received[0].Quantity), received[0].Quantity.String())
	assert.True(t, dec("6.5").Equal(received[0].StockAfter), received[0].StockAfter.String())

	updated, err := env.productRepo.FindByID(env.ctx, nails.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7500).Equal(updated.Cost), updated.Cost.String())

	_, err = env.purchases.CancelPurchase(env.ctx, env.actor, purchase.ID.String(), "pedido errado")
	require.NoError(t, err)
	env.assertStock(t, nails.ID, "1")
	env.assertStock(t, glue.ID, "0")
}

func TestLockOrderIsSortedAndUnique(t *testing.T) {
	a := uuid.MustParse("0b8f7c2e-0000-4000-8000-000000000001")
	b := uuid.MustParse("5d1e2f3a-0000-4000-8000-000000000002")
	c := uuid.MustParse("f0e1d2c3-0000-4000-8000-000000000003")

	qty := map[uuid.UUID]decimal.Decimal{c: units(1), a: units(2), b: dec("0.5")}
	for i := 0; i < 5; i++ {
		assert.Equal(t, []uuid.UUID{a, b, c}, lockOrder(qty))
	}
}

func TestCustomerService_NITVerificationDigit(t *testing.T) {
	env := newTestEnv(t)

	company, err := env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		DocumentType:   model.DocNIT,
		DocumentNumber: "900.123.456",
		BusinessName:   "Comercializadora del Valle",
	})
	require.NoError(t, err)
	assert.Equal(t, "900123456", company.DocumentNumber)
	assert.Equal(t, "8", company.VerificationDigit)

	_, err = env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		DocumentType:   model.DocNIT,
		DocumentNumber: "860034313-1",
		BusinessName:   "Digito Errado SA",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.customers.CreateCustomer(env.ctx, env.actor, CustomerRequest{
		DocumentType:   model.DocNIT,
		DocumentNumber: "900123456",
		BusinessName:   "Duplicada",
	})
	assert.ErrorIs(t, err, ErrConflict)
}
