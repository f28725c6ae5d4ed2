package service

import (
	"context"
	"testing"

	"contapos/internal/mailer"
	"contapos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleService_CreateSaleTakesStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "CAFE-500", "10000", 10)

	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(3)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "VEN-000001", sale.InvoiceNumber)
	assert.Equal(t, model.SaleStatusCompleted, sale.Status)
	assert.True(t, decimal.NewFromInt(30000).Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, decimal.NewFromInt(5700).Equal(sale.TaxAmount), sale.TaxAmount.String())
	assert.True(t, decimal.NewFromInt(35700).Equal(sale.Total), sale.Total.String())
	require.Len(t, sale.Details, 1)
	assert.True(t, units(3).Equal(sale.Details[0].Quantity))

	env.assertStock(t, product.ID, "7")

	movements, total, err := env.inventory.ListMovements(env.ctx, product.ID.String(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	var out *model.StockMovement
	for i := range movements {
		if movements[i].Type == model.MovementOut {
			out = &movements[i]
		}
	}
	require.NotNil(t, out)
	assert.True(t, units(-3).Equal(out.Quantity), out.Quantity.String())
	assert.True(t, units(7).Equal(out.StockAfter), out.StockAfter.String())
	assert.Equal(t, sale.InvoiceNumber, out.Reference)
}

func TestSaleService_InsufficientStockAbortsWholeSale(t *testing.T) {
	env := newTestEnv(t)
	plenty := env.createProduct(t, "ARROZ-1K", "4000", 50)
	scarce := env.createProduct(t, "ACEITE-1L", "12000", 2)

	_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines: []SaleLineRequest{
			{ProductID: plenty.ID.String(), Quantity: units(5)},
			{ProductID: scarce.ID.String(), Quantity: units(3)},
		},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	env.assertStock(t, plenty.ID, "50")
	env.assertStock(t, scarce.ID, "2")
	assert.Equal(t, int64(0), env.count(t, &model.Sale{}))
}

func TestSaleService_RepeatedProductLinesAreMerged(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "PAN-01", "2500", 4)

	_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines: []SaleLineRequest{
			{ProductID: product.ID.String(), Quantity: units(3)},
			{ProductID: product.ID.String(), Quantity: units(2)},
		},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	env.assertStock(t, product.ID, "4")
}

func TestSaleService_CancelRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "LECHE-1L", "3800", 10)

	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(4)}},
	})
	require.NoError(t, err)
	env.assertStock(t, product.ID, "6")

	cancelled, err := env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "cliente desistió")
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusCancelled, cancelled.Status)
	env.assertStock(t, product.ID, "10")

	_, err = env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "otra vez")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSaleService_Validation(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "AGUA-600", "1500", 10)

	t.Run("credit sale needs a customer", func(t *testing.T) {
		_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
			PaymentMethod: model.PaymentCredit,
			Lines:         []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1)}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("discount above 100 percent", func(t *testing.T) {
		_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
			DiscountPercent: decimal.NewFromInt(101),
			Lines:           []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1)}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
			Lines: []SaleLineRequest{{ProductID: "6f1c7f4e-2d7a-4c55-9a43-3f0b1d2e9c11", Quantity: units(1)}},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	env.assertStock(t, product.ID, "10")
}

func TestPOSService_CheckoutNeedsPayment(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "GASEOSA", "3000", 10)

	_, err := env.pos.Checkout(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1)}},
		AmountPaid:  decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, ErrValidation)

	sale, err := env.pos.Checkout(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1)}},
		AmountPaid:  decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.Equal(t, "POS-000001", sale.InvoiceNumber)
	assert.Equal(t, model.SaleTypePOS, sale.Type)
	// 3000 + 19% IVA
	assert.True(t, decimal.NewFromInt(1430).Equal(sale.Change), sale.Change.String())
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestSaleService_EmailInvoiceValidatesRecipient(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "TINTA-NEGRA", "32000", 4)
	sale, err := env.sales.CreateSale(env.ctx, env.actor, SaleRequest{
		WarehouseID: env.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: product.ID.String(), Quantity: units(1)}},
	})
	require.NoError(t, err)

	err = env.sales.EmailSaleInvoice(env.ctx, env.actor, sale.ID.String(), "cliente@correo.co")
	assert.ErrorIs(t, err, ErrInvalidState)

	outbox := &recordingMailer{}
	deps := env.deps
	deps.Mailer = outbox
	sales := NewSaleService(deps)

	for _, to := range []string{"", "cliente@", "Cliente <cliente@correo.co>", "sin arroba.co"} {
		err := sales.EmailSaleInvoice(env.ctx, env.actor, sale.ID.String(), to)
		assert.ErrorIs(t, err, ErrValidation, to)
	}
	assert.Empty(t, outbox.sent)
}
