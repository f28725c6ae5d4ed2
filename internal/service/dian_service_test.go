package service

import (
	"context"
	"testing"
	"time"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) completedSale(t *testing.T) *model.Sale {
	t.Helper()
	product := e.createProduct(t, "MOUSE-USB", "45000", 5)
	return e.sellOne(t, product.ID)
}

func (e *testEnv) sellOne(t *testing.T, productID uuid.UUID) *model.Sale {
	t.Helper()
	sale, err := e.sales.CreateSale(e.ctx, e.actor, SaleRequest{
		WarehouseID: e.warehouse.ID.String(),
		Lines:       []SaleLineRequest{{ProductID: productID.String(), Quantity: units(1)}},
	})
	require.NoError(t, err)
	return sale
}

func (e *testEnv) setInvoiceStatus(t *testing.T, id uuid.UUID, status string) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.ElectronicInvoice{}).Where("id = ?", id).Update("status", status).Error)
}

// staleSales serves reads taken before a concurrent cancellation
type staleSales struct {
	repository.SaleRepository
}

func (r staleSales) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := r.SaleRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Status = model.SaleStatusCompleted
	return sale, nil
}

func (e *testEnv) configureDian(t *testing.T) *ResolutionView {
	t.Helper()
	provider, err := e.dian.CreateProvider(e.ctx, e.actor, TaxProviderRequest{
		Name:   "Proveedor Tecnológico",
		APIURL: "https://api.proveedor.example/v1",
		APIKey: "k-123",
	})
	require.NoError(t, err)

	_, err = e.dian.UpdateConfiguration(e.ctx, e.actor, DianConfigRequest{
		Environment:  model.DianEnvTest,
		CompanyNIT:   "900.123.456-8",
		ProviderID:   provider.ID.String(),
		TechnicalKey: "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		IsActive:     true,
	})
	require.NoError(t, err)

	now := time.Now()
	res, err := e.dian.CreateResolution(e.ctx, e.actor, ResolutionRequest{
		Number:      "18760000001",
		Prefix:      "setp",
		StartNumber: 990000000,
		EndNumber:   995000000,
		ValidFrom:   now.AddDate(0, 0, -2).Format("2006-01-02"),
		ValidTo:     now.AddDate(1, 0, 0).Format("2006-01-02"),
	})
	require.NoError(t, err)
	return res
}

func TestDianService_SendWithoutConfiguration(t *testing.T) {
	env := newTestEnv(t)
	sale := env.completedSale(t)

	_, err := env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	assert.ErrorIs(t, err, ErrDianNotReady)
}

func TestDianService_SendNumbersFromResolution(t *testing.T) {
	env := newTestEnv(t)
	res := env.configureDian(t)
	assert.Equal(t, "SETP", res.Prefix)
	assert.Equal(t, int64(990000000), res.CurrentNumber)

	cfg, err := env.dian.GetConfiguration(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, "900123456", cfg.CompanyNIT)
	assert.Equal(t, "8", cfg.CompanyDV)

	sale := env.completedSale(t)
	invoice, err := env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "SETP990000000", invoice.Number)
	assert.Equal(t, model.EInvoiceSent, invoice.Status)
	assert.Len(t, invoice.CUFE, 96)
	assert.Equal(t, 1, invoice.Attempts)
	assert.NotNil(t, invoice.SentAt)

	stored, err := env.dianRepo.FindResolution(env.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990000001), stored.CurrentNumber)

	_, err = env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "error de digitación")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDianService_InitializeDataIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.dian.InitializeData(env.ctx, env.actor))
	require.NoError(t, env.dian.InitializeData(env.ctx, env.actor))

	types, err := env.dian.ListInvoiceTypes(env.ctx)
	require.NoError(t, err)
	assert.Len(t, types, 5)

	taxes, err := env.dian.ListTaxes(env.ctx, model.TaxIVA)
	require.NoError(t, err)
	assert.Len(t, taxes, 3)
}

func TestDianService_ExhaustedNumbering(t *testing.T) {
	env := newTestEnv(t)
	res := env.configureDian(t)

	now := time.Now()
	_, err := env.dian.UpdateResolution(env.ctx, env.actor, res.ID.String(), ResolutionRequest{
		Number:      res.Number,
		Prefix:      res.Prefix,
		StartNumber: 990000000,
		EndNumber:   990000001,
		ValidFrom:   now.AddDate(0, 0, -2).Format("2006-01-02"),
		ValidTo:     now.AddDate(1, 0, 0).Format("2006-01-02"),
	})
	require.NoError(t, err)

	product := env.createProduct(t, "TECLADO", "80000", 5)
	for _, want := range []string{"SETP990000000", "SETP990000001"} {
		invoice, err := env.dian.SendInvoice(env.ctx, env.actor, env.sellOne(t, product.ID).ID.String())
		require.NoError(t, err)
		assert.Equal(t, want, invoice.Number)
	}

	last := env.sellOne(t, product.ID)
	_, err = env.dian.SendInvoice(env.ctx, env.actor, last.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := env.dianRepo.FindResolution(env.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990000002), stored.CurrentNumber)
	assert.Equal(t, int64(2), env.count(t, &model.ElectronicInvoice{}))

	_, err = env.dian.UpdateResolution(env.ctx, env.actor, res.ID.String(), ResolutionRequest{
		Number:        res.Number,
		Prefix:        res.Prefix,
		StartNumber:   990000000,
		EndNumber:     990000001,
		CurrentNumber: 990000003,
		ValidFrom:     now.AddDate(0, 0, -2).Format("2006-01-02"),
		ValidTo:       now.AddDate(1, 0, 0).Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDianService_RejectedInvoiceKeepsItsNumber(t *testing.T) {
	env := newTestEnv(t)
	res := env.configureDian(t)
	sale := env.completedSale(t)

	first, err := env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	require.NoError(t, err)
	env.setInvoiceStatus(t, first.ID, model.EInvoiceRejected)

	retry, err := env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)
	assert.Equal(t, first.Number, retry.Number)
	assert.Equal(t, model.EInvoiceSent, retry.Status)
	assert.Equal(t, 2, retry.Attempts)

	stored, err := env.dianRepo.FindResolution(env.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990000001), stored.CurrentNumber)
	assert.Equal(t, int64(1), env.count(t, &model.ElectronicInvoice{}))

	// a sale whose invoice was rejected can still be cancelled
	env.setInvoiceStatus(t, first.ID, model.EInvoiceRejected)
	cancelled, err := env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "cliente anuló la compra")
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusCancelled, cancelled.Status)

	_, err = env.dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDianService_SendRechecksSaleInsideTransaction(t *testing.T) {
	env := newTestEnv(t)
	res := env.configureDian(t)
	sale := env.completedSale(t)

	_, err := env.sales.CancelSale(env.ctx, env.actor, sale.ID.String(), "anulada en caja")
	require.NoError(t, err)

	dian := NewDianService(env.dianRepo, staleSales{env.saleRepo}, env.auditRepo, env.txManager, env.seedDian, nil, nil)
	_, err = dian.SendInvoice(env.ctx, env.actor, sale.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, int64(0), env.count(t, &model.ElectronicInvoice{}))
	stored, err := env.dianRepo.FindResolution(env.ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(990000000), stored.CurrentNumber)
}
