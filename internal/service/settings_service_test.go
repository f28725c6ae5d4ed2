package service

import (
	"testing"

	"contapos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_UpdateSettingsValidatesEmails(t *testing.T) {
	env := newTestEnv(t)

	for _, bad := range []string{"ventas@", "Ventas <ventas@tienda.co>", "ventas tienda.co"} {
		_, err := env.settings.UpdateSettings(env.ctx, env.actor, map[string]string{model.SettingCompanyEmail: bad})
		assert.ErrorIs(t, err, ErrValidation, bad)
	}

	_, err := env.settings.UpdateSettings(env.ctx, env.actor, map[string]string{model.SettingTaxRate: "101"})
	assert.ErrorIs(t, err, ErrValidation)

	saved, err := env.settings.UpdateSettings(env.ctx, env.actor, map[string]string{
		model.SettingCompanyEmail:       " ventas@tienda.co ",
		model.SettingLowStockAlertEmail: "",
	})
	require.NoError(t, err)
	assert.Equal(t, "ventas@tienda.co", saved[model.SettingCompanyEmail])
}

func TestSettingsService_CreateWarehouseOpensStockRows(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "JABON-3", "7800", 4)

	wh, err := env.settings.CreateWarehouse(env.ctx, env.actor, WarehouseRequest{Code: "nte", Name: "Bodega Norte"})
	require.NoError(t, err)
	assert.Equal(t, "NTE", wh.Code)

	inv, err := env.inventoryRepo.Find(env.ctx, product.ID, wh.ID)
	require.NoError(t, err)
	assert.True(t, inv.Quantity.IsZero(), inv.Quantity.String())

	_, err = env.settings.CreateWarehouse(env.ctx, env.actor, WarehouseRequest{Code: "NTE", Name: "Repetida"})
	assert.ErrorIs(t, err, ErrConflict)
}
