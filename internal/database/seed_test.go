package database

import (
	"context"
	"testing"

	"contapos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, zap.NewNop()))
	require.NoError(t, Seed(ctx, db, zap.NewNop()))

	var count int64
	db.Model(&model.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	db.Model(&model.Permission{}).Count(&count)
	assert.Equal(t, int64(len(Permissions)), count)

	db.Model(&model.Department{}).Count(&count)
	assert.Equal(t, int64(33), count)

	db.Model(&model.Currency{}).Count(&count)
	assert.Equal(t, int64(3), count)

	db.Model(&model.InvoiceType{}).Count(&count)
	assert.Equal(t, int64(5), count)

	db.Model(&model.Tax{}).Count(&count)
	assert.Equal(t, int64(6), count)

	db.Model(&model.AccountingPeriod{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSeedAdminAndRoles(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Seed(context.Background(), db, zap.NewNop()))

	var admin model.User
	require.NoError(t, db.Where("username = ?", DefaultAdminUsername).First(&admin).Error)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NotNil(t, admin.WarehouseID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DefaultAdminPassword)))

	var employee model.Role
	require.NoError(t, db.Preload("Permissions").Where("name = ?", model.RoleEmployee).First(&employee).Error)
	assert.Len(t, employee.Permissions, len(rolePermissions[model.RoleEmployee]))
}

func TestSeedChartOfAccountsTree(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Seed(context.Background(), db, zap.NewNop()))

	var cash model.Account
	require.NoError(t, db.Where("code = ?", "110505").First(&cash).Error)
	assert.True(t, cash.IsDetail)
	assert.Equal(t, 4, cash.Level)
	assert.Equal(t, model.AccountTypeAsset, cash.Type)
	assert.Equal(t, model.NatureDebit, cash.Nature)

	var group model.Account
	require.NoError(t, db.Where("code = ?", "1105").First(&group).Error)
	assert.False(t, group.IsDetail)
	assert.Equal(t, group.ID, *cash.ParentID)

	var vatDeductible model.Account
	require.NoError(t, db.Where("code = ?", "240810").First(&vatDeductible).Error)
	assert.Equal(t, model.NatureDebit, vatDeductible.Nature)
	assert.Equal(t, model.AccountTypeLiability, vatDeductible.Type)
}

func TestTablesIncludesJoinTables(t *testing.T) {
	db := newTestDB(t)

	tables, err := Tables(db)
	require.NoError(t, err)
	assert.Contains(t, tables, "role_permissions")
	assert.Contains(t, tables, "chart_of_accounts")
	assert.Contains(t, tables, "inventory")

	index := func(name string) int {
		for i, tbl := range tables {
			if tbl == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, index("roles"), index("role_permissions"))
	assert.Less(t, index("sales"), index("sale_details"))
}
