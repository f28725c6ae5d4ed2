package service

import (
	"context"
	"testing"
	"time"

	"contapos/internal/cache"
	"contapos/internal/database"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the real repositories over an in-memory SQLite database
// loaded with the reference data.
type testEnv struct {
	ctx       context.Context
	db        *gorm.DB
	actor     string
	warehouse *model.Warehouse

	txManager     repository.TransactionManager
	auditRepo     repository.AuditRepository
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	saleRepo      repository.SaleRepository
	dianRepo      repository.DianRepository
	seedDian      func(ctx context.Context) error
	deps          SalesDeps

	inventory  InventoryService
	customers  CustomerService
	sales      SaleService
	pos        POSService
	purchases  PurchaseService
	accounting AccountingService
	dian       DianService
	settings   SettingsService
	users      UserService
	dashboard  DashboardService
	reports    ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Seed(ctx, db, zap.NewNop()))

	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	productRepo := repository.NewProductRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	dianRepo := repository.NewDianRepository(db)
	reportRepo := repository.NewReportRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	admin, err := userRepo.GetByLogin(ctx, database.DefaultAdminUsername)
	require.NoError(t, err)
	wh, err := warehouseRepo.FindByCode(ctx, database.MainWarehouseCode)
	require.NoError(t, err)

	deps := SalesDeps{
		SaleRepo:      saleRepo,
		ProductRepo:   productRepo,
		InventoryRepo: inventoryRepo,
		CustomerRepo:  customerRepo,
		WarehouseRepo: warehouseRepo,
		UserRepo:      userRepo,
		SettingRepo:   settingRepo,
		DianRepo:      dianRepo,
		SequenceRepo:  sequenceRepo,
		AuditRepo:     auditRepo,
		TxManager:     txManager,
		Logger:        zap.NewNop(),
	}
	seedDian := func(ctx context.Context) error {
		return repository.GetDB(ctx, db).Transaction(func(tx *gorm.DB) error {
			return database.SeedDianCatalog(tx)
		})
	}

	return &testEnv{
		ctx:           ctx,
		db:            db,
		actor:         admin.ID.String(),
		warehouse:     wh,
		txManager:     txManager,
		auditRepo:     auditRepo,
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		saleRepo:      saleRepo,
		dianRepo:      dianRepo,
		seedDian:      seedDian,
		deps:          deps,
		inventory: NewInventoryService(productRepo, inventoryRepo, warehouseRepo, catalogRepo,
			auditRepo, txManager, cache.NewMemoryCache(), nil),
		customers: NewCustomerService(customerRepo, auditRepo, txManager),
		sales:     NewSaleService(deps),
		pos:       NewPOSService(deps),
		purchases: NewPurchaseService(repository.NewPurchaseRepository(db), productRepo, inventoryRepo, customerRepo,
			warehouseRepo, settingRepo, sequenceRepo, auditRepo, txManager, nil),
		accounting: NewAccountingService(repository.NewAccountRepository(db), repository.NewPeriodRepository(db),
			repository.NewJournalRepository(db), repository.NewBalanceRepository(db), sequenceRepo, auditRepo, txManager, nil, nil),
		dian:     NewDianService(dianRepo, saleRepo, auditRepo, txManager, seedDian, nil, nil),
		settings: NewSettingsService(settingRepo, warehouseRepo, catalogRepo, productRepo, inventoryRepo, auditRepo, txManager),
		users: NewUserService(userRepo, repository.NewRoleRepository(db), warehouseRepo, auditRepo, txManager,
			func(userID, role string, ttl time.Duration) (string, error) { return "token-" + userID, nil }, time.Hour),
		dashboard: NewDashboardService(reportRepo, inventoryRepo, customerRepo, saleRepo, cache.NewMemoryCache(), nil),
		reports:   NewReportService(reportRepo, saleRepo, cache.NewMemoryCache()),
	}
}

// createProduct registers a stocked product with stock in the main warehouse
func (e *testEnv) createProduct(t *testing.T, sku string, price string, stock int64) *ProductResponse {
	t.Helper()
	p, err := e.inventory.CreateProduct(e.ctx, e.actor, ProductRequest{
		SKU:          sku,
		Name:         "Producto " + sku,
		Cost:         decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		Price1:       decimal.RequireFromString(price),
		TaxRate:      decimal.NewFromInt(19),
		InitialStock: decimal.NewFromInt(stock),
		WarehouseID:  e.warehouse.ID.String(),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stockIn(t *testing.T, productID, warehouseID uuid.UUID) decimal.Decimal {
	t.Helper()
	inv, err := e.inventoryRepo.Find(e.ctx, productID, warehouseID)
	require.NoError(t, err)
	return inv.Quantity
}

// assertStock compares the main warehouse stock against a decimal literal
func (e *testEnv) assertStock(t *testing.T, productID uuid.UUID, want string) {
	t.Helper()
	got := e.stockIn(t, productID, e.warehouse.ID)
	assert.True(t, decimal.RequireFromString(want).Equal(got), "stock is %s, want %s", got, want)
}

func units(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}
