package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"contapos/internal/cache"
	"contapos/internal/config"
	"contapos/internal/database"
	"contapos/internal/logger"
	"contapos/internal/model"
	"contapos/internal/repository"
	"contapos/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seeder fills a development database with demo customers, products and
// opening stock. Reference data (roles, admin, warehouse, PUC, DIAN) is
// loaded first so it can run against an empty schema.
func main() {
	var (
		customers int
		products  int
		seed      uint64
	)
	flag.IntVar(&customers, "customers", 25, "Number of demo customers")
	flag.IntVar(&products, "products", 40, "Number of demo products")
	flag.Uint64Var(&seed, "seed", 0, "Random seed, 0 for a random run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	ctx := context.Background()
	if err := database.Seed(ctx, db, log); err != nil {
		log.Fatal("failed to load reference data", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	admin, err := userRepo.GetByLogin(ctx, database.DefaultAdminUsername)
	if err != nil {
		log.Fatal("admin user not found", zap.Error(err))
	}
	warehouse, err := warehouseRepo.FindByCode(ctx, database.MainWarehouseCode)
	if err != nil {
		log.Fatal("main warehouse not found", zap.Error(err))
	}

	customerService := service.NewCustomerService(repository.NewCustomerRepository(db), auditRepo, txManager)
	inventoryService := service.NewInventoryService(
		repository.NewProductRepository(db),
		repository.NewInventoryRepository(db),
		warehouseRepo,
		repository.NewCatalogRepository(db),
		auditRepo,
		txManager,
		cache.NewMemoryCache(),
		nil,
	)

	f := gofakeit.New(seed)
	actor := admin.ID.String()

	var createdCustomers int
	for i := 0; i < customers; i++ {
		if _, err := customerService.CreateCustomer(ctx, actor, fakeCustomer(f, i)); err != nil {
			log.Warn("skipping customer", zap.Int("index", i), zap.Error(err))
			continue
		}
		createdCustomers++
	}

	var createdProducts int
	for i := 0; i < products; i++ {
		req := fakeProduct(f, i)
		req.WarehouseID = warehouse.ID.String()
		if _, err := inventoryService.CreateProduct(ctx, actor, req); err != nil {
			log.Warn("skipping product", zap.String("sku", req.SKU), zap.Error(err))
			continue
		}
		createdProducts++
	}

	log.Info("demo data loaded",
		zap.Int("customers", createdCustomers),
		zap.Int("products", createdProducts),
		zap.String("warehouse", warehouse.Code),
	)
}

func fakeCustomer(f *gofakeit.Faker, i int) service.CustomerRequest {
	req := service.CustomerRequest{
		Type:           model.CustomerTypeClient,
		DocumentType:   model.DocCC,
		DocumentNumber: f.Numerify("10########"),
		Email:          f.Email(),
		Mobile:         f.Numerify("3#########"),
		Address:        f.Street(),
		CreditDays:     0,
		PriceLevel:     1,
	}
	// every fifth customer is a company paying on credit
	if i%5 == 0 {
		req.DocumentType = model.DocNIT
		req.DocumentNumber = f.Numerify("9########")
		req.BusinessName = f.Company()
		req.CreditLimit = decimal.NewFromInt(int64(f.Number(1, 20)) * 1_000_000)
		req.CreditDays = 30
		req.PriceLevel = 2
		return req
	}
	req.FirstName = f.FirstName()
	req.LastName = f.LastName()
	return req
}

func fakeProduct(f *gofakeit.Faker, i int) service.ProductRequest {
	cost := decimal.NewFromFloat(f.Price(2_000, 400_000)).Round(-2)
	markup := decimal.NewFromFloat(f.Float64Range(1.2, 1.6))
	price := cost.Mul(markup).Round(-2)

	taxRate := decimal.NewFromInt(19)
	if f.Number(1, 10) <= 2 {
		taxRate = decimal.Zero
	}

	return service.ProductRequest{
		SKU:          fmt.Sprintf("DEMO-%04d", i+1),
		Barcode:      f.Numerify("770#########"),
		Name:         f.ProductName(),
		Description:  f.ProductDescription(),
		UnitMeasure:  "UND",
		Cost:         cost,
		Price1:       price,
		Price2:       price.Mul(decimal.NewFromFloat(0.95)).Round(-2),
		Price3:       price.Mul(decimal.NewFromFloat(0.9)).Round(-2),
		Price4:       price.Mul(decimal.NewFromFloat(0.85)).Round(-2),
		TaxRate:      taxRate,
		MinStock:     decimal.NewFromInt(int64(f.Number(2, 10))),
		MaxStock:     decimal.NewFromInt(int64(f.Number(50, 200))),
		InitialStock: decimal.NewFromInt(int64(f.Number(0, 120))),
	}
}
