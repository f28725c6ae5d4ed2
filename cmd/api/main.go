package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	_ "contapos/api/swagger" // swagger docs
	"contapos/internal/cache"
	"contapos/internal/config"
	"contapos/internal/database"
	"contapos/internal/events"
	"contapos/internal/handler"
	"contapos/internal/logger"
	"contapos/internal/mailer"
	"contapos/internal/metrics"
	"contapos/internal/middleware"
	"contapos/internal/printing"
	"contapos/internal/repository"
	"contapos/internal/service"
	"contapos/internal/storage"
	"contapos/internal/validation"
	ws "contapos/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title           ContaPOS API
// @version         1.0
// @description     Point of sale, inventory, double-entry accounting and DIAN electronic invoicing.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.Register(); err != nil {
		return err
	}
	middleware.SetJWTSecret(cfg.JWT.Secret, cfg.IsProduction())

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}
	if cfg.Database.Seed {
		if err := database.Seed(ctx, db, log); err != nil {
			return err
		}
	}
	middleware.InitPermissionMiddleware(db)

	appCache := newCache(cfg, log)
	defer func() { _ = appCache.Close() }()

	store, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg, log)
	defer func() { _ = publisher.Close() }()

	var mail mailer.Mailer = mailer.NewNopMailer(log)
	if cfg.Mail.Enabled {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}, log)
	}

	templates, err := printing.NewTemplateEngine()
	if err != nil {
		return err
	}
	var pdf printing.PDFRenderer = printing.NopRenderer{}
	if cfg.Printing.ChromeEnabled {
		pdf = printing.NewChromedpRenderer(printing.ChromedpConfig{
			RemoteURL: cfg.Printing.ChromeRemoteURL,
			Timeout:   cfg.Printing.Timeout,
			NoSandbox: true,
		}, log)
	}

	m := metrics.New()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	tables, err := database.Tables(db)
	if err != nil {
		return err
	}

	// Repositories
	txManager := repository.NewTransactionManager(db)
	accountRepo := repository.NewAccountRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	backupRepo := repository.NewBackupRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	dianRepo := repository.NewDianRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	reportRepo := repository.NewReportRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	userRepo := repository.NewUserRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)

	// Services
	notifier := service.NewNotifier(hub, appCache, mail, publisher, m, settingRepo, log)
	defer notifier.Wait()

	salesDeps := service.SalesDeps{
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
		Notifier:      notifier,
		Metrics:       m,
		Templates:     templates,
		PDF:           pdf,
		Mailer:        mail,
		Logger:        log,
	}
	seedDian := func(ctx context.Context) error {
		return repository.GetDB(ctx, db).Transaction(func(tx *gorm.DB) error {
			return database.SeedDianCatalog(tx)
		})
	}

	userService := service.NewUserService(userRepo, roleRepo, warehouseRepo, auditRepo, txManager, middleware.GenerateToken, cfg.JWT.Expiration)
	roleService := service.NewRoleService(roleRepo, auditRepo, txManager, middleware.ClearPermissionCache)
	auditService := service.NewAuditService(auditRepo)
	settingsService := service.NewSettingsService(settingRepo, warehouseRepo, catalogRepo, productRepo, inventoryRepo, auditRepo, txManager)
	backupService := service.NewBackupService(backupRepo, auditRepo, txManager, store, tables, log)
	inventoryService := service.NewInventoryService(productRepo, inventoryRepo, warehouseRepo, catalogRepo, auditRepo, txManager, appCache, notifier)
	customerService := service.NewCustomerService(customerRepo, auditRepo, txManager)
	saleService := service.NewSaleService(salesDeps)
	posService := service.NewPOSService(salesDeps)
	purchaseService := service.NewPurchaseService(purchaseRepo, productRepo, inventoryRepo, customerRepo, warehouseRepo, settingRepo, sequenceRepo, auditRepo, txManager, notifier)
	accountingService := service.NewAccountingService(accountRepo, periodRepo, journalRepo, balanceRepo, sequenceRepo, auditRepo, txManager, notifier, m)
	dianService := service.NewDianService(dianRepo, saleRepo, auditRepo, txManager, seedDian, notifier, m)
	dashboardService := service.NewDashboardService(reportRepo, inventoryRepo, customerRepo, saleRepo, appCache, m)
	reportService := service.NewReportService(reportRepo, saleRepo, appCache)

	// Handlers
	routes := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewUserHandler(userService, middleware.NewIPRateLimiter(cfg.HTTP.LoginRatePerMin)),
		handler.NewRoleHandler(roleService),
		handler.NewAuditHandler(auditService),
		handler.NewSettingsHandler(settingsService, backupService),
		handler.NewInventoryHandler(inventoryService),
		handler.NewCustomerHandler(customerService),
		handler.NewSaleHandler(saleService, posService),
		handler.NewPurchaseHandler(purchaseService),
		handler.NewAccountingHandler(accountingService),
		handler.NewDianHandler(dianService),
		handler.NewReportHandler(dashboardService, reportService),
	}

	router := gin.New()
	router.Use(logger.GinMiddleware(log), logger.Recovery(log), m.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, c, middleware.GetJWTSecret())
	})

	api := router.Group("/api")
	for _, h := range routes {
		h.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	return nil
}

func newCache(cfg *config.Config, log *zap.Logger) cache.Cache {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewMemoryCache()
	}
	return rc
}

func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UsePathStyle: cfg.Storage.UsePathStyle,
		}, log)
	}
	return storage.NewLocalStore(cfg.Storage.LocalPath)
}

func newPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if !cfg.Events.Enabled {
		return events.NewNopPublisher(log)
	}
	p, err := events.NewRabbitPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange, log)
	if err != nil {
		log.Warn("rabbitmq unavailable, domain events disabled", zap.Error(err))
		return events.NewNopPublisher(log)
	}
	return p
}
