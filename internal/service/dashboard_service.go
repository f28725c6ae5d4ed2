package service

import (
	"context"
	"fmt"
	"time"

	"contapos/internal/cache"
	"contapos/internal/metrics"
	"contapos/internal/model"
	"contapos/internal/repository"
)

type DashboardService interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
	LowStock(ctx context.Context, limit int) ([]model.Inventory, error)
	TopProducts(ctx context.Context, limit, days int) ([]model.ProductRanking, error)
	RecentSales(ctx context.Context, limit int) ([]model.Sale, error)
}

type dashboardService struct {
	reportRepo    repository.ReportRepository
	inventoryRepo repository.InventoryRepository
	customerRepo  repository.CustomerRepository
	saleRepo      repository.SaleRepository
	cache         cache.Cache
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewDashboardService(
	reportRepo repository.ReportRepository,
	inventoryRepo repository.InventoryRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	c cache.Cache,
	m *metrics.Metrics,
) DashboardService {
	return &dashboardService{
		reportRepo:    reportRepo,
		inventoryRepo: inventoryRepo,
		customerRepo:  customerRepo,
		saleRepo:      saleRepo,
		cache:         c,
		metrics:       m,
		now:           time.Now,
	}
}

// Stats is served from cache for DashboardTTL; stock and sale writes drop it
func (s *dashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	return cache.Remember(ctx, s.cache, cache.PrefixDashboard+"stats", cache.DashboardTTL, func() (*model.DashboardStats, error) {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		tomorrow := today.AddDate(0, 0, 1)

		day, err := s.reportRepo.SaleTotals(ctx, today, tomorrow)
		if err != nil {
			return nil, err
		}
		monthTotals, err := s.reportRepo.SaleTotals(ctx, month, tomorrow)
		if err != nil {
			return nil, err
		}
		products, err := s.reportRepo.CountActiveProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
		customers, err := s.customerRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count customers: %w", err)
		}
		lowStock, err := s.inventoryRepo.CountLowStock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count low stock: %w", err)
		}
		s.metrics.SetLowStock(lowStock)

		return &model.DashboardStats{
			TodaySalesCount: day.Count,
			TodaySalesTotal: money(day.Total),
			MonthSalesTotal: money(monthTotals.Total),
			ProductCount:    products,
			CustomerCount:   customers,
			LowStockCount:   lowStock,
			GeneratedAt:     now.UTC(),
		}, nil
	})
}

func (s *dashboardService) LowStock(ctx context.Context, limit int) ([]model.Inventory, error) {
	_, limit = normalizePage(1, limit, 10)
	rows, err := s.inventoryRepo.LowStock(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch low stock: %w", err)
	}
	return rows, nil
}

func (s *dashboardService) TopProducts(ctx context.Context, limit, days int) ([]model.ProductRanking, error) {
	_, limit = normalizePage(1, limit, 5)
	if days <= 0 {
		days = 30
	}
	if days > 366 {
		return nil, validationError("days must not exceed 366")
	}
	to := s.now()
	return s.reportRepo.TopProducts(ctx, to.AddDate(0, 0, -days), to, limit)
}

func (s *dashboardService) RecentSales(ctx context.Context, limit int) ([]model.Sale, error) {
	_, limit = normalizePage(1, limit, 10)
	sales, err := s.saleRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sales: %w", err)
	}
	return sales, nil
}
