package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type POSProduct struct {
	model.Product
	Price decimal.Decimal `json:"price"`
	Stock decimal.Decimal `json:"stock"`
}

// POSLookupResult carries the exact match, or the candidates when the code matched nothing exactly
type POSLookupResult struct {
	Product *POSProduct  `json:"product,omitempty"`
	Matches []POSProduct `json:"matches"`
}

type POSSummary struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type POSService interface {
	LookupProduct(ctx context.Context, actorID, code string) (*POSLookupResult, error)
	Checkout(ctx context.Context, actorID string, req SaleRequest) (*model.Sale, error)
	TodaySummary(ctx context.Context, actorID string) (*POSSummary, error)
}

type posService struct {
	*saleEngine
}

func NewPOSService(deps SalesDeps) POSService {
	return &posService{saleEngine: newSaleEngine(deps)}
}

func (s *posService) posProduct(ctx context.Context, product *model.Product, warehouse *model.Warehouse) POSProduct {
	item := POSProduct{Product: *product, Price: product.Price1}
	if warehouse != nil && !product.IsService {
		if inv, err := s.InventoryRepo.Find(ctx, product.ID, warehouse.ID); err == nil {
			item.Stock = inv.Quantity
		}
	}
	return item
}

// LookupProduct resolves a scanned or typed code: barcode first, then SKU, then a name search
func (s *posService) LookupProduct(ctx context.Context, actorID, code string) (*POSLookupResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("code is required")
	}

	warehouse, err := s.resolveWarehouse(ctx, actorID, "")
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, err
	}

	product, err := s.ProductRepo.FindByBarcode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		product, err = s.ProductRepo.FindBySKU(ctx, strings.ToUpper(code))
	}
	switch {
	case err == nil:
		item := s.posProduct(ctx, product, warehouse)
		return &POSLookupResult{Product: &item, Matches: []POSProduct{item}}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	candidates, err := s.ProductRepo.Search(ctx, code, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("product %q %w", code, ErrNotFound)
	}
	res := &POSLookupResult{Matches: make([]POSProduct, 0, len(candidates))}
	for i := range candidates {
		res.Matches = append(res.Matches, s.posProduct(ctx, &candidates[i], warehouse))
	}
	return res, nil
}

func (s *posService) Checkout(ctx context.Context, actorID string, req SaleRequest) (*model.Sale, error) {
	return s.create(ctx, actorID, model.SaleTypePOS, req)
}

func (s *posService) TodaySummary(ctx context.Context, actorID string) (*POSSummary, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	filter := repository.SaleFilter{
		From:   &from,
		To:     &to,
		UserID: parseUserID(actorID),
		Type:   model.SaleTypePOS,
		Status: model.SaleStatusCompleted,
	}
	count, total, err := s.SaleRepo.Totals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize pos sales: %w", err)
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		amount = decimal.Zero
	}
	return &POSSummary{Date: from.Format("2006-01-02"), Count: count, Total: money(amount)}, nil
}
