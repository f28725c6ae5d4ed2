package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contapos/internal/events"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseLineRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseRequest struct {
	SupplierID      string                `json:"supplier_id" binding:"required"`
	WarehouseID     string                `json:"warehouse_id" binding:"required"`
	SupplierInvoice string                `json:"supplier_invoice" binding:"max=50"`
	TaxRate         *decimal.Decimal      `json:"tax_rate"`
	Notes           string                `json:"notes"`
	Lines           []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PurchaseListParams struct {
	From       string
	To         string
	SupplierID string
	Status     string
}

type PurchaseEvent struct {
	PurchaseID     uuid.UUID `json:"purchase_id"`
	PurchaseNumber string    `json:"purchase_number"`
	SupplierID     uuid.UUID `json:"supplier_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	Total          string    `json:"total"`
}

type PurchaseService interface {
	CreatePurchase(ctx context.Context, actorID string, req PurchaseRequest) (*model.Purchase, error)
	ListPurchases(ctx context.Context, page, limit int, params PurchaseListParams) ([]model.Purchase, int64, error)
	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)
	CancelPurchase(ctx context.Context, actorID, id, reason string) (*model.Purchase, error)
}

type purchaseService struct {
	repo          repository.PurchaseRepository
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	customerRepo  repository.CustomerRepository
	warehouseRepo repository.WarehouseRepository
	settingRepo   repository.SettingRepository
	sequenceRepo  repository.SequenceRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      *Notifier
	now           func() time.Time
}

func NewPurchaseService(
	repo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	customerRepo repository.CustomerRepository,
	warehouseRepo repository.WarehouseRepository,
	settingRepo repository.SettingRepository,
	sequenceRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier *Notifier,
) PurchaseService {
	return &purchaseService{
		repo:          repo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		customerRepo:  customerRepo,
		warehouseRepo: warehouseRepo,
		settingRepo:   settingRepo,
		sequenceRepo:  sequenceRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
		now:           time.Now,
	}
}

// CreatePurchase receives the merchandise: stock goes up and the product cost
// becomes the last purchase cost.
func (s *purchaseService) CreatePurchase(ctx context.Context, actorID string, req PurchaseRequest) (*model.Purchase, error) {
	supplierID, err := parseID(req.SupplierID, "supplier")
	if err != nil {
		return nil, err
	}
	supplier, err := s.customerRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, notFound("supplier", err)
	}
	if supplier.Type != model.CustomerTypeSupplier {
		return nil, validationError("%s is not a supplier", supplier.FullName)
	}

	warehouseID, err := parseID(req.WarehouseID, "warehouse")
	if err != nil {
		return nil, err
	}
	wh, err := s.warehouseRepo.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, notFound("warehouse", err)
	}
	if !wh.IsActive {
		return nil, validationError("warehouse %s is inactive", wh.Code)
	}

	taxRate := loadTaxRate(ctx, s.settingRepo)
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return nil, validationError("tax_rate must be between 0 and 100")
	}

	purchase := &model.Purchase{
		SupplierID:      supplier.ID,
		WarehouseID:     wh.ID,
		UserID:          parseUserID(actorID),
		SupplierInvoice: strings.TrimSpace(req.SupplierInvoice),
		TaxRate:         taxRate,
		Status:          model.PurchaseStatusReceived,
		Notes:           req.Notes,
	}

	products := map[uuid.UUID]*model.Product{}
	qty := map[uuid.UUID]decimal.Decimal{}
	lastCost := map[uuid.UUID]decimal.Decimal{}
	for i, l := range req.Lines {
		productID, err := parseID(l.ProductID, "product")
		if err != nil {
			return nil, err
		}
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, notFound("product", err)
		}
		if product.IsService {
			return nil, validationError("%s is a service and can not be purchased into stock", product.SKU)
		}
		if err := checkQuantity(fmt.Sprintf("line %d: quantity", i+1), l.Quantity, product); err != nil {
			return nil, err
		}
		if l.UnitCost.IsNegative() {
			return nil, validationError("line %d: unit cost can not be negative", i+1)
		}
		products[product.ID] = product
		qty[product.ID] = qty[product.ID].Add(l.Quantity)
		lastCost[product.ID] = l.UnitCost

		subtotal := money(l.UnitCost.Mul(l.Quantity))
		purchase.Subtotal = purchase.Subtotal.Add(subtotal)
		purchase.Details = append(purchase.Details, model.PurchaseDetail{
			ProductID: product.ID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Subtotal:  subtotal,
		})
	}
	purchase.TaxAmount = money(percentOf(purchase.Subtotal, taxRate))
	purchase.Total = purchase.Subtotal.Add(purchase.TaxAmount)

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		next, err := s.sequenceRepo.Next(txCtx, model.SequencePurchase)
		if err != nil {
			return fmt.Errorf("failed to number purchase: %w", err)
		}
		purchase.PurchaseNumber = fmt.Sprintf("COM-%06d", next)

		for _, pid := range lockOrder(qty) {
			change, err := moveStock(txCtx, s.inventoryRepo, actorID, products[pid], wh.ID, qty[pid], model.MovementIn, purchase.PurchaseNumber)
			if err != nil {
				return err
			}
			changes = append(changes, change)
			if err := s.productRepo.UpdateCost(txCtx, pid, lastCost[pid]); err != nil {
				return fmt.Errorf("failed to update product cost: %w", err)
			}
		}

		if err := s.repo.Create(txCtx, purchase); err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		details := fmt.Sprintf(`{"supplier": %q, "total": %q}`, supplier.FullName, purchase.Total.StringFixed(2))
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreatePurchase, purchase.ID.String(), purchase.PurchaseNumber, details)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, changes)
	s.notifier.Publish(ctx, events.PurchaseReceived, PurchaseEvent{
		PurchaseID:     purchase.ID,
		PurchaseNumber: purchase.PurchaseNumber,
		SupplierID:     purchase.SupplierID,
		WarehouseID:    purchase.WarehouseID,
		Total:          purchase.Total.StringFixed(2),
	})
	return s.GetPurchase(ctx, purchase.ID.String())
}

func (s *purchaseService) ListPurchases(ctx context.Context, page, limit int, params PurchaseListParams) ([]model.Purchase, int64, error) {
	page, limit = normalizePage(page, limit, 20)

	filter := repository.PurchaseFilter{Status: params.Status}
	if params.From != "" || params.To != "" {
		r, err := ParseDateRange(params.From, params.To, s.now())
		if err != nil {
			return nil, 0, err
		}
		filter.From, filter.To = &r.From, &r.To
	}
	var err error
	if filter.SupplierID, err = parseOptionalID(params.SupplierID, "supplier"); err != nil {
		return nil, 0, err
	}

	purchases, total, err := s.repo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}
	return purchases, total, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	purchaseID, err := parseID(id, "purchase")
	if err != nil {
		return nil, err
	}
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, notFound("purchase", err)
	}
	return purchase, nil
}

// CancelPurchase takes the received units back out. It fails with
// ErrInsufficientStock once part of them has been sold or moved.
func (s *purchaseService) CancelPurchase(ctx context.Context, actorID, id, reason string) (*model.Purchase, error) {
	purchaseID, err := parseID(id, "purchase")
	if err != nil {
		return nil, err
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.repo.FindByIDForUpdate(txCtx, purchaseID)
		if err != nil {
			return notFound("purchase", err)
		}
		if purchase.Status != model.PurchaseStatusReceived {
			return fmt.Errorf("%w: purchase %s is %s", ErrInvalidState, purchase.PurchaseNumber, purchase.Status)
		}

		qty := map[uuid.UUID]decimal.Decimal{}
		for _, d := range purchase.Details {
			qty[d.ProductID] = qty[d.ProductID].Add(d.Quantity)
		}

		reference := "ANULA " + purchase.PurchaseNumber
		for _, pid := range lockOrder(qty) {
			product, err := s.productRepo.FindByID(txCtx, pid)
			if err != nil {
				return notFound("product", err)
			}
			change, err := moveStock(txCtx, s.inventoryRepo, actorID, product, purchase.WarehouseID, qty[pid].Neg(), model.MovementOut, reference)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}

		if err := s.repo.UpdateStatus(txCtx, purchase.ID, model.PurchaseStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel purchase: %w", err)
		}
		details := fmt.Sprintf(`{"reason": %q}`, reason)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCancelPurchase, purchase.ID.String(), purchase.PurchaseNumber, details)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, changes)
	return s.GetPurchase(ctx, id)
}
