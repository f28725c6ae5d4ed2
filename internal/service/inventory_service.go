package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"contapos/internal/cache"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const searchLimit = 20

// DTOs
type ProductRequest struct {
	SKU         string          `json:"sku" binding:"required,sku"`
	Barcode     string          `json:"barcode" binding:"max=100"`
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	BrandID     string          `json:"brand_id"`
	GroupID     string          `json:"group_id"`
	LineID      string          `json:"line_id"`
	UnitMeasure string          `json:"unit_measure" binding:"max=20"`
	Cost        decimal.Decimal `json:"cost"`
	Price1      decimal.Decimal `json:"price1"`
	Price2      decimal.Decimal `json:"price2"`
	Price3      decimal.Decimal `json:"price3"`
	Price4      decimal.Decimal `json:"price4"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	IsService   bool            `json:"is_service"`
	TrackSerial bool            `json:"track_serial"`
	MinStock    decimal.Decimal `json:"min_stock"`
	MaxStock    decimal.Decimal `json:"max_stock"`
	// Initial stock is placed in WarehouseID when both are given on creation
	InitialStock decimal.Decimal `json:"initial_stock"`
	WarehouseID  string          `json:"warehouse_id"`
}

type AdjustStockRequest struct {
	ProductID   string          `json:"product_id" binding:"required"`
	WarehouseID string          `json:"warehouse_id" binding:"required"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reason      string          `json:"reason" binding:"required,max=200"`
}

type TransferStockRequest struct {
	ProductID       string          `json:"product_id" binding:"required"`
	FromWarehouseID string          `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	// Serials picks the units of a serial-tracked product; the oldest available are used when empty
	Serials []string `json:"serials"`
	Notes   string   `json:"notes" binding:"max=200"`
}

type StockLimitsRequest struct {
	ProductID   string          `json:"product_id" binding:"required"`
	WarehouseID string          `json:"warehouse_id" binding:"required"`
	MinStock    decimal.Decimal `json:"min_stock"`
	MaxStock    decimal.Decimal `json:"max_stock"`
	Location    string          `json:"location" binding:"max=50"`
}

type RegisterSerialsRequest struct {
	ProductID   string   `json:"product_id" binding:"required"`
	WarehouseID string   `json:"warehouse_id" binding:"required"`
	Serials     []string `json:"serials" binding:"required,min=1,dive,required,max=100"`
}

type WarehouseStock struct {
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	MaxStock      decimal.Decimal `json:"max_stock"`
	IsLow         bool            `json:"is_low"`
}

type ProductResponse struct {
	model.Product
	TotalStock decimal.Decimal  `json:"total_stock"`
	Stock      []WarehouseStock `json:"stock"`
}

type ProductListParams struct {
	Search     string
	CategoryID string
	BrandID    string
	ActiveOnly bool
}

type StockListParams struct {
	WarehouseID  string
	ProductID    string
	Search       string
	LowStockOnly bool
}

type InventoryService interface {
	ListProducts(ctx context.Context, page, limit int, params ProductListParams) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	CreateProduct(ctx context.Context, actorID string, req ProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	SearchProducts(ctx context.Context, q string) ([]model.Product, error)

	StockLevels(ctx context.Context, page, limit int, params StockListParams) ([]model.Inventory, int64, error)
	SetStockLimits(ctx context.Context, actorID string, req StockLimitsRequest) (*model.Inventory, error)
	AdjustStock(ctx context.Context, actorID string, req AdjustStockRequest) (*model.Inventory, error)
	TransferStock(ctx context.Context, actorID string, req TransferStockRequest) error
	ListMovements(ctx context.Context, productID string, page, limit int) ([]model.StockMovement, int64, error)

	RegisterSerials(ctx context.Context, actorID string, req RegisterSerialsRequest) ([]model.SerialNumber, error)
	ListSerials(ctx context.Context, productID, status string) ([]model.SerialNumber, error)
}

type inventoryService struct {
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	warehouseRepo repository.WarehouseRepository
	catalogRepo   repository.CatalogRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	cache         cache.Cache
	notifier      *Notifier
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	warehouseRepo repository.WarehouseRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	c cache.Cache,
	notifier *Notifier,
) InventoryService {
	return &inventoryService{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		warehouseRepo: warehouseRepo,
		catalogRepo:   catalogRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		cache:         c,
		notifier:      notifier,
	}
}

func (s *inventoryService) ListProducts(ctx context.Context, page, limit int, params ProductListParams) ([]model.Product, int64, error) {
	page, limit = normalizePage(page, limit, 20)

	filter := repository.ProductFilter{Search: strings.TrimSpace(params.Search), ActiveOnly: params.ActiveOnly}
	var err error
	if filter.CategoryID, err = parseOptionalID(params.CategoryID, "category"); err != nil {
		return nil, 0, err
	}
	if filter.BrandID, err = parseOptionalID(params.BrandID, "brand"); err != nil {
		return nil, 0, err
	}

	products, total, err := s.productRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *inventoryService) findProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound("product", err)
	}
	return product, nil
}

func (s *inventoryService) findWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
	whID, err := parseID(id, "warehouse")
	if err != nil {
		return nil, err
	}
	wh, err := s.warehouseRepo.FindByID(ctx, whID)
	if err != nil {
		return nil, notFound("warehouse", err)
	}
	return wh, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.productResponse(ctx, product)
}

func (s *inventoryService) productResponse(ctx context.Context, product *model.Product) (*ProductResponse, error) {
	rows, err := s.inventoryRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock: %w", err)
	}

	res := &ProductResponse{Product: *product, Stock: make([]WarehouseStock, 0, len(rows))}
	for i := range rows {
		inv := &rows[i]
		ws := WarehouseStock{
			WarehouseID: inv.WarehouseID,
			Quantity:    inv.Quantity,
			MinStock:    inv.MinStock,
			MaxStock:    inv.MaxStock,
			IsLow:       inv.IsLow(),
		}
		if inv.Warehouse != nil {
			ws.WarehouseCode = inv.Warehouse.Code
			ws.WarehouseName = inv.Warehouse.Name
		}
		res.TotalStock = res.TotalStock.Add(inv.Quantity)
		res.Stock = append(res.Stock, ws)
	}
	sort.Slice(res.Stock, func(i, j int) bool { return res.Stock[i].WarehouseCode < res.Stock[j].WarehouseCode })
	return res, nil
}

func (s *inventoryService) catalogRef(ctx context.Context, kind, id string) (*uuid.UUID, error) {
	ref, err := parseOptionalID(id, kind)
	if err != nil || ref == nil {
		return nil, err
	}
	if _, err := s.catalogRepo.FindByID(ctx, kind, *ref); err != nil {
		return nil, notFound(kind, err)
	}
	return ref, nil
}

// applyProductRequest validates the request and copies it onto product
func (s *inventoryService) applyProductRequest(ctx context.Context, product *model.Product, req ProductRequest) error {
	for name, v := range map[string]decimal.Decimal{
		"cost": req.Cost, "price1": req.Price1, "price2": req.Price2, "price3": req.Price3, "price4": req.Price4,
	} {
		if v.IsNegative() {
			return validationError("%s can not be negative", name)
		}
	}
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred) {
		return validationError("tax_rate must be between 0 and 100")
	}
	if err := checkStockLimits(req.MinStock, req.MaxStock); err != nil {
		return err
	}
	if req.IsService && req.TrackSerial {
		return validationError("services can not track serial numbers")
	}

	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	exists, err := s.productRepo.SKUExists(ctx, sku, product.ID)
	if err != nil {
		return fmt.Errorf("failed to check sku: %w", err)
	}
	if exists {
		return conflictError("sku %s already exists", sku)
	}

	var barcode *string
	if b := strings.TrimSpace(req.Barcode); b != "" {
		exists, err := s.productRepo.BarcodeExists(ctx, b, product.ID)
		if err != nil {
			return fmt.Errorf("failed to check barcode: %w", err)
		}
		if exists {
			return conflictError("barcode %s already exists", b)
		}
		barcode = &b
	}

	if product.CategoryID, err = s.catalogRef(ctx, model.CatalogCategories, req.CategoryID); err != nil {
		return err
	}
	if product.BrandID, err = s.catalogRef(ctx, model.CatalogBrands, req.BrandID); err != nil {
		return err
	}
	if product.GroupID, err = s.catalogRef(ctx, model.CatalogGroups, req.GroupID); err != nil {
		return err
	}
	if product.LineID, err = s.catalogRef(ctx, model.CatalogLines, req.LineID); err != nil {
		return err
	}

	unit := strings.ToUpper(strings.TrimSpace(req.UnitMeasure))
	if unit == "" {
		unit = "UND"
	}

	product.SKU = sku
	product.Barcode = barcode
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.UnitMeasure = unit
	product.Cost = req.Cost
	product.Price1 = req.Price1
	product.Price2 = req.Price2
	product.Price3 = req.Price3
	product.Price4 = req.Price4
	product.TaxRate = req.TaxRate
	product.IsService = req.IsService
	product.TrackSerial = req.TrackSerial
	product.Category, product.Brand, product.Group, product.Line = nil, nil, nil, nil
	return nil
}

// CreateProduct opens an inventory row in every active warehouse
func (s *inventoryService) CreateProduct(ctx context.Context, actorID string, req ProductRequest) (*ProductResponse, error) {
	product := &model.Product{IsActive: true}
	if err := s.applyProductRequest(ctx, product, req); err != nil {
		return nil, err
	}

	var initialWarehouse *model.Warehouse
	if req.InitialStock.IsNegative() {
		return nil, validationError("initial_stock can not be negative")
	}
	if req.InitialStock.IsPositive() {
		if err := checkQuantity("initial_stock", req.InitialStock, nil); err != nil {
			return nil, err
		}
		if product.IsService {
			return nil, validationError("services do not carry stock")
		}
		if product.TrackSerial {
			return nil, validationError("serial-tracked products receive stock through purchases")
		}
		wh, err := s.findWarehouse(ctx, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		initialWarehouse = wh
	}

	var changes []StockChange
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if !product.IsService {
			warehouseIDs, err := s.warehouseRepo.ActiveIDs(txCtx)
			if err != nil {
				return fmt.Errorf("failed to list warehouses: %w", err)
			}
			for _, whID := range warehouseIDs {
				if err := s.inventoryRepo.EnsureRow(txCtx, product.ID, whID, req.MinStock, req.MaxStock); err != nil {
					return fmt.Errorf("failed to create inventory row: %w", err)
				}
			}
		}

		if initialWarehouse != nil {
			change, err := moveStock(txCtx, s.inventoryRepo, actorID, product, initialWarehouse.ID, req.InitialStock, model.MovementIn, "STOCK INICIAL")
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}

		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Invalidate(ctx)
	s.notifier.StockChanged(ctx, changes)
	return s.productResponse(ctx, product)
}

func (s *inventoryService) UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	wasService := product.IsService
	if err := s.applyProductRequest(ctx, product, req); err != nil {
		return nil, err
	}
	if wasService != product.IsService {
		return nil, validationError("a product can not be switched between stock item and service")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Invalidate(ctx)
	return s.productResponse(ctx, product)
}

// DeleteProduct deactivates the product; history keeps referencing it
func (s *inventoryService) DeleteProduct(ctx context.Context, actorID, id string) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.SetActive(txCtx, product.ID, false); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteProduct, product.ID.String(), product.Name, `{"deleted": true}`)
	})
	if err != nil {
		return err
	}
	s.notifier.Invalidate(ctx)
	return nil
}

// SearchProducts answers POS and autocomplete lookups; results are cached briefly
func (s *inventoryService) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Product{}, nil
	}
	key := cache.PrefixSearch + strings.ToLower(q)
	return cache.Remember(ctx, s.cache, key, cache.SearchTTL, func() ([]model.Product, error) {
		products, err := s.productRepo.Search(ctx, q, searchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to search products: %w", err)
		}
		return products, nil
	})
}

func (s *inventoryService) StockLevels(ctx context.Context, page, limit int, params StockListParams) ([]model.Inventory, int64, error) {
	page, limit = normalizePage(page, limit, 50)

	filter := repository.StockFilter{Search: strings.TrimSpace(params.Search), LowStockOnly: params.LowStockOnly}
	var err error
	if filter.WarehouseID, err = parseOptionalID(params.WarehouseID, "warehouse"); err != nil {
		return nil, 0, err
	}
	if filter.ProductID, err = parseOptionalID(params.ProductID, "product"); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.inventoryRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock levels: %w", err)
	}
	return rows, total, nil
}

func (s *inventoryService) SetStockLimits(ctx context.Context, actorID string, req StockLimitsRequest) (*model.Inventory, error) {
	if err := checkStockLimits(req.MinStock, req.MaxStock); err != nil {
		return nil, err
	}
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	wh, err := s.findWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	var inv *model.Inventory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if inv, err = lockStockRow(txCtx, s.inventoryRepo, product.ID, wh.ID); err != nil {
			return err
		}
		inv.MinStock = req.MinStock
		inv.MaxStock = req.MaxStock
		inv.Location = req.Location
		if err := s.inventoryRepo.Save(txCtx, inv); err != nil {
			return fmt.Errorf("failed to save stock limits: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionAdjustStock, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Invalidate(ctx)
	return inv, nil
}

// setQuantity moves the row to an absolute quantity. Must run inside a transaction.
func (s *inventoryService) setQuantity(ctx context.Context, actorID string, product *model.Product, warehouseID uuid.UUID, quantity decimal.Decimal, reference string) (StockChange, error) {
	inv, err := lockStockRow(ctx, s.inventoryRepo, product.ID, warehouseID)
	if err != nil {
		return StockChange{}, err
	}
	return moveStock(ctx, s.inventoryRepo, actorID, product, warehouseID, quantity.Sub(inv.Quantity), model.MovementAdjust, reference)
}

func (s *inventoryService) stockProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsService {
		return nil, validationError("services do not carry stock")
	}
	return product, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, actorID string, req AdjustStockRequest) (*model.Inventory, error) {
	product, err := s.stockProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !req.NewQuantity.IsZero() {
		if err := checkQuantity("new_quantity", req.NewQuantity, product); err != nil {
			return nil, err
		}
	}
	wh, err := s.findWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	var change StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		change, err = s.setQuantity(txCtx, actorID, product, wh.ID, req.NewQuantity, truncate("AJUSTE: "+req.Reason, 100))
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionAdjustStock, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, []StockChange{change})
	return s.inventoryRepo.Find(ctx, product.ID, wh.ID)
}

// TransferStock moves units between two warehouses. Rows are locked in a fixed
// order so concurrent opposite transfers can not deadlock. Serial-tracked
// units travel with their serial numbers.
func (s *inventoryService) TransferStock(ctx context.Context, actorID string, req TransferStockRequest) error {
	product, err := s.stockProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if err := checkQuantity("quantity", req.Quantity, product); err != nil {
		return err
	}
	serials := normalizeSerials(req.Serials)
	if !product.TrackSerial && len(serials) > 0 {
		return validationError("product %s does not track serial numbers", product.SKU)
	}
	if product.TrackSerial && len(serials) > 0 && !decimal.NewFromInt(int64(len(serials))).Equal(req.Quantity) {
		return validationError("product %s needs %s serials, got %d", product.SKU, req.Quantity, len(serials))
	}
	from, err := s.findWarehouse(ctx, req.FromWarehouseID)
	if err != nil {
		return err
	}
	to, err := s.findWarehouse(ctx, req.ToWarehouseID)
	if err != nil {
		return err
	}
	if from.ID == to.ID {
		return validationError("source and destination warehouses must differ")
	}
	if !to.IsActive {
		return validationError("destination warehouse %s is inactive", to.Code)
	}

	reference := fmt.Sprintf("TRASLADO %s -> %s", from.Code, to.Code)
	if req.Notes != "" {
		reference = reference + ": " + req.Notes
	}
	reference = truncate(reference, 100)

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		first, second := from.ID, to.ID
		if second.String() < first.String() {
			first, second = second, first
		}
		locked := map[uuid.UUID]*model.Inventory{}
		for _, whID := range []uuid.UUID{first, second} {
			inv, err := lockStockRow(txCtx, s.inventoryRepo, product.ID, whID)
			if err != nil {
				return err
			}
			locked[whID] = inv
		}

		src, dst := locked[from.ID], locked[to.ID]
		if src.Quantity.LessThan(req.Quantity) {
			return fmt.Errorf("%w: %s has %s units of %s, %s requested", ErrInsufficientStock, from.Code, src.Quantity, product.SKU, req.Quantity)
		}

		if product.TrackSerial {
			needed := int(req.Quantity.IntPart())
			picked, err := s.inventoryRepo.AvailableSerialsForUpdate(txCtx, product.ID, from.ID, serials, needed)
			if err != nil {
				return fmt.Errorf("failed to lock serials: %w", err)
			}
			if len(picked) != needed {
				return fmt.Errorf("%w: %s has %d available serials in %s, %d needed", ErrInsufficientStock, product.SKU, len(picked), from.Code, needed)
			}
			ids := make([]uuid.UUID, len(picked))
			for i, sn := range picked {
				ids[i] = sn.ID
			}
			if err := s.inventoryRepo.MoveSerials(txCtx, ids, to.ID); err != nil {
				return fmt.Errorf("failed to move serials: %w", err)
			}
		}

		src.Quantity = src.Quantity.Sub(req.Quantity)
		dst.Quantity = dst.Quantity.Add(req.Quantity)
		for _, step := range []struct {
			inv   *model.Inventory
			kind  string
			delta decimal.Decimal
		}{
			{src, model.MovementTransferOut, req.Quantity.Neg()},
			{dst, model.MovementTransferIn, req.Quantity},
		} {
			if err := s.inventoryRepo.Save(txCtx, step.inv); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			mv := &model.StockMovement{
				ProductID:   product.ID,
				WarehouseID: step.inv.WarehouseID,
				Type:        step.kind,
				Quantity:    step.delta,
				StockAfter:  step.inv.Quantity,
				Reference:   reference,
				UserID:      parseUserID(actorID),
			}
			if err := s.inventoryRepo.CreateMovement(txCtx, mv); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
			changes = append(changes, newStockChange(product, step.inv))
		}

		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionTransferStock, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return err
	}

	s.notifier.StockChanged(ctx, changes)
	return nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID string, page, limit int) ([]model.StockMovement, int64, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit, 50)
	rows, total, err := s.inventoryRepo.ListMovements(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch movements: %w", err)
	}
	return rows, total, nil
}

func (s *inventoryService) RegisterSerials(ctx context.Context, actorID string, req RegisterSerialsRequest) ([]model.SerialNumber, error) {
	product, err := s.stockProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.TrackSerial {
		return nil, validationError("product %s does not track serial numbers", product.SKU)
	}
	wh, err := s.findWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Serials))
	serials := make([]string, 0, len(req.Serials))
	for _, sn := range req.Serials {
		sn = strings.ToUpper(strings.TrimSpace(sn))
		if sn == "" {
			continue
		}
		if seen[sn] {
			return nil, validationError("serial %s is repeated", sn)
		}
		seen[sn] = true
		serials = append(serials, sn)
	}
	if len(serials) == 0 {
		return nil, validationError("at least one serial is required")
	}

	existing, err := s.inventoryRepo.SerialsExist(ctx, serials)
	if err != nil {
		return nil, fmt.Errorf("failed to check serials: %w", err)
	}
	if len(existing) > 0 {
		return nil, conflictError("serials already registered: %s", strings.Join(existing, ", "))
	}

	rows := make([]model.SerialNumber, 0, len(serials))
	for _, sn := range serials {
		rows = append(rows, model.SerialNumber{
			ProductID:   product.ID,
			WarehouseID: wh.ID,
			Serial:      sn,
			Status:      model.SerialAvailable,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventoryRepo.CreateSerials(txCtx, rows); err != nil {
			return fmt.Errorf("failed to register serials: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionRegisterSerials, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *inventoryService) ListSerials(ctx context.Context, productID, status string) ([]model.SerialNumber, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	switch status {
	case "", model.SerialAvailable, model.SerialSold, model.SerialReserved:
	default:
		return nil, validationError("unknown serial status %q", status)
	}
	serials, err := s.inventoryRepo.ListSerials(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch serials: %w", err)
	}
	return serials, nil
}
