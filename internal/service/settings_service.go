package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var defaultTaxRate = decimal.NewFromInt(19)

type WarehouseRequest struct {
	Code        string `json:"code" binding:"required,max=20"`
	Name        string `json:"name" binding:"required,max=100"`
	Address     string `json:"address" binding:"max=255"`
	Phone       string `json:"phone" binding:"max=50"`
	Responsible string `json:"responsible" binding:"max=120"`
}

type CatalogItemRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type CurrencyRequest struct {
	Code         string          `json:"code" binding:"required,len=3"`
	Name         string          `json:"name" binding:"required,max=50"`
	Symbol       string          `json:"symbol" binding:"required,max=5"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	IsDefault    bool            `json:"is_default"`
	IsActive     *bool           `json:"is_active"`
}

type SettingsService interface {
	ListWarehouses(ctx context.Context, activeOnly bool) ([]model.Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error)
	CreateWarehouse(ctx context.Context, actorID string, req WarehouseRequest) (*model.Warehouse, error)
	UpdateWarehouse(ctx context.Context, actorID, id string, req WarehouseRequest) (*model.Warehouse, error)
	ToggleWarehouse(ctx context.Context, actorID, id string) (*model.Warehouse, error)

	ListCatalog(ctx context.Context, kind string, activeOnly bool) ([]model.CatalogItem, error)
	CreateCatalogItem(ctx context.Context, actorID, kind string, req CatalogItemRequest) (*model.CatalogItem, error)
	UpdateCatalogItem(ctx context.Context, actorID, kind, id string, req CatalogItemRequest) (*model.CatalogItem, error)
	DeleteCatalogItem(ctx context.Context, actorID, kind, id string) error

	GetSettings(ctx context.Context) (map[string]string, error)
	ListSettings(ctx context.Context, category string) ([]model.Setting, error)
	UpdateSettings(ctx context.Context, actorID string, values map[string]string) (map[string]string, error)
	TaxRate(ctx context.Context) decimal.Decimal

	ListCurrencies(ctx context.Context, activeOnly bool) ([]model.Currency, error)
	CreateCurrency(ctx context.Context, actorID string, req CurrencyRequest) (*model.Currency, error)
	UpdateCurrency(ctx context.Context, actorID, id string, req CurrencyRequest) (*model.Currency, error)
}

type settingsService struct {
	settingRepo   repository.SettingRepository
	warehouseRepo repository.WarehouseRepository
	catalogRepo   repository.CatalogRepository
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewSettingsService(
	settingRepo repository.SettingRepository,
	warehouseRepo repository.WarehouseRepository,
	catalogRepo repository.CatalogRepository,
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SettingsService {
	return &settingsService{
		settingRepo:   settingRepo,
		warehouseRepo: warehouseRepo,
		catalogRepo:   catalogRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

// --- Warehouses ---

func (s *settingsService) ListWarehouses(ctx context.Context, activeOnly bool) ([]model.Warehouse, error) {
	warehouses, err := s.warehouseRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch warehouses: %w", err)
	}
	return warehouses, nil
}

func (s *settingsService) GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
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

func (s *settingsService) checkWarehouseCode(ctx context.Context, code string, excludeID uuid.UUID) error {
	existing, err := s.warehouseRepo.FindByCode(ctx, code)
	if err == nil && existing.ID != excludeID {
		return conflictError("warehouse code %s already exists", code)
	}
	return nil
}

// CreateWarehouse also opens a zero-stock inventory row for every active product
func (s *settingsService) CreateWarehouse(ctx context.Context, actorID string, req WarehouseRequest) (*model.Warehouse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.checkWarehouseCode(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	wh := &model.Warehouse{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		Phone:       req.Phone,
		Responsible: req.Responsible,
		IsActive:    true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Create(txCtx, wh); err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}

		productIDs, err := s.productRepo.ActiveStockedIDs(txCtx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		for _, pid := range productIDs {
			if err := s.inventoryRepo.EnsureRow(txCtx, pid, wh.ID, decimal.Zero, decimal.Zero); err != nil {
				return fmt.Errorf("failed to create inventory row: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveWarehouse, wh.ID.String(), wh.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return wh, nil
}

func (s *settingsService) UpdateWarehouse(ctx context.Context, actorID, id string, req WarehouseRequest) (*model.Warehouse, error) {
	wh, err := s.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.checkWarehouseCode(ctx, code, wh.ID); err != nil {
		return nil, err
	}
	wh.Code = code
	wh.Name = strings.TrimSpace(req.Name)
	wh.Address = req.Address
	wh.Phone = req.Phone
	wh.Responsible = req.Responsible

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Update(txCtx, wh); err != nil {
			return fmt.Errorf("failed to update warehouse: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveWarehouse, wh.ID.String(), wh.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return wh, nil
}

func (s *settingsService) ToggleWarehouse(ctx context.Context, actorID, id string) (*model.Warehouse, error) {
	wh, err := s.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}

	if wh.IsActive {
		active, err := s.warehouseRepo.ActiveIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list warehouses: %w", err)
		}
		if len(active) <= 1 {
			return nil, fmt.Errorf("%w: at least one warehouse must stay active", ErrInvalidState)
		}
	}

	wh.IsActive = !wh.IsActive
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.SetActive(txCtx, wh.ID, wh.IsActive); err != nil {
			return fmt.Errorf("failed to update warehouse: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionToggleWarehouse, wh.ID.String(), wh.Name,
			map[string]bool{"is_active": wh.IsActive})
	})
	if err != nil {
		return nil, err
	}
	return wh, nil
}

// --- Catalogs ---

func checkCatalogKind(kind string) error {
	if _, ok := model.CatalogTables[kind]; !ok {
		return validationError("unknown catalog %q", kind)
	}
	return nil
}

func (s *settingsService) ListCatalog(ctx context.Context, kind string, activeOnly bool) ([]model.CatalogItem, error) {
	if err := checkCatalogKind(kind); err != nil {
		return nil, err
	}
	items, err := s.catalogRepo.List(ctx, kind, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}
	return items, nil
}

func (s *settingsService) CreateCatalogItem(ctx context.Context, actorID, kind string, req CatalogItemRequest) (*model.CatalogItem, error) {
	if err := checkCatalogKind(kind); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.catalogRepo.NameExists(ctx, kind, name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if exists {
		return nil, conflictError("%s already exists", name)
	}

	item := &model.CatalogItem{Name: name, Description: req.Description, IsActive: true}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.catalogRepo.Create(txCtx, kind, item); err != nil {
			return fmt.Errorf("failed to create catalog item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveCatalog, item.ID.String(), kind+"/"+item.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *settingsService) findCatalogItem(ctx context.Context, kind, id string) (*model.CatalogItem, error) {
	if err := checkCatalogKind(kind); err != nil {
		return nil, err
	}
	itemID, err := parseID(id, "catalog item")
	if err != nil {
		return nil, err
	}
	item, err := s.catalogRepo.FindByID(ctx, kind, itemID)
	if err != nil {
		return nil, notFound(kind, err)
	}
	return item, nil
}

func (s *settingsService) UpdateCatalogItem(ctx context.Context, actorID, kind, id string, req CatalogItemRequest) (*model.CatalogItem, error) {
	item, err := s.findCatalogItem(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.catalogRepo.NameExists(ctx, kind, name, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if exists {
		return nil, conflictError("%s already exists", name)
	}
	item.Name = name
	item.Description = req.Description

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.catalogRepo.Update(txCtx, kind, item); err != nil {
			return fmt.Errorf("failed to update catalog item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveCatalog, item.ID.String(), kind+"/"+item.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteCatalogItem deactivates the item; products keep their reference
func (s *settingsService) DeleteCatalogItem(ctx context.Context, actorID, kind, id string) error {
	item, err := s.findCatalogItem(ctx, kind, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.catalogRepo.SetActive(txCtx, kind, item.ID, false); err != nil {
			return fmt.Errorf("failed to delete catalog item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteCatalog, item.ID.String(), kind+"/"+item.Name, `{"deleted": true}`)
	})
}

// --- Company settings ---

func (s *settingsService) GetSettings(ctx context.Context) (map[string]string, error) {
	settings, err := s.settingRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	values := make(map[string]string, len(settings))
	for _, st := range settings {
		values[st.Key] = st.Value
	}
	return values, nil
}

func (s *settingsService) ListSettings(ctx context.Context, category string) ([]model.Setting, error) {
	settings, err := s.settingRepo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

func validateSetting(key, value string) error {
	switch key {
	case model.SettingTaxRate:
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || rate.IsNegative() || rate.GreaterThan(hundred) {
			return validationError("tax_rate must be a number between 0 and 100")
		}
	case model.SettingCompanyEmail, model.SettingLowStockAlertEmail:
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		if err := emailValidator.Var(value, "email"); err != nil {
			return validationError("%s is not a valid email address", key)
		}
	}
	return nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, actorID string, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, validationError("no settings given")
	}

	keys := make([]string, 0, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, validationError("setting key is required")
		}
		if err := validateSetting(key, value); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, key := range keys {
			if err := s.settingRepo.Upsert(txCtx, key, strings.TrimSpace(values[key])); err != nil {
				return fmt.Errorf("failed to save setting %s: %w", key, err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateSettings, "", strings.Join(keys, ","), values)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSettings(ctx)
}

// TaxRate is the default sale and purchase tax percentage
func (s *settingsService) TaxRate(ctx context.Context) decimal.Decimal {
	return loadTaxRate(ctx, s.settingRepo)
}

func loadTaxRate(ctx context.Context, repo repository.SettingRepository) decimal.Decimal {
	raw, err := repo.Get(ctx, model.SettingTaxRate)
	if err != nil || strings.TrimSpace(raw) == "" {
		return defaultTaxRate
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return defaultTaxRate
	}
	return rate
}

// --- Currencies ---

func (s *settingsService) ListCurrencies(ctx context.Context, activeOnly bool) ([]model.Currency, error) {
	currencies, err := s.settingRepo.ListCurrencies(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch currencies: %w", err)
	}
	return currencies, nil
}

func (s *settingsService) saveCurrency(ctx context.Context, actorID string, currency *model.Currency, req CurrencyRequest) error {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !req.ExchangeRate.IsPositive() {
		return validationError("exchange_rate must be greater than zero")
	}
	exists, err := s.settingRepo.CurrencyCodeExists(ctx, code, currency.ID)
	if err != nil {
		return fmt.Errorf("failed to check currency code: %w", err)
	}
	if exists {
		return conflictError("currency %s already exists", code)
	}

	currency.Code = code
	currency.Name = req.Name
	currency.Symbol = req.Symbol
	currency.ExchangeRate = req.ExchangeRate
	currency.IsDefault = req.IsDefault
	if req.IsActive != nil {
		currency.IsActive = *req.IsActive
	}
	if currency.IsDefault && !currency.IsActive {
		return validationError("the default currency must be active")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.settingRepo.SaveCurrency(txCtx, currency); err != nil {
			return fmt.Errorf("failed to save currency: %w", err)
		}
		if currency.IsDefault {
			if err := s.settingRepo.ClearDefaultCurrency(txCtx, currency.ID); err != nil {
				return fmt.Errorf("failed to reset default currency: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveCurrency, currency.ID.String(), currency.Code, req)
	})
}

func (s *settingsService) CreateCurrency(ctx context.Context, actorID string, req CurrencyRequest) (*model.Currency, error) {
	currency := &model.Currency{IsActive: true}
	if err := s.saveCurrency(ctx, actorID, currency, req); err != nil {
		return nil, err
	}
	return currency, nil
}

func (s *settingsService) UpdateCurrency(ctx context.Context, actorID, id string, req CurrencyRequest) (*model.Currency, error) {
	currencyID, err := parseID(id, "currency")
	if err != nil {
		return nil, err
	}
	currency, err := s.settingRepo.FindCurrency(ctx, currencyID)
	if err != nil {
		return nil, notFound("currency", err)
	}
	if err := s.saveCurrency(ctx, actorID, currency, req); err != nil {
		return nil, err
	}
	return currency, nil
}
