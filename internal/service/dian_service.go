package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"contapos/internal/events"
	"contapos/internal/metrics"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Colombian civil time has no DST
var bogota = time.FixedZone("COT", -5*60*60)

type DianConfigRequest struct {
	Environment  string `json:"environment" binding:"required,oneof=test production"`
	CompanyNIT   string `json:"company_nit" binding:"required,max=20"`
	SoftwareID   string `json:"software_id" binding:"max=100"`
	SoftwarePIN  string `json:"software_pin" binding:"max=50"`
	TestSetID    string `json:"test_set_id" binding:"max=100"`
	TechnicalKey string `json:"technical_key" binding:"max=255"`
	ProviderID   string `json:"provider_id"`
	IsActive     bool   `json:"is_active"`
}

type TaxProviderRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	NIT      string `json:"nit" binding:"max=20"`
	APIURL   string `json:"api_url" binding:"required,url,max=255"`
	Username string `json:"username" binding:"max=100"`
	Password string `json:"password" binding:"max=255"`
	APIKey   string `json:"api_key" binding:"max=255"`
	IsActive *bool  `json:"is_active"`
}

type ResolutionRequest struct {
	Number        string `json:"number" binding:"required,max=50"`
	Prefix        string `json:"prefix" binding:"required,alphanum,max=10"`
	StartNumber   int64  `json:"start_number" binding:"required,gt=0"`
	EndNumber     int64  `json:"end_number" binding:"required,gtfield=StartNumber"`
	CurrentNumber int64  `json:"current_number" binding:"omitempty,gt=0"`
	ValidFrom     string `json:"valid_from" binding:"required"`
	ValidTo       string `json:"valid_to" binding:"required"`
	TechnicalKey  string `json:"technical_key" binding:"max=255"`
	IsActive      *bool  `json:"is_active"`
}

type ResolutionView struct {
	model.Resolution
	Remaining int64 `json:"remaining"`
}

type ProviderTestResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type InvoiceEvent struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	SaleID    uuid.UUID `json:"sale_id"`
	Number    string    `json:"number"`
	CUFE      string    `json:"cufe"`
	Status    string    `json:"status"`
}

// CUFEInput holds the fields DIAN concatenates into the invoice unique code
type CUFEInput struct {
	Number       string
	IssuedAt     time.Time
	Subtotal     decimal.Decimal
	IVA          decimal.Decimal
	INC          decimal.Decimal
	ICA          decimal.Decimal
	Total        decimal.Decimal
	IssuerNIT    string
	BuyerDoc     string
	TechnicalKey string
	Production   bool
}

// ComputeCUFE returns the SHA-384 hex digest of NumFac, FecFac, HorFac, ValFac,
// the 01/04/03 tax codes with their values, ValTot, NitOFE, NumAdq, ClTec and TipoAmbiente.
func ComputeCUFE(in CUFEInput) string {
	issued := in.IssuedAt.In(bogota)
	ambiente := "2"
	if in.Production {
		ambiente = "1"
	}
	parts := []string{
		in.Number,
		issued.Format("2006-01-02"),
		issued.Format("15:04:05-07:00"),
		in.Subtotal.StringFixed(2),
		"01", in.IVA.StringFixed(2),
		"04", in.INC.StringFixed(2),
		"03", in.ICA.StringFixed(2),
		in.Total.StringFixed(2),
		in.IssuerNIT,
		in.BuyerDoc,
		in.TechnicalKey,
		ambiente,
	}
	sum := sha512.Sum384([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

type DianService interface {
	GetConfiguration(ctx context.Context) (*model.DianConfiguration, error)
	UpdateConfiguration(ctx context.Context, actorID string, req DianConfigRequest) (*model.DianConfiguration, error)

	ListProviders(ctx context.Context) ([]model.TaxProvider, error)
	CreateProvider(ctx context.Context, actorID string, req TaxProviderRequest) (*model.TaxProvider, error)
	UpdateProvider(ctx context.Context, actorID, id string, req TaxProviderRequest) (*model.TaxProvider, error)
	DeleteProvider(ctx context.Context, actorID, id string) error
	TestProvider(ctx context.Context, id string) (*ProviderTestResult, error)

	ListInvoiceTypes(ctx context.Context) ([]model.InvoiceType, error)
	ListTaxes(ctx context.Context, taxType string) ([]model.Tax, error)
	InitializeData(ctx context.Context, actorID string) error

	ListResolutions(ctx context.Context) ([]ResolutionView, error)
	CreateResolution(ctx context.Context, actorID string, req ResolutionRequest) (*ResolutionView, error)
	UpdateResolution(ctx context.Context, actorID, id string, req ResolutionRequest) (*ResolutionView, error)
	DeleteResolution(ctx context.Context, actorID, id string) error

	SendInvoice(ctx context.Context, actorID, saleID string) (*model.ElectronicInvoice, error)
	ListElectronicInvoices(ctx context.Context, status string, page, limit int) ([]model.ElectronicInvoice, int64, error)
	GetElectronicInvoice(ctx context.Context, id string) (*model.ElectronicInvoice, error)
}

// CatalogSeeder creates the DIAN invoice types and taxes that are missing
type CatalogSeeder func(ctx context.Context) error

type dianService struct {
	repo      repository.DianRepository
	saleRepo  repository.SaleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	seed      CatalogSeeder
	notifier  *Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDianService(
	repo repository.DianRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	seed CatalogSeeder,
	notifier *Notifier,
	m *metrics.Metrics,
) DianService {
	return &dianService{
		repo:      repo,
		saleRepo:  saleRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		seed:      seed,
		notifier:  notifier,
		metrics:   m,
		now:       time.Now,
	}
}

// --- Configuration ---

func (s *dianService) GetConfiguration(ctx context.Context) (*model.DianConfiguration, error) {
	cfg, err := s.repo.GetConfiguration(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.DianConfiguration{Environment: model.DianEnvTest}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dian configuration: %w", err)
	}
	return cfg, nil
}

func (s *dianService) UpdateConfiguration(ctx context.Context, actorID string, req DianConfigRequest) (*model.DianConfiguration, error) {
	cfg, err := s.GetConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	nit := strings.NewReplacer(".", "", " ", "").Replace(strings.TrimSpace(req.CompanyNIT))
	if i := strings.IndexByte(nit, '-'); i >= 0 {
		nit = nit[:i]
	}
	dv, err := NITVerificationDigit(nit)
	if err != nil {
		return nil, err
	}

	providerID, err := parseOptionalID(req.ProviderID, "provider")
	if err != nil {
		return nil, err
	}
	if providerID != nil {
		if _, err := s.repo.FindProvider(ctx, *providerID); err != nil {
			return nil, notFound("provider", err)
		}
	}
	if req.IsActive && providerID == nil {
		return nil, validationError("an active configuration needs a technology provider")
	}

	cfg.Environment = req.Environment
	cfg.CompanyNIT = nit
	cfg.CompanyDV = dv
	cfg.SoftwareID = strings.TrimSpace(req.SoftwareID)
	cfg.TestSetID = strings.TrimSpace(req.TestSetID)
	cfg.ProviderID = providerID
	cfg.Provider = nil
	cfg.IsActive = req.IsActive
	// secrets are write-only; blank keeps the stored value
	if req.SoftwarePIN != "" {
		cfg.SoftwarePIN = req.SoftwarePIN
	}
	if req.TechnicalKey != "" {
		cfg.TechnicalKey = req.TechnicalKey
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SaveConfiguration(txCtx, cfg); err != nil {
			return fmt.Errorf("failed to save dian configuration: %w", err)
		}
		details := fmt.Sprintf(`{"environment": %q, "company_nit": %q, "is_active": %t}`, cfg.Environment, cfg.CompanyNIT, cfg.IsActive)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateDianConfig, cfg.ID.String(), "DIAN", details)
	})
	if err != nil {
		return nil, err
	}
	return s.GetConfiguration(ctx)
}

// --- Providers ---

func (s *dianService) ListProviders(ctx context.Context) ([]model.TaxProvider, error) {
	providers, err := s.repo.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch providers: %w", err)
	}
	return providers, nil
}

func (s *dianService) saveProvider(ctx context.Context, actorID string, provider *model.TaxProvider, req TaxProviderRequest) error {
	provider.Name = strings.TrimSpace(req.Name)
	provider.NIT = strings.TrimSpace(req.NIT)
	provider.APIURL = strings.TrimSpace(req.APIURL)
	provider.Username = strings.TrimSpace(req.Username)
	if req.Password != "" {
		provider.Password = req.Password
	}
	if req.APIKey != "" {
		provider.APIKey = req.APIKey
	}
	if req.IsActive != nil {
		provider.IsActive = *req.IsActive
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SaveProvider(txCtx, provider); err != nil {
			return fmt.Errorf("failed to save provider: %w", err)
		}
		details := fmt.Sprintf(`{"api_url": %q, "is_active": %t}`, provider.APIURL, provider.IsActive)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveProvider, provider.ID.String(), provider.Name, details)
	})
}

func (s *dianService) CreateProvider(ctx context.Context, actorID string, req TaxProviderRequest) (*model.TaxProvider, error) {
	provider := &model.TaxProvider{IsActive: true}
	provider.ID = uuid.New()
	if err := s.saveProvider(ctx, actorID, provider, req); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *dianService) findProvider(ctx context.Context, id string) (*model.TaxProvider, error) {
	providerID, err := parseID(id, "provider")
	if err != nil {
		return nil, err
	}
	provider, err := s.repo.FindProvider(ctx, providerID)
	if err != nil {
		return nil, notFound("provider", err)
	}
	return provider, nil
}

func (s *dianService) UpdateProvider(ctx context.Context, actorID, id string, req TaxProviderRequest) (*model.TaxProvider, error) {
	provider, err := s.findProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.saveProvider(ctx, actorID, provider, req); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *dianService) DeleteProvider(ctx context.Context, actorID, id string) error {
	provider, err := s.findProvider(ctx, id)
	if err != nil {
		return err
	}
	cfg, err := s.GetConfiguration(ctx)
	if err != nil {
		return err
	}
	if cfg.ProviderID != nil && *cfg.ProviderID == provider.ID {
		return fmt.Errorf("%w: provider %s is used by the DIAN configuration", ErrInvalidState, provider.Name)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteProvider(txCtx, provider.ID); err != nil {
			return fmt.Errorf("failed to delete provider: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteProvider, provider.ID.String(), provider.Name, nil)
	})
}

// TestProvider checks the endpoint and credentials are usable. The provider API
// itself is not called; a well-formed configuration is reported as reachable.
func (s *dianService) TestProvider(ctx context.Context, id string) (*ProviderTestResult, error) {
	provider, err := s.findProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &ProviderTestResult{Timestamp: s.now().UTC()}
	u, err := url.Parse(provider.APIURL)
	switch {
	case err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https"):
		result.Message = fmt.Sprintf("URL de API inválida: %q", provider.APIURL)
	case provider.APIKey == "" && (provider.Username == "" || provider.Password == ""):
		result.Message = "El proveedor no tiene credenciales configuradas"
	case !provider.IsActive:
		result.Message = "El proveedor está inactivo"
	default:
		result.Success = true
		result.Message = "Conexión exitosa con el proveedor " + provider.Name
	}
	return result, nil
}

// --- Catalog ---

func (s *dianService) ListInvoiceTypes(ctx context.Context) ([]model.InvoiceType, error) {
	types, err := s.repo.ListInvoiceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice types: %w", err)
	}
	return types, nil
}

func (s *dianService) ListTaxes(ctx context.Context, taxType string) ([]model.Tax, error) {
	taxes, err := s.repo.ListTaxes(ctx, taxType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch taxes: %w", err)
	}
	return taxes, nil
}

func (s *dianService) InitializeData(ctx context.Context, actorID string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.seed(txCtx); err != nil {
			return fmt.Errorf("failed to initialize dian data: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateDianConfig, "", "DIAN", `{"initialized": true}`)
	})
}

// --- Resolutions ---

func newResolutionView(r model.Resolution) ResolutionView {
	return ResolutionView{Resolution: r, Remaining: r.Remaining()}
}

func (s *dianService) ListResolutions(ctx context.Context) ([]ResolutionView, error) {
	resolutions, err := s.repo.ListResolutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resolutions: %w", err)
	}
	views := make([]ResolutionView, 0, len(resolutions))
	for _, r := range resolutions {
		views = append(views, newResolutionView(r))
	}
	return views, nil
}

func (s *dianService) saveResolution(ctx context.Context, actorID string, res *model.Resolution, req ResolutionRequest) (*ResolutionView, error) {
	validFrom, err := time.ParseInLocation("2006-01-02", req.ValidFrom, bogota)
	if err != nil {
		return nil, validationError("invalid valid_from %q", req.ValidFrom)
	}
	validTo, err := time.ParseInLocation("2006-01-02", req.ValidTo, bogota)
	if err != nil {
		return nil, validationError("invalid valid_to %q", req.ValidTo)
	}
	if validTo.Before(validFrom) {
		return nil, validationError("valid_to is before valid_from")
	}
	if req.EndNumber < req.StartNumber {
		return nil, validationError("end_number must not be lower than start_number")
	}

	current := req.CurrentNumber
	if current == 0 {
		current = res.CurrentNumber
	}
	if current == 0 {
		current = req.StartNumber
	}
	if current < req.StartNumber || current > req.EndNumber+1 {
		return nil, validationError("current_number must be within %d and %d", req.StartNumber, req.EndNumber+1)
	}

	res.Number = strings.TrimSpace(req.Number)
	res.Prefix = strings.ToUpper(strings.TrimSpace(req.Prefix))
	res.StartNumber = req.StartNumber
	res.EndNumber = req.EndNumber
	res.CurrentNumber = current
	res.ValidFrom = validFrom
	res.ValidTo = validTo
	if req.TechnicalKey != "" {
		res.TechnicalKey = req.TechnicalKey
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SaveResolution(txCtx, res); err != nil {
			return fmt.Errorf("failed to save resolution: %w", err)
		}
		if res.IsActive {
			if err := s.repo.DeactivateResolutions(txCtx, res.Prefix, res.ID); err != nil {
				return fmt.Errorf("failed to deactivate previous resolutions: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSaveResolution, res.ID.String(), res.Prefix+" "+res.Number, req)
	})
	if err != nil {
		return nil, err
	}
	view := newResolutionView(*res)
	return &view, nil
}

// CreateResolution activates the new range; other active ranges of the prefix are retired
func (s *dianService) CreateResolution(ctx context.Context, actorID string, req ResolutionRequest) (*ResolutionView, error) {
	res := &model.Resolution{IsActive: true}
	res.ID = uuid.New()
	return s.saveResolution(ctx, actorID, res, req)
}

func (s *dianService) UpdateResolution(ctx context.Context, actorID, id string, req ResolutionRequest) (*ResolutionView, error) {
	resID, err := parseID(id, "resolution")
	if err != nil {
		return nil, err
	}
	res, err := s.repo.FindResolution(ctx, resID)
	if err != nil {
		return nil, notFound("resolution", err)
	}
	return s.saveResolution(ctx, actorID, res, req)
}

func (s *dianService) DeleteResolution(ctx context.Context, actorID, id string) error {
	resID, err := parseID(id, "resolution")
	if err != nil {
		return err
	}
	res, err := s.repo.FindResolution(ctx, resID)
	if err != nil {
		return notFound("resolution", err)
	}
	used, err := s.repo.ResolutionInUse(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("failed to check resolution usage: %w", err)
	}
	if used {
		return fmt.Errorf("%w: resolution %s already numbered invoices", ErrInvalidState, res.Number)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteResolution(txCtx, res.ID); err != nil {
			return fmt.Errorf("failed to delete resolution: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteResolution, res.ID.String(), res.Prefix+" "+res.Number, nil)
	})
}

// --- Electronic invoices ---

// SendInvoice numbers the sale from the active resolution and submits it. A
// rejected submission is retried under its original number.
func (s *dianService) SendInvoice(ctx context.Context, actorID, saleID string) (*model.ElectronicInvoice, error) {
	id, err := parseID(saleID, "sale")
	if err != nil {
		return nil, err
	}

	cfg, err := s.repo.GetConfiguration(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !cfg.IsActive) {
		return nil, fmt.Errorf("%w: no active DIAN configuration", ErrDianNotReady)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dian configuration: %w", err)
	}
	if cfg.Provider == nil || !cfg.Provider.IsActive {
		return nil, fmt.Errorf("%w: no active technology provider", ErrDianNotReady)
	}

	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("sale", err)
	}
	if sale.Status != model.SaleStatusCompleted {
		return nil, fmt.Errorf("%w: sale %s is %s", ErrInvalidState, sale.InvoiceNumber, sale.Status)
	}

	now := s.now()
	var invoice *model.ElectronicInvoice
	var resolution *model.Resolution
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// the row lock serializes with CancelSale
		locked, err := s.saleRepo.FindByIDForUpdate(txCtx, sale.ID)
		if err != nil {
			return notFound("sale", err)
		}
		if locked.Status != model.SaleStatusCompleted {
			return fmt.Errorf("%w: sale %s is %s", ErrInvalidState, locked.InvoiceNumber, locked.Status)
		}

		existing, err := s.repo.FindInvoiceBySale(txCtx, sale.ID)
		switch {
		case err == nil && existing.Status != model.EInvoiceRejected:
			return conflictError("sale %s already has electronic invoice %s", sale.InvoiceNumber, existing.Number)
		case err == nil:
			invoice = existing
			if resolution, err = s.repo.FindResolution(txCtx, existing.ResolutionID); err != nil {
				return notFound("resolution", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			resolution, err = s.repo.ActiveResolutionForUpdate(txCtx)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no active numbering resolution", ErrDianNotReady)
			}
			if err != nil {
				return fmt.Errorf("failed to lock resolution: %w", err)
			}
			if !resolution.ValidAt(now) {
				return fmt.Errorf("%w: resolution %s is not valid on %s", ErrDianNotReady, resolution.Number, now.Format("2006-01-02"))
			}
			if resolution.CurrentNumber > resolution.EndNumber {
				return fmt.Errorf("%w: resolution %s numbering is exhausted", ErrInvalidState, resolution.Number)
			}
			invoice = &model.ElectronicInvoice{
				SaleID:          sale.ID,
				InvoiceTypeCode: "01",
				ResolutionID:    resolution.ID,
				Number:          fmt.Sprintf("%s%d", resolution.Prefix, resolution.CurrentNumber),
			}
			if err := s.repo.IncrementResolution(txCtx, resolution.ID, resolution.CurrentNumber+1); err != nil {
				return fmt.Errorf("failed to advance resolution: %w", err)
			}
		default:
			return fmt.Errorf("failed to check electronic invoice: %w", err)
		}

		technicalKey := resolution.TechnicalKey
		if technicalKey == "" {
			technicalKey = cfg.TechnicalKey
		}
		buyer := "222222222222"
		if sale.Customer != nil {
			buyer = sale.Customer.DocumentNumber
		}
		invoice.CUFE = ComputeCUFE(CUFEInput{
			Number:       invoice.Number,
			IssuedAt:     now,
			Subtotal:     sale.Subtotal.Sub(sale.DiscountAmount),
			IVA:          sale.TaxAmount,
			Total:        sale.Total,
			IssuerNIT:    cfg.CompanyNIT,
			BuyerDoc:     buyer,
			TechnicalKey: technicalKey,
			Production:   cfg.Environment == model.DianEnvProduction,
		})

		sentAt := now
		invoice.Status = model.EInvoiceSent
		invoice.Attempts++
		invoice.SentAt = &sentAt
		invoice.DianUUID = uuid.NewString()
		invoice.ResponseMessage = "Documento enviado a través de " + cfg.Provider.Name
		invoice.Sale, invoice.Resolution = nil, nil

		if err := s.repo.SaveInvoice(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to save electronic invoice: %w", err)
		}
		details := fmt.Sprintf(`{"sale": %q, "attempt": %d}`, sale.InvoiceNumber, invoice.Attempts)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionSendInvoice, invoice.ID.String(), invoice.Number, details)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.EInvoice(invoice.Status)
	s.notifier.Publish(ctx, events.InvoiceSent, InvoiceEvent{
		InvoiceID: invoice.ID,
		SaleID:    sale.ID,
		Number:    invoice.Number,
		CUFE:      invoice.CUFE,
		Status:    invoice.Status,
	})
	return s.GetElectronicInvoice(ctx, invoice.ID.String())
}

func (s *dianService) ListElectronicInvoices(ctx context.Context, status string, page, limit int) ([]model.ElectronicInvoice, int64, error) {
	switch status {
	case "", model.EInvoicePending, model.EInvoiceSent, model.EInvoiceAccepted, model.EInvoiceRejected:
	default:
		return nil, 0, validationError("unknown invoice status %q", status)
	}
	page, limit = normalizePage(page, limit, 20)
	invoices, total, err := s.repo.ListInvoices(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch electronic invoices: %w", err)
	}
	return invoices, total, nil
}

func (s *dianService) GetElectronicInvoice(ctx context.Context, id string) (*model.ElectronicInvoice, error) {
	invoiceID, err := parseID(id, "electronic invoice")
	if err != nil {
		return nil, err
	}
	invoice, err := s.repo.FindInvoice(ctx, invoiceID)
	if err != nil {
		return nil, notFound("electronic invoice", err)
	}
	return invoice, nil
}
