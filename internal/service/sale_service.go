package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contapos/internal/events"
	"contapos/internal/mailer"
	"contapos/internal/metrics"
	"contapos/internal/model"
	"contapos/internal/printing"
	"contapos/internal/repository"
	ws "contapos/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SaleLineRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	// UnitPrice overrides the customer's price level when set
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	Serials         []string         `json:"serials"`
}

type SaleRequest struct {
	CustomerID      string            `json:"customer_id"`
	WarehouseID     string            `json:"warehouse_id"`
	Lines           []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TaxRate         *decimal.Decimal  `json:"tax_rate"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=cash card transfer credit"`
	AmountPaid      decimal.Decimal   `json:"amount_paid"`
	Notes           string            `json:"notes"`
	SendEmail       bool              `json:"send_email"`
}

type SaleListParams struct {
	From       string
	To         string
	CustomerID string
	Status     string
	Type       string
	Search     string
}

// LineInput is the priced quantity of one sale line
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

type LineTotals struct {
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
}

type SaleTotals struct {
	Lines          []LineTotals
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// CalculateSale prices the lines, applies the global discount on the subtotal and
// the tax on the discounted subtotal. Every amount is rounded to cents.
func CalculateSale(lines []LineInput, discountPercent, taxRate decimal.Decimal) SaleTotals {
	totals := SaleTotals{Lines: make([]LineTotals, len(lines))}
	for i, l := range lines {
		gross := l.UnitPrice.Mul(l.Quantity)
		discount := money(percentOf(gross, l.DiscountPercent))
		subtotal := money(gross).Sub(discount)
		totals.Lines[i] = LineTotals{DiscountAmount: discount, Subtotal: subtotal}
		totals.Subtotal = totals.Subtotal.Add(subtotal)
	}
	totals.DiscountAmount = money(percentOf(totals.Subtotal, discountPercent))
	taxable := totals.Subtotal.Sub(totals.DiscountAmount)
	totals.TaxAmount = money(percentOf(taxable, taxRate))
	totals.Total = taxable.Add(totals.TaxAmount)
	return totals
}

// InvoiceDocument is a rendered invoice ready to download or attach
type InvoiceDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SaleService interface {
	CreateSale(ctx context.Context, actorID string, req SaleRequest) (*model.Sale, error)
	ListSales(ctx context.Context, page, limit int, params SaleListParams) ([]model.Sale, int64, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	CancelSale(ctx context.Context, actorID, id, reason string) (*model.Sale, error)
	SaleInvoiceHTML(ctx context.Context, id string) (string, error)
	SaleInvoicePDF(ctx context.Context, id string) (*InvoiceDocument, error)
	EmailSaleInvoice(ctx context.Context, actorID, id, to string) error
}

// SalesDeps groups what the sale engine needs; it backs both SaleService and POSService
type SalesDeps struct {
	SaleRepo      repository.SaleRepository
	ProductRepo   repository.ProductRepository
	InventoryRepo repository.InventoryRepository
	CustomerRepo  repository.CustomerRepository
	WarehouseRepo repository.WarehouseRepository
	UserRepo      repository.UserRepository
	SettingRepo   repository.SettingRepository
	DianRepo      repository.DianRepository
	SequenceRepo  repository.SequenceRepository
	AuditRepo     repository.AuditRepository
	TxManager     repository.TransactionManager
	Notifier      *Notifier
	Metrics       *metrics.Metrics
	Templates     *printing.TemplateEngine
	PDF           printing.PDFRenderer
	Mailer        mailer.Mailer
	Logger        *zap.Logger
}

type saleEngine struct {
	SalesDeps
	now func() time.Time
}

func newSaleEngine(deps SalesDeps) *saleEngine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.PDF == nil {
		deps.PDF = printing.NopRenderer{}
	}
	return &saleEngine{SalesDeps: deps, now: time.Now}
}

type saleService struct {
	*saleEngine
}

func NewSaleService(deps SalesDeps) SaleService {
	return &saleService{saleEngine: newSaleEngine(deps)}
}

// SaleEvent is the payload of sale.completed and sale.cancelled
type SaleEvent struct {
	SaleID        uuid.UUID  `json:"sale_id"`
	InvoiceNumber string     `json:"invoice_number"`
	Type          string     `json:"type"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	WarehouseID   uuid.UUID  `json:"warehouse_id"`
	PaymentMethod string     `json:"payment_method"`
	Total         string     `json:"total"`
}

func newSaleEvent(sale *model.Sale) SaleEvent {
	return SaleEvent{
		SaleID:        sale.ID,
		InvoiceNumber: sale.InvoiceNumber,
		Type:          sale.Type,
		CustomerID:    sale.CustomerID,
		WarehouseID:   sale.WarehouseID,
		PaymentMethod: sale.PaymentMethod,
		Total:         sale.Total.StringFixed(2),
	}
}

func (e *saleEngine) CreateSale(ctx context.Context, actorID string, req SaleRequest) (*model.Sale, error) {
	return e.create(ctx, actorID, model.SaleTypeSale, req)
}

// resolveWarehouse picks the requested warehouse, else the user's, else the first active one
func (e *saleEngine) resolveWarehouse(ctx context.Context, actorID, requested string) (*model.Warehouse, error) {
	whID, err := parseOptionalID(requested, "warehouse")
	if err != nil {
		return nil, err
	}
	if whID == nil {
		if uid := parseUserID(actorID); uid != nil {
			if user, err := e.UserRepo.GetByID(ctx, *uid); err == nil && user.WarehouseID != nil {
				whID = user.WarehouseID
			}
		}
	}
	if whID == nil {
		warehouses, err := e.WarehouseRepo.List(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("failed to list warehouses: %w", err)
		}
		if len(warehouses) == 0 {
			return nil, validationError("no active warehouse available")
		}
		return &warehouses[0], nil
	}

	wh, err := e.WarehouseRepo.FindByID(ctx, *whID)
	if err != nil {
		return nil, notFound("warehouse", err)
	}
	if !wh.IsActive {
		return nil, validationError("warehouse %s is inactive", wh.Code)
	}
	return wh, nil
}

type pricedLine struct {
	product *model.Product
	req     SaleLineRequest
	serials []string
}

func (e *saleEngine) create(ctx context.Context, actorID, saleType string, req SaleRequest) (*model.Sale, error) {
	if len(req.Lines) == 0 {
		return nil, validationError("a sale needs at least one line")
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred) {
		return nil, validationError("discount_percent must be between 0 and 100")
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentCash
	}

	wh, err := e.resolveWarehouse(ctx, actorID, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	var customer *model.Customer
	priceLevel := 1
	customerID, err := parseOptionalID(req.CustomerID, "customer")
	if err != nil {
		return nil, err
	}
	if customerID != nil {
		if customer, err = e.CustomerRepo.FindByID(ctx, *customerID); err != nil {
			return nil, notFound("customer", err)
		}
		if !customer.IsActive {
			return nil, validationError("customer %s is inactive", customer.FullName)
		}
		priceLevel = customer.PriceLevel
	}
	if paymentMethod == model.PaymentCredit && customer == nil {
		return nil, validationError("credit sales need a customer")
	}

	taxRate := loadTaxRate(ctx, e.SettingRepo)
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return nil, validationError("tax_rate must be between 0 and 100")
	}

	lines := make([]pricedLine, 0, len(req.Lines))
	inputs := make([]LineInput, 0, len(req.Lines))
	for i, l := range req.Lines {
		productID, err := parseID(l.ProductID, "product")
		if err != nil {
			return nil, err
		}
		product, err := e.ProductRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, notFound("product", err)
		}
		if !product.IsActive {
			return nil, validationError("product %s is inactive", product.SKU)
		}
		if err := checkQuantity(fmt.Sprintf("line %d: quantity", i+1), l.Quantity, product); err != nil {
			return nil, err
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
			return nil, validationError("line %d: discount_percent must be between 0 and 100", i+1)
		}

		price := product.PriceForLevel(priceLevel)
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		if price.IsNegative() {
			return nil, validationError("line %d: unit price can not be negative", i+1)
		}

		serials := normalizeSerials(l.Serials)
		if !product.TrackSerial && len(serials) > 0 {
			return nil, validationError("product %s does not track serial numbers", product.SKU)
		}
		if product.TrackSerial && len(serials) > 0 && !decimal.NewFromInt(int64(len(serials))).Equal(l.Quantity) {
			return nil, validationError("product %s needs %s serials, got %d", product.SKU, l.Quantity, len(serials))
		}

		l.UnitPrice = &price
		lines = append(lines, pricedLine{product: product, req: l, serials: serials})
		inputs = append(inputs, LineInput{Quantity: l.Quantity, UnitPrice: price, DiscountPercent: l.DiscountPercent})
	}

	totals := CalculateSale(inputs, req.DiscountPercent, taxRate)

	amountPaid, change := totals.Total, decimal.Zero
	if paymentMethod == model.PaymentCash {
		switch {
		case req.AmountPaid.IsZero() && saleType == model.SaleTypeSale:
		case req.AmountPaid.LessThan(totals.Total):
			return nil, validationError("amount paid %s does not cover the total %s", req.AmountPaid.StringFixed(2), totals.Total.StringFixed(2))
		default:
			amountPaid = money(req.AmountPaid)
			change = amountPaid.Sub(totals.Total)
		}
	}

	sale := &model.Sale{
		Type:            saleType,
		CustomerID:      customerID,
		WarehouseID:     wh.ID,
		UserID:          parseUserID(actorID),
		Subtotal:        totals.Subtotal,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		TaxRate:         taxRate,
		TaxAmount:       totals.TaxAmount,
		Total:           totals.Total,
		PaymentMethod:   paymentMethod,
		AmountPaid:      amountPaid,
		Change:          change,
		Status:          model.SaleStatusCompleted,
		Notes:           req.Notes,
	}
	sale.ID = uuid.New()

	var changes []StockChange
	err = e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		sequence, format := model.SequenceSale, "VEN-%06d"
		if saleType == model.SaleTypePOS {
			sequence, format = model.SequencePOS, "POS-%06d"
		}
		next, err := e.SequenceRepo.Next(txCtx, sequence)
		if err != nil {
			return fmt.Errorf("failed to number sale: %w", err)
		}
		sale.InvoiceNumber = fmt.Sprintf(format, next)

		if changes, err = e.takeStock(txCtx, actorID, sale, lines); err != nil {
			return err
		}

		var soldSerials []uuid.UUID
		for i, l := range lines {
			detail := model.SaleDetail{
				ProductID:       l.product.ID,
				Quantity:        l.req.Quantity,
				UnitPrice:       *l.req.UnitPrice,
				DiscountPercent: l.req.DiscountPercent,
				DiscountAmount:  totals.Lines[i].DiscountAmount,
				Subtotal:        totals.Lines[i].Subtotal,
				UnitCost:        l.product.Cost,
			}
			if l.product.TrackSerial {
				needed := int(l.req.Quantity.IntPart())
				picked, err := e.InventoryRepo.AvailableSerialsForUpdate(txCtx, l.product.ID, wh.ID, l.serials, needed)
				if err != nil {
					return fmt.Errorf("failed to lock serials: %w", err)
				}
				if len(picked) != needed {
					return fmt.Errorf("%w: %s has %d available serials in %s, %d needed", ErrInsufficientStock, l.product.SKU, len(picked), wh.Code, needed)
				}
				numbers := make([]string, len(picked))
				for j, sn := range picked {
					numbers[j] = sn.Serial
					soldSerials = append(soldSerials, sn.ID)
				}
				detail.Serials = strings.Join(numbers, ",")
			}
			sale.Details = append(sale.Details, detail)
		}

		if err := e.SaleRepo.Create(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		if err := e.InventoryRepo.MarkSerialsSold(txCtx, soldSerials, sale.ID); err != nil {
			return fmt.Errorf("failed to mark serials sold: %w", err)
		}

		details := fmt.Sprintf(`{"total": %q, "lines": %d, "payment_method": %q}`, sale.Total.StringFixed(2), len(sale.Details), sale.PaymentMethod)
		return writeAudit(txCtx, e.AuditRepo, actorID, model.ActionCreateSale, sale.ID.String(), sale.InvoiceNumber, details)
	})
	if err != nil {
		return nil, err
	}

	e.Notifier.StockChanged(ctx, changes)
	e.Notifier.Invalidate(ctx)
	e.Notifier.Publish(ctx, events.SaleCompleted, newSaleEvent(sale))
	e.Notifier.Broadcast(ws.EventSaleCreated, newSaleEvent(sale))
	e.Metrics.SaleCompleted(sale.Type, sale.PaymentMethod, sale.Total.InexactFloat64())

	created, err := e.SaleRepo.FindByID(ctx, sale.ID)
	if err != nil {
		return nil, notFound("sale", err)
	}

	if req.SendEmail && customer != nil && customer.Email != "" {
		if err := e.EmailSaleInvoice(ctx, actorID, created.ID.String(), ""); err != nil {
			e.Logger.Warn("invoice email failed", zap.String("invoice", created.InvoiceNumber), zap.Error(err))
		}
	}
	return created, nil
}

// takeStock decrements stock for every stocked product of the sale. Quantities of
// repeated products are merged and rows are locked in product id order.
func (e *saleEngine) takeStock(ctx context.Context, actorID string, sale *model.Sale, lines []pricedLine) ([]StockChange, error) {
	qty := map[uuid.UUID]decimal.Decimal{}
	products := map[uuid.UUID]*model.Product{}
	for _, l := range lines {
		if l.product.IsService {
			continue
		}
		qty[l.product.ID] = qty[l.product.ID].Add(l.req.Quantity)
		products[l.product.ID] = l.product
	}

	ids := lockOrder(qty)
	changes := make([]StockChange, 0, len(ids))
	for _, id := range ids {
		change, err := moveStock(ctx, e.InventoryRepo, actorID, products[id], sale.WarehouseID, qty[id].Neg(), model.MovementOut, sale.InvoiceNumber)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func normalizeSerials(in []string) []string {
	out := make([]string, 0, len(in))
	for _, sn := range in {
		if sn = strings.ToUpper(strings.TrimSpace(sn)); sn != "" {
			out = append(out, sn)
		}
	}
	return out
}

func (e *saleEngine) ListSales(ctx context.Context, page, limit int, params SaleListParams) ([]model.Sale, int64, error) {
	page, limit = normalizePage(page, limit, 20)

	filter := repository.SaleFilter{Status: params.Status, Type: params.Type, Search: strings.TrimSpace(params.Search)}
	if params.From != "" || params.To != "" {
		r, err := ParseDateRange(params.From, params.To, e.now())
		if err != nil {
			return nil, 0, err
		}
		filter.From, filter.To = &r.From, &r.To
	}
	var err error
	if filter.CustomerID, err = parseOptionalID(params.CustomerID, "customer"); err != nil {
		return nil, 0, err
	}

	sales, total, err := e.SaleRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sales: %w", err)
	}
	return sales, total, nil
}

func (e *saleEngine) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := parseID(id, "sale")
	if err != nil {
		return nil, err
	}
	sale, err := e.SaleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, notFound("sale", err)
	}
	return sale, nil
}

// CancelSale puts the stock back and frees the serials. Sales already reported
// to DIAN need a credit note instead.
func (e *saleEngine) CancelSale(ctx context.Context, actorID, id, reason string) (*model.Sale, error) {
	saleID, err := parseID(id, "sale")
	if err != nil {
		return nil, err
	}

	var sale *model.Sale
	var changes []StockChange
	err = e.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err = e.SaleRepo.FindByIDForUpdate(txCtx, saleID)
		if err != nil {
			return notFound("sale", err)
		}
		if sale.Status != model.SaleStatusCompleted {
			return fmt.Errorf("%w: sale %s is %s", ErrInvalidState, sale.InvoiceNumber, sale.Status)
		}

		einvoice, err := e.DianRepo.FindInvoiceBySale(txCtx, sale.ID)
		switch {
		case err == nil && (einvoice.Status == model.EInvoiceSent || einvoice.Status == model.EInvoiceAccepted):
			return fmt.Errorf("%w: sale %s was reported to DIAN as %s", ErrInvalidState, sale.InvoiceNumber, einvoice.Number)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to check electronic invoice: %w", err)
		}

		qty := map[uuid.UUID]decimal.Decimal{}
		for _, d := range sale.Details {
			qty[d.ProductID] = qty[d.ProductID].Add(d.Quantity)
		}

		reference := "ANULA " + sale.InvoiceNumber
		for _, pid := range lockOrder(qty) {
			product, err := e.ProductRepo.FindByID(txCtx, pid)
			if err != nil {
				return notFound("product", err)
			}
			if product.IsService {
				continue
			}
			change, err := moveStock(txCtx, e.InventoryRepo, actorID, product, sale.WarehouseID, qty[pid], model.MovementIn, reference)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}

		if err := e.InventoryRepo.ReleaseSerials(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to release serials: %w", err)
		}
		if err := e.SaleRepo.UpdateStatus(txCtx, sale.ID, model.SaleStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel sale: %w", err)
		}
		sale.Status = model.SaleStatusCancelled

		details := fmt.Sprintf(`{"reason": %q}`, reason)
		return writeAudit(txCtx, e.AuditRepo, actorID, model.ActionCancelSale, sale.ID.String(), sale.InvoiceNumber, details)
	})
	if err != nil {
		return nil, err
	}

	e.Notifier.StockChanged(ctx, changes)
	e.Notifier.Invalidate(ctx)
	e.Notifier.Publish(ctx, events.SaleCancelled, newSaleEvent(sale))
	e.Metrics.SaleCancelled(sale.Type)

	return e.GetSale(ctx, sale.ID.String())
}

func (e *saleEngine) invoiceData(ctx context.Context, sale *model.Sale) printing.InvoiceData {
	settings := map[string]string{}
	if rows, err := e.SettingRepo.List(ctx, ""); err == nil {
		for _, s := range rows {
			settings[s.Key] = s.Value
		}
	}
	symbol := settings[model.SettingCurrencySymbol]
	if symbol == "" {
		symbol = "$"
	}

	data := printing.InvoiceData{
		CompanyName:     settings[model.SettingCompanyName],
		CompanyTaxID:    settings[model.SettingCompanyTaxID],
		CompanyAddress:  settings[model.SettingCompanyAddress],
		CompanyPhone:    settings[model.SettingCompanyPhone],
		CompanyEmail:    settings[model.SettingCompanyEmail],
		CurrencySymbol:  symbol,
		Footer:          settings[model.SettingInvoiceFooter],
		InvoiceNumber:   sale.InvoiceNumber,
		Date:            sale.CreatedAt,
		CustomerName:    "CONSUMIDOR FINAL",
		CustomerDoc:     "222222222222",
		PaymentMethod:   sale.PaymentMethod,
		Subtotal:        sale.Subtotal,
		DiscountPercent: sale.DiscountPercent,
		DiscountAmount:  sale.DiscountAmount,
		TaxRate:         sale.TaxRate,
		TaxAmount:       sale.TaxAmount,
		Total:           sale.Total,
		Cancelled:       sale.Status == model.SaleStatusCancelled,
	}
	if c := sale.Customer; c != nil {
		data.CustomerName = c.FullName
		data.CustomerDoc = c.DocumentType + " " + c.DocumentNumber
		if c.VerificationDigit != "" {
			data.CustomerDoc += "-" + c.VerificationDigit
		}
		data.CustomerAddress = c.Address
		if c.City != nil {
			data.CustomerAddress = strings.TrimSpace(c.Address + ", " + c.City.Name)
		}
	}
	if einvoice, err := e.DianRepo.FindInvoiceBySale(ctx, sale.ID); err == nil && einvoice.Status != model.EInvoiceRejected {
		data.ElectronicNo = einvoice.Number
		data.CUFE = einvoice.CUFE
	}
	for _, d := range sale.Details {
		line := printing.InvoiceLine{
			Quantity:        d.Quantity,
			UnitPrice:       d.UnitPrice,
			DiscountPercent: d.DiscountPercent,
			Subtotal:        d.Subtotal,
		}
		if d.Product != nil {
			line.SKU = d.Product.SKU
			line.Description = d.Product.Name
		}
		if d.Serials != "" {
			line.Description += " (S/N " + d.Serials + ")"
		}
		data.Lines = append(data.Lines, line)
	}
	return data
}

func (e *saleEngine) SaleInvoiceHTML(ctx context.Context, id string) (string, error) {
	sale, err := e.GetSale(ctx, id)
	if err != nil {
		return "", err
	}
	return e.Templates.RenderInvoice(e.invoiceData(ctx, sale))
}

// SaleInvoicePDF falls back to the HTML document when no browser is configured
func (e *saleEngine) SaleInvoicePDF(ctx context.Context, id string) (*InvoiceDocument, error) {
	sale, err := e.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := e.Templates.RenderInvoice(e.invoiceData(ctx, sale))
	if err != nil {
		return nil, err
	}

	pdf, err := e.PDF.RenderPDF(ctx, html)
	if errors.Is(err, printing.ErrPDFUnavailable) {
		return &InvoiceDocument{
			Filename:    sale.InvoiceNumber + ".html",
			ContentType: "text/html; charset=utf-8",
			Data:        []byte(html),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return &InvoiceDocument{Filename: sale.InvoiceNumber + ".pdf", ContentType: "application/pdf", Data: pdf}, nil
}

// EmailSaleInvoice mails the invoice to `to`, or to the customer when empty
func (e *saleEngine) EmailSaleInvoice(ctx context.Context, actorID, id, to string) error {
	if e.Mailer == nil {
		return fmt.Errorf("%w: mail delivery is not configured", ErrInvalidState)
	}
	sale, err := e.GetSale(ctx, id)
	if err != nil {
		return err
	}

	to = strings.TrimSpace(to)
	if to == "" && sale.Customer != nil {
		to = sale.Customer.Email
	}
	if to == "" {
		return validationError("no recipient: the sale has no customer email")
	}
	if err := emailValidator.Var(to, "email"); err != nil {
		return validationError("invalid email %q", to)
	}

	doc, err := e.SaleInvoicePDF(ctx, id)
	if err != nil {
		return err
	}

	company := "ContaPOS"
	if name, err := e.SettingRepo.Get(ctx, model.SettingCompanyName); err == nil && name != "" {
		company = name
	}
	msg := mailer.Message{
		To:          []string{to},
		Subject:     fmt.Sprintf("Factura %s - %s", sale.InvoiceNumber, company),
		HTML:        fmt.Sprintf("<p>Adjuntamos la factura %s por valor de %s.</p><p>Gracias por su compra.</p>", sale.InvoiceNumber, printing.FormatMoney("$", sale.Total)),
		Attachments: []mailer.Attachment{{Name: doc.Filename, Data: doc.Data}},
	}
	if err := e.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invoice: %w", err)
	}
	e.Logger.Info("invoice emailed", zap.String("invoice", sale.InvoiceNumber), zap.String("actor", actorID))
	return nil
}
