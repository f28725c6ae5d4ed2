package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"contapos/internal/cache"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportService interface {
	SalesSummary(ctx context.Context, from, to string) (*model.SalesSummary, error)
	TopProducts(ctx context.Context, from, to string, limit int) ([]model.ProductRanking, error)
	InventoryValuation(ctx context.Context, warehouseID string) (*model.InventoryValuation, error)
	CustomerReport(ctx context.Context, from, to string) ([]model.CustomerReportRow, error)
	ProfitReport(ctx context.Context, from, to string) (*model.ProfitReport, error)
	ExportInventoryCSV(ctx context.Context, warehouseID string) ([]byte, error)
	ExportSalesCSV(ctx context.Context, from, to string) ([]byte, error)
}

type reportService struct {
	repo     repository.ReportRepository
	saleRepo repository.SaleRepository
	cache    cache.Cache
	now      func() time.Time
}

func NewReportService(repo repository.ReportRepository, saleRepo repository.SaleRepository, c cache.Cache) ReportService {
	return &reportService{repo: repo, saleRepo: saleRepo, cache: c, now: time.Now}
}

func (s *reportService) rangeOf(from, to string) (DateRange, error) {
	return ParseDateRange(from, to, s.now())
}

func (s *reportService) SalesSummary(ctx context.Context, from, to string) (*model.SalesSummary, error) {
	r, err := s.rangeOf(from, to)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SaleTotals(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	points, err := s.repo.SalePoints(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.repo.PaymentMethodTotals(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}

	summary := &model.SalesSummary{
		From:            r.From,
		To:              r.To.AddDate(0, 0, -1),
		Count:           totals.Count,
		Subtotal:        money(totals.Subtotal),
		Discount:        money(totals.Discount),
		Tax:             money(totals.Tax),
		Total:           money(totals.Total),
		AverageTicket:   decimal.Zero,
		Daily:           dailySeries(points, r),
		ByPaymentMethod: byMethod,
	}
	if totals.Count > 0 {
		summary.AverageTicket = money(totals.Total.Div(decimal.NewFromInt(totals.Count)))
	}
	return summary, nil
}

// dailySeries buckets sales per calendar day and fills the days without sales
func dailySeries(points []repository.SalePoint, r DateRange) []model.DailySales {
	byDay := map[string]*model.DailySales{}
	var days []model.DailySales
	for d := r.From; d.Before(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, model.DailySales{Date: d.Format("2006-01-02"), Total: decimal.Zero})
	}
	for i := range days {
		byDay[days[i].Date] = &days[i]
	}
	for _, p := range points {
		day, ok := byDay[p.CreatedAt.In(r.From.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		day.Count++
		day.Total = day.Total.Add(p.Total)
	}
	for i := range days {
		days[i].Total = money(days[i].Total)
	}
	return days
}

func (s *reportService) TopProducts(ctx context.Context, from, to string, limit int) ([]model.ProductRanking, error) {
	r, err := s.rangeOf(from, to)
	if err != nil {
		return nil, err
	}
	_, limit = normalizePage(1, limit, 10)
	return s.repo.TopProducts(ctx, r.From, r.To, limit)
}

func (s *reportService) InventoryValuation(ctx context.Context, warehouseID string) (*model.InventoryValuation, error) {
	whID, err := parseOptionalID(warehouseID, "warehouse")
	if err != nil {
		return nil, err
	}
	key := cache.PrefixInventory + "all"
	if whID != nil {
		key = cache.PrefixInventory + whID.String()
	}

	return cache.Remember(ctx, s.cache, key, cache.InventoryTTL, func() (*model.InventoryValuation, error) {
		rows, err := s.repo.InventoryValuation(ctx, whID)
		if err != nil {
			return nil, err
		}
		v := &model.InventoryValuation{Rows: rows, TotalCost: decimal.Zero, TotalPrice: decimal.Zero}
		for i := range v.Rows {
			row := &v.Rows[i]
			row.TotalCost = money(row.UnitCost.Mul(row.Quantity))
			row.TotalPrice = money(row.SalePrice.Mul(row.Quantity))
			v.TotalUnits = v.TotalUnits.Add(row.Quantity)
			v.TotalCost = v.TotalCost.Add(row.TotalCost)
			v.TotalPrice = v.TotalPrice.Add(row.TotalPrice)
		}
		return v, nil
	})
}

func (s *reportService) CustomerReport(ctx context.Context, from, to string) ([]model.CustomerReportRow, error) {
	r, err := s.rangeOf(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.CustomerReport(ctx, r.From, r.To)
}

// ProfitReport measures revenue net of discounts against the cost frozen on each sale line
func (s *reportService) ProfitReport(ctx context.Context, from, to string) (*model.ProfitReport, error) {
	r, err := s.rangeOf(from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.Revenue(ctx, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	cost, err := s.repo.CostOfGoods(ctx, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cost of goods: %w", err)
	}

	report := &model.ProfitReport{
		From:        r.From,
		To:          r.To.AddDate(0, 0, -1),
		Revenue:     money(revenue.Revenue),
		CostOfGoods: money(cost.CostOfGoods),
		SalesCount:  revenue.SalesCount,
		UnitsSold:   cost.UnitsSold,
		MarginPct:   decimal.Zero,
	}
	report.GrossProfit = report.Revenue.Sub(report.CostOfGoods)
	if report.Revenue.IsPositive() {
		report.MarginPct = report.GrossProfit.Mul(hundred).Div(report.Revenue).Round(2)
	}
	return report, nil
}

func (s *reportService) ExportInventoryCSV(ctx context.Context, warehouseID string) ([]byte, error) {
	v, err := s.InventoryValuation(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	records := [][]string{{"sku", "producto", "bodega", "cantidad", "costo_unitario", "costo_total", "precio_venta", "valor_venta"}}
	for _, row := range v.Rows {
		records = append(records, []string{
			row.SKU,
			row.ProductName,
			row.WarehouseCode,
			row.Quantity.String(),
			row.UnitCost.StringFixed(2),
			row.TotalCost.StringFixed(2),
			row.SalePrice.StringFixed(2),
			row.TotalPrice.StringFixed(2),
		})
	}
	records = append(records, []string{"TOTAL", "", "", v.TotalUnits.String(), "", v.TotalCost.StringFixed(2), "", v.TotalPrice.StringFixed(2)})
	return writeCSV(records)
}

const exportPageSize = 100

func (s *reportService) ExportSalesCSV(ctx context.Context, from, to string) ([]byte, error) {
	r, err := s.rangeOf(from, to)
	if err != nil {
		return nil, err
	}

	records := [][]string{{"numero", "fecha", "tipo", "cliente", "documento", "subtotal", "descuento", "iva", "total", "metodo_pago", "estado"}}
	filter := repository.SaleFilter{From: &r.From, To: &r.To}
	for page := 1; ; page++ {
		sales, total, err := s.saleRepo.List(ctx, page, exportPageSize, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sales: %w", err)
		}
		for _, sale := range sales {
			customer, document := "CONSUMIDOR FINAL", "222222222222"
			if sale.Customer != nil {
				customer, document = sale.Customer.FullName, sale.Customer.DocumentNumber
			}
			records = append(records, []string{
				sale.InvoiceNumber,
				sale.CreatedAt.Format("2006-01-02 15:04:05"),
				sale.Type,
				customer,
				document,
				sale.Subtotal.StringFixed(2),
				sale.DiscountAmount.StringFixed(2),
				sale.TaxAmount.StringFixed(2),
				sale.Total.StringFixed(2),
				sale.PaymentMethod,
				sale.Status,
			})
		}
		if len(sales) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	return writeCSV(records)
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	// UTF-8 BOM so spreadsheet tools keep the accents
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}
