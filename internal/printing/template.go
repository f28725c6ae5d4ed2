package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Spanish)

// FormatMoney renders an amount the Colombian way: "$ 1.234.567,50"
func FormatMoney(symbol string, amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	s := printer.Sprintf("%.2f", f)
	if symbol == "" {
		return s
	}
	return symbol + " " + s
}

// FormatQuantity prints up to three decimals with a decimal comma: 2, 1,5, 0,125
func FormatQuantity(q decimal.Decimal) string {
	return strings.Replace(q.Round(3).String(), ".", ",", 1)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// InvoiceLine is one printed row
type InvoiceLine struct {
	SKU             string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Subtotal        decimal.Decimal
}

// InvoiceData is everything the invoice template needs
type InvoiceData struct {
	CompanyName     string
	CompanyTaxID    string
	CompanyAddress  string
	CompanyPhone    string
	CompanyEmail    string
	CurrencySymbol  string
	Footer          string
	InvoiceNumber   string
	ElectronicNo    string
	CUFE            string
	Date            time.Time
	CustomerName    string
	CustomerDoc     string
	CustomerAddress string
	PaymentMethod   string
	Lines           []InvoiceLine
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Cancelled       bool
}

// TemplateEngine renders invoice HTML
type TemplateEngine struct {
	invoice *template.Template
}

func NewTemplateEngine() (*TemplateEngine, error) {
	funcs := template.FuncMap{
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"upper":          strings.ToUpper,
		"qty":            FormatQuantity,
		"pct":            func(d decimal.Decimal) string { return d.StringFixed(2) + "%" },
	}
	tmpl, err := template.New("invoice").Funcs(funcs).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	return &TemplateEngine{invoice: tmpl}, nil
}

func (e *TemplateEngine) RenderInvoice(data InvoiceData) (string, error) {
	view := struct {
		InvoiceData
		Money func(decimal.Decimal) string
	}{
		InvoiceData: data,
		Money:       func(d decimal.Decimal) string { return FormatMoney(data.CurrencySymbol, d) },
	}

	var buf bytes.Buffer
	if err := e.invoice.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.String(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Factura {{.InvoiceNumber}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { padding: 4px 6px; border-bottom: 1px solid #ddd; text-align: left; }
td.num, th.num { text-align: right; }
.totals td { border: none; }
.cancelled { color: #b00; font-weight: bold; font-size: 16px; }
.footer { margin-top: 24px; font-size: 10px; color: #666; }
</style>
</head>
<body>
<header>
  <h1>{{.CompanyName}}</h1>
  <div>NIT {{.CompanyTaxID}}</div>
  <div>{{.CompanyAddress}} {{.CompanyPhone}} {{.CompanyEmail}}</div>
</header>
<section>
  <h2>FACTURA DE VENTA {{.InvoiceNumber}}</h2>
  {{if .ElectronicNo}}<div>Factura electrónica {{.ElectronicNo}}</div>{{end}}
  {{if .CUFE}}<div>CUFE: {{.CUFE}}</div>{{end}}
  {{if .Cancelled}}<div class="cancelled">ANULADA</div>{{end}}
  <div>Fecha: {{formatDateTime .Date}}</div>
  <div>Cliente: {{if .CustomerName}}{{.CustomerName}}{{else}}Consumidor final{{end}} {{.CustomerDoc}}</div>
  {{if .CustomerAddress}}<div>Dirección: {{.CustomerAddress}}</div>{{end}}
  <div>Forma de pago: {{upper .PaymentMethod}}</div>
</section>
<table>
  <thead>
    <tr><th>Código</th><th>Descripción</th><th class="num">Cant.</th><th class="num">Precio</th><th class="num">Desc.</th><th class="num">Subtotal</th></tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr>
      <td>{{.SKU}}</td><td>{{.Description}}</td><td class="num">{{qty .Quantity}}</td>
      <td class="num">{{call $.Money .UnitPrice}}</td><td class="num">{{pct .DiscountPercent}}</td>
      <td class="num">{{call $.Money .Subtotal}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td class="num">Subtotal</td><td class="num">{{call .Money .Subtotal}}</td></tr>
  <tr><td class="num">Descuento ({{pct .DiscountPercent}})</td><td class="num">{{call .Money .DiscountAmount}}</td></tr>
  <tr><td class="num">IVA ({{pct .TaxRate}})</td><td class="num">{{call .Money .TaxAmount}}</td></tr>
  <tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{call .Money .Total}}</strong></td></tr>
</table>
<div class="footer">{{.Footer}}</div>
</body>
</html>
`
