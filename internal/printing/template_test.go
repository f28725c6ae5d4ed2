package printing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$ 1.234.567,50", FormatMoney("$", decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "0,00", FormatMoney("", decimal.Zero))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", FormatQuantity(decimal.NewFromInt(2)))
	assert.Equal(t, "1,5", FormatQuantity(decimal.RequireFromString("1.500")))
	assert.Equal(t, "0,125", FormatQuantity(decimal.RequireFromString("0.125")))
}

func TestRenderInvoice(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	html, err := engine.RenderInvoice(InvoiceData{
		CompanyName:    "Tienda <Uno>",
		CurrencySymbol: "$",
		InvoiceNumber:  "VEN-000001",
		Date:           time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		PaymentMethod:  "cash",
		Lines: []InvoiceLine{
			{SKU: "A1", Description: "Arroz", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.NewFromInt(4000), Subtotal: decimal.NewFromInt(10000)},
		},
		Subtotal:  decimal.NewFromInt(10000),
		TaxRate:   decimal.NewFromInt(19),
		TaxAmount: decimal.NewFromInt(1900),
		Total:     decimal.NewFromInt(11900),
		Cancelled: true,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "VEN-000001")
	assert.Contains(t, html, "Tienda &lt;Uno&gt;")
	assert.Contains(t, html, "05/03/2024 14:30")
	assert.Contains(t, html, "Consumidor final")
	assert.Contains(t, html, "Arroz")
	assert.Contains(t, html, `<td class="num">2,5</td>`)
	assert.Contains(t, html, "19.00%")
	assert.Contains(t, html, "ANULADA")
	assert.Contains(t, html, "CASH")
}

func TestNopRenderer(t *testing.T) {
	_, err := NopRenderer{}.RenderPDF(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, ErrPDFUnavailable)
}
