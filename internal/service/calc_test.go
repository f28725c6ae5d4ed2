package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateSale(t *testing.T) {
	lines := []LineInput{
		{Quantity: decimal.NewFromInt(2), UnitPrice: dec("10000"), DiscountPercent: dec("10")},
		{Quantity: decimal.NewFromInt(1), UnitPrice: dec("5000.50")},
	}

	totals := CalculateSale(lines, dec("10"), dec("19"))

	require.Len(t, totals.Lines, 2)
	assert.True(t, dec("2000").Equal(totals.Lines[0].DiscountAmount))
	assert.True(t, dec("18000").Equal(totals.Lines[0].Subtotal))
	assert.True(t, dec("5000.50").Equal(totals.Lines[1].Subtotal))
	assert.True(t, dec("23000.50").Equal(totals.Subtotal), totals.Subtotal.String())
	assert.True(t, dec("2300.05").Equal(totals.DiscountAmount), totals.DiscountAmount.String())
	assert.True(t, dec("3933.09").Equal(totals.TaxAmount), totals.TaxAmount.String())
	assert.True(t, dec("24633.54").Equal(totals.Total), totals.Total.String())
}

func TestCalculateSale_NoTaxNoDiscount(t *testing.T) {
	totals := CalculateSale([]LineInput{{Quantity: decimal.NewFromInt(3), UnitPrice: dec("1500")}}, decimal.Zero, decimal.Zero)

	assert.True(t, dec("4500").Equal(totals.Subtotal))
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, dec("4500").Equal(totals.Total))
}

func TestNITVerificationDigit(t *testing.T) {
	tests := []struct {
		nit  string
		want string
	}{
		{"800197268", "4"},
		{"900.123.456", "8"},
		{"860 034 313", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.nit, func(t *testing.T) {
			got, err := NITVerificationDigit(tt.nit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "12A45", "1234567890123456"} {
		_, err := NITVerificationDigit(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestComputeCUFE(t *testing.T) {
	issued := time.Date(2024, 3, 15, 14, 30, 0, 0, bogota)
	in := CUFEInput{
		Number:       "SETP990000001",
		IssuedAt:     issued,
		Subtotal:     dec("100000"),
		IVA:          dec("19000"),
		Total:        dec("119000"),
		IssuerNIT:    "900123456",
		BuyerDoc:     "222222222222",
		TechnicalKey: "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
	}

	first := ComputeCUFE(in)
	assert.Len(t, first, 96)
	assert.Equal(t, first, ComputeCUFE(in))

	t.Run("same instant in another zone gives the same code", func(t *testing.T) {
		utc := in
		utc.IssuedAt = issued.UTC()
		assert.Equal(t, first, ComputeCUFE(utc))
	})

	t.Run("environment is part of the code", func(t *testing.T) {
		prod := in
		prod.Production = true
		assert.NotEqual(t, first, ComputeCUFE(prod))
	})

	t.Run("technical key is part of the code", func(t *testing.T) {
		other := in
		other.TechnicalKey = "another-key"
		assert.NotEqual(t, first, ComputeCUFE(other))
	})
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC)

	t.Run("defaults to the current month up to today", func(t *testing.T) {
		r, err := ParseDateRange("", "", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), r.From)
		assert.Equal(t, time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC), r.To)
	})

	t.Run("end day is inclusive", func(t *testing.T) {
		r, err := ParseDateRange("2024-01-10", "2024-01-10", now)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, r.To.Sub(r.From))
	})

	t.Run("rejects reversed and malformed bounds", func(t *testing.T) {
		_, err := ParseDateRange("2024-02-10", "2024-02-01", now)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = ParseDateRange("10/02/2024", "", now)
		assert.ErrorIs(t, err, ErrValidation)
	})
}
