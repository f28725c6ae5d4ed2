package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	SKU     string `validate:"sku"`
	DocType string `validate:"doctype"`
	Theme   string `validate:"theme"`
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	assert.NoError(t, v.Struct(sample{SKU: "ARZ-001", DocType: "NIT", Theme: "blue"}))
	assert.Error(t, v.Struct(sample{SKU: "bad sku", DocType: "NIT", Theme: "blue"}))
	assert.Error(t, v.Struct(sample{SKU: "A1", DocType: "RUT", Theme: "blue"}))
	assert.Error(t, v.Struct(sample{SKU: "A1", DocType: "CC", Theme: "pink"}))
}
