package model

import "github.com/shopspring/decimal"

const (
	SettingCompanyName        = "company_name"
	SettingCompanyAddress     = "company_address"
	SettingCompanyPhone       = "company_phone"
	SettingCompanyEmail       = "company_email"
	SettingCompanyTaxID       = "company_tax_id"
	SettingTaxRate            = "tax_rate"
	SettingCurrencySymbol     = "currency_symbol"
	SettingInvoiceFooter      = "invoice_footer"
	SettingLowStockAlertEmail = "low_stock_alert_email"
)

// Setting is a key-value company preference
type Setting struct {
	Base
	Key         string `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Category    string `gorm:"type:varchar(50);default:'general';index" json:"category"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// Currency with its exchange rate against the local currency (COP)
type Currency struct {
	Base
	Code         string          `gorm:"type:varchar(3);uniqueIndex;not null" json:"code"`
	Name         string          `gorm:"type:varchar(50);not null" json:"name"`
	Symbol       string          `gorm:"type:varchar(5);not null" json:"symbol"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"exchange_rate"`
	IsDefault    bool            `gorm:"default:false" json:"is_default"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
}
