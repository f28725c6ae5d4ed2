package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DianEnvTest       = "test"
	DianEnvProduction = "production"

	EInvoicePending  = "PENDING"
	EInvoiceSent     = "SENT"
	EInvoiceAccepted = "ACCEPTED"
	EInvoiceRejected = "REJECTED"
)

// DianConfiguration is the single row holding the company's DIAN software credentials
type DianConfiguration struct {
	Base
	Environment  string       `gorm:"type:varchar(20);not null;default:'test'" json:"environment"`
	CompanyNIT   string       `gorm:"type:varchar(20)" json:"company_nit"`
	CompanyDV    string       `gorm:"type:varchar(1)" json:"company_dv"`
	SoftwareID   string       `gorm:"type:varchar(100)" json:"software_id"`
	SoftwarePIN  string       `gorm:"type:varchar(50)" json:"-"`
	TestSetID    string       `gorm:"type:varchar(100)" json:"test_set_id"`
	TechnicalKey string       `gorm:"type:varchar(255)" json:"-"`
	ProviderID   *uuid.UUID   `gorm:"type:uuid" json:"provider_id"`
	Provider     *TaxProvider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	IsActive     bool         `gorm:"default:false" json:"is_active"`
}

// TaxProvider is the authorized technology provider that relays invoices to DIAN
type TaxProvider struct {
	Base
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	NIT      string `gorm:"type:varchar(20)" json:"nit"`
	APIURL   string `gorm:"type:varchar(255)" json:"api_url"`
	Username string `gorm:"type:varchar(100)" json:"username"`
	Password string `gorm:"type:varchar(255)" json:"-"`
	APIKey   string `gorm:"type:varchar(255)" json:"-"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// InvoiceType is a DIAN document type (01 sale, 02 export, 03 contingency, 91 credit note, 92 debit note)
type InvoiceType struct {
	Base
	Code        string `gorm:"type:varchar(5);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

const (
	TaxIVA        = "IVA"
	TaxReteIVA    = "RETEIVA"
	TaxReteFuente = "RETEFUENTE"
	TaxReteICA    = "RETEICA"
)

type Tax struct {
	Base
	Code     string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name     string          `gorm:"type:varchar(100);not null" json:"name"`
	Type     string          `gorm:"type:varchar(20);not null" json:"type"`
	Rate     decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"rate"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}

// Resolution is a DIAN numbering authorization for a prefix and a closed number range
type Resolution struct {
	Base
	Number        string    `gorm:"type:varchar(50);not null" json:"number"`
	Prefix        string    `gorm:"type:varchar(10);not null;index" json:"prefix"`
	StartNumber   int64     `gorm:"not null" json:"start_number"`
	EndNumber     int64     `gorm:"not null" json:"end_number"`
	CurrentNumber int64     `gorm:"not null" json:"current_number"`
	ValidFrom     time.Time `gorm:"not null" json:"valid_from"`
	ValidTo       time.Time `gorm:"not null" json:"valid_to"`
	TechnicalKey  string    `gorm:"type:varchar(255)" json:"-"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
}

// Remaining returns how many numbers can still be issued
func (r *Resolution) Remaining() int64 {
	if r.CurrentNumber > r.EndNumber {
		return 0
	}
	return r.EndNumber - r.CurrentNumber + 1
}

// ValidAt reports whether t falls inside the authorization dates. ValidTo covers its whole day.
func (r *Resolution) ValidAt(t time.Time) bool {
	return !t.Before(r.ValidFrom) && t.Before(r.ValidTo.AddDate(0, 0, 1))
}

// ElectronicInvoice is the DIAN submission of a sale
type ElectronicInvoice struct {
	Base
	SaleID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	Sale            *Sale       `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	InvoiceTypeCode string      `gorm:"type:varchar(5);not null;default:'01'" json:"invoice_type_code"`
	ResolutionID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"resolution_id"`
	Resolution      *Resolution `gorm:"foreignKey:ResolutionID" json:"resolution,omitempty"`
	Number          string      `gorm:"type:varchar(30);not null;index" json:"number"`
	CUFE            string      `gorm:"type:varchar(96);index" json:"cufe"`
	DianUUID        string      `gorm:"type:varchar(100)" json:"dian_uuid"`
	Status          string      `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Attempts        int         `gorm:"type:int;not null;default:0" json:"attempts"`
	ResponseMessage string      `gorm:"type:text" json:"response_message"`
	SentAt          *time.Time  `json:"sent_at"`
}

// MarshalJSON masks the provider secrets while still signalling that they are set.
func (p TaxProvider) MarshalJSON() ([]byte, error) {
	type alias TaxProvider
	return json.Marshal(struct {
		alias
		HasPassword bool `json:"has_password"`
		HasAPIKey   bool `json:"has_api_key"`
	}{alias(p), p.Password != "", p.APIKey != ""})
}
