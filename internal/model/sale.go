package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SaleTypeSale = "SALE"
	SaleTypePOS  = "POS"

	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"

	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentCredit   = "credit"
)

// Sale is a sales invoice, either from the back office or the POS
type Sale struct {
	Base
	InvoiceNumber   string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"`
	Type            string          `gorm:"type:varchar(10);not null;default:'SALE';index" json:"type"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer        *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Warehouse       *Warehouse      `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"tax_rate"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_paid"`
	Change          decimal.Decimal `gorm:"column:change_amount;type:decimal(18,4);not null;default:0" json:"change"`
	Status          string          `gorm:"type:varchar(20);not null;default:'COMPLETED';index" json:"status"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Details         []SaleDetail    `gorm:"foreignKey:SaleID" json:"details,omitempty"`
}

// SaleDetail is one line of a sale. UnitCost freezes the product cost for profit reports.
type SaleDetail struct {
	Base
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
	Serials         string          `gorm:"type:text" json:"serials,omitempty"`
}
