package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseStatusReceived  = "RECEIVED"
	PurchaseStatusCancelled = "CANCELLED"
)

// Purchase records merchandise received from a supplier
type Purchase struct {
	Base
	PurchaseNumber  string           `gorm:"type:varchar(20);uniqueIndex;not null" json:"purchase_number"`
	SupplierID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier        *Customer        `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	WarehouseID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Warehouse       *Warehouse       `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	UserID          *uuid.UUID       `gorm:"type:uuid" json:"user_id"`
	SupplierInvoice string           `gorm:"type:varchar(50)" json:"supplier_invoice"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	TaxRate         decimal.Decimal  `gorm:"type:decimal(6,2);not null;default:0" json:"tax_rate"`
	TaxAmount       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Total           decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Status          string           `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	Notes           string           `gorm:"type:text" json:"notes"`
	Details         []PurchaseDetail `gorm:"foreignKey:PurchaseID" json:"details,omitempty"`
}

type PurchaseDetail struct {
	Base
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
}
