package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item or service. Prices 1-4 map to customer price levels.
type Product struct {
	Base
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Barcode     *string         `gorm:"type:varchar(100);uniqueIndex" json:"barcode"`
	Name        string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BrandID     *uuid.UUID      `gorm:"type:uuid;index" json:"brand_id"`
	Brand       *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	GroupID     *uuid.UUID      `gorm:"type:uuid" json:"group_id"`
	Group       *ProductGroup   `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	LineID      *uuid.UUID      `gorm:"type:uuid" json:"line_id"`
	Line        *ProductLine    `gorm:"foreignKey:LineID" json:"line,omitempty"`
	UnitMeasure string          `gorm:"type:varchar(20);default:'UND'" json:"unit_measure"`
	Cost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost"`
	Price1      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price1"`
	Price2      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price2"`
	Price3      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price3"`
	Price4      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price4"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"tax_rate"`
	IsService   bool            `gorm:"default:false" json:"is_service"`
	TrackSerial bool            `gorm:"default:false" json:"track_serial"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
}

// PriceForLevel returns the price of the customer price level, falling back to Price1.
func (p *Product) PriceForLevel(level int) decimal.Decimal {
	var price decimal.Decimal
	switch level {
	case 2:
		price = p.Price2
	case 3:
		price = p.Price3
	case 4:
		price = p.Price4
	default:
		price = p.Price1
	}
	if price.IsZero() {
		return p.Price1
	}
	return price
}

// Inventory holds the quantity of a product in one warehouse
type Inventory struct {
	Base
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_warehouse" json:"warehouse_id"`
	Warehouse   *Warehouse      `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	MinStock    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"min_stock"`
	MaxStock    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"max_stock"`
	Location    string          `gorm:"type:varchar(50)" json:"location"`
}

func (Inventory) TableName() string { return "inventory" }

// IsLow reports whether the quantity reached the configured minimum
func (i *Inventory) IsLow() bool {
	return i.MinStock.IsPositive() && i.Quantity.LessThanOrEqual(i.MinStock)
}

const (
	SerialAvailable = "available"
	SerialSold      = "sold"
	SerialReserved  = "reserved"
)

// SerialNumber identifies a single unit of a serial-tracked product
type SerialNumber struct {
	Base
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Serial      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial"`
	Status      string     `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	SaleID      *uuid.UUID `gorm:"type:uuid;index" json:"sale_id"`
}

const (
	MovementIn          = "IN"
	MovementOut         = "OUT"
	MovementAdjust      = "ADJUST"
	MovementTransferIn  = "TRANSFER_IN"
	MovementTransferOut = "TRANSFER_OUT"
)

// StockMovement is the kardex line written for every inventory change
type StockMovement struct {
	Base
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Type        string          `gorm:"type:varchar(20);not null" json:"type"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock_after"`
	Reference   string          `gorm:"type:varchar(100);index" json:"reference"`
	UserID      *uuid.UUID      `gorm:"type:uuid" json:"user_id"`
}
