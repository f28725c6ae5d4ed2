package model

// Warehouse is a physical stock location (store, back room, depot)
type Warehouse struct {
	Base
	Code        string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Address     string `gorm:"type:varchar(255)" json:"address"`
	Phone       string `gorm:"type:varchar(50)" json:"phone"`
	Responsible string `gorm:"type:varchar(120)" json:"responsible"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// CatalogItem is the shared shape of the product classification tables:
// Category, Brand, ProductGroup and ProductLine.
type CatalogItem struct {
	Base
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

type Category struct{ CatalogItem }

type Brand struct{ CatalogItem }

type ProductGroup struct{ CatalogItem }

type ProductLine struct{ CatalogItem }

const (
	CatalogCategories = "categories"
	CatalogBrands     = "brands"
	CatalogGroups     = "groups"
	CatalogLines      = "lines"
)

// CatalogTables maps a catalog kind to its table
var CatalogTables = map[string]string{
	CatalogCategories: "categories",
	CatalogBrands:     "brands",
	CatalogGroups:     "product_groups",
	CatalogLines:      "product_lines",
}
