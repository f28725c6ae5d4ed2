package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"contapos/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed data/geography.yaml
var geographyYAML []byte

//go:embed data/puc.yaml
var pucYAML []byte

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	MainWarehouseCode    = "BOD-001"
)

// PermissionDef is a permission code with its display name and group
type PermissionDef struct {
	Code  string
	Name  string
	Group string
}

var Permissions = []PermissionDef{
	{"dashboard.read", "Ver tablero", "dashboard"},
	{"inventory.read", "Ver inventario", "inventory"},
	{"inventory.write", "Gestionar productos y existencias", "inventory"},
	{"sales.read", "Ver ventas", "sales"},
	{"sales.write", "Registrar ventas", "sales"},
	{"sales.cancel", "Anular ventas", "sales"},
	{"pos.use", "Usar punto de venta", "pos"},
	{"purchases.read", "Ver compras", "purchases"},
	{"purchases.write", "Registrar compras", "purchases"},
	{"customers.read", "Ver terceros", "customers"},
	{"customers.write", "Gestionar terceros", "customers"},
	{"users.read", "Ver usuarios", "users"},
	{"users.write", "Gestionar usuarios", "users"},
	{"roles.write", "Gestionar roles y permisos", "users"},
	{"reports.read", "Ver reportes", "reports"},
	{"settings.read", "Ver configuración", "settings"},
	{"settings.write", "Modificar configuración", "settings"},
	{"backup.write", "Crear y restaurar copias de seguridad", "settings"},
	{"accounting.read", "Ver contabilidad", "accounting"},
	{"accounting.write", "Registrar asientos contables", "accounting"},
	{"accounting.close", "Cerrar y reabrir periodos", "accounting"},
	{"dian.read", "Ver facturación electrónica", "dian"},
	{"dian.write", "Configurar y enviar facturación electrónica", "dian"},
	{"audit.read", "Ver auditoría", "audit"},
}

// rolePermissions maps the system roles to their codes; admin receives every code
var rolePermissions = map[string][]string{
	model.RoleManager: {
		"dashboard.read", "inventory.read", "inventory.write", "sales.read", "sales.write", "sales.cancel",
		"pos.use", "purchases.read", "purchases.write", "customers.read", "customers.write", "users.read",
		"reports.read", "settings.read", "accounting.read", "accounting.write", "dian.read", "dian.write", "audit.read",
	},
	model.RoleEmployee: {
		"dashboard.read", "inventory.read", "sales.read", "sales.write", "pos.use", "customers.read", "customers.write",
	},
}

var defaultSettings = []model.Setting{
	{Key: model.SettingCompanyName, Value: "Mi Empresa S.A.S.", Category: "company", Description: "Razón social"},
	{Key: model.SettingCompanyAddress, Value: "", Category: "company", Description: "Dirección"},
	{Key: model.SettingCompanyPhone, Value: "", Category: "company", Description: "Teléfono"},
	{Key: model.SettingCompanyEmail, Value: "", Category: "company", Description: "Correo electrónico"},
	{Key: model.SettingCompanyTaxID, Value: "", Category: "company", Description: "NIT"},
	{Key: model.SettingTaxRate, Value: "19", Category: "billing", Description: "Porcentaje de IVA por defecto"},
	{Key: model.SettingCurrencySymbol, Value: "$", Category: "billing", Description: "Símbolo de moneda"},
	{Key: model.SettingInvoiceFooter, Value: "Gracias por su compra", Category: "billing", Description: "Pie de factura"},
	{Key: model.SettingLowStockAlertEmail, Value: "", Category: "notifications", Description: "Destinatario de alertas de stock bajo"},
}

type geography struct {
	Departments []struct {
		Code   string `yaml:"code"`
		Name   string `yaml:"name"`
		Cities []struct {
			Code string `yaml:"code"`
			Name string `yaml:"name"`
		} `yaml:"cities"`
	} `yaml:"departments"`
}

type accountNode struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Type     string        `yaml:"type"`
	Nature   string        `yaml:"nature"`
	Children []accountNode `yaml:"children"`
}

// Seed loads the reference data an empty installation needs. Every step is idempotent.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	steps := []struct {
		name string
		fn   func(tx *gorm.DB) error
	}{
		{"permissions", seedPermissions},
		{"warehouse", seedMainWarehouse},
		{"admin", seedAdmin},
		{"settings", seedSettings},
		{"currencies", seedCurrencies},
		{"geography", seedGeography},
		{"chart of accounts", seedChartOfAccounts},
		{"current period", seedCurrentPeriod},
		{"dian catalog", SeedDianCatalog},
	}

	for _, step := range steps {
		if err := db.WithContext(ctx).Transaction(step.fn); err != nil {
			return fmt.Errorf("failed to seed %s: %w", step.name, err)
		}
		log.Debug("seed step done", zap.String("step", step.name))
	}
	log.Info("database seeded")
	return nil
}

func seedPermissions(tx *gorm.DB) error {
	byCode := make(map[string]model.Permission, len(Permissions))
	for _, def := range Permissions {
		perm := model.Permission{Code: def.Code, Name: def.Name, Group: def.Group}
		if err := tx.Where("code = ?", def.Code).FirstOrCreate(&perm).Error; err != nil {
			return err
		}
		byCode[def.Code] = perm
	}

	roles := []struct {
		name, description string
	}{
		{model.RoleAdmin, "Administrador del sistema"},
		{model.RoleManager, "Gerente de tienda"},
		{model.RoleEmployee, "Cajero / vendedor"},
	}
	for _, r := range roles {
		role := model.Role{Name: r.name, Description: r.description, IsSystem: true}
		if err := tx.Where("name = ?", r.name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
		if tx.Model(&role).Association("Permissions").Count() > 0 {
			continue
		}

		var perms []model.Permission
		if r.name == model.RoleAdmin {
			for _, def := range Permissions {
				perms = append(perms, byCode[def.Code])
			}
		} else {
			for _, code := range rolePermissions[r.name] {
				perms = append(perms, byCode[code])
			}
		}
		if err := tx.Model(&role).Association("Permissions").Append(perms); err != nil {
			return err
		}
	}
	return nil
}

func seedMainWarehouse(tx *gorm.DB) error {
	wh := model.Warehouse{Code: MainWarehouseCode, Name: "Bodega Principal", IsActive: true}
	return tx.Where("code = ?", MainWarehouseCode).FirstOrCreate(&wh).Error
}

func seedAdmin(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("username = ?", DefaultAdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var wh model.Warehouse
	if err := tx.Where("code = ?", MainWarehouseCode).First(&wh).Error; err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return tx.Create(&model.User{
		Username:    DefaultAdminUsername,
		Email:       "admin@contapos.local",
		FullName:    "Administrador",
		Password:    string(hashed),
		Role:        model.RoleAdmin,
		WarehouseID: &wh.ID,
		Theme:       "blue",
		IsActive:    true,
	}).Error
}

func seedSettings(tx *gorm.DB) error {
	for _, s := range defaultSettings {
		setting := s
		if err := tx.Where("key = ?", s.Key).FirstOrCreate(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCurrencies(tx *gorm.DB) error {
	currencies := []model.Currency{
		{Code: "COP", Name: "Peso colombiano", Symbol: "$", ExchangeRate: decimal.NewFromInt(1), IsDefault: true, IsActive: true},
		{Code: "USD", Name: "Dólar estadounidense", Symbol: "US$", ExchangeRate: decimal.NewFromInt(4200), IsActive: true},
		{Code: "EUR", Name: "Euro", Symbol: "€", ExchangeRate: decimal.NewFromInt(4500), IsActive: true},
	}
	for _, c := range currencies {
		currency := c
		if err := tx.Where("code = ?", c.Code).FirstOrCreate(&currency).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedGeography(tx *gorm.DB) error {
	var geo geography
	if err := yaml.Unmarshal(geographyYAML, &geo); err != nil {
		return fmt.Errorf("invalid geography data: %w", err)
	}

	for _, d := range geo.Departments {
		dept := model.Department{Code: d.Code, Name: d.Name}
		if err := tx.Where("code = ?", d.Code).FirstOrCreate(&dept).Error; err != nil {
			return err
		}
		for _, c := range d.Cities {
			city := model.City{Code: c.Code, Name: c.Name, DepartmentID: dept.ID}
			if err := tx.Where("code = ?", c.Code).FirstOrCreate(&city).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedChartOfAccounts(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.Account{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var chart struct {
		Accounts []accountNode `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(pucYAML, &chart); err != nil {
		return fmt.Errorf("invalid chart of accounts data: %w", err)
	}

	var create func(node accountNode, parent *model.Account) error
	create = func(node accountNode, parent *model.Account) error {
		acc := model.Account{
			Code:     node.Code,
			Name:     node.Name,
			Type:     node.Type,
			Nature:   node.Nature,
			Level:    1,
			IsDetail: len(node.Children) == 0,
			IsActive: true,
		}
		if parent != nil {
			acc.ParentID = &parent.ID
			acc.Level = parent.Level + 1
			if acc.Type == "" {
				acc.Type = parent.Type
			}
			if acc.Nature == "" {
				acc.Nature = parent.Nature
			}
		}
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		for _, child := range node.Children {
			if err := create(child, &acc); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range chart.Accounts {
		if err := create(root, nil); err != nil {
			return err
		}
	}
	return nil
}

func seedCurrentPeriod(tx *gorm.DB) error {
	now := time.Now()
	period := model.NewAccountingPeriod(now.Year(), int(now.Month()))
	return tx.Where("year = ? AND month = ?", period.Year, period.Month).FirstOrCreate(&period).Error
}

// SeedDianCatalog creates the DIAN invoice types and taxes that are missing
func SeedDianCatalog(tx *gorm.DB) error {
	types := []model.InvoiceType{
		{Code: "01", Name: "Factura electrónica de venta", IsActive: true},
		{Code: "02", Name: "Factura electrónica de exportación", IsActive: true},
		{Code: "03", Name: "Factura de contingencia", IsActive: true},
		{Code: "91", Name: "Nota crédito", IsActive: true},
		{Code: "92", Name: "Nota débito", IsActive: true},
	}
	for _, t := range types {
		it := t
		if err := tx.Where("code = ?", t.Code).FirstOrCreate(&it).Error; err != nil {
			return err
		}
	}

	taxes := []model.Tax{
		{Code: "IVA0", Name: "IVA 0% (excluido)", Type: model.TaxIVA, Rate: decimal.Zero, IsActive: true},
		{Code: "IVA5", Name: "IVA 5%", Type: model.TaxIVA, Rate: decimal.NewFromInt(5), IsActive: true},
		{Code: "IVA19", Name: "IVA 19%", Type: model.TaxIVA, Rate: decimal.NewFromInt(19), IsActive: true},
		{Code: "RETEIVA15", Name: "Retención de IVA 15%", Type: model.TaxReteIVA, Rate: decimal.NewFromInt(15), IsActive: true},
		{Code: "RETEFUENTE3.5", Name: "Retención en la fuente 3.5%", Type: model.TaxReteFuente, Rate: decimal.RequireFromString("3.5"), IsActive: true},
		{Code: "RETEICA1", Name: "Retención de ICA 1%", Type: model.TaxReteICA, Rate: decimal.NewFromInt(1), IsActive: true},
	}
	for _, t := range taxes {
		tax := t
		if err := tx.Where("code = ?", t.Code).FirstOrCreate(&tax).Error; err != nil {
			return err
		}
	}
	return nil
}
