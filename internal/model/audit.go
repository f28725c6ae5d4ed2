package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionLogin            = "LOGIN"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionToggleUser       = "TOGGLE_USER"
	ActionUpdateRole       = "UPDATE_ROLE_PERMISSIONS"
	ActionCreateProduct    = "CREATE_PRODUCT"
	ActionUpdateProduct    = "UPDATE_PRODUCT"
	ActionDeleteProduct    = "DELETE_PRODUCT"
	ActionAdjustStock      = "ADJUST_STOCK"
	ActionTransferStock    = "TRANSFER_STOCK"
	ActionRegisterSerials  = "REGISTER_SERIALS"
	ActionCreateCustomer   = "CREATE_CUSTOMER"
	ActionUpdateCustomer   = "UPDATE_CUSTOMER"
	ActionDeleteCustomer   = "DELETE_CUSTOMER"
	ActionCreateSale       = "CREATE_SALE"
	ActionCancelSale       = "CANCEL_SALE"
	ActionCreatePurchase   = "CREATE_PURCHASE"
	ActionCancelPurchase   = "CANCEL_PURCHASE"
	ActionCreateAccount    = "CREATE_ACCOUNT"
	ActionUpdateAccount    = "UPDATE_ACCOUNT"
	ActionDeleteAccount    = "DELETE_ACCOUNT"
	ActionClosePeriod      = "CLOSE_PERIOD"
	ActionReopenPeriod     = "REOPEN_PERIOD"
	ActionCreateEntry      = "CREATE_JOURNAL_ENTRY"
	ActionPostEntry        = "POST_JOURNAL_ENTRY"
	ActionReverseEntry     = "REVERSE_JOURNAL_ENTRY"
	ActionDeleteEntry      = "DELETE_JOURNAL_ENTRY"
	ActionUpdateSettings   = "UPDATE_SETTINGS"
	ActionSaveWarehouse    = "SAVE_WAREHOUSE"
	ActionSaveCatalog      = "SAVE_CATALOG_ITEM"
	ActionSaveCurrency     = "SAVE_CURRENCY"
	ActionRestoreBackup    = "RESTORE_BACKUP"
	ActionUpdateDianConfig = "UPDATE_DIAN_CONFIG"
	ActionSaveResolution   = "SAVE_RESOLUTION"
	ActionSaveProvider     = "SAVE_TAX_PROVIDER"
	ActionSendInvoice      = "SEND_ELECTRONIC_INVOICE"
	ActionCreatePeriod     = "CREATE_PERIOD"
	ActionToggleCustomer   = "TOGGLE_CUSTOMER"
	ActionToggleWarehouse  = "TOGGLE_WAREHOUSE"
	ActionDeleteCatalog    = "DELETE_CATALOG_ITEM"
	ActionChangePassword   = "CHANGE_PASSWORD"
	ActionCreateBackup     = "CREATE_BACKUP"
	ActionDeleteResolution = "DELETE_RESOLUTION"
	ActionDeleteProvider   = "DELETE_TAX_PROVIDER"
)

// AuditLog tracks who changed what and when
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
