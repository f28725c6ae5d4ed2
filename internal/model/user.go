package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var Themes = []string{"blue", "green", "purple", "orange"}

func IsValidTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleEmployee
}

// User is a cashier, manager or administrator of the store
type User struct {
	Base
	Username    string         `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Email       string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	FullName    string         `gorm:"type:varchar(200)" json:"full_name"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	Role        string         `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	WarehouseID *uuid.UUID     `gorm:"type:uuid;index" json:"warehouse_id"`
	Warehouse   *Warehouse     `gorm:"foreignKey:WarehouseID" json:"warehouse,omitempty"`
	Theme       string         `gorm:"type:varchar(20);default:'blue'" json:"theme"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLogin   *time.Time     `json:"last_login"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
