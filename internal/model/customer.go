package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CustomerTypeClient   = "client"
	CustomerTypeSupplier = "supplier"
	CustomerTypeEmployee = "employee"
	CustomerTypeOther    = "other"
)

// Identity document types accepted by DIAN
const (
	DocCC  = "CC"
	DocNIT = "NIT"
	DocCE  = "CE"
	DocPP  = "PP"
	DocTI  = "TI"
)

func IsValidCustomerType(t string) bool {
	switch t {
	case CustomerTypeClient, CustomerTypeSupplier, CustomerTypeEmployee, CustomerTypeOther:
		return true
	}
	return false
}

// Customer is the unified party table: clients, suppliers and employees
type Customer struct {
	Base
	Type              string          `gorm:"type:varchar(20);not null;default:'client';index" json:"type"`
	DocumentType      string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_customer_document" json:"document_type"`
	DocumentNumber    string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_customer_document" json:"document_number"`
	VerificationDigit string          `gorm:"type:varchar(1)" json:"verification_digit"`
	FirstName         string          `gorm:"type:varchar(100)" json:"first_name"`
	MiddleName        string          `gorm:"type:varchar(100)" json:"middle_name"`
	LastName          string          `gorm:"type:varchar(100)" json:"last_name"`
	SecondLastName    string          `gorm:"type:varchar(100)" json:"second_last_name"`
	BusinessName      string          `gorm:"type:varchar(200)" json:"business_name"`
	FullName          string          `gorm:"type:varchar(300);not null;index" json:"full_name"`
	Email             string          `gorm:"type:varchar(120)" json:"email"`
	Phone             string          `gorm:"type:varchar(50)" json:"phone"`
	Mobile            string          `gorm:"type:varchar(50)" json:"mobile"`
	Address           string          `gorm:"type:varchar(255)" json:"address"`
	DepartmentID      *uuid.UUID      `gorm:"type:uuid" json:"department_id"`
	Department        *Department     `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	CityID            *uuid.UUID      `gorm:"type:uuid" json:"city_id"`
	City              *City           `gorm:"foreignKey:CityID" json:"city,omitempty"`
	CreditLimit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit_limit"`
	CreditDays        int             `gorm:"type:int;not null;default:0" json:"credit_days"`
	PriceLevel        int             `gorm:"type:int;not null;default:1" json:"price_level"`
	Notes             string          `gorm:"type:text" json:"notes"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
}

// ComposeFullName returns the business name, or the person's names joined by spaces
func (c *Customer) ComposeFullName() string {
	if strings.TrimSpace(c.BusinessName) != "" {
		return strings.TrimSpace(c.BusinessName)
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{c.FirstName, c.MiddleName, c.LastName, c.SecondLastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Department is a Colombian department identified by its DANE code
type Department struct {
	Base
	Code string `gorm:"type:varchar(5);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

// City is a municipality identified by its DANE code
type City struct {
	Base
	Code         string      `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Name         string      `gorm:"type:varchar(100);not null" json:"name"`
	DepartmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}
