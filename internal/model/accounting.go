package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountTypeAsset     = "ACTIVO"
	AccountTypeLiability = "PASIVO"
	AccountTypeEquity    = "PATRIMONIO"
	AccountTypeIncome    = "INGRESO"
	AccountTypeExpense   = "GASTO"
	AccountTypeCost      = "COSTO"

	NatureDebit  = "DEBIT"
	NatureCredit = "CREDIT"
)

// Account is a node of the chart of accounts (PUC). Only detail accounts take movements.
type Account struct {
	Base
	Code     string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name     string     `gorm:"type:varchar(200);not null" json:"name"`
	Type     string     `gorm:"type:varchar(20);not null;index" json:"type"`
	Nature   string     `gorm:"type:varchar(10);not null" json:"nature"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Level    int        `gorm:"type:int;not null;default:1" json:"level"`
	IsDetail bool       `gorm:"not null" json:"is_detail"`
	IsActive bool       `gorm:"default:true" json:"is_active"`
	Children []Account  `gorm:"-" json:"children,omitempty"`
}

func (Account) TableName() string { return "chart_of_accounts" }

const (
	PeriodOpen   = "OPEN"
	PeriodClosed = "CLOSED"
)

// AccountingPeriod is a calendar month in which entries are posted
type AccountingPeriod struct {
	Base
	Year      int        `gorm:"type:int;not null;uniqueIndex:idx_period_year_month" json:"year"`
	Month     int        `gorm:"type:int;not null;uniqueIndex:idx_period_year_month" json:"month"`
	Name      string     `gorm:"type:varchar(50)" json:"name"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   time.Time  `gorm:"not null" json:"end_date"`
	Status    string     `gorm:"type:varchar(10);not null;default:'OPEN'" json:"status"`
	ClosedAt  *time.Time `json:"closed_at"`
}

var monthNames = [...]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// NewAccountingPeriod builds the open period covering the given calendar month
func NewAccountingPeriod(year, month int) AccountingPeriod {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return AccountingPeriod{
		Year:      year,
		Month:     month,
		Name:      fmt.Sprintf("%s %d", monthNames[month-1], year),
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
		Status:    PeriodOpen,
	}
}

const (
	EntryDraft    = "DRAFT"
	EntryPosted   = "POSTED"
	EntryReversed = "REVERSED"
)

// JournalEntry is a double-entry voucher; TotalDebit always equals TotalCredit
type JournalEntry struct {
	Base
	EntryNumber  string               `gorm:"type:varchar(20);uniqueIndex;not null" json:"entry_number"`
	Date         time.Time            `gorm:"not null;index" json:"date"`
	PeriodID     uuid.UUID            `gorm:"type:uuid;not null;index" json:"period_id"`
	Period       *AccountingPeriod    `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
	Description  string               `gorm:"type:text;not null" json:"description"`
	Reference    string               `gorm:"type:varchar(100)" json:"reference"`
	Status       string               `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`
	TotalDebit   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0" json:"total_debit"`
	TotalCredit  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0" json:"total_credit"`
	UserID       *uuid.UUID           `gorm:"type:uuid" json:"user_id"`
	ReversalOfID *uuid.UUID           `gorm:"type:uuid" json:"reversal_of_id"`
	PostedAt     *time.Time           `json:"posted_at"`
	Details      []JournalEntryDetail `gorm:"foreignKey:JournalEntryID" json:"details,omitempty"`
}

type JournalEntryDetail struct {
	Base
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"journal_entry_id"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Account        *Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Description    string          `gorm:"type:varchar(255)" json:"description"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit"`
}

// AccountBalance accumulates posted movements of an account within a period
type AccountBalance struct {
	Base
	AccountID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_account_period" json:"account_id"`
	Account   *Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	PeriodID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_account_period" json:"period_id"`
	Debit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit"`
	Credit    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"balance"`
}

// Apply adds a movement and recomputes the balance according to the account nature
func (b *AccountBalance) Apply(nature string, debit, credit decimal.Decimal) {
	b.Debit = b.Debit.Add(debit)
	b.Credit = b.Credit.Add(credit)
	if nature == NatureCredit {
		b.Balance = b.Credit.Sub(b.Debit)
	} else {
		b.Balance = b.Debit.Sub(b.Credit)
	}
}
