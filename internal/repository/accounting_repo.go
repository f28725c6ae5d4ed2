package repository

import (
	"context"
	"time"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkNonDetail(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByCode(ctx context.Context, code string) (*model.Account, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Account, error)
	CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, accountType, search string, detailOnly bool) ([]model.Account, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	CountMovements(ctx context.Context, id uuid.UUID) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Save(account).Error
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Account{}).Error
}

func (r *accountRepository) MarkNonDetail(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Account{}).Where("id = ?", id).Update("is_detail", false).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByCode(ctx context.Context, code string) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Account, error) {
	accounts := []model.Account{}
	if len(ids) == 0 {
		return accounts, nil
	}
	err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Account{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) List(ctx context.Context, accountType, search string, detailOnly bool) ([]model.Account, error) {
	accounts := []model.Account{}
	db := GetDB(ctx, r.db)
	if accountType != "" {
		db = db.Where("type = ?", accountType)
	}
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("code LIKE ? OR LOWER(name) LIKE LOWER(?)", like, like)
	}
	if detailOnly {
		db = db.Where("is_detail = ? AND is_active = ?", true, true)
	}
	err := db.Order("code asc").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Account{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *accountRepository) CountMovements(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.JournalEntryDetail{}).Where("account_id = ?", id).Count(&count).Error
	return count, err
}

type PeriodRepository interface {
	Create(ctx context.Context, period *model.AccountingPeriod) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AccountingPeriod, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AccountingPeriod, error)
	FindByYearMonth(ctx context.Context, year, month int) (*model.AccountingPeriod, error)
	List(ctx context.Context, year int) ([]model.AccountingPeriod, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string, closedAt *time.Time) error
}

type periodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) PeriodRepository {
	return &periodRepository{db: db}
}

func (r *periodRepository) Create(ctx context.Context, period *model.AccountingPeriod) error {
	return GetDB(ctx, r.db).Create(period).Error
}

func (r *periodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AccountingPeriod, error) {
	var period model.AccountingPeriod
	if err := GetDB(ctx, r.db).First(&period, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AccountingPeriod, error) {
	var period model.AccountingPeriod
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&period, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepository) FindByYearMonth(ctx context.Context, year, month int) (*model.AccountingPeriod, error) {
	var period model.AccountingPeriod
	if err := GetDB(ctx, r.db).Where("year = ? AND month = ?", year, month).First(&period).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepository) List(ctx context.Context, year int) ([]model.AccountingPeriod, error) {
	periods := []model.AccountingPeriod{}
	db := GetDB(ctx, r.db)
	if year > 0 {
		db = db.Where("year = ?", year)
	}
	err := db.Order("year desc, month desc").Find(&periods).Error
	return periods, err
}

func (r *periodRepository) SetStatus(ctx context.Context, id uuid.UUID, status string, closedAt *time.Time) error {
	return GetDB(ctx, r.db).Model(&model.AccountingPeriod{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "closed_at": closedAt}).Error
}

type JournalFilter struct {
	PeriodID *uuid.UUID
	Status   string
	From     *time.Time
	To       *time.Time
	Search   string
}

type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error)
	MarkPosted(ctx context.Context, id uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int, filter JournalFilter) ([]model.JournalEntry, int64, error)
	CountByStatus(ctx context.Context, periodID uuid.UUID, status string) (int64, error)
	LedgerLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]LedgerRow, error)
	OpeningBalance(ctx context.Context, accountID uuid.UUID, before time.Time) (debit, credit string, err error)
}

// LedgerRow is one posted movement of an account
type LedgerRow struct {
	EntryID     uuid.UUID
	EntryNumber string
	Date        time.Time
	Description string
	Reference   string
	Debit       string
	Credit      string
}

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return GetDB(ctx, r.db).Omit("Period").Create(entry).Error
}

func (r *journalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).
		Preload("Details").Preload("Details.Account").Preload("Period").
		First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Preload("Account").Where("journal_entry_id = ?", id).Find(&entry.Details).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) MarkPosted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.JournalEntry{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.EntryPosted, "posted_at": at}).Error
}

func (r *journalRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.JournalEntry{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes a draft entry and its lines
func (r *journalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("journal_entry_id = ?", id).Delete(&model.JournalEntryDetail{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.JournalEntry{}).Error
}

func (r *journalRepository) List(ctx context.Context, page, limit int, filter JournalFilter) ([]model.JournalEntry, int64, error) {
	var entries []model.JournalEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.JournalEntry{})
	if filter.PeriodID != nil {
		db = db.Where("period_id = ?", *filter.PeriodID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date < ?", *filter.To)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("LOWER(description) LIKE LOWER(?) OR entry_number LIKE ? OR reference LIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("date desc, entry_number desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *journalRepository) CountByStatus(ctx context.Context, periodID uuid.UUID, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.JournalEntry{}).
		Where("period_id = ? AND status = ?", periodID, status).Count(&count).Error
	return count, err
}

// postedStatuses are the entries whose lines hit the ledger; a reversed entry
// stays in the ledger next to its mirror.
var postedStatuses = []string{model.EntryPosted, model.EntryReversed}

func (r *journalRepository) LedgerLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]LedgerRow, error) {
	rows := []LedgerRow{}
	db := GetDB(ctx, r.db).Table("journal_entry_details d").
		Select("e.id AS entry_id, e.entry_number, e.date, COALESCE(NULLIF(d.description, ''), e.description) AS description, e.reference, CAST(d.debit AS TEXT) AS debit, CAST(d.credit AS TEXT) AS credit").
		Joins("JOIN journal_entries e ON e.id = d.journal_entry_id").
		Where("d.account_id = ? AND e.status IN ?", accountID, postedStatuses)
	if from != nil {
		db = db.Where("e.date >= ?", *from)
	}
	if to != nil {
		db = db.Where("e.date < ?", *to)
	}
	err := db.Order("e.date asc, e.entry_number asc").Scan(&rows).Error
	return rows, err
}

func (r *journalRepository) OpeningBalance(ctx context.Context, accountID uuid.UUID, before time.Time) (string, string, error) {
	var result struct {
		Debit  string
		Credit string
	}
	err := GetDB(ctx, r.db).Table("journal_entry_details d").
		Select("CAST(COALESCE(SUM(d.debit), 0) AS TEXT) AS debit, CAST(COALESCE(SUM(d.credit), 0) AS TEXT) AS credit").
		Joins("JOIN journal_entries e ON e.id = d.journal_entry_id").
		Where("d.account_id = ? AND e.status IN ? AND e.date < ?", accountID, postedStatuses, before).
		Scan(&result).Error
	return result.Debit, result.Credit, err
}

type BalanceRepository interface {
	// FindForUpdate returns the locked balance row, creating an empty one first when missing
	FindForUpdate(ctx context.Context, accountID, periodID uuid.UUID) (*model.AccountBalance, error)
	Save(ctx context.Context, balance *model.AccountBalance) error
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]model.AccountBalance, error)
}

type balanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepository{db: db}
}

func (r *balanceRepository) FindForUpdate(ctx context.Context, accountID, periodID uuid.UUID) (*model.AccountBalance, error) {
	db := GetDB(ctx, r.db)
	empty := model.AccountBalance{AccountID: accountID, PeriodID: periodID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&empty).Error; err != nil {
		return nil, err
	}

	var balance model.AccountBalance
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND period_id = ?", accountID, periodID).
		First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *balanceRepository) Save(ctx context.Context, balance *model.AccountBalance) error {
	return GetDB(ctx, r.db).Model(&model.AccountBalance{}).Where("id = ?", balance.ID).
		Updates(map[string]interface{}{
			"debit":   balance.Debit,
			"credit":  balance.Credit,
			"balance": balance.Balance,
		}).Error
}

func (r *balanceRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]model.AccountBalance, error) {
	balances := []model.AccountBalance{}
	err := GetDB(ctx, r.db).Preload("Account").Where("period_id = ?", periodID).Find(&balances).Error
	return balances, err
}
