package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contapos/internal/events"
	"contapos/internal/metrics"
	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateAccountRequest struct {
	Code     string `json:"code" binding:"required,numeric,max=20"`
	Name     string `json:"name" binding:"required,max=200"`
	Type     string `json:"type" binding:"omitempty,oneof=ACTIVO PASIVO PATRIMONIO INGRESO GASTO COSTO"`
	Nature   string `json:"nature" binding:"omitempty,oneof=DEBIT CREDIT"`
	ParentID string `json:"parent_id"`
}

type UpdateAccountRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	IsActive *bool  `json:"is_active"`
}

type CreatePeriodRequest struct {
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

type JournalLineRequest struct {
	AccountID   string          `json:"account_id" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type JournalEntryRequest struct {
	Date        string               `json:"date" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Reference   string               `json:"reference" binding:"max=100"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
	Post        bool                 `json:"post"`
}

type JournalListParams struct {
	PeriodID string
	Status   string
	From     string
	To       string
	Search   string
}

type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	Nature      string          `json:"nature"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type TrialBalance struct {
	Period      model.AccountingPeriod `json:"period"`
	Rows        []TrialBalanceRow      `json:"rows"`
	TotalDebit  decimal.Decimal        `json:"total_debit"`
	TotalCredit decimal.Decimal        `json:"total_credit"`
	Balanced    bool                   `json:"balanced"`
}

type LedgerLine struct {
	EntryID     uuid.UUID       `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type AccountLedger struct {
	Account        model.Account   `json:"account"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []LedgerLine    `json:"lines"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

type EntryEvent struct {
	EntryID     uuid.UUID `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
	Date        string    `json:"date"`
	Total       string    `json:"total"`
}

type AccountingService interface {
	CreateAccount(ctx context.Context, actorID string, req CreateAccountRequest) (*model.Account, error)
	ListAccounts(ctx context.Context, accountType, search string, detailOnly bool) ([]model.Account, error)
	AccountTree(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	UpdateAccount(ctx context.Context, actorID, id string, req UpdateAccountRequest) (*model.Account, error)
	DeleteAccount(ctx context.Context, actorID, id string) error

	CreatePeriod(ctx context.Context, actorID string, req CreatePeriodRequest) (*model.AccountingPeriod, error)
	ListPeriods(ctx context.Context, year int) ([]model.AccountingPeriod, error)
	CurrentPeriod(ctx context.Context) (*model.AccountingPeriod, error)
	ClosePeriod(ctx context.Context, actorID, id string) (*model.AccountingPeriod, error)
	ReopenPeriod(ctx context.Context, actorID, id string) (*model.AccountingPeriod, error)

	CreateJournalEntry(ctx context.Context, actorID string, req JournalEntryRequest) (*model.JournalEntry, error)
	ListJournalEntries(ctx context.Context, page, limit int, params JournalListParams) ([]model.JournalEntry, int64, error)
	GetJournalEntry(ctx context.Context, id string) (*model.JournalEntry, error)
	PostJournalEntry(ctx context.Context, actorID, id string) (*model.JournalEntry, error)
	ReverseJournalEntry(ctx context.Context, actorID, id string) (*model.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, actorID, id string) error

	TrialBalance(ctx context.Context, periodID string) (*TrialBalance, error)
	AccountLedger(ctx context.Context, accountID, from, to string) (*AccountLedger, error)
}

type accountingService struct {
	accountRepo  repository.AccountRepository
	periodRepo   repository.PeriodRepository
	journalRepo  repository.JournalRepository
	balanceRepo  repository.BalanceRepository
	sequenceRepo repository.SequenceRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     *Notifier
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewAccountingService(
	accountRepo repository.AccountRepository,
	periodRepo repository.PeriodRepository,
	journalRepo repository.JournalRepository,
	balanceRepo repository.BalanceRepository,
	sequenceRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier *Notifier,
	m *metrics.Metrics,
) AccountingService {
	return &accountingService{
		accountRepo:  accountRepo,
		periodRepo:   periodRepo,
		journalRepo:  journalRepo,
		balanceRepo:  balanceRepo,
		sequenceRepo: sequenceRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      m,
		now:          time.Now,
	}
}

// defaultNature follows the PUC: assets, expenses and costs are debit accounts
func defaultNature(accountType string) string {
	switch accountType {
	case model.AccountTypeAsset, model.AccountTypeExpense, model.AccountTypeCost:
		return model.NatureDebit
	}
	return model.NatureCredit
}

// --- Chart of accounts ---

func (s *accountingService) CreateAccount(ctx context.Context, actorID string, req CreateAccountRequest) (*model.Account, error) {
	code := strings.TrimSpace(req.Code)
	exists, err := s.accountRepo.CodeExists(ctx, code, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check account code: %w", err)
	}
	if exists {
		return nil, conflictError("account %s already exists", code)
	}

	account := &model.Account{
		Code:     code,
		Name:     strings.TrimSpace(req.Name),
		Type:     req.Type,
		Nature:   req.Nature,
		Level:    1,
		IsDetail: true,
		IsActive: true,
	}

	var parent *model.Account
	parentID, err := parseOptionalID(req.ParentID, "parent account")
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if parent, err = s.accountRepo.FindByID(ctx, *parentID); err != nil {
			return nil, notFound("parent account", err)
		}
		if !strings.HasPrefix(code, parent.Code) || code == parent.Code {
			return nil, validationError("account %s must extend its parent code %s", code, parent.Code)
		}
		if account.Type == "" {
			account.Type = parent.Type
		} else if account.Type != parent.Type {
			return nil, validationError("account type %s differs from parent type %s", account.Type, parent.Type)
		}
		if account.Nature == "" {
			account.Nature = parent.Nature
		}
		if parent.IsDetail {
			moves, err := s.accountRepo.CountMovements(ctx, parent.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check parent movements: %w", err)
			}
			if moves > 0 {
				return nil, fmt.Errorf("%w: parent account %s already has movements", ErrInvalidState, parent.Code)
			}
		}
		account.ParentID = &parent.ID
		account.Level = parent.Level + 1
	}
	if account.Type == "" {
		return nil, validationError("type is required for top level accounts")
	}
	if account.Nature == "" {
		account.Nature = defaultNature(account.Type)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accountRepo.Create(txCtx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		if parent != nil && parent.IsDetail {
			if err := s.accountRepo.MarkNonDetail(txCtx, parent.ID); err != nil {
				return fmt.Errorf("failed to update parent account: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateAccount, account.ID.String(), account.Code+" "+account.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountingService) ListAccounts(ctx context.Context, accountType, search string, detailOnly bool) ([]model.Account, error) {
	accounts, err := s.accountRepo.List(ctx, accountType, strings.TrimSpace(search), detailOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

// AccountTree nests the chart under its root accounts, ordered by code
func (s *accountingService) AccountTree(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accountRepo.List(ctx, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return buildAccountTree(accounts), nil
}

func buildAccountTree(accounts []model.Account) []model.Account {
	children := map[uuid.UUID][]model.Account{}
	known := make(map[uuid.UUID]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	var roots []model.Account
	for _, a := range accounts {
		if a.ParentID != nil && known[*a.ParentID] {
			children[*a.ParentID] = append(children[*a.ParentID], a)
		} else {
			roots = append(roots, a)
		}
	}

	var attach func(nodes []model.Account) []model.Account
	attach = func(nodes []model.Account) []model.Account {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
		for i := range nodes {
			if kids, ok := children[nodes[i].ID]; ok {
				nodes[i].Children = attach(kids)
			}
		}
		return nodes
	}
	return attach(roots)
}

func (s *accountingService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	accountID, err := parseID(id, "account")
	if err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, notFound("account", err)
	}
	return account, nil
}

func (s *accountingService) UpdateAccount(ctx context.Context, actorID, id string, req UpdateAccountRequest) (*model.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Name = strings.TrimSpace(req.Name)
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accountRepo.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateAccount, account.ID.String(), account.Code+" "+account.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountingService) DeleteAccount(ctx context.Context, actorID, id string) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.accountRepo.CountChildren(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("failed to check sub-accounts: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("%w: account %s has sub-accounts", ErrInvalidState, account.Code)
	}
	moves, err := s.accountRepo.CountMovements(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("failed to check movements: %w", err)
	}
	if moves > 0 {
		return fmt.Errorf("%w: account %s has movements", ErrInvalidState, account.Code)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accountRepo.Delete(txCtx, account.ID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteAccount, account.ID.String(), account.Code+" "+account.Name, nil)
	})
}

// --- Periods ---

func (s *accountingService) CreatePeriod(ctx context.Context, actorID string, req CreatePeriodRequest) (*model.AccountingPeriod, error) {
	_, err := s.periodRepo.FindByYearMonth(ctx, req.Year, req.Month)
	if err == nil {
		return nil, conflictError("period %d-%02d already exists", req.Year, req.Month)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check period: %w", err)
	}

	period := model.NewAccountingPeriod(req.Year, req.Month)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.periodRepo.Create(txCtx, &period); err != nil {
			return fmt.Errorf("failed to create period: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreatePeriod, period.ID.String(), period.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (s *accountingService) ListPeriods(ctx context.Context, year int) ([]model.AccountingPeriod, error) {
	periods, err := s.periodRepo.List(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch periods: %w", err)
	}
	return periods, nil
}

// CurrentPeriod returns this month's period, opening it on first use
func (s *accountingService) CurrentPeriod(ctx context.Context) (*model.AccountingPeriod, error) {
	now := s.now()
	period, err := s.periodRepo.FindByYearMonth(ctx, now.Year(), int(now.Month()))
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load current period: %w", err)
	}

	created := model.NewAccountingPeriod(now.Year(), int(now.Month()))
	if err := s.periodRepo.Create(ctx, &created); err != nil {
		// lost a race against a concurrent request
		if period, findErr := s.periodRepo.FindByYearMonth(ctx, now.Year(), int(now.Month())); findErr == nil {
			return period, nil
		}
		return nil, fmt.Errorf("failed to create current period: %w", err)
	}
	return &created, nil
}

func (s *accountingService) ClosePeriod(ctx context.Context, actorID, id string) (*model.AccountingPeriod, error) {
	periodID, err := parseID(id, "period")
	if err != nil {
		return nil, err
	}

	var period *model.AccountingPeriod
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if period, err = s.periodRepo.FindByIDForUpdate(txCtx, periodID); err != nil {
			return notFound("period", err)
		}
		if period.Status != model.PeriodOpen {
			return fmt.Errorf("%w: period %s is already closed", ErrInvalidState, period.Name)
		}
		drafts, err := s.journalRepo.CountByStatus(txCtx, period.ID, model.EntryDraft)
		if err != nil {
			return fmt.Errorf("failed to count draft entries: %w", err)
		}
		if drafts > 0 {
			return fmt.Errorf("%w: period %s still has %d draft entries", ErrInvalidState, period.Name, drafts)
		}

		closedAt := s.now()
		if err := s.periodRepo.SetStatus(txCtx, period.ID, model.PeriodClosed, &closedAt); err != nil {
			return fmt.Errorf("failed to close period: %w", err)
		}
		period.Status, period.ClosedAt = model.PeriodClosed, &closedAt
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionClosePeriod, period.ID.String(), period.Name, nil)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (s *accountingService) ReopenPeriod(ctx context.Context, actorID, id string) (*model.AccountingPeriod, error) {
	periodID, err := parseID(id, "period")
	if err != nil {
		return nil, err
	}

	var period *model.AccountingPeriod
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if period, err = s.periodRepo.FindByIDForUpdate(txCtx, periodID); err != nil {
			return notFound("period", err)
		}
		if period.Status != model.PeriodClosed {
			return fmt.Errorf("%w: period %s is open", ErrInvalidState, period.Name)
		}
		if err := s.periodRepo.SetStatus(txCtx, period.ID, model.PeriodOpen, nil); err != nil {
			return fmt.Errorf("failed to reopen period: %w", err)
		}
		period.Status, period.ClosedAt = model.PeriodOpen, nil
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionReopenPeriod, period.ID.String(), period.Name, nil)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// openPeriodFor finds the period containing date. The current month is opened
// on demand; any other month must have been created first.
func (s *accountingService) openPeriodFor(ctx context.Context, date time.Time) (*model.AccountingPeriod, error) {
	period, err := s.periodRepo.FindByYearMonth(ctx, date.Year(), int(date.Month()))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := s.now()
		if date.Year() != now.Year() || date.Month() != now.Month() {
			return nil, validationError("no accounting period for %s", date.Format("2006-01"))
		}
		period, err = s.CurrentPeriod(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load period: %w", err)
	}
	if period.Status != model.PeriodOpen {
		return nil, fmt.Errorf("%w: %s", ErrPeriodClosed, period.Name)
	}
	return period, nil
}

// --- Journal entries ---

// validateLines checks the double-entry rules and returns the detail rows with
// their debit and credit totals
func (s *accountingService) validateLines(ctx context.Context, lines []JournalLineRequest) ([]model.JournalEntryDetail, decimal.Decimal, decimal.Decimal, error) {
	if len(lines) < 2 {
		return nil, decimal.Zero, decimal.Zero, validationError("an entry needs at least two lines")
	}

	details := make([]model.JournalEntryDetail, 0, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i, l := range lines {
		accountID, err := parseID(l.AccountID, "account")
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, decimal.Zero, decimal.Zero, validationError("line %d: amounts can not be negative", i+1)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return nil, decimal.Zero, decimal.Zero, validationError("line %d: exactly one of debit or credit must be positive", i+1)
		}
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
		ids = append(ids, accountID)
		details = append(details, model.JournalEntryDetail{
			AccountID:   accountID,
			Description: strings.TrimSpace(l.Description),
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	if !totalDebit.Equal(totalCredit) {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedEntry, totalDebit.String(), totalCredit.String())
	}

	accounts, err := s.accountRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("failed to load accounts: %w", err)
	}
	byID := make(map[uuid.UUID]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	for i, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, decimal.Zero, decimal.Zero, fmt.Errorf("line %d: account %w", i+1, ErrNotFound)
		}
		if !a.IsActive || !a.IsDetail {
			return nil, decimal.Zero, decimal.Zero, validationError("line %d: account %s is not an active detail account", i+1, a.Code)
		}
	}
	return details, totalDebit, totalCredit, nil
}

func (s *accountingService) CreateJournalEntry(ctx context.Context, actorID string, req JournalEntryRequest) (*model.JournalEntry, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, s.now().Location())
	if err != nil {
		return nil, validationError("invalid date %q", req.Date)
	}
	details, totalDebit, totalCredit, err := s.validateLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	period, err := s.openPeriodFor(ctx, date)
	if err != nil {
		return nil, err
	}

	entry := &model.JournalEntry{
		Date:        date,
		PeriodID:    period.ID,
		Description: strings.TrimSpace(req.Description),
		Reference:   strings.TrimSpace(req.Reference),
		Status:      model.EntryDraft,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		UserID:      parseUserID(actorID),
		Details:     details,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.createEntry(txCtx, entry); err != nil {
			return err
		}
		if err := writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateEntry, entry.ID.String(), entry.EntryNumber, req); err != nil {
			return err
		}
		if !req.Post {
			return nil
		}
		if err := s.post(txCtx, entry); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionPostEntry, entry.ID.String(), entry.EntryNumber, nil)
	})
	if err != nil {
		return nil, err
	}

	if req.Post {
		s.afterPost(ctx, entry)
	}
	return s.GetJournalEntry(ctx, entry.ID.String())
}

func (s *accountingService) createEntry(ctx context.Context, entry *model.JournalEntry) error {
	next, err := s.sequenceRepo.Next(ctx, model.SequenceJournal)
	if err != nil {
		return fmt.Errorf("failed to number entry: %w", err)
	}
	entry.EntryNumber = fmt.Sprintf("AST-%06d", next)
	if err := s.journalRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// post moves a draft entry into the balances of its period. Balance rows are
// locked in account id order.
func (s *accountingService) post(ctx context.Context, entry *model.JournalEntry) error {
	period, err := s.periodRepo.FindByIDForUpdate(ctx, entry.PeriodID)
	if err != nil {
		return notFound("period", err)
	}
	if period.Status != model.PeriodOpen {
		return fmt.Errorf("%w: %s", ErrPeriodClosed, period.Name)
	}

	type movement struct{ debit, credit decimal.Decimal }
	moves := map[uuid.UUID]*movement{}
	ids := make([]uuid.UUID, 0, len(entry.Details))
	for _, d := range entry.Details {
		m, ok := moves[d.AccountID]
		if !ok {
			m = &movement{}
			moves[d.AccountID] = m
			ids = append(ids, d.AccountID)
		}
		m.debit = m.debit.Add(d.Debit)
		m.credit = m.credit.Add(d.Credit)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	accounts, err := s.accountRepo.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	nature := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		nature[a.ID] = a.Nature
	}

	for _, id := range ids {
		balance, err := s.balanceRepo.FindForUpdate(ctx, id, period.ID)
		if err != nil {
			return fmt.Errorf("failed to lock account balance: %w", err)
		}
		balance.Apply(nature[id], moves[id].debit, moves[id].credit)
		if err := s.balanceRepo.Save(ctx, balance); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
	}

	postedAt := s.now()
	if err := s.journalRepo.MarkPosted(ctx, entry.ID, postedAt); err != nil {
		return fmt.Errorf("failed to post entry: %w", err)
	}
	entry.Status, entry.PostedAt = model.EntryPosted, &postedAt
	return nil
}

func (s *accountingService) afterPost(ctx context.Context, entry *model.JournalEntry) {
	s.metrics.JournalPosted()
	s.notifier.Publish(ctx, events.EntryPosted, EntryEvent{
		EntryID:     entry.ID,
		EntryNumber: entry.EntryNumber,
		Date:        entry.Date.Format("2006-01-02"),
		Total:       entry.TotalDebit.StringFixed(2),
	})
}

func (s *accountingService) ListJournalEntries(ctx context.Context, page, limit int, params JournalListParams) ([]model.JournalEntry, int64, error) {
	page, limit = normalizePage(page, limit, 20)

	filter := repository.JournalFilter{Status: params.Status, Search: strings.TrimSpace(params.Search)}
	var err error
	if filter.PeriodID, err = parseOptionalID(params.PeriodID, "period"); err != nil {
		return nil, 0, err
	}
	if params.From != "" || params.To != "" {
		r, err := ParseDateRange(params.From, params.To, s.now())
		if err != nil {
			return nil, 0, err
		}
		filter.From, filter.To = &r.From, &r.To
	}

	entries, total, err := s.journalRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch journal entries: %w", err)
	}
	return entries, total, nil
}

func (s *accountingService) GetJournalEntry(ctx context.Context, id string) (*model.JournalEntry, error) {
	entryID, err := parseID(id, "journal entry")
	if err != nil {
		return nil, err
	}
	entry, err := s.journalRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, notFound("journal entry", err)
	}
	return entry, nil
}

func (s *accountingService) PostJournalEntry(ctx context.Context, actorID, id string) (*model.JournalEntry, error) {
	entryID, err := parseID(id, "journal entry")
	if err != nil {
		return nil, err
	}

	var entry *model.JournalEntry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if entry, err = s.journalRepo.FindByIDForUpdate(txCtx, entryID); err != nil {
			return notFound("journal entry", err)
		}
		if entry.Status != model.EntryDraft {
			return fmt.Errorf("%w: entry %s is %s", ErrInvalidState, entry.EntryNumber, entry.Status)
		}
		if !entry.TotalDebit.Equal(entry.TotalCredit) {
			return fmt.Errorf("%w: entry %s", ErrUnbalancedEntry, entry.EntryNumber)
		}
		if err := s.post(txCtx, entry); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionPostEntry, entry.ID.String(), entry.EntryNumber, nil)
	})
	if err != nil {
		return nil, err
	}

	s.afterPost(ctx, entry)
	return s.GetJournalEntry(ctx, entry.ID.String())
}

// ReverseJournalEntry posts a mirror of a posted entry dated today
func (s *accountingService) ReverseJournalEntry(ctx context.Context, actorID, id string) (*model.JournalEntry, error) {
	entryID, err := parseID(id, "journal entry")
	if err != nil {
		return nil, err
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	period, err := s.openPeriodFor(ctx, today)
	if err != nil {
		return nil, err
	}

	var reversal *model.JournalEntry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, err := s.journalRepo.FindByIDForUpdate(txCtx, entryID)
		if err != nil {
			return notFound("journal entry", err)
		}
		if original.Status != model.EntryPosted {
			return fmt.Errorf("%w: only posted entries can be reversed, %s is %s", ErrInvalidState, original.EntryNumber, original.Status)
		}

		reversal = &model.JournalEntry{
			Date:         today,
			PeriodID:     period.ID,
			Description:  "Reverso de " + original.EntryNumber + ": " + original.Description,
			Reference:    original.EntryNumber,
			Status:       model.EntryDraft,
			TotalDebit:   original.TotalCredit,
			TotalCredit:  original.TotalDebit,
			UserID:       parseUserID(actorID),
			ReversalOfID: &original.ID,
		}
		for _, d := range original.Details {
			reversal.Details = append(reversal.Details, model.JournalEntryDetail{
				AccountID:   d.AccountID,
				Description: d.Description,
				Debit:       d.Credit,
				Credit:      d.Debit,
			})
		}

		if err := s.createEntry(txCtx, reversal); err != nil {
			return err
		}
		if err := s.post(txCtx, reversal); err != nil {
			return err
		}
		if err := s.journalRepo.SetStatus(txCtx, original.ID, model.EntryReversed); err != nil {
			return fmt.Errorf("failed to mark entry reversed: %w", err)
		}
		details := fmt.Sprintf(`{"reversal": %q}`, reversal.EntryNumber)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionReverseEntry, original.ID.String(), original.EntryNumber, details)
	})
	if err != nil {
		return nil, err
	}

	s.afterPost(ctx, reversal)
	return s.GetJournalEntry(ctx, reversal.ID.String())
}

func (s *accountingService) DeleteJournalEntry(ctx context.Context, actorID, id string) error {
	entryID, err := parseID(id, "journal entry")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.journalRepo.FindByIDForUpdate(txCtx, entryID)
		if err != nil {
			return notFound("journal entry", err)
		}
		if entry.Status != model.EntryDraft {
			return fmt.Errorf("%w: only draft entries can be deleted, %s is %s", ErrInvalidState, entry.EntryNumber, entry.Status)
		}
		if err := s.journalRepo.Delete(txCtx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteEntry, entry.ID.String(), entry.EntryNumber, nil)
	})
}

// --- Reports ---

// TrialBalance lists the balances of a period; an empty id means the current one
func (s *accountingService) TrialBalance(ctx context.Context, periodID string) (*TrialBalance, error) {
	var period *model.AccountingPeriod
	if strings.TrimSpace(periodID) == "" {
		p, err := s.CurrentPeriod(ctx)
		if err != nil {
			return nil, err
		}
		period = p
	} else {
		id, err := parseID(periodID, "period")
		if err != nil {
			return nil, err
		}
		if period, err = s.periodRepo.FindByID(ctx, id); err != nil {
			return nil, notFound("period", err)
		}
	}

	balances, err := s.balanceRepo.ListByPeriod(ctx, period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}

	tb := &TrialBalance{Period: *period, Rows: make([]TrialBalanceRow, 0, len(balances))}
	for _, b := range balances {
		if b.Debit.IsZero() && b.Credit.IsZero() {
			continue
		}
		row := TrialBalanceRow{AccountID: b.AccountID, Debit: b.Debit, Credit: b.Credit, Balance: b.Balance}
		if b.Account != nil {
			row.AccountCode = b.Account.Code
			row.AccountName = b.Account.Name
			row.AccountType = b.Account.Type
			row.Nature = b.Account.Nature
		}
		tb.TotalDebit = tb.TotalDebit.Add(b.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(b.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode })
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// AccountLedger lists the posted movements of an account with a running balance.
// Without dates the whole history is returned.
func (s *accountingService) AccountLedger(ctx context.Context, accountID, from, to string) (*AccountLedger, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	signed := func(debit, credit decimal.Decimal) decimal.Decimal {
		if account.Nature == model.NatureCredit {
			return credit.Sub(debit)
		}
		return debit.Sub(credit)
	}

	ledger := &AccountLedger{Account: *account}
	var fromPtr, toPtr *time.Time
	if from != "" || to != "" {
		r, err := ParseDateRange(from, to, s.now())
		if err != nil {
			return nil, err
		}
		fromPtr, toPtr = &r.From, &r.To

		debit, credit, err := s.journalRepo.OpeningBalance(ctx, account.ID, r.From)
		if err != nil {
			return nil, fmt.Errorf("failed to compute opening balance: %w", err)
		}
		ledger.OpeningBalance = signed(parseAmount(debit), parseAmount(credit))
	}

	rows, err := s.journalRepo.LedgerLines(ctx, account.ID, fromPtr, toPtr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger: %w", err)
	}

	running := ledger.OpeningBalance
	ledger.Lines = make([]LedgerLine, 0, len(rows))
	for _, r := range rows {
		debit, credit := parseAmount(r.Debit), parseAmount(r.Credit)
		running = running.Add(signed(debit, credit))
		ledger.TotalDebit = ledger.TotalDebit.Add(debit)
		ledger.TotalCredit = ledger.TotalCredit.Add(credit)
		ledger.Lines = append(ledger.Lines, LedgerLine{
			EntryID:     r.EntryID,
			EntryNumber: r.EntryNumber,
			Date:        r.Date,
			Description: r.Description,
			Reference:   r.Reference,
			Debit:       debit,
			Credit:      credit,
			Balance:     running,
		})
	}
	ledger.ClosingBalance = running
	return ledger, nil
}
