package handler

import (
	"strconv"

	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AccountingHandler struct {
	accountingService service.AccountingService
}

func NewAccountingHandler(accountingService service.AccountingService) *AccountingHandler {
	return &AccountingHandler{accountingService: accountingService}
}

func (h *AccountingHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("accounting.read")
	write := middleware.RequirePermission("accounting.write")
	closing := middleware.RequirePermission("accounting.close")

	acc := router.Group("/accounting")

	accounts := acc.Group("/accounts")
	{
		accounts.GET("", read, h.ListAccounts)
		accounts.GET("/tree", read, h.AccountTree)
		accounts.GET("/:id", read, h.GetAccount)
		accounts.GET("/:id/ledger", read, h.AccountLedger)
		accounts.POST("", write, h.CreateAccount)
		accounts.PUT("/:id", write, h.UpdateAccount)
		accounts.DELETE("/:id", write, h.DeleteAccount)
	}

	periods := acc.Group("/periods")
	{
		periods.GET("", read, h.ListPeriods)
		periods.GET("/current", read, h.CurrentPeriod)
		periods.POST("", closing, h.CreatePeriod)
		periods.POST("/:id/close", closing, h.ClosePeriod)
		periods.POST("/:id/reopen", closing, h.ReopenPeriod)
	}

	entries := acc.Group("/entries")
	{
		entries.GET("", read, h.ListJournalEntries)
		entries.GET("/:id", read, h.GetJournalEntry)
		entries.POST("", write, h.CreateJournalEntry)
		entries.POST("/:id/post", write, h.PostJournalEntry)
		entries.POST("/:id/reverse", write, h.ReverseJournalEntry)
		entries.DELETE("/:id", write, h.DeleteJournalEntry)
	}

	acc.GET("/trial-balance", read, h.TrialBalance)
}

// ListAccounts
// @Summary      List accounts of the chart
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        type         query     string  false  "ACTIVO, PASIVO, PATRIMONIO, INGRESO, GASTO or COSTO"
// @Param        search       query     string  false  "Code or name"
// @Param        detail_only  query     bool    false  "Only accounts that accept postings"
// @Success      200          {object}  response.Response{data=[]model.Account}
// @Router       /accounting/accounts [get]
func (h *AccountingHandler) ListAccounts(c *gin.Context) {
	list, err := h.accountingService.ListAccounts(c.Request.Context(), c.Query("type"), c.Query("search"), c.Query("detail_only") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// AccountTree
// @Summary      Chart of accounts as a tree
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Account}
// @Router       /accounting/accounts/tree [get]
func (h *AccountingHandler) AccountTree(c *gin.Context) {
	tree, err := h.accountingService.AccountTree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, tree)
}

// GetAccount
// @Summary      Get account
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  response.Response{data=model.Account}
// @Router       /accounting/accounts/{id} [get]
func (h *AccountingHandler) GetAccount(c *gin.Context) {
	account, err := h.accountingService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, account)
}

// CreateAccount
// @Summary      Create account
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAccountRequest  true  "Account"
// @Success      201      {object}  response.Response{data=model.Account}
// @Router       /accounting/accounts [post]
func (h *AccountingHandler) CreateAccount(c *gin.Context) {
	var req service.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.accountingService.CreateAccount(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, account)
}

// UpdateAccount
// @Summary      Rename or (de)activate an account
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Account ID"
// @Param        payload  body      service.UpdateAccountRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Account}
// @Router       /accounting/accounts/{id} [put]
func (h *AccountingHandler) UpdateAccount(c *gin.Context) {
	var req service.UpdateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.accountingService.UpdateAccount(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, account)
}

// DeleteAccount
// @Summary      Delete account without children or movements
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  response.Response
// @Router       /accounting/accounts/{id} [delete]
func (h *AccountingHandler) DeleteAccount(c *gin.Context) {
	if err := h.accountingService.DeleteAccount(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Account deleted")
}

// AccountLedger
// @Summary      Account movements with running balance
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Account ID"
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=service.AccountLedger}
// @Router       /accounting/accounts/{id}/ledger [get]
func (h *AccountingHandler) AccountLedger(c *gin.Context) {
	ledger, err := h.accountingService.AccountLedger(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, ledger)
}

// ListPeriods
// @Summary      List accounting periods
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        year  query     int  false  "Year"
// @Success      200   {object}  response.Response{data=[]model.AccountingPeriod}
// @Router       /accounting/periods [get]
func (h *AccountingHandler) ListPeriods(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	periods, err := h.accountingService.ListPeriods(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, periods)
}

// CurrentPeriod returns the period of today, creating it when missing
// @Summary      Current period
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.AccountingPeriod}
// @Router       /accounting/periods/current [get]
func (h *AccountingHandler) CurrentPeriod(c *gin.Context) {
	period, err := h.accountingService.CurrentPeriod(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, period)
}

// CreatePeriod
// @Summary      Open a monthly period
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePeriodRequest  true  "Year and month"
// @Success      201      {object}  response.Response{data=model.AccountingPeriod}
// @Failure      409      {object}  response.Response
// @Router       /accounting/periods [post]
func (h *AccountingHandler) CreatePeriod(c *gin.Context) {
	var req service.CreatePeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.accountingService.CreatePeriod(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, period)
}

// ClosePeriod
// @Summary      Close period
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Period ID"
// @Success      200  {object}  response.Response{data=model.AccountingPeriod}
// @Router       /accounting/periods/{id}/close [post]
func (h *AccountingHandler) ClosePeriod(c *gin.Context) {
	period, err := h.accountingService.ClosePeriod(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, period)
}

// ReopenPeriod
// @Summary      Reopen period
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Period ID"
// @Success      200  {object}  response.Response{data=model.AccountingPeriod}
// @Router       /accounting/periods/{id}/reopen [post]
func (h *AccountingHandler) ReopenPeriod(c *gin.Context) {
	period, err := h.accountingService.ReopenPeriod(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, period)
}

// ListJournalEntries
// @Summary      List journal entries
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Param        period_id  query     string  false  "Period"
// @Param        status     query     string  false  "DRAFT, POSTED or REVERSED"
// @Param        from       query     string  false  "YYYY-MM-DD"
// @Param        to         query     string  false  "YYYY-MM-DD"
// @Param        search     query     string  false  "Number, description or reference"
// @Success      200        {object}  response.Response{data=response.PagedData}
// @Router       /accounting/entries [get]
func (h *AccountingHandler) ListJournalEntries(c *gin.Context) {
	p := pagination.Parse(c)
	params := service.JournalListParams{
		PeriodID: c.Query("period_id"),
		Status:   c.Query("status"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Search:   c.Query("search"),
	}
	entries, total, err := h.accountingService.ListJournalEntries(c.Request.Context(), p.Page, p.Limit, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, entries, total)
}

// GetJournalEntry
// @Summary      Get journal entry with its lines
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.JournalEntry}
// @Router       /accounting/entries/{id} [get]
func (h *AccountingHandler) GetJournalEntry(c *gin.Context) {
	entry, err := h.accountingService.GetJournalEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, entry)
}

// CreateJournalEntry rejects entries whose debits and credits differ
// @Summary      Create journal entry
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.JournalEntryRequest  true  "Entry"
// @Success      201      {object}  response.Response{data=model.JournalEntry}
// @Failure      422      {object}  response.Response
// @Router       /accounting/entries [post]
func (h *AccountingHandler) CreateJournalEntry(c *gin.Context) {
	var req service.JournalEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.accountingService.CreateJournalEntry(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, entry)
}

// PostJournalEntry
// @Summary      Post a draft entry to the balances
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.JournalEntry}
// @Router       /accounting/entries/{id}/post [post]
func (h *AccountingHandler) PostJournalEntry(c *gin.Context) {
	entry, err := h.accountingService.PostJournalEntry(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, entry)
}

// ReverseJournalEntry
// @Summary      Reverse a posted entry
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.JournalEntry}
// @Router       /accounting/entries/{id}/reverse [post]
func (h *AccountingHandler) ReverseJournalEntry(c *gin.Context) {
	entry, err := h.accountingService.ReverseJournalEntry(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, entry)
}

// DeleteJournalEntry
// @Summary      Delete a draft entry
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Router       /accounting/entries/{id} [delete]
func (h *AccountingHandler) DeleteJournalEntry(c *gin.Context) {
	if err := h.accountingService.DeleteJournalEntry(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Entry deleted")
}

// TrialBalance
// @Summary      Trial balance of a period
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        period_id  query     string  false  "Period, current when empty"
// @Success      200        {object}  response.Response{data=service.TrialBalance}
// @Router       /accounting/trial-balance [get]
func (h *AccountingHandler) TrialBalance(c *gin.Context) {
	tb, err := h.accountingService.TrialBalance(c.Request.Context(), c.Query("period_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, tb)
}
