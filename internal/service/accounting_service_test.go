package service

import (
	"testing"
	"time"

	"contapos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountID(t *testing.T, env *testEnv, code string) string {
	t.Helper()
	var acc model.Account
	require.NoError(t, env.db.Where("code = ?", code).First(&acc).Error)
	return acc.ID.String()
}

func cashSaleEntry(t *testing.T, env *testEnv, debit, credit int64, post bool) JournalEntryRequest {
	t.Helper()
	return JournalEntryRequest{
		Date:        time.Now().Format("2006-01-02"),
		Description: "Venta de contado",
		Lines: []JournalLineRequest{
			{AccountID: accountID(t, env, "110505"), Debit: decimal.NewFromInt(debit)},
			{AccountID: accountID(t, env, "413505"), Credit: decimal.NewFromInt(credit)},
		},
		Post: post,
	}
}

func TestAccountingService_RejectsUnbalancedEntry(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 150000, 140000, true))

	assert.ErrorIs(t, err, ErrUnbalancedEntry)
	assert.Equal(t, int64(0), env.count(t, &model.JournalEntry{}))
}

func TestAccountingService_PostedEntryFeedsTrialBalance(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 150000, 150000, true))
	require.NoError(t, err)
	assert.Equal(t, "AST-000001", entry.EntryNumber)
	assert.Equal(t, model.EntryPosted, entry.Status)

	tb, err := env.accounting.TrialBalance(env.ctx, "")
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, decimal.NewFromInt(150000).Equal(tb.TotalDebit), tb.TotalDebit.String())
	assert.True(t, decimal.NewFromInt(150000).Equal(tb.TotalCredit), tb.TotalCredit.String())
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, "110505", tb.Rows[0].AccountCode)
	assert.Equal(t, "413505", tb.Rows[1].AccountCode)
}

func TestAccountingService_DraftEntryStaysOutOfBalances(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 5000, 5000, false))
	require.NoError(t, err)
	assert.Equal(t, model.EntryDraft, entry.Status)

	tb, err := env.accounting.TrialBalance(env.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)

	period, err := env.accounting.CurrentPeriod(env.ctx)
	require.NoError(t, err)
	_, err = env.accounting.ClosePeriod(env.ctx, env.actor, period.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAccountingService_ClosedPeriodRejectsEntries(t *testing.T) {
	env := newTestEnv(t)

	period, err := env.accounting.CurrentPeriod(env.ctx)
	require.NoError(t, err)
	closed, err := env.accounting.ClosePeriod(env.ctx, env.actor, period.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.PeriodClosed, closed.Status)

	_, err = env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 1000, 1000, true))
	assert.ErrorIs(t, err, ErrPeriodClosed)

	_, err = env.accounting.ClosePeriod(env.ctx, env.actor, period.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAccountingService_ReverseSwapsSides(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 20000, 20000, true))
	require.NoError(t, err)

	reversal, err := env.accounting.ReverseJournalEntry(env.ctx, env.actor, entry.ID.String())
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversalOfID)
	assert.Equal(t, entry.ID, *reversal.ReversalOfID)
	assert.Equal(t, entry.EntryNumber, reversal.Reference)
	assert.Equal(t, model.EntryPosted, reversal.Status)

	original, err := env.accounting.GetJournalEntry(env.ctx, entry.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.EntryReversed, original.Status)

	_, err = env.accounting.ReverseJournalEntry(env.ctx, env.actor, entry.ID.String())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAccountingService_AccountHierarchy(t *testing.T) {
	env := newTestEnv(t)
	bank := accountID(t, env, "111005")

	sub, err := env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{
		Code:     "11100501",
		Name:     "Banco de Bogotá cta corriente",
		ParentID: bank,
	})
	require.NoError(t, err)
	parent, err := env.accounting.GetAccount(env.ctx, bank)
	require.NoError(t, err)
	assert.Equal(t, parent.Level+1, sub.Level)
	assert.Equal(t, model.AccountTypeAsset, sub.Type)
	assert.Equal(t, parent.Nature, sub.Nature)
	assert.True(t, sub.IsDetail)
	assert.False(t, parent.IsDetail)

	t.Run("code must extend the parent", func(t *testing.T) {
		_, err := env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{Code: "12050501", Name: "Otra", ParentID: bank})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("type must match the parent", func(t *testing.T) {
		_, err := env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{
			Code:     "11100502",
			Name:     "Sobregiro",
			Type:     model.AccountTypeLiability,
			ParentID: bank,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("top level needs a type", func(t *testing.T) {
		_, err := env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{Code: "98", Name: "Sin tipo"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{Code: "11100501", Name: "Repetida", ParentID: bank})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("parent with sub-accounts can not be deleted", func(t *testing.T) {
		assert.ErrorIs(t, env.accounting.DeleteAccount(env.ctx, env.actor, bank), ErrInvalidState)
	})

	require.NoError(t, env.accounting.DeleteAccount(env.ctx, env.actor, sub.ID.String()))
	_, err = env.accounting.GetAccount(env.ctx, sub.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountingService_AccountWithMovementsIsFrozen(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounting.CreateJournalEntry(env.ctx, env.actor, cashSaleEntry(t, env, 8000, 8000, true))
	require.NoError(t, err)
	cash := accountID(t, env, "110505")

	_, err = env.accounting.CreateAccount(env.ctx, env.actor, CreateAccountRequest{
		Code:     "11050501",
		Name:     "Caja principal",
		ParentID: cash,
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, env.accounting.DeleteAccount(env.ctx, env.actor, cash), ErrInvalidState)

	account, err := env.accounting.GetAccount(env.ctx, cash)
	require.NoError(t, err)
	assert.True(t, account.IsDetail)
}
