package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_NestedCallJoinsOuterTx(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE document_sequences SET current = current \+ 1 WHERE name = \$1`).
		WithArgs("sale").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE document_sequences SET current = current \+ 1 WHERE name = \$1`).
		WithArgs("pos").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(outer context.Context) error {
		if err := GetDB(outer, db).Exec("UPDATE document_sequences SET current = current + 1 WHERE name = ?", "sale").Error; err != nil {
			return err
		}
		return tm.RunInTx(outer, func(inner context.Context) error {
			assert.Same(t, outer.Value(txKey), inner.Value(txKey))
			return GetDB(inner, db).Exec("UPDATE document_sequences SET current = current + 1 WHERE name = ?", "pos").Error
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_InnerErrorRollsBackOuter(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	tm := NewTransactionManager(db)

	failed := errors.New("stock check failed")
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE document_sequences`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := tm.RunInTx(context.Background(), func(outer context.Context) error {
		if err := GetDB(outer, db).Exec("UPDATE document_sequences SET current = current + 1 WHERE name = ?", "sale").Error; err != nil {
			return err
		}
		return tm.RunInTx(outer, func(inner context.Context) error {
			return failed
		})
	})

	assert.ErrorIs(t, err, failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDB_WithoutTransactionUsesRoot(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM audit_logs`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, GetDB(context.Background(), db).Exec("DELETE FROM audit_logs").Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
