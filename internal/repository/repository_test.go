package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens GORM over a sqlmock connection using the postgres dialect
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestWarehouseRepository_FindByCode(t *testing.T) {
	t.Run("finds existing warehouse", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewWarehouseRepository(db)

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "code", "name", "is_active"}).
			AddRow(id, "BOD-001", "Bodega principal", true)

		mock.ExpectQuery(`SELECT \* FROM "warehouses" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("BOD-001", 1).
			WillReturnRows(rows)

		wh, err := repo.FindByCode(context.Background(), "BOD-001")

		require.NoError(t, err)
		assert.Equal(t, id, wh.ID)
		assert.Equal(t, "Bodega principal", wh.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns record not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewWarehouseRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "warehouses" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("NOPE", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		wh, err := repo.FindByCode(context.Background(), "NOPE")

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.Nil(t, wh)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInventoryRepository_FindForUpdateLocksRow(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewInventoryRepository(db)

	productID, warehouseID := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "product_id", "warehouse_id", "quantity", "min_stock"}).
		AddRow(uuid.New(), productID, warehouseID, "12.500", "3.000")

	mock.ExpectQuery(`SELECT \* FROM "inventory" WHERE product_id = \$1 AND warehouse_id = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs(productID, warehouseID, 1).
		WillReturnRows(rows)

	inv, err := repo.FindForUpdate(context.Background(), productID, warehouseID)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(inv.Quantity), inv.Quantity.String())
	assert.True(t, decimal.NewFromInt(3).Equal(inv.MinStock), inv.MinStock.String())
	assert.False(t, inv.IsLow())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_DocumentExists(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewCustomerRepository(db)

	exclude := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE .*document_type = \$1 AND document_number = \$2.* AND id <> \$3`).
		WithArgs("NIT", "900123456", exclude).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.DocumentExists(context.Background(), "NIT", "900123456", exclude)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepository_Next(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "document_sequences" WHERE name = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs("sale", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "current", "updated_at"}).AddRow("sale", 7, time.Now()))
	mock.ExpectExec(`UPDATE "document_sequences" SET .* WHERE name = .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	next, err := repo.Next(context.Background(), "sale")

	require.NoError(t, err)
	assert.Equal(t, int64(8), next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListFiltersByAction(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE action = \$1`).
		WithArgs("LOGIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE action = \$1 ORDER BY created_at desc LIMIT .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action"}))

	logs, total, err := repo.List(context.Background(), 1, 20, "LOGIN", "")

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_MoveSerials(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewInventoryRepository(db)

	first, second, warehouseID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE "serial_numbers" SET "warehouse_id"=\$1,"updated_at"=\$2 WHERE id IN \(\$3,\$4\)`).
		WithArgs(warehouseID, sqlmock.AnyArg(), first, second).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MoveSerials(context.Background(), []uuid.UUID{first, second}, warehouseID))
	require.NoError(t, repo.MoveSerials(context.Background(), nil, warehouseID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_CustomerReportSingleQuery(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewReportRepository(db)

	last := time.Date(2024, 5, 20, 15, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT customers.id AS customer_id, .*MAX\(sales.created_at\) AS last_purchase FROM "sales" JOIN customers`).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "full_name", "document_number", "sales_count", "total_amount", "last_purchase"}).
			AddRow("c-1", "Ana Gómez", "1020304050", 3, "150000.00", last).
			AddRow("c-2", "Luis Rojas", "79000111", 1, "8000.00", nil))

	rows, err := repo.CustomerReport(context.Background(), last.AddDate(0, -1, 0), last.AddDate(0, 0, 1))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].SalesCount)
	assert.True(t, decimal.NewFromInt(150000).Equal(rows[0].TotalAmount))
	require.NotNil(t, rows[0].LastPurchase)
	assert.True(t, last.Equal(*rows[0].LastPurchase))
	assert.Nil(t, rows[1].LastPurchase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_CustomerReportError(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewReportRepository(db)

	mock.ExpectQuery(`SELECT customers.id AS customer_id`).WillReturnError(sql.ErrConnDone)

	_, err := repo.CustomerReport(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())

	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestDBTime_Scan(t *testing.T) {
	want := time.Date(2024, 5, 20, 15, 4, 5, 250000000, time.FixedZone("", -5*3600))

	for name, value := range map[string]interface{}{
		"time":        want,
		"sqlite text": "2024-05-20 15:04:05.25-05:00",
		"bytes":       []byte("2024-05-20T15:04:05.25-05:00"),
	} {
		t.Run(name, func(t *testing.T) {
			var got dbTime
			require.NoError(t, got.Scan(value))
			assert.True(t, got.Valid)
			assert.True(t, want.Equal(got.Time), got.Time.String())
		})
	}

	var empty dbTime
	require.NoError(t, empty.Scan(nil))
	assert.False(t, empty.Valid)
	assert.Error(t, empty.Scan("yesterday"))
}
