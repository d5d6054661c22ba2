package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestPostgresRecordStore_Save(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresRecordStore(db, testTables)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	record := &testRecord{ID: "invoice_1", OrderID: "o1", CustomerID: "c1", Amount: 20, Status: "INVOICE_CREATED", CreatedAt: createdAt}

	mock.ExpectExec(`INSERT INTO "invoices" \(id, order_id, customer_id, status, body, recorded_at\)`).
		WithArgs("invoice_1", "o1", "c1", "INVOICE_CREATED", sqlmock.AnyArg(), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordStore_SaveError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresRecordStore(db, testTables)

	mock.ExpectExec(`INSERT INTO "invoices"`).WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), &testRecord{ID: "invoice_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save invoice record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordStore_ObservationsByOrderID(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresRecordStore(db, testTables)

	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	columns := []string{"id", "status", "recorded_at"}

	mock.ExpectQuery(`SELECT id, status, recorded_at FROM "orders" WHERE order_id = \$1`).
		WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("order_1", "ORDER_CREATED", t0))
	mock.ExpectQuery(`FROM "invoices"`).WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("invoice_1", "INVOICE_CREATED", t0.Add(time.Second)))
	mock.ExpectQuery(`FROM "payments"`).WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("payment_1", "PAYMENT_FAILED", t0.Add(2*time.Second)))
	mock.ExpectQuery(`FROM "shipments"`).WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(`FROM "notification_logs"`).WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(columns))

	obs, err := store.ObservationsByOrderID(context.Background(), "order_1")
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, "payment", obs[2].Kind)
	assert.Equal(t, "PAYMENT_FAILED", obs[2].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordStore_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresRecordStore(db, testTables)

	mock.ExpectQuery(`FROM "orders"`).WillReturnError(errors.New("boom"))

	_, err := store.ObservationsByOrderID(context.Background(), "order_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to query orders`)
}
