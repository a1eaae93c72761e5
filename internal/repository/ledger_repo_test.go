package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"factorylink/internal/model"
	"factorylink/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestAppendTx_GuardRejectsNegativeStock(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLedgerRepository(gormDB)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE materials SET current_stock = current_stock +`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendTx(gormDB, &model.MaterialTransaction{
		ID:              uuid.New(),
		MaterialID:      uuid.New(),
		Type:            model.TransactionOut,
		Quantity:        decimal.NewFromInt(5),
		TransactionDate: time.Now(),
	})

	assert.ErrorIs(t, err, repository.ErrNegativeStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendTx_UpdatesStockThenInsertsEntry(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLedgerRepository(gormDB)

	entry := &model.MaterialTransaction{
		ID:              uuid.New(),
		MaterialID:      uuid.New(),
		Type:            model.TransactionIn,
		Quantity:        decimal.NewFromInt(3),
		StockBefore:     decimal.NewFromInt(1),
		StockAfter:      decimal.NewFromInt(4),
		TransactionDate: time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE materials SET current_stock = current_stock +`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "material_transactions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(entry.ID))
	mock.ExpectCommit()

	require.NoError(t, repo.AppendTx(gormDB, entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTotals_ScansSums(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewLedgerRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(CASE WHEN type = 'in'`)).
		WillReturnRows(sqlmock.NewRows([]string{"total_in", "total_out"}).AddRow("10.500", "4.250"))

	in, out, err := repo.Totals(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, in.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, out.Equal(decimal.RequireFromString("4.25")))
}

func TestAdjustInventoryTx_FloorsAtZero(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProductRepository(gormDB)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","inventory_quantity" FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inventory_quantity"}).AddRow(id, 2))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "inventory_quantity"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	before, after, err := repo.AdjustInventoryTx(gormDB, id, -5)
	require.NoError(t, err)
	assert.Equal(t, 2, before)
	assert.Equal(t, 0, after)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
	}{
		{"zero values", 0, 0, 1, repository.DefaultPageSize},
		{"negative page", -2, 10, 1, 10},
		{"limit over max", 3, repository.MaxPageSize + 1, 3, repository.DefaultPageSize},
		{"limit at max", 1, repository.MaxPageSize, 1, repository.MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, limit := repository.NormalizePage(tc.page, tc.limit, repository.DefaultPageSize, repository.MaxPageSize)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLim, limit)
		})
	}
}
