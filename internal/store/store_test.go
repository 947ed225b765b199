package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"pos-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStoreWithDB(sqlx.NewDb(db, "postgres")), mock
}

func TestListProducts(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"barcode", "name", "price", "stock"}).
		AddRow("111", "Bread", "2.50", 4).
		AddRow("222", nil, "1.00", 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT barcode, name, price, stock FROM products ORDER BY name LIMIT $1")).
		WithArgs(100).
		WillReturnRows(rows)

	products, err := s.ListProducts(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "111", products[0].Barcode)
	require.NotNil(t, products[0].Name)
	assert.Equal(t, "Bread", *products[0].Name)
	assert.True(t, decimal.RequireFromString("2.5").Equal(products[0].Price))
	assert.Nil(t, products[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsFiltersByName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(name) LIKE lower($1) ORDER BY name LIMIT $2")).
		WithArgs("%milk%", 100).
		WillReturnRows(sqlmock.NewRows([]string{"barcode", "name", "price", "stock"}).
			AddRow("333", "Whole Milk", "1.20", 12))

	products, err := s.ListProducts(context.Background(), "milk", 100)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Whole Milk", *products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsEscapesWildcards(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("LIKE").
		WithArgs(`%50\%\_off%`, 100).
		WillReturnRows(sqlmock.NewRows([]string{"barcode", "name", "price", "stock"}))

	products, err := s.ListProducts(context.Background(), "50%_off", 100)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE barcode = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"barcode", "name", "price", "stock"}))

	product, err := s.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProduct(t *testing.T) {
	s, mock := newMockStore(t)
	name := "Bread"

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (barcode) DO UPDATE SET")).
		WithArgs("111", "Bread", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpsertProduct(context.Background(), &models.Product{
		Barcode: "111",
		Name:    &name,
		Price:   decimal.RequireFromString("2.50"),
		Stock:   7,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockClampsAtZero(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET stock = GREATEST(0, stock - $1)")).
		WithArgs(10, "111").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.DecrementStock(context.Background(), "111", 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSale(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales (total)")).
		WithArgs("9.99").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "total"}).
			AddRow(42, created, "9.99"))

	sale := &models.Sale{Total: decimal.RequireFromString("9.99")}
	require.NoError(t, s.CreateSale(context.Background(), sale))

	assert.Equal(t, int64(42), sale.ID)
	assert.Equal(t, created, sale.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInventoryChangeNullDelta(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_changes")).
		WithArgs("111", "Upsert 111", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, s.CreateInventoryChange(context.Background(), "111", "Upsert 111", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInventoryChanges(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_changes ORDER BY timestamp DESC, id DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "barcode", "details", "delta_stock"}).
			AddRow(2, now, "111", "Sale 1: -2", -2).
			AddRow(1, now.Add(-time.Minute), "111", "Upsert 111", nil))

	changes, err := s.ListInventoryChanges(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.NotNil(t, changes[0].DeltaStock)
	assert.Equal(t, -2, *changes[0].DeltaStock)
	assert.Nil(t, changes[1].DeltaStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSalesBreaksTiesByID(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales ORDER BY created_at DESC, id DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "total"}).
			AddRow(8, now, "2.00").
			AddRow(7, now, "1.00"))

	sales, err := s.ListSales(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, int64(8), sales[0].ID)
	assert.Equal(t, int64(7), sales[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(tx *Store) error {
		return tx.DecrementStock(context.Background(), "111", 1)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx *Store) error {
		if err := tx.DecrementStock(context.Background(), "111", 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchema(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS products")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
