package postgresadapter

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewRepository(db, nil), mock
}

func TestGetProductDecodesJSONForm(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	form := `[{"field_id":"flavour","label":"Parfum","type":"select","required":true,"options":[{"option_id":"vanilla","label":"Vanille","price_cents":0}]}]`
	rows := sqlmock.NewRows([]string{"product_id", "shop_id", "name", "base_price_cents", "is_active", "position", "form", "created_at", "updated_at"}).
		AddRow("p-1", "shop-1", "Fraisier", int64(3800), true, 0, []byte(form), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE product_id = $1`)).WillReturnRows(rows)

	product, err := repo.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, product.Form, 1)
	assert.Equal(t, entities.FieldSelect, product.Form[0].Type)
	assert.Equal(t, "Vanille", product.Form[0].Options[0].Label)
	assert.Nil(t, product.DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductMapsMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}))

	_, err := repo.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)
}
