package postgresadapter

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

func TestGetShopBySlugMapsMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "shops" WHERE slug = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"shop_id"}))

	_, err := repo.GetShopBySlug(context.Background(), "absent")
	assert.ErrorIs(t, err, domainerrors.ErrShopNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetShopBySlugMapsColumns(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"shop_id", "owner_id", "slug", "name", "email", "currency", "deposit_percentage",
		"min_days_notice", "font_family", "paypal_handle", "is_active", "created_at", "updated_at",
	}).AddRow("shop-1", "owner-1", "cerise", "La Cerise", "hello@cerise.fr", "EUR", 30, 2, "Lora", "cerise", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "shops" WHERE slug = $1`)).WillReturnRows(rows)

	shop, err := repo.GetShopBySlug(context.Background(), "cerise")
	require.NoError(t, err)
	assert.Equal(t, "shop-1", shop.ShopID)
	assert.Equal(t, "Lora", shop.Customization.FontFamily)
	assert.Equal(t, "cerise", shop.Payment.PaypalHandle)
	assert.True(t, shop.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnavailabilityReportsMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "shop_unavailabilities"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteUnavailability(context.Background(), "shop-1", "missing")
	assert.ErrorIs(t, err, domainerrors.ErrUnavailabilityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateShopWriteError(t *testing.T) {
	slugErr := &pgconn.PgError{Code: "23505", ConstraintName: shopsSlugConstraint}
	ownerErr := &pgconn.PgError{Code: "23505", ConstraintName: shopsOwnerConstraint}
	other := errors.New("connection reset")

	assert.ErrorIs(t, translateShopWriteError(slugErr), domainerrors.ErrSlugTaken)
	assert.ErrorIs(t, translateShopWriteError(ownerErr), domainerrors.ErrShopAlreadyExists)
	assert.Equal(t, other, translateShopWriteError(other))
}
