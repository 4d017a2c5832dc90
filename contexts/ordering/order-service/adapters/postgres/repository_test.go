package postgresadapter

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"

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

func TestGetOrderByRefMapsQuoteColumns(t *testing.T) {
	repo, mock := newMockRepository(t)
	pickup := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"order_id", "ref", "shop_id", "kind", "status", "lines", "customer_name", "customer_email",
		"pickup_date", "inspiration_urls", "currency", "quote_amount_cents", "quote_deposit_cents", "quote_expires_at",
	}).AddRow(
		"o-1", "CMD-ABCDEF", "shop-1", "custom", "quoted", []byte(`[]`), "Lea", "lea@example.com",
		pickup, []byte(`["https://example.com/cake.jpg"]`), "EUR", int64(9000), int64(2700), expires,
	)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE ref = $1`)).WillReturnRows(rows)

	order, err := repo.GetOrderByRef(context.Background(), "CMD-ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusQuoted, order.Status)
	assert.Equal(t, "lea@example.com", order.Customer.Email)
	require.NotNil(t, order.Quote)
	assert.Equal(t, int64(2700), order.Quote.DepositCents)
	assert.True(t, order.Quote.ExpiresAt.Equal(expires))
	assert.Equal(t, []string{"https://example.com/cake.jpg"}, order.InspirationURLs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderMapsMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	_, err := repo.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrOrderNotFound)
}

func TestUpdateOrderWithOutboxDetectsStaleStatus(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateOrderWithOutbox(context.Background(), entities.Order{
		OrderID:   "o-1",
		ShopID:    "shop-1",
		Status:    entities.StatusConfirmed,
		UpdatedAt: now,
	}, entities.StatusToVerify, ports.EventEnvelope{EventID: "evt-1", EventType: "order.confirmed", OccurredAt: now})
	assert.ErrorIs(t, err, domainerrors.ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveOrdersOnDatesKeysByDay(t *testing.T) {
	repo, mock := newMockRepository(t)
	day := time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT pickup_date, COUNT(*) AS total FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"pickup_date", "total"}).AddRow(day, 3))

	counts, err := repo.CountActiveOrdersOnDates(context.Background(), "shop-1", day, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-10-24": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateOrderWriteError(t *testing.T) {
	refErr := &pgconn.PgError{Code: "23505", ConstraintName: ordersRefConstraint}
	if !errors.Is(translateOrderWriteError(refErr), domainerrors.ErrDuplicateRef) {
		t.Fatalf("expected ErrDuplicateRef")
	}
	other := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"}
	if !errors.Is(translateOrderWriteError(other), domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest")
	}
	plain := errors.New("boom")
	if translateOrderWriteError(plain) != plain {
		t.Fatalf("expected passthrough error")
	}
}

func TestCreateOrderWithOutboxRejectsFullDateUnderLock(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	pickup := time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("shop-1|2026-10-24").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.CreateOrderWithOutbox(context.Background(), entities.Order{
		OrderID:    "o-3",
		Ref:        "CMD-ABCDEF",
		ShopID:     "shop-1",
		Status:     entities.StatusToVerify,
		PickupDate: pickup,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, 2, ports.EventEnvelope{EventID: "evt-3", EventType: "order.placed", OccurredAt: now})
	assert.ErrorIs(t, err, domainerrors.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
