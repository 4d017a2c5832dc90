package postgresadapter

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"

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

func TestReserveReportsDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	delivery := entities.Delivery{
		EventID:   "evt-1",
		EventType: "order.placed",
		OrderRef:  "CMD-AB9A9J",
		Recipient: "lea@example.com",
		Role:      entities.RoleCustomer,
		CreatedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "email_deliveries"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	reserved, err := repo.Reserve(context.Background(), delivery)
	require.NoError(t, err)
	assert.True(t, reserved)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT ("event_id","recipient") DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	reserved, err = repo.Reserve(context.Background(), delivery)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentMissingDelivery(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_deliveries" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSent(context.Background(), "evt-1", "lea@example.com", "subject", time.Now())
	assert.ErrorIs(t, err, domainerrors.ErrDeliveryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedStoresNextAttempt(t *testing.T) {
	repo, mock := newMockRepository(t)
	next := time.Date(2026, 10, 19, 9, 2, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_deliveries" SET "last_error"=$1,"next_attempt_at"=$2,"status"=$3 WHERE event_id = $4 AND recipient = $5`)).
		WithArgs("smtp: 421 try later", next, "failed", "evt-1", "customer:lea@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), "evt-1", "customer:lea@example.com",
		entities.DeliveryFailed, "smtp: 421 try later", &next)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRetryLosesRaceWhenAttemptsMoved(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC)
	lease := now.Add(10 * time.Minute)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_deliveries" SET "attempts"=attempts + 1,"next_attempt_at"=$1,"status"=$2`)).
		WithArgs(lease, "pending", "evt-1", "customer:lea@example.com", 2, "pending", "failed", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_deliveries" SET "attempts"=attempts + 1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimRetry(context.Background(), "evt-1", "customer:lea@example.com", 2, now, lease)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimRetry(context.Background(), "evt-1", "customer:lea@example.com", 2, now, lease)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueReadsStoredEnvelope(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC)
	due := now.Add(-time.Minute)
	rows := sqlmock.NewRows([]string{"event_id", "recipient", "event_type", "role", "status", "attempts", "next_attempt_at", "envelope", "created_at"}).
		AddRow("evt-1", "customer:lea@example.com", "order.placed", "customer", "failed", 1, due, []byte(`{"id":"evt-1"}`), now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "email_deliveries" WHERE status IN ($1,$2) AND next_attempt_at <= $3 ORDER BY next_attempt_at ASC LIMIT $4`)).
		WithArgs("pending", "failed", now, 10).
		WillReturnRows(rows)

	items, err := repo.ListDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entities.DeliveryFailed, items[0].Status)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, `{"id":"evt-1"}`, string(items[0].Envelope))
	require.NotNil(t, items[0].NextAttemptAt)
	assert.True(t, items[0].NextAttemptAt.Equal(due))
	assert.NoError(t, mock.ExpectationsWereMet())
}
