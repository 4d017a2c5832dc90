package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Reserve(ctx context.Context, delivery entities.Delivery) (bool, error) {
	row := deliveryModel{
		EventID:       delivery.EventID,
		Recipient:     delivery.Recipient,
		EventType:     delivery.EventType,
		OrderRef:      delivery.OrderRef,
		Role:          string(delivery.Role),
		Status:        string(entities.DeliveryPending),
		Attempts:      delivery.Attempts,
		NextAttemptAt: utcPtr(delivery.NextAttemptAt),
		Envelope:      delivery.Envelope,
		CreatedAt:     delivery.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "recipient"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) MarkSent(ctx context.Context, eventID string, recipient string, subject string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("event_id = ? AND recipient = ?", eventID, recipient).
		Updates(map[string]any{
			"status":          string(entities.DeliverySent),
			"subject":         subject,
			"sent_at":         sentAt.UTC(),
			"last_error":      "",
			"next_attempt_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDeliveryNotFound
	}
	return nil
}

func (r *Repository) MarkFailed(
	ctx context.Context,
	eventID string,
	recipient string,
	status entities.DeliveryStatus,
	lastError string,
	nextAttemptAt *time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("event_id = ? AND recipient = ?", eventID, recipient).
		Updates(map[string]any{
			"status":          string(status),
			"last_error":      truncateError(lastError),
			"next_attempt_at": utcPtr(nextAttemptAt),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDeliveryNotFound
	}
	return nil
}

func (r *Repository) ListDue(ctx context.Context, now time.Time, limit int) ([]entities.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []deliveryModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND next_attempt_at <= ?",
			[]string{string(entities.DeliveryPending), string(entities.DeliveryFailed)}, now.UTC()).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Delivery, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ClaimRetry is a compare-and-set on attempts, so two sweeps never send the
// same delivery.
func (r *Repository) ClaimRetry(
	ctx context.Context,
	eventID string,
	recipient string,
	attempts int,
	now time.Time,
	leaseUntil time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("event_id = ? AND recipient = ? AND attempts = ? AND status IN ? AND next_attempt_at <= ?",
			eventID, recipient, attempts,
			[]string{string(entities.DeliveryPending), string(entities.DeliveryFailed)}, now.UTC()).
		Updates(map[string]any{
			"status":          string(entities.DeliveryPending),
			"attempts":        gorm.Expr("attempts + 1"),
			"next_attempt_at": leaseUntil.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type deliveryModel struct {
	EventID       string     `gorm:"column:event_id;primaryKey"`
	Recipient     string     `gorm:"column:recipient;primaryKey"`
	EventType     string     `gorm:"column:event_type"`
	OrderRef      string     `gorm:"column:order_ref"`
	Role          string     `gorm:"column:role"`
	Subject       string     `gorm:"column:subject"`
	Status        string     `gorm:"column:status"`
	Attempts      int        `gorm:"column:attempts"`
	LastError     string     `gorm:"column:last_error"`
	NextAttemptAt *time.Time `gorm:"column:next_attempt_at"`
	Envelope      []byte     `gorm:"column:envelope"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	SentAt        *time.Time `gorm:"column:sent_at"`
}

func (deliveryModel) TableName() string {
	return "email_deliveries"
}

func (m deliveryModel) toEntity() entities.Delivery {
	return entities.Delivery{
		EventID:       m.EventID,
		EventType:     m.EventType,
		OrderRef:      m.OrderRef,
		Recipient:     m.Recipient,
		Role:          entities.Role(m.Role),
		Subject:       m.Subject,
		Status:        entities.DeliveryStatus(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		NextAttemptAt: utcPtr(m.NextAttemptAt),
		Envelope:      append([]byte(nil), m.Envelope...),
		CreatedAt:     m.CreatedAt.UTC(),
		SentAt:        utcPtr(m.SentAt),
	}
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := value.UTC()
	return &out
}

func truncateError(message string) string {
	const maxErrorLength = 500
	if len(message) > maxErrorLength {
		return message[:maxErrorLength]
	}
	return message
}

var _ ports.DeliveryLog = (*Repository)(nil)
