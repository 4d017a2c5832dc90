package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	ordersRefConstraint = "orders_ref_key"
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

func (r *Repository) CreateOrderWithOutbox(ctx context.Context, order entities.Order, dailyLimit int, event ports.EventEnvelope) error {
	row := orderModelFromEntity(order)
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dailyLimit > 0 {
			if err := ensureDateCapacity(tx, row.ShopID, row.PickupDate, dailyLimit); err != nil {
				return err
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			return translateOrderWriteError(err)
		}
		return tx.Create(&outboxRow).Error
	})
	if err != nil && !errors.Is(err, domainerrors.ErrDuplicateRef) && !errors.Is(err, domainerrors.ErrSlotUnavailable) {
		r.logger.Error("order create transaction failed",
			"event", "order_postgres_create_failed",
			"module", "ordering/order-service",
			"layer", "adapter",
			"order_id", order.OrderID,
			"error", err.Error(),
		)
	}
	return err
}

// ensureDateCapacity holds a transaction-scoped advisory lock on the shop
// and pickup date, so concurrent creations for that date count one by one.
func ensureDateCapacity(tx *gorm.DB, shopID string, pickupDate time.Time, dailyLimit int) error {
	date := entities.DateOnly(pickupDate)
	lockKey := shopID + "|" + date.Format(entities.DateLayout)
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lockKey).Error; err != nil {
		return err
	}
	var booked int64
	if err := tx.Model(&orderModel{}).
		Where("shop_id = ? AND status <> ? AND pickup_date = ?", shopID, string(entities.StatusRefused), date).
		Count(&booked).
		Error; err != nil {
		return err
	}
	if booked >= int64(dailyLimit) {
		return fmt.Errorf("%w: %s", domainerrors.ErrSlotUnavailable, services.ReasonFull)
	}
	return nil
}

func (r *Repository) UpdateOrderWithOutbox(
	ctx context.Context,
	order entities.Order,
	expected entities.OrderStatus,
	event ports.EventEnvelope,
) error {
	row := orderModelFromEntity(order)
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderModel{}).
			Where("order_id = ? AND status = ?", order.OrderID, string(expected)).
			Select("*").
			Omit("order_id", "ref", "shop_id", "kind", "created_at").
			Updates(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConcurrentUpdate
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) MarkReminderSentWithOutbox(ctx context.Context, orderID string, sentAt time.Time, event ports.EventEnvelope) error {
	outboxRow, err := outboxModelFromEnvelope(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderModel{}).
			Where("order_id = ? AND reminder_sent_at IS NULL", orderID).
			Updates(map[string]any{
				"reminder_sent_at": sentAt.UTC(),
				"updated_at":       sentAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConcurrentUpdate
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *Repository) GetOrderByRef(ctx context.Context, ref string) (entities.Order, error) {
	return r.first(ctx, "ref = ?", ref)
}

func (r *Repository) first(ctx context.Context, query string, arg string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]entities.Order, int, error) {
	tx := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("shop_id = ?", filter.ShopID)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	if filter.PickupFrom != nil {
		tx = tx.Where("pickup_date >= ?", entities.DateOnly(*filter.PickupFrom))
	}
	if filter.PickupTo != nil {
		tx = tx.Where("pickup_date <= ?", entities.DateOnly(*filter.PickupTo))
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []orderModel
	if err := tx.Session(&gorm.Session{}).
		Order("pickup_date ASC").
		Order("created_at ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}
	items := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) CountActiveOrdersOnDates(ctx context.Context, shopID string, from time.Time, to time.Time) (map[string]int, error) {
	var rows []struct {
		PickupDate time.Time
		Total      int
	}
	err := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Select("pickup_date, COUNT(*) AS total").
		Where("shop_id = ? AND status <> ? AND pickup_date BETWEEN ? AND ?",
			shopID, string(entities.StatusRefused), entities.DateOnly(from), entities.DateOnly(to)).
		Group("pickup_date").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.PickupDate.UTC().Format(entities.DateLayout)] = row.Total
	}
	return counts, nil
}

func (r *Repository) ListExpiredQuotes(ctx context.Context, now time.Time, limit int) ([]entities.Order, error) {
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND quote_expires_at < ?", string(entities.StatusQuoted), now.UTC()).
		Order("quote_expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListReminderCandidates(ctx context.Context, pickupDate time.Time, limit int) ([]entities.Order, error) {
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND pickup_date = ? AND reminder_sent_at IS NULL",
			[]string{string(entities.StatusConfirmed), string(entities.StatusReady)},
			entities.DateOnly(pickupDate)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) StatusCounts(ctx context.Context, shopID string) (map[entities.OrderStatus]int, error) {
	var rows []struct {
		Status string
		Total  int
	}
	if err := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Select("status, COUNT(*) AS total").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	counts := make(map[entities.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[entities.OrderStatus(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *Repository) SumConfirmedRevenue(ctx context.Context, shopID string, from time.Time, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Select("COALESCE(SUM(total_cents), 0)").
		Where("shop_id = ? AND status <> ? AND confirmed_at >= ? AND confirmed_at < ?",
			shopID, string(entities.StatusRefused), from.UTC(), to.UTC()).
		Scan(&total).
		Error
	return total, err
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}
	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

type orderModel struct {
	OrderID           string          `gorm:"column:order_id;primaryKey"`
	Ref               string          `gorm:"column:ref"`
	ShopID            string          `gorm:"column:shop_id"`
	Kind              string          `gorm:"column:kind"`
	Status            string          `gorm:"column:status"`
	ProductID         string          `gorm:"column:product_id"`
	ProductName       string          `gorm:"column:product_name"`
	Lines             []orderLineJSON `gorm:"column:lines;serializer:json"`
	CustomerName      string          `gorm:"column:customer_name"`
	CustomerEmail     string          `gorm:"column:customer_email"`
	CustomerPhone     string          `gorm:"column:customer_phone"`
	PickupDate        time.Time       `gorm:"column:pickup_date"`
	Message           string          `gorm:"column:message"`
	InspirationURLs   []string        `gorm:"column:inspiration_urls;serializer:json"`
	BudgetCents       int64           `gorm:"column:budget_cents"`
	TotalCents        int64           `gorm:"column:total_cents"`
	DepositCents      int64           `gorm:"column:deposit_cents"`
	Currency          string          `gorm:"column:currency"`
	QuoteAmountCents  *int64          `gorm:"column:quote_amount_cents"`
	QuoteDepositCents *int64          `gorm:"column:quote_deposit_cents"`
	QuoteMessage      string          `gorm:"column:quote_message"`
	QuoteExpiresAt    *time.Time      `gorm:"column:quote_expires_at"`
	RefusalReason     string          `gorm:"column:refusal_reason"`
	RefusedBy         string          `gorm:"column:refused_by"`
	PaymentDeclaredAt *time.Time      `gorm:"column:payment_declared_at"`
	ConfirmedAt       *time.Time      `gorm:"column:confirmed_at"`
	ReadyAt           *time.Time      `gorm:"column:ready_at"`
	CompletedAt       *time.Time      `gorm:"column:completed_at"`
	ReminderSentAt    *time.Time      `gorm:"column:reminder_sent_at"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (orderModel) TableName() string {
	return "orders"
}

type orderLineJSON struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	PriceCents int64  `json:"price_cents"`
}

func orderModelFromEntity(order entities.Order) orderModel {
	lines := make([]orderLineJSON, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineJSON{Label: line.Label, Value: line.Value, PriceCents: line.PriceCents})
	}
	row := orderModel{
		OrderID:           order.OrderID,
		Ref:               order.Ref,
		ShopID:            order.ShopID,
		Kind:              string(order.Kind),
		Status:            string(order.Status),
		ProductID:         order.ProductID,
		ProductName:       order.ProductName,
		Lines:             lines,
		CustomerName:      order.Customer.Name,
		CustomerEmail:     order.Customer.Email,
		CustomerPhone:     order.Customer.Phone,
		PickupDate:        entities.DateOnly(order.PickupDate),
		Message:           order.Message,
		InspirationURLs:   append([]string{}, order.InspirationURLs...),
		BudgetCents:       order.BudgetCents,
		TotalCents:        order.TotalCents,
		DepositCents:      order.DepositCents,
		Currency:          order.Currency,
		RefusalReason:     order.RefusalReason,
		RefusedBy:         string(order.RefusedBy),
		PaymentDeclaredAt: utcPtr(order.PaymentDeclaredAt),
		ConfirmedAt:       utcPtr(order.ConfirmedAt),
		ReadyAt:           utcPtr(order.ReadyAt),
		CompletedAt:       utcPtr(order.CompletedAt),
		ReminderSentAt:    utcPtr(order.ReminderSentAt),
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
	if order.Quote != nil {
		amount := order.Quote.AmountCents
		deposit := order.Quote.DepositCents
		expiresAt := order.Quote.ExpiresAt.UTC()
		row.QuoteAmountCents = &amount
		row.QuoteDepositCents = &deposit
		row.QuoteMessage = order.Quote.Message
		row.QuoteExpiresAt = &expiresAt
	}
	return row
}

func (m orderModel) toEntity() entities.Order {
	lines := make([]entities.OrderLine, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, entities.OrderLine{Label: line.Label, Value: line.Value, PriceCents: line.PriceCents})
	}
	order := entities.Order{
		OrderID:     m.OrderID,
		Ref:         m.Ref,
		ShopID:      m.ShopID,
		Kind:        entities.OrderKind(m.Kind),
		Status:      entities.OrderStatus(m.Status),
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Lines:       lines,
		Customer: entities.Customer{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		PickupDate:        entities.DateOnly(m.PickupDate),
		Message:           m.Message,
		InspirationURLs:   append([]string(nil), m.InspirationURLs...),
		BudgetCents:       m.BudgetCents,
		TotalCents:        m.TotalCents,
		DepositCents:      m.DepositCents,
		Currency:          m.Currency,
		RefusalReason:     m.RefusalReason,
		RefusedBy:         entities.Actor(m.RefusedBy),
		PaymentDeclaredAt: utcPtr(m.PaymentDeclaredAt),
		ConfirmedAt:       utcPtr(m.ConfirmedAt),
		ReadyAt:           utcPtr(m.ReadyAt),
		CompletedAt:       utcPtr(m.CompletedAt),
		ReminderSentAt:    utcPtr(m.ReminderSentAt),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.QuoteAmountCents != nil {
		quote := entities.Quote{AmountCents: *m.QuoteAmountCents, Message: m.QuoteMessage}
		if m.QuoteDepositCents != nil {
			quote.DepositCents = *m.QuoteDepositCents
		}
		if m.QuoteExpiresAt != nil {
			quote.ExpiresAt = m.QuoteExpiresAt.UTC()
		}
		order.Quote = &quote
	}
	return order
}

func toEntities(rows []orderModel) []entities.Order {
	items := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "order_outbox"
}

func outboxModelFromEnvelope(event ports.EventEnvelope) (outboxModel, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return outboxModel{}, err
	}
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}, nil
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "order_idempotency"
}

func translateOrderWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == ordersRefConstraint {
			return domainerrors.ErrDuplicateRef
		}
		return domainerrors.ErrInvalidRequest
	}
	return err
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := value.UTC()
	return &out
}

var _ ports.OrderRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
