package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	shopsSlugConstraint  = "shops_slug_key"
	shopsOwnerConstraint = "shops_owner_id_key"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateShopWithAvailabilities(ctx context.Context, shop entities.Shop, availabilities []entities.Availability) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := shopModelFromEntity(shop)
		if err := tx.Create(&row).Error; err != nil {
			return translateShopWriteError(err)
		}
		rows := make([]availabilityModel, 0, len(availabilities))
		for _, item := range availabilities {
			rows = append(rows, availabilityModelFromEntity(item))
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repository) GetShop(ctx context.Context, shopID string) (entities.Shop, error) {
	return r.findShop(ctx, "shop_id = ?", shopID)
}

func (r *Repository) GetShopBySlug(ctx context.Context, slug string) (entities.Shop, error) {
	return r.findShop(ctx, "slug = ?", slug)
}

func (r *Repository) GetShopByOwner(ctx context.Context, ownerID string) (entities.Shop, error) {
	return r.findShop(ctx, "owner_id = ?", ownerID)
}

func (r *Repository) findShop(ctx context.Context, query string, arg string) (entities.Shop, error) {
	var row shopModel
	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Shop{}, domainerrors.ErrShopNotFound
		}
		return entities.Shop{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateShop(ctx context.Context, shop entities.Shop) error {
	row := shopModelFromEntity(shop)
	result := r.db.WithContext(ctx).
		Model(&shopModel{}).
		Where("shop_id = ?", shop.ShopID).
		Select("*").
		Omit("shop_id", "owner_id", "created_at").
		Updates(&row)
	if result.Error != nil {
		return translateShopWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrShopNotFound
	}
	return nil
}

func (r *Repository) ListAvailabilities(ctx context.Context, shopID string) ([]entities.Availability, error) {
	var rows []availabilityModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("weekday ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Availability, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertAvailability(ctx context.Context, availability entities.Availability) error {
	row := availabilityModelFromEntity(availability)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "weekday"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_open", "daily_order_limit"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) ListUnavailabilities(ctx context.Context, shopID string, endingFrom time.Time) ([]entities.Unavailability, error) {
	var rows []unavailabilityModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND end_date >= ?", shopID, endingFrom.UTC()).
		Order("start_date ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Unavailability, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateUnavailability(ctx context.Context, item entities.Unavailability) error {
	row := unavailabilityModel{
		UnavailabilityID: item.UnavailabilityID,
		ShopID:           item.ShopID,
		StartDate:        item.StartDate.UTC(),
		EndDate:          item.EndDate.UTC(),
		Reason:           item.Reason,
		CreatedAt:        item.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) DeleteUnavailability(ctx context.Context, shopID string, unavailabilityID string) error {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND unavailability_id = ?", shopID, unavailabilityID).
		Delete(&unavailabilityModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUnavailabilityNotFound
	}
	return nil
}

func (r *Repository) ListFAQ(ctx context.Context, shopID string) ([]entities.FAQ, error) {
	var rows []faqModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.FAQ, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetFAQ(ctx context.Context, shopID string, faqID string) (entities.FAQ, error) {
	var row faqModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND faq_id = ?", shopID, faqID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.FAQ{}, domainerrors.ErrFAQNotFound
		}
		return entities.FAQ{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateFAQ(ctx context.Context, faq entities.FAQ) error {
	row := faqModelFromEntity(faq)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) UpdateFAQ(ctx context.Context, faq entities.FAQ) error {
	result := r.db.WithContext(ctx).
		Model(&faqModel{}).
		Where("shop_id = ? AND faq_id = ?", faq.ShopID, faq.FAQID).
		Updates(map[string]any{
			"question":   faq.Question,
			"answer":     faq.Answer,
			"updated_at": faq.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrFAQNotFound
	}
	return nil
}

func (r *Repository) DeleteFAQ(ctx context.Context, shopID string, faqID string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row faqModel
		if err := tx.
			Where("shop_id = ? AND faq_id = ?", shopID, faqID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrFAQNotFound
			}
			return err
		}
		if err := tx.Delete(&faqModel{}, "faq_id = ?", faqID).Error; err != nil {
			return err
		}
		return tx.Model(&faqModel{}).
			Where("shop_id = ? AND position > ?", shopID, row.Position).
			Updates(map[string]any{
				"position":   gorm.Expr("position - 1"),
				"updated_at": now.UTC(),
			}).
			Error
	})
}

func (r *Repository) ReorderFAQ(ctx context.Context, shopID string, orderedIDs []string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			result := tx.Model(&faqModel{}).
				Where("shop_id = ? AND faq_id = ?", shopID, id).
				Updates(map[string]any{
					"position":   position,
					"updated_at": now.UTC(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domainerrors.ErrFAQNotFound
			}
		}
		return nil
	})
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

type shopModel struct {
	ShopID              string    `gorm:"column:shop_id;primaryKey"`
	OwnerID             string    `gorm:"column:owner_id"`
	Slug                string    `gorm:"column:slug"`
	Name                string    `gorm:"column:name"`
	Email               string    `gorm:"column:email"`
	Description         string    `gorm:"column:description"`
	Currency            string    `gorm:"column:currency"`
	DepositPercentage   int       `gorm:"column:deposit_percentage"`
	MinDaysNotice       int       `gorm:"column:min_days_notice"`
	PrimaryColor        string    `gorm:"column:primary_color"`
	SecondaryColor      string    `gorm:"column:secondary_color"`
	BackgroundColor     string    `gorm:"column:background_color"`
	FontFamily          string    `gorm:"column:font_family"`
	LogoURL             string    `gorm:"column:logo_url"`
	BannerURL           string    `gorm:"column:banner_url"`
	PaypalHandle        string    `gorm:"column:paypal_handle"`
	PaymentInstructions string    `gorm:"column:payment_instructions"`
	IsActive            bool      `gorm:"column:is_active"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (shopModel) TableName() string {
	return "shops"
}

func shopModelFromEntity(shop entities.Shop) shopModel {
	return shopModel{
		ShopID:              shop.ShopID,
		OwnerID:             shop.OwnerID,
		Slug:                shop.Slug,
		Name:                shop.Name,
		Email:               shop.Email,
		Description:         shop.Description,
		Currency:            shop.Currency,
		DepositPercentage:   shop.DepositPercentage,
		MinDaysNotice:       shop.MinDaysNotice,
		PrimaryColor:        shop.Customization.PrimaryColor,
		SecondaryColor:      shop.Customization.SecondaryColor,
		BackgroundColor:     shop.Customization.BackgroundColor,
		FontFamily:          shop.Customization.FontFamily,
		LogoURL:             shop.Customization.LogoURL,
		BannerURL:           shop.Customization.BannerURL,
		PaypalHandle:        shop.Payment.PaypalHandle,
		PaymentInstructions: shop.Payment.PaymentInstructions,
		IsActive:            shop.IsActive,
		CreatedAt:           shop.CreatedAt.UTC(),
		UpdatedAt:           shop.UpdatedAt.UTC(),
	}
}

func (m shopModel) toEntity() entities.Shop {
	return entities.Shop{
		ShopID:            m.ShopID,
		OwnerID:           m.OwnerID,
		Slug:              m.Slug,
		Name:              m.Name,
		Email:             m.Email,
		Description:       m.Description,
		Currency:          m.Currency,
		DepositPercentage: m.DepositPercentage,
		MinDaysNotice:     m.MinDaysNotice,
		Customization: entities.Customization{
			PrimaryColor:    m.PrimaryColor,
			SecondaryColor:  m.SecondaryColor,
			BackgroundColor: m.BackgroundColor,
			FontFamily:      m.FontFamily,
			LogoURL:         m.LogoURL,
			BannerURL:       m.BannerURL,
		},
		Payment: entities.PaymentSettings{
			PaypalHandle:        m.PaypalHandle,
			PaymentInstructions: m.PaymentInstructions,
		},
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type availabilityModel struct {
	ShopID          string `gorm:"column:shop_id;primaryKey"`
	Weekday         int    `gorm:"column:weekday;primaryKey"`
	IsOpen          bool   `gorm:"column:is_open"`
	DailyOrderLimit int    `gorm:"column:daily_order_limit"`
}

func (availabilityModel) TableName() string {
	return "shop_availabilities"
}

func availabilityModelFromEntity(item entities.Availability) availabilityModel {
	return availabilityModel{
		ShopID:          item.ShopID,
		Weekday:         int(item.Weekday),
		IsOpen:          item.IsOpen,
		DailyOrderLimit: item.DailyOrderLimit,
	}
}

func (m availabilityModel) toEntity() entities.Availability {
	return entities.Availability{
		ShopID:          m.ShopID,
		Weekday:         time.Weekday(m.Weekday),
		IsOpen:          m.IsOpen,
		DailyOrderLimit: m.DailyOrderLimit,
	}
}

type unavailabilityModel struct {
	UnavailabilityID string    `gorm:"column:unavailability_id;primaryKey"`
	ShopID           string    `gorm:"column:shop_id"`
	StartDate        time.Time `gorm:"column:start_date"`
	EndDate          time.Time `gorm:"column:end_date"`
	Reason           string    `gorm:"column:reason"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (unavailabilityModel) TableName() string {
	return "shop_unavailabilities"
}

func (m unavailabilityModel) toEntity() entities.Unavailability {
	return entities.Unavailability{
		UnavailabilityID: m.UnavailabilityID,
		ShopID:           m.ShopID,
		StartDate:        entities.DateOnly(m.StartDate),
		EndDate:          entities.DateOnly(m.EndDate),
		Reason:           m.Reason,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type faqModel struct {
	FAQID     string    `gorm:"column:faq_id;primaryKey"`
	ShopID    string    `gorm:"column:shop_id"`
	Question  string    `gorm:"column:question"`
	Answer    string    `gorm:"column:answer"`
	Position  int       `gorm:"column:position"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (faqModel) TableName() string {
	return "shop_faqs"
}

func faqModelFromEntity(faq entities.FAQ) faqModel {
	return faqModel{
		FAQID:     faq.FAQID,
		ShopID:    faq.ShopID,
		Question:  faq.Question,
		Answer:    faq.Answer,
		Position:  faq.Position,
		CreatedAt: faq.CreatedAt.UTC(),
		UpdatedAt: faq.UpdatedAt.UTC(),
	}
}

func (m faqModel) toEntity() entities.FAQ {
	return entities.FAQ{
		FAQID:     m.FAQID,
		ShopID:    m.ShopID,
		Question:  m.Question,
		Answer:    m.Answer,
		Position:  m.Position,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "shop_idempotency"
}

func translateShopWriteError(err error) error {
	if !isUniqueViolation(err) {
		return err
	}
	switch constraintName(err) {
	case shopsSlugConstraint:
		return domainerrors.ErrSlugTaken
	case shopsOwnerConstraint:
		return domainerrors.ErrShopAlreadyExists
	default:
		return domainerrors.ErrShopAlreadyExists
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

var _ ports.ShopRepository = (*Repository)(nil)
var _ ports.FAQRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
