package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	"cakeshop/contexts/shop/catalog-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repository) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]entities.Product, int, error) {
	tx := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("shop_id = ? AND deleted_at IS NULL", filter.ShopID)
	if !filter.IncludeInactive {
		tx = tx.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []productModel
	if err := tx.Session(&gorm.Session{}).
		Order("position ASC").
		Order("created_at ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}
	items := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	var row productModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Product{}, domainerrors.ErrProductNotFound
		}
		return entities.Product{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateProduct(ctx context.Context, product entities.Product) error {
	row := productModelFromEntity(product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product entities.Product) error {
	row := productModelFromEntity(product)
	result := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ?", product.ProductID).
		Select("*").
		Omit("product_id", "shop_id", "created_at").
		Updates(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProductNotFound
	}
	return nil
}

func (r *Repository) NextPosition(ctx context.Context, shopID string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&productModel{}).
		Select("COALESCE(MAX(position) + 1, 0)").
		Where("shop_id = ?", shopID).
		Scan(&next).
		Error
	return next, err
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

type productModel struct {
	ProductID      string            `gorm:"column:product_id;primaryKey"`
	ShopID         string            `gorm:"column:shop_id"`
	Name           string            `gorm:"column:name"`
	Description    string            `gorm:"column:description"`
	BasePriceCents int64             `gorm:"column:base_price_cents"`
	ImageURL       string            `gorm:"column:image_url"`
	Category       string            `gorm:"column:category"`
	MinDaysNotice  *int              `gorm:"column:min_days_notice"`
	IsActive       bool              `gorm:"column:is_active"`
	Position       int               `gorm:"column:position"`
	Form           []formFieldRecord `gorm:"column:form;serializer:json"`
	DeletedAt      *time.Time        `gorm:"column:deleted_at"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (productModel) TableName() string {
	return "products"
}

type formFieldRecord struct {
	FieldID    string              `json:"field_id"`
	Label      string              `json:"label"`
	Type       string              `json:"type"`
	Required   bool                `json:"required"`
	Options    []fieldOptionRecord `json:"options,omitempty"`
	PriceCents int64               `json:"price_cents,omitempty"`
}

type fieldOptionRecord struct {
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
	PriceCents int64  `json:"price_cents"`
}

func productModelFromEntity(product entities.Product) productModel {
	form := make([]formFieldRecord, 0, len(product.Form))
	for _, field := range product.Form {
		options := make([]fieldOptionRecord, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, fieldOptionRecord{
				OptionID:   option.OptionID,
				Label:      option.Label,
				PriceCents: option.PriceCents,
			})
		}
		form = append(form, formFieldRecord{
			FieldID:    field.FieldID,
			Label:      field.Label,
			Type:       string(field.Type),
			Required:   field.Required,
			Options:    options,
			PriceCents: field.PriceCents,
		})
	}
	var deletedAt *time.Time
	if product.DeletedAt != nil {
		value := product.DeletedAt.UTC()
		deletedAt = &value
	}
	return productModel{
		ProductID:      product.ProductID,
		ShopID:         product.ShopID,
		Name:           product.Name,
		Description:    product.Description,
		BasePriceCents: product.BasePriceCents,
		ImageURL:       product.ImageURL,
		Category:       product.Category,
		MinDaysNotice:  product.MinDaysNotice,
		IsActive:       product.IsActive,
		Position:       product.Position,
		Form:           form,
		DeletedAt:      deletedAt,
		CreatedAt:      product.CreatedAt.UTC(),
		UpdatedAt:      product.UpdatedAt.UTC(),
	}
}

func (m productModel) toEntity() entities.Product {
	form := make([]entities.FormField, 0, len(m.Form))
	for _, field := range m.Form {
		options := make([]entities.FieldOption, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, entities.FieldOption{
				OptionID:   option.OptionID,
				Label:      option.Label,
				PriceCents: option.PriceCents,
			})
		}
		form = append(form, entities.FormField{
			FieldID:    field.FieldID,
			Label:      field.Label,
			Type:       entities.FieldType(field.Type),
			Required:   field.Required,
			Options:    options,
			PriceCents: field.PriceCents,
		})
	}
	var deletedAt *time.Time
	if m.DeletedAt != nil {
		value := m.DeletedAt.UTC()
		deletedAt = &value
	}
	return entities.Product{
		ProductID:      m.ProductID,
		ShopID:         m.ShopID,
		Name:           m.Name,
		Description:    m.Description,
		BasePriceCents: m.BasePriceCents,
		ImageURL:       m.ImageURL,
		Category:       m.Category,
		MinDaysNotice:  m.MinDaysNotice,
		IsActive:       m.IsActive,
		Position:       m.Position,
		Form:           form,
		DeletedAt:      deletedAt,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "catalog_idempotency"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProductRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
