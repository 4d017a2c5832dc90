package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	"cakeshop/contexts/shop/catalog-service/ports"
)

type Store struct {
	mu          sync.RWMutex
	products    map[string]entities.Product
	idempotency map[string]ports.IdempotencyRecord
	sequence    uint64
}

func NewStore(seed ...entities.Product) *Store {
	store := &Store{
		products:    make(map[string]entities.Product, len(seed)),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	for _, product := range seed {
		store.products[product.ProductID] = cloneProduct(product)
	}
	return store
}

func (s *Store) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]entities.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Product, 0)
	for _, product := range s.products {
		if product.ShopID != filter.ShopID || product.IsDeleted() {
			continue
		}
		if !filter.IncludeInactive && !product.IsActive {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		items = append(items, cloneProduct(product))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Position < items[j].Position
	})

	total := len(items)
	start := (filter.Page - 1) * filter.Limit
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []entities.Product{}, total, nil
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[productID]
	if !ok {
		return entities.Product{}, domainerrors.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ProductID]; exists {
		return domainerrors.ErrInvalidRequest
	}
	s.products[product.ProductID] = cloneProduct(product)
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, product entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ProductID]; !ok {
		return domainerrors.ErrProductNotFound
	}
	s.products[product.ProductID] = cloneProduct(product)
	return nil
}

func (s *Store) NextPosition(ctx context.Context, shopID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := 0
	for _, product := range s.products {
		if product.ShopID == shopID && product.Position >= next {
			next = product.Position + 1
		}
	}
	return next, nil
}

func (s *Store) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("product_%d", n), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func cloneProduct(in entities.Product) entities.Product {
	out := in
	out.Form = make([]entities.FormField, 0, len(in.Form))
	for _, field := range in.Form {
		field.Options = append([]entities.FieldOption(nil), field.Options...)
		out.Form = append(out.Form, field)
	}
	if in.MinDaysNotice != nil {
		notice := *in.MinDaysNotice
		out.MinDaysNotice = &notice
	}
	if in.DeletedAt != nil {
		deletedAt := *in.DeletedAt
		out.DeletedAt = &deletedAt
	}
	return out
}

var _ ports.ProductRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
