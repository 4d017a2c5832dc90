package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"
)

type Store struct {
	mu               sync.RWMutex
	shops            map[string]entities.Shop
	availabilities   map[string]map[time.Weekday]entities.Availability
	unavailabilities map[string]map[string]entities.Unavailability
	faqs             map[string]map[string]entities.FAQ
	idempotency      map[string]ports.IdempotencyRecord
	sequence         uint64
}

// NewStore returns an empty store seeded with the given shops, each with
// the default weekly schedule.
func NewStore(seed ...entities.Shop) *Store {
	store := &Store{
		shops:            make(map[string]entities.Shop),
		availabilities:   make(map[string]map[time.Weekday]entities.Availability),
		unavailabilities: make(map[string]map[string]entities.Unavailability),
		faqs:             make(map[string]map[string]entities.FAQ),
		idempotency:      make(map[string]ports.IdempotencyRecord),
	}
	for _, shop := range seed {
		_ = store.CreateShopWithAvailabilities(context.Background(), shop, entities.DefaultAvailabilities(shop.ShopID))
	}
	return store
}

func (s *Store) CreateShopWithAvailabilities(ctx context.Context, shop entities.Shop, availabilities []entities.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shops[shop.ShopID]; exists {
		return domainerrors.ErrShopAlreadyExists
	}
	for _, existing := range s.shops {
		if existing.Slug == shop.Slug {
			return domainerrors.ErrSlugTaken
		}
		if existing.OwnerID == shop.OwnerID {
			return domainerrors.ErrShopAlreadyExists
		}
	}
	s.shops[shop.ShopID] = shop
	week := make(map[time.Weekday]entities.Availability, len(availabilities))
	for _, item := range availabilities {
		week[item.Weekday] = item
	}
	s.availabilities[shop.ShopID] = week
	return nil
}

func (s *Store) GetShop(ctx context.Context, shopID string) (entities.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shop, ok := s.shops[shopID]
	if !ok {
		return entities.Shop{}, domainerrors.ErrShopNotFound
	}
	return shop, nil
}

func (s *Store) GetShopBySlug(ctx context.Context, slug string) (entities.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, shop := range s.shops {
		if shop.Slug == slug {
			return shop, nil
		}
	}
	return entities.Shop{}, domainerrors.ErrShopNotFound
}

func (s *Store) GetShopByOwner(ctx context.Context, ownerID string) (entities.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, shop := range s.shops {
		if shop.OwnerID == ownerID {
			return shop, nil
		}
	}
	return entities.Shop{}, domainerrors.ErrShopNotFound
}

func (s *Store) UpdateShop(ctx context.Context, shop entities.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[shop.ShopID]; !ok {
		return domainerrors.ErrShopNotFound
	}
	for id, existing := range s.shops {
		if id != shop.ShopID && existing.Slug == shop.Slug {
			return domainerrors.ErrSlugTaken
		}
	}
	s.shops[shop.ShopID] = shop
	return nil
}

func (s *Store) ListAvailabilities(ctx context.Context, shopID string) ([]entities.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.shops[shopID]; !ok {
		return nil, domainerrors.ErrShopNotFound
	}
	items := make([]entities.Availability, 0, len(s.availabilities[shopID]))
	for _, item := range s.availabilities[shopID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Weekday < items[j].Weekday })
	return items, nil
}

func (s *Store) UpsertAvailability(ctx context.Context, availability entities.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[availability.ShopID]; !ok {
		return domainerrors.ErrShopNotFound
	}
	if s.availabilities[availability.ShopID] == nil {
		s.availabilities[availability.ShopID] = make(map[time.Weekday]entities.Availability)
	}
	s.availabilities[availability.ShopID][availability.Weekday] = availability
	return nil
}

func (s *Store) ListUnavailabilities(ctx context.Context, shopID string, endingFrom time.Time) ([]entities.Unavailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Unavailability, 0)
	for _, item := range s.unavailabilities[shopID] {
		if item.EndDate.Before(endingFrom) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartDate.Before(items[j].StartDate) })
	return items, nil
}

func (s *Store) CreateUnavailability(ctx context.Context, item entities.Unavailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailabilities[item.ShopID] == nil {
		s.unavailabilities[item.ShopID] = make(map[string]entities.Unavailability)
	}
	s.unavailabilities[item.ShopID][item.UnavailabilityID] = item
	return nil
}

func (s *Store) DeleteUnavailability(ctx context.Context, shopID string, unavailabilityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unavailabilities[shopID][unavailabilityID]; !ok {
		return domainerrors.ErrUnavailabilityNotFound
	}
	delete(s.unavailabilities[shopID], unavailabilityID)
	return nil
}

func (s *Store) ListFAQ(ctx context.Context, shopID string) ([]entities.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedFAQLocked(shopID), nil
}

func (s *Store) GetFAQ(ctx context.Context, shopID string, faqID string) (entities.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	faq, ok := s.faqs[shopID][faqID]
	if !ok {
		return entities.FAQ{}, domainerrors.ErrFAQNotFound
	}
	return faq, nil
}

func (s *Store) CreateFAQ(ctx context.Context, faq entities.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faqs[faq.ShopID] == nil {
		s.faqs[faq.ShopID] = make(map[string]entities.FAQ)
	}
	s.faqs[faq.ShopID][faq.FAQID] = faq
	return nil
}

func (s *Store) UpdateFAQ(ctx context.Context, faq entities.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.faqs[faq.ShopID][faq.FAQID]; !ok {
		return domainerrors.ErrFAQNotFound
	}
	s.faqs[faq.ShopID][faq.FAQID] = faq
	return nil
}

func (s *Store) DeleteFAQ(ctx context.Context, shopID string, faqID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.faqs[shopID][faqID]; !ok {
		return domainerrors.ErrFAQNotFound
	}
	delete(s.faqs[shopID], faqID)
	for position, faq := range s.sortedFAQLocked(shopID) {
		if faq.Position != position {
			faq.Position = position
			faq.UpdatedAt = now
			s.faqs[shopID][faq.FAQID] = faq
		}
	}
	return nil
}

func (s *Store) ReorderFAQ(ctx context.Context, shopID string, orderedIDs []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for position, id := range orderedIDs {
		faq, ok := s.faqs[shopID][id]
		if !ok {
			return domainerrors.ErrFAQNotFound
		}
		faq.Position = position
		faq.UpdatedAt = now
		s.faqs[shopID][id] = faq
	}
	return nil
}

func (s *Store) sortedFAQLocked(shopID string) []entities.FAQ {
	items := make([]entities.FAQ, 0, len(s.faqs[shopID]))
	for _, faq := range s.faqs[shopID] {
		items = append(items, faq)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Position < items[j].Position
	})
	return items
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
	return fmt.Sprintf("shop_%d", n), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.ShopRepository = (*Store)(nil)
var _ ports.FAQRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
