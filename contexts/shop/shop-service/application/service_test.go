package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cakeshop/contexts/shop/shop-service/adapters/memory"
	"cakeshop/contexts/shop/shop-service/application"
	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ contractsv1.Envelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

type upperSanitizer struct{}

func (upperSanitizer) SanitizeHTML(input string) string { return "clean:" + input }

func newService(t *testing.T) (application.Service, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	publisher := &recordingPublisher{}
	return application.Service{
		Shops:       store,
		FAQs:        store,
		Idempotency: store,
		Clock:       fixedClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		IDGenerator: store,
		Sanitizer:   upperSanitizer{},
		Publisher:   publisher,
	}, store, publisher
}

func createShop(t *testing.T, service application.Service, owner string, slug string) entities.Shop {
	t.Helper()
	shop, err := service.CreateShop(context.Background(), "create-"+owner, ports.CreateShopInput{
		OwnerID:     owner,
		Slug:        slug,
		Name:        "Atelier " + slug,
		Email:       owner + "@example.com",
		Description: "<p>Gâteaux</p>",
	})
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	return shop
}

func TestCreateShopSeedsDefaultSchedule(t *testing.T) {
	service, _, publisher := newService(t)
	shop := createShop(t, service, "owner-1", "Atelier-Rose")

	if shop.Slug != "atelier-rose" {
		t.Fatalf("expected normalized slug, got %s", shop.Slug)
	}
	if shop.Description != "clean:<p>Gâteaux</p>" {
		t.Fatalf("expected sanitized description, got %q", shop.Description)
	}
	schedule, err := service.GetSchedule(context.Background(), shop.ShopID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if len(schedule.Availabilities) != 7 {
		t.Fatalf("expected 7 availabilities, got %d", len(schedule.Availabilities))
	}
	for _, item := range schedule.Availabilities {
		wantOpen := item.Weekday != time.Sunday
		if item.IsOpen != wantOpen || item.DailyOrderLimit != 0 {
			t.Fatalf("unexpected default availability %+v", item)
		}
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != contractsv1.ShopCreated {
		t.Fatalf("expected one shop.created event, got %v", publisher.topics)
	}
}

func TestCreateShopRejectsSecondShopAndTakenSlug(t *testing.T) {
	service, _, _ := newService(t)
	createShop(t, service, "owner-1", "rose")

	_, err := service.CreateShop(context.Background(), "create-again", ports.CreateShopInput{
		OwnerID: "owner-1", Slug: "other", Name: "Other", Email: "o@example.com",
	})
	if !errors.Is(err, domainerrors.ErrShopAlreadyExists) {
		t.Fatalf("expected ErrShopAlreadyExists, got %v", err)
	}

	_, err = service.CreateShop(context.Background(), "create-taken", ports.CreateShopInput{
		OwnerID: "owner-2", Slug: "rose", Name: "Rose bis", Email: "r@example.com",
	})
	if !errors.Is(err, domainerrors.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestCreateShopIdempotencyReplayAndConflict(t *testing.T) {
	service, _, _ := newService(t)
	input := ports.CreateShopInput{OwnerID: "owner-1", Slug: "rose", Name: "Rose", Email: "r@example.com"}

	first, err := service.CreateShop(context.Background(), "idem-1", input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	replay, err := service.CreateShop(context.Background(), "idem-1", input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.ShopID != first.ShopID {
		t.Fatalf("expected replayed shop %s, got %s", first.ShopID, replay.ShopID)
	}

	input.Name = "Different"
	if _, err := service.CreateShop(context.Background(), "idem-1", input); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
	if _, err := service.CreateShop(context.Background(), " ", input); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestInactiveShopHiddenFromStorefront(t *testing.T) {
	service, _, _ := newService(t)
	createShop(t, service, "owner-1", "rose")

	if _, err := service.SetActive(context.Background(), "deactivate", "owner-1", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := service.GetShopBySlug(context.Background(), "rose", false); !errors.Is(err, domainerrors.ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
	shop, err := service.GetShopBySlug(context.Background(), "rose", true)
	if err != nil || shop.IsActive {
		t.Fatalf("expected inactive shop lookup to succeed, got %+v err=%v", shop, err)
	}
}

func intPtr(v int) *int {
	return &v
}

func TestOmittedSettingsKeepCurrentValues(t *testing.T) {
	service, _, _ := newService(t)
	createShop(t, service, "owner-1", "rose")

	if _, err := service.UpdatePaymentSettings(context.Background(), "pay-1", "owner-1", ports.UpdatePaymentInput{
		PaypalHandle: "rosecakes", Currency: "CHF", DepositPercentage: intPtr(40),
	}); err != nil {
		t.Fatalf("update payment: %v", err)
	}
	updated, err := service.UpdatePaymentSettings(context.Background(), "pay-2", "owner-1", ports.UpdatePaymentInput{
		PaypalHandle: "rosepatisserie",
	})
	if err != nil {
		t.Fatalf("update payment without deposit: %v", err)
	}
	if updated.DepositPercentage != 40 || updated.Currency != "CHF" || updated.Payment.PaypalHandle != "rosepatisserie" {
		t.Fatalf("expected deposit 40 and CHF kept, got %d %s %+v", updated.DepositPercentage, updated.Currency, updated.Payment)
	}

	if _, err := service.UpdateProfile(context.Background(), "profile-1", "owner-1", ports.UpdateProfileInput{
		Name: "Rose", Email: "rose@example.com", MinDaysNotice: intPtr(5),
	}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	profile, err := service.UpdateProfile(context.Background(), "profile-2", "owner-1", ports.UpdateProfileInput{
		Name: "Rose & Co", Email: "rose@example.com",
	})
	if err != nil {
		t.Fatalf("update profile without notice: %v", err)
	}
	if profile.MinDaysNotice != 5 || profile.Name != "Rose & Co" {
		t.Fatalf("expected notice 5 kept, got %d (%s)", profile.MinDaysNotice, profile.Name)
	}

	if _, err := service.UpdateProfile(context.Background(), "profile-3", "owner-1", ports.UpdateProfileInput{
		Name: "Rose", Email: "rose@example.com", MinDaysNotice: intPtr(-1),
	}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUpdatePaymentSettingsAndPaymentLink(t *testing.T) {
	service, _, _ := newService(t)
	shop := createShop(t, service, "owner-1", "rose")

	if _, err := service.UpdatePaymentSettings(context.Background(), "pay-bad", "owner-1", ports.UpdatePaymentInput{
		PaypalHandle: "bad handle!", Currency: "EUR", DepositPercentage: intPtr(30),
	}); !errors.Is(err, domainerrors.ErrInvalidPaypalHandle) {
		t.Fatalf("expected ErrInvalidPaypalHandle, got %v", err)
	}
	if _, err := service.UpdatePaymentSettings(context.Background(), "pay-deposit", "owner-1", ports.UpdatePaymentInput{
		PaypalHandle: "rose", Currency: "EUR", DepositPercentage: intPtr(120),
	}); !errors.Is(err, domainerrors.ErrInvalidDeposit) {
		t.Fatalf("expected ErrInvalidDeposit, got %v", err)
	}

	updated, err := service.UpdatePaymentSettings(context.Background(), "pay-ok", "owner-1", ports.UpdatePaymentInput{
		PaypalHandle: "rosecakes", Currency: "chf", DepositPercentage: intPtr(50),
	})
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.Currency != "CHF" || updated.DepositPercentage != 50 {
		t.Fatalf("unexpected payment settings %+v", updated)
	}

	link, err := service.PaymentLink(context.Background(), shop.ShopID, 2150)
	if err != nil {
		t.Fatalf("payment link: %v", err)
	}
	if link != "https://paypal.me/rosecakes/21.50CHF" {
		t.Fatalf("expected paypal link, got %s", link)
	}
}

func TestUpdateCustomizationValidatesColorsAndFont(t *testing.T) {
	service, _, _ := newService(t)
	createShop(t, service, "owner-1", "rose")

	custom := entities.DefaultCustomization()
	custom.PrimaryColor = "red"
	if _, err := service.UpdateCustomization(context.Background(), "c1", "owner-1", custom); !errors.Is(err, domainerrors.ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	custom = entities.DefaultCustomization()
	custom.FontFamily = "Comic Sans MS"
	if _, err := service.UpdateCustomization(context.Background(), "c2", "owner-1", custom); !errors.Is(err, domainerrors.ErrInvalidFont) {
		t.Fatalf("expected ErrInvalidFont, got %v", err)
	}
}

func TestScheduleAvailabilityAndUnavailabilities(t *testing.T) {
	service, _, _ := newService(t)
	shop := createShop(t, service, "owner-1", "rose")

	if _, err := service.SetAvailability(context.Background(), "a1", "owner-1", ports.SetAvailabilityInput{
		Weekday: 7, IsOpen: true,
	}); !errors.Is(err, domainerrors.ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
	if _, err := service.SetAvailability(context.Background(), "a2", "owner-1", ports.SetAvailabilityInput{
		Weekday: int(time.Saturday), IsOpen: true, DailyOrderLimit: 3,
	}); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	if _, err := service.AddUnavailability(context.Background(), "u0", "owner-1", ports.AddUnavailabilityInput{
		StartDate: "2026-08-10", EndDate: "2026-08-01",
	}); !errors.Is(err, domainerrors.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	past, err := service.AddUnavailability(context.Background(), "u1", "owner-1", ports.AddUnavailabilityInput{
		StartDate: "2026-04-01", EndDate: "2026-04-03", Reason: "Pâques",
	})
	if err != nil {
		t.Fatalf("add past closure: %v", err)
	}
	future, err := service.AddUnavailability(context.Background(), "u2", "owner-1", ports.AddUnavailabilityInput{
		StartDate: "2026-08-01", EndDate: "2026-08-15", Reason: "Congés",
	})
	if err != nil {
		t.Fatalf("add future closure: %v", err)
	}

	schedule, err := service.GetSchedule(context.Background(), shop.ShopID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if schedule.Availabilities[time.Saturday].DailyOrderLimit != 3 {
		t.Fatalf("expected saturday limit 3, got %+v", schedule.Availabilities[time.Saturday])
	}
	if len(schedule.Unavailabilities) != 1 || schedule.Unavailabilities[0].UnavailabilityID != future.UnavailabilityID {
		t.Fatalf("expected only the future closure, got %+v", schedule.Unavailabilities)
	}

	if err := service.RemoveUnavailability(context.Background(), "r1", "owner-1", past.UnavailabilityID); err != nil {
		t.Fatalf("remove closure: %v", err)
	}
	if err := service.RemoveUnavailability(context.Background(), "r2", "owner-1", "missing"); !errors.Is(err, domainerrors.ErrUnavailabilityNotFound) {
		t.Fatalf("expected ErrUnavailabilityNotFound, got %v", err)
	}
}

func TestFAQLifecycleKeepsPositionsCompact(t *testing.T) {
	service, _, _ := newService(t)
	shop := createShop(t, service, "owner-1", "rose")

	ids := make([]string, 0, 3)
	for i, question := range []string{"Délai ?", "Livraison ?", "Allergènes ?"} {
		faq, err := service.CreateFAQ(context.Background(), "faq-"+question, "owner-1", ports.FAQInput{Question: question, Answer: "Oui"})
		if err != nil {
			t.Fatalf("create faq: %v", err)
		}
		if faq.Position != i {
			t.Fatalf("expected position %d, got %d", i, faq.Position)
		}
		ids = append(ids, faq.FAQID)
	}

	if _, err := service.ReorderFAQ(context.Background(), "reorder-bad", "owner-1", ids[:2]); !errors.Is(err, domainerrors.ErrInvalidFAQOrder) {
		t.Fatalf("expected ErrInvalidFAQOrder, got %v", err)
	}
	reordered, err := service.ReorderFAQ(context.Background(), "reorder", "owner-1", []string{ids[2], ids[0], ids[1]})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if reordered[0].FAQID != ids[2] || reordered[2].FAQID != ids[1] {
		t.Fatalf("unexpected order %+v", reordered)
	}

	if err := service.DeleteFAQ(context.Background(), "delete", "owner-1", ids[2]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err := service.ListFAQ(context.Background(), shop.ShopID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].FAQID != ids[0] || items[0].Position != 0 || items[1].Position != 1 {
		t.Fatalf("expected compacted positions, got %+v", items)
	}
}

func TestMutationsRequireOwnedShop(t *testing.T) {
	service, _, _ := newService(t)
	if _, err := service.CreateFAQ(context.Background(), "k", "stranger", ports.FAQInput{Question: "Q", Answer: "A"}); !errors.Is(err, domainerrors.ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
	if _, err := service.SetActive(context.Background(), "k2", "", true); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
