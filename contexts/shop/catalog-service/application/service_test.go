package application_test

import (
	"context"
	"errors"
	"testing"

	"cakeshop/contexts/shop/catalog-service/adapters/memory"
	"cakeshop/contexts/shop/catalog-service/application"
	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	"cakeshop/contexts/shop/catalog-service/domain/services"
	"cakeshop/contexts/shop/catalog-service/ports"
)

func newService() application.Service {
	store := memory.NewStore()
	return application.Service{
		Products:    store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
	}
}

func TestCreateProductAppendsPositions(t *testing.T) {
	service := newService()
	for i, name := range []string{"Fraisier", "Paris-Brest"} {
		product, err := service.CreateProduct(context.Background(), "create-"+name, "shop-1", ports.ProductInput{
			Name: name, BasePriceCents: 3200, IsActive: true,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if product.Position != i {
			t.Fatalf("expected position %d, got %d", i, product.Position)
		}
	}
	if _, err := service.CreateProduct(context.Background(), "negative", "shop-1", ports.ProductInput{
		Name: "Oops", BasePriceCents: -1,
	}); !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestListProductsHidesInactiveAndDeleted(t *testing.T) {
	service := newService()
	ctx := context.Background()
	active, _ := service.CreateProduct(ctx, "k1", "shop-1", ports.ProductInput{Name: "Tarte", BasePriceCents: 2400, IsActive: true})
	_, _ = service.CreateProduct(ctx, "k2", "shop-1", ports.ProductInput{Name: "Brouillon", BasePriceCents: 1000})
	deleted, _ := service.CreateProduct(ctx, "k3", "shop-1", ports.ProductInput{Name: "Ancien", BasePriceCents: 1000, IsActive: true})
	_, _ = service.CreateProduct(ctx, "k4", "shop-2", ports.ProductInput{Name: "Autre boutique", BasePriceCents: 1000, IsActive: true})

	if err := service.DeleteProduct(ctx, "del", "shop-1", deleted.ProductID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	public, total, err := service.ListProducts(ctx, ports.ProductFilter{ShopID: "shop-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || public[0].ProductID != active.ProductID {
		t.Fatalf("expected only the active product, got %d items", total)
	}
	_, total, err = service.ListProducts(ctx, ports.ProductFilter{ShopID: "shop-1", IncludeInactive: true})
	if err != nil {
		t.Fatalf("list dashboard: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 dashboard products, got %d", total)
	}
	if _, err := service.GetProduct(ctx, "shop-1", deleted.ProductID, true); !errors.Is(err, domainerrors.ErrProductNotFound) {
		t.Fatalf("expected deleted product to be hidden, got %v", err)
	}
	if _, err := service.GetProduct(ctx, "shop-2", active.ProductID, true); !errors.Is(err, domainerrors.ErrProductNotFound) {
		t.Fatalf("expected product of another shop to be hidden, got %v", err)
	}
}

func TestPriceSelectionRequiresOrderableProduct(t *testing.T) {
	service := newService()
	ctx := context.Background()
	product, err := service.CreateProduct(ctx, "k1", "shop-1", ports.ProductInput{Name: "Number cake", BasePriceCents: 3000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	form := []entities.FormField{
		{FieldID: "letters", Label: "Lettres", Type: entities.FieldNumber, Required: true, PriceCents: 800},
	}
	if _, err := service.SetProductForm(ctx, "form", "shop-1", product.ProductID, form); err != nil {
		t.Fatalf("set form: %v", err)
	}

	if _, _, err := service.PriceSelection(ctx, "shop-1", product.ProductID, services.Selection{"letters": float64(2)}); !errors.Is(err, domainerrors.ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}

	if _, err := service.SetProductActive(ctx, "activate", "shop-1", product.ProductID, true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	_, quote, err := service.PriceSelection(ctx, "shop-1", product.ProductID, services.Selection{"letters": float64(2)})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if quote.TotalCents != 4600 {
		t.Fatalf("expected 4600, got %d", quote.TotalCents)
	}
}

func TestSetProductFormRejectsInvalidForm(t *testing.T) {
	service := newService()
	ctx := context.Background()
	product, _ := service.CreateProduct(ctx, "k1", "shop-1", ports.ProductInput{Name: "Entremets", BasePriceCents: 3000})

	_, err := service.SetProductForm(ctx, "form", "shop-1", product.ProductID, []entities.FormField{
		{FieldID: "size", Label: "Taille", Type: entities.FieldSelect},
	})
	if !errors.Is(err, domainerrors.ErrInvalidForm) {
		t.Fatalf("expected ErrInvalidForm, got %v", err)
	}
}
