package main

import "testing"

func TestCheckImport(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		imp    string
		broken int
	}{
		{name: "own domain", file: "contexts/ordering/order-service/domain/services/pricing.go", imp: "cakeshop/contexts/ordering/order-service/domain/entities"},
		{name: "domain to adapters", file: "contexts/ordering/order-service/domain/services/pricing.go", imp: "cakeshop/contexts/ordering/order-service/adapters/memory", broken: 2},
		{name: "domain to platform", file: "contexts/shop/shop-service/domain/entities/shop.go", imp: "cakeshop/internal/platform/config", broken: 2},
		{name: "domain to ports", file: "contexts/shop/shop-service/domain/entities/shop.go", imp: "cakeshop/contexts/shop/shop-service/ports", broken: 1},
		{name: "domain to stdlib", file: "contexts/shop/shop-service/domain/entities/shop.go", imp: "time"},
		{name: "application to contracts", file: "contexts/ordering/order-service/application/commands/checkout.go", imp: "cakeshop/contracts/gen/events/v1"},
		{name: "application to platform", file: "contexts/ordering/order-service/application/commands/checkout.go", imp: "cakeshop/internal/platform/messaging", broken: 2},
		{name: "cross service", file: "contexts/shop/catalog-service/adapters/postgres/repository.go", imp: "cakeshop/contexts/shop/shop-service/ports", broken: 1},
		{name: "adapter to platform", file: "contexts/shop/catalog-service/adapters/postgres/repository.go", imp: "cakeshop/internal/platform/db"},
		{name: "outside contexts", file: "internal/app/bootstrap/bootstrap.go", imp: "cakeshop/contexts/shop/shop-service"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := checkImport(locate(tc.file), tc.imp)
			if len(got) != tc.broken {
				t.Fatalf("expected %d broken rules, got %v", tc.broken, got)
			}
		})
	}
}

func TestImportedContext(t *testing.T) {
	if got := importedContext("cakeshop/contexts/ordering/order-service/ports"); got != "ordering" {
		t.Fatalf("expected ordering, got %q", got)
	}
	if got := importedContext("cakeshop/internal/platform/config"); got != "" {
		t.Fatalf("expected no context, got %q", got)
	}
	if !isCompositionRoot("internal/app/bootstrap") || isCompositionRoot("cmd/shopctl") {
		t.Fatal("expected only configured roots to be composition roots")
	}
}
