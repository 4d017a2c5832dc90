package application

import (
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
)

// SlotRules combines the shop schedule with the notice period that applies
// to an order. A product override wins over the shop value.
func SlotRules(shop ports.ShopSnapshot, productNotice *int) services.SlotRules {
	notice := shop.MinDaysNotice
	if productNotice != nil {
		notice = *productNotice
	}
	return services.SlotRules{
		Week:          shop.Week,
		Closures:      append([]services.Closure(nil), shop.Closures...),
		MinDaysNotice: notice,
	}
}
