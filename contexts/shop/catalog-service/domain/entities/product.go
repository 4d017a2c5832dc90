package entities

import (
	"strings"
	"time"

	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
)

const (
	MaxNameLength        = 120
	MaxDescriptionLength = 5000
	MaxFormFields        = 30
	// MaxPriceCents bounds base prices and every surcharge.
	MaxPriceCents        = 10_000_000
)

type Product struct {
	ProductID      string
	ShopID         string
	Name           string
	Description    string
	BasePriceCents int64
	ImageURL       string
	Category       string
	MinDaysNotice  *int
	IsActive       bool
	Position       int
	Form           []FormField
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// IsOrderable reports whether customers can check the product out.
func (p Product) IsOrderable() bool {
	return p.IsActive && !p.IsDeleted()
}

func ValidateProductDetails(name string, description string, basePriceCents int64, minDaysNotice *int) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength || len(description) > MaxDescriptionLength {
		return domainerrors.ErrInvalidRequest
	}
	if basePriceCents < 0 || basePriceCents > MaxPriceCents {
		return domainerrors.ErrInvalidPrice
	}
	if minDaysNotice != nil && (*minDaysNotice < 0 || *minDaysNotice > 90) {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}
