package entities

import (
	"regexp"
	"strings"
	"time"

	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
)

const (
	DefaultCurrency          = "EUR"
	DefaultDepositPercentage = 30
	DefaultMinDaysNotice     = 2
	MaxMinDaysNotice         = 90
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,38})[a-z0-9]$`)
	colorPattern    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	paypalPattern   = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)
)

// SupportedFonts is the allow-list offered in the customization screen.
var SupportedFonts = []string{
	"Playfair Display",
	"Lora",
	"Montserrat",
	"Poppins",
	"Dancing Script",
	"Great Vibes",
	"Open Sans",
}

type Customization struct {
	PrimaryColor    string
	SecondaryColor  string
	BackgroundColor string
	FontFamily      string
	LogoURL         string
	BannerURL       string
}

func DefaultCustomization() Customization {
	return Customization{
		PrimaryColor:    "#d4a5a5",
		SecondaryColor:  "#6b4f4f",
		BackgroundColor: "#fffaf5",
		FontFamily:      "Playfair Display",
	}
}

func (c Customization) Validate() error {
	for _, color := range []string{c.PrimaryColor, c.SecondaryColor, c.BackgroundColor} {
		if !colorPattern.MatchString(color) {
			return domainerrors.ErrInvalidColor
		}
	}
	for _, font := range SupportedFonts {
		if font == c.FontFamily {
			return nil
		}
	}
	return domainerrors.ErrInvalidFont
}

type PaymentSettings struct {
	PaypalHandle        string
	PaymentInstructions string
}

func (p PaymentSettings) Validate() error {
	if p.PaypalHandle == "" {
		return nil
	}
	if !paypalPattern.MatchString(p.PaypalHandle) {
		return domainerrors.ErrInvalidPaypalHandle
	}
	return nil
}

type Shop struct {
	ShopID            string
	OwnerID           string
	Slug              string
	Name              string
	Email             string
	Description       string
	Currency          string
	DepositPercentage int
	MinDaysNotice     int
	Customization     Customization
	Payment           PaymentSettings
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewShop builds an active shop with default settings. Slug is normalized
// to lowercase before validation.
func NewShop(shopID string, ownerID string, slug string, name string, email string, now time.Time) (Shop, error) {
	slug = NormalizeSlug(slug)
	if strings.TrimSpace(shopID) == "" ||
		strings.TrimSpace(ownerID) == "" ||
		strings.TrimSpace(name) == "" ||
		!strings.Contains(email, "@") {
		return Shop{}, domainerrors.ErrInvalidRequest
	}
	if !slugPattern.MatchString(slug) {
		return Shop{}, domainerrors.ErrInvalidSlug
	}
	return Shop{
		ShopID:            shopID,
		OwnerID:           ownerID,
		Slug:              slug,
		Name:              strings.TrimSpace(name),
		Email:             strings.TrimSpace(email),
		Currency:          DefaultCurrency,
		DepositPercentage: DefaultDepositPercentage,
		MinDaysNotice:     DefaultMinDaysNotice,
		Customization:     DefaultCustomization(),
		IsActive:          true,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}, nil
}

func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return domainerrors.ErrInvalidSlug
	}
	return nil
}

// ValidateSettings checks the order-facing settings of a shop.
func ValidateSettings(currency string, depositPercentage int, minDaysNotice int) error {
	if !currencyPattern.MatchString(currency) {
		return domainerrors.ErrInvalidCurrency
	}
	if depositPercentage < 0 || depositPercentage > 100 {
		return domainerrors.ErrInvalidDeposit
	}
	if minDaysNotice < 0 || minDaysNotice > MaxMinDaysNotice {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}
