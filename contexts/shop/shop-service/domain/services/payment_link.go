package services

import (
	"fmt"
	"strings"
)

const paypalMeBaseURL = "https://paypal.me/"

// PaymentLink builds the paypal.me link for an amount expressed in cents.
// An empty handle or a non-positive amount yields no link.
func PaymentLink(handle string, amountCents int64, currency string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || amountCents <= 0 {
		return ""
	}
	return fmt.Sprintf("%s%s/%s%s", paypalMeBaseURL, handle, FormatMajorUnits(amountCents), strings.ToUpper(currency))
}

func FormatMajorUnits(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%d.%02d", sign, amountCents/100, amountCents%100)
}
