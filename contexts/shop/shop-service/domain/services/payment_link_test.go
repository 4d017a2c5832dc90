package services

import "testing"

func TestPaymentLink(t *testing.T) {
	cases := []struct {
		name     string
		handle   string
		cents    int64
		currency string
		want     string
	}{
		{name: "deposit", handle: "lapatissiere", cents: 1250, currency: "EUR", want: "https://paypal.me/lapatissiere/12.50EUR"},
		{name: "lowercase currency", handle: "cake", cents: 5, currency: "chf", want: "https://paypal.me/cake/0.05CHF"},
		{name: "no handle", handle: "", cents: 1000, currency: "EUR", want: ""},
		{name: "zero amount", handle: "cake", cents: 0, currency: "EUR", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PaymentLink(tc.handle, tc.cents, tc.currency)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
