package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
)

func TestNextStatusTable(t *testing.T) {
	cases := []struct {
		from   OrderStatus
		action Action
		actor  Actor
		want   OrderStatus
		err    error
	}{
		{StatusPending, ActionSendQuote, ActorMerchant, StatusQuoted, nil},
		{StatusPending, ActionRefuse, ActorMerchant, StatusRefused, nil},
		{StatusQuoted, ActionAcceptQuote, ActorCustomer, StatusToVerify, nil},
		{StatusQuoted, ActionRejectQuote, ActorCustomer, StatusRefused, nil},
		{StatusQuoted, ActionExpireQuote, ActorSystem, StatusRefused, nil},
		{StatusToVerify, ActionConfirmPayment, ActorMerchant, StatusConfirmed, nil},
		{StatusConfirmed, ActionMarkReady, ActorMerchant, StatusReady, nil},
		{StatusReady, ActionComplete, ActorMerchant, StatusCompleted, nil},
		{StatusConfirmed, ActionRefuse, ActorMerchant, "", domainerrors.ErrInvalidTransition},
		{StatusCompleted, ActionRefuse, ActorMerchant, "", domainerrors.ErrInvalidTransition},
		{StatusRefused, ActionSendQuote, ActorMerchant, "", domainerrors.ErrInvalidTransition},
		{StatusToVerify, ActionMarkReady, ActorMerchant, "", domainerrors.ErrInvalidTransition},
		{StatusQuoted, ActionAcceptQuote, ActorMerchant, "", domainerrors.ErrForbidden},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.action, tc.actor)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s/%s: expected %v, got %v", tc.from, tc.action, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%s/%s: expected %s, got %s (%v)", tc.from, tc.action, tc.want, got, err)
		}
	}
}

func TestApplyAcceptQuoteCopiesAmounts(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	order := Order{
		Status: StatusQuoted,
		Quote:  &Quote{AmountCents: 12000, DepositCents: 3600, ExpiresAt: now.Add(time.Hour)},
	}
	previous, err := order.Apply(ActionAcceptQuote, ActorCustomer, "", now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if previous != StatusQuoted || order.Status != StatusToVerify {
		t.Fatalf("expected quoted -> to_verify, got %s -> %s", previous, order.Status)
	}
	if order.TotalCents != 12000 || order.DepositCents != 3600 || order.PaymentDeclaredAt == nil {
		t.Fatalf("unexpected order after accept: %+v", order)
	}
}

func TestApplyAcceptExpiredQuote(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	order := Order{Status: StatusQuoted, Quote: &Quote{AmountCents: 100, ExpiresAt: now.Add(-time.Minute)}}
	if _, err := order.Apply(ActionAcceptQuote, ActorCustomer, "", now); !errors.Is(err, domainerrors.ErrQuoteExpired) {
		t.Fatalf("expected ErrQuoteExpired, got %v", err)
	}
	if order.Status != StatusQuoted {
		t.Fatalf("expected status unchanged, got %s", order.Status)
	}
}

func TestApplyExpireSetsSystemRefusal(t *testing.T) {
	order := Order{Status: StatusQuoted, Quote: &Quote{AmountCents: 100}}
	if _, err := order.Apply(ActionExpireQuote, ActorSystem, "", time.Now()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if order.Status != StatusRefused || order.RefusedBy != ActorSystem || order.RefusalReason != "quote expired" {
		t.Fatalf("unexpected refusal: %+v", order)
	}
}

func TestSendQuoteRequiresQuote(t *testing.T) {
	order := Order{Status: StatusPending}
	if _, err := order.Apply(ActionSendQuote, ActorMerchant, "", time.Now()); !errors.Is(err, domainerrors.ErrInvalidQuote) {
		t.Fatalf("expected ErrInvalidQuote, got %v", err)
	}
}
