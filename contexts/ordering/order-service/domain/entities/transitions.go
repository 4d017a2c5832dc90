package entities

import (
	"strings"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
)

type Action string

const (
	ActionSendQuote      Action = "send_quote"
	ActionAcceptQuote    Action = "accept_quote"
	ActionRejectQuote    Action = "reject_quote"
	ActionExpireQuote    Action = "expire_quote"
	ActionConfirmPayment Action = "confirm_payment"
	ActionMarkReady      Action = "mark_ready"
	ActionComplete       Action = "complete"
	ActionRefuse         Action = "refuse"
)

type transitionKey struct {
	from   OrderStatus
	action Action
}

type transitionRule struct {
	to    OrderStatus
	actor Actor
}

var transitionTable = map[transitionKey]transitionRule{
	{StatusPending, ActionSendQuote}:       {StatusQuoted, ActorMerchant},
	{StatusPending, ActionRefuse}:          {StatusRefused, ActorMerchant},
	{StatusQuoted, ActionAcceptQuote}:      {StatusToVerify, ActorCustomer},
	{StatusQuoted, ActionRejectQuote}:      {StatusRefused, ActorCustomer},
	{StatusQuoted, ActionRefuse}:           {StatusRefused, ActorMerchant},
	{StatusQuoted, ActionExpireQuote}:      {StatusRefused, ActorSystem},
	{StatusToVerify, ActionConfirmPayment}: {StatusConfirmed, ActorMerchant},
	{StatusToVerify, ActionRefuse}:         {StatusRefused, ActorMerchant},
	{StatusConfirmed, ActionMarkReady}:     {StatusReady, ActorMerchant},
	{StatusReady, ActionComplete}:          {StatusCompleted, ActorMerchant},
}

// NextStatus resolves the target status of an action. The actor must be
// the one the lifecycle assigns to that action.
func NextStatus(from OrderStatus, action Action, actor Actor) (OrderStatus, error) {
	rule, ok := transitionTable[transitionKey{from: from, action: action}]
	if !ok {
		return "", domainerrors.ErrInvalidTransition
	}
	if rule.actor != actor {
		return "", domainerrors.ErrForbidden
	}
	return rule.to, nil
}

// CanApply reports whether the action is allowed from the current status.
func (o Order) CanApply(action Action) bool {
	_, ok := transitionTable[transitionKey{from: o.Status, action: action}]
	return ok
}

// Apply moves the order along the lifecycle and stamps the matching
// timestamp. Quote data must be attached by the caller before a
// send_quote action.
func (o *Order) Apply(action Action, actor Actor, reason string, now time.Time) (OrderStatus, error) {
	previous := o.Status
	next, err := NextStatus(previous, action, actor)
	if err != nil {
		return previous, err
	}
	now = now.UTC()

	switch action {
	case ActionSendQuote:
		if o.Quote == nil {
			return previous, domainerrors.ErrInvalidQuote
		}
	case ActionAcceptQuote:
		if o.QuoteExpired(now) {
			return previous, domainerrors.ErrQuoteExpired
		}
		o.TotalCents = o.Quote.AmountCents
		o.DepositCents = o.Quote.DepositCents
		o.PaymentDeclaredAt = &now
	case ActionConfirmPayment:
		o.ConfirmedAt = &now
	case ActionMarkReady:
		o.ReadyAt = &now
	case ActionComplete:
		o.CompletedAt = &now
	}
	if next == StatusRefused {
		o.RefusedBy = actor
		o.RefusalReason = strings.TrimSpace(reason)
		if action == ActionExpireQuote && o.RefusalReason == "" {
			o.RefusalReason = "quote expired"
		}
	}

	o.Status = next
	o.UpdatedAt = now
	return previous, nil
}
