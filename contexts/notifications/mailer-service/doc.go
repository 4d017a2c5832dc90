// Package mailerservice sends the transactional emails of the order
// lifecycle. It consumes order.* events from the bus, picks recipients per
// event, renders the embedded templates and records each delivery so that
// a redelivered event never mails the same recipient twice.
package mailerservice
