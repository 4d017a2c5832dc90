// Package catalogservice owns the products a shop sells and the
// customization form attached to each of them. It prices a customer's form
// selection; ordering calls that through a bootstrap bridge at checkout.
package catalogservice
