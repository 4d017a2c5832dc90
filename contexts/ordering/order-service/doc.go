// Package orderservice runs the order lifecycle of a shop: catalog checkout
// and custom requests, merchant quotes, deposit confirmation, preparation
// and pickup. Every status change is persisted together with an outbox
// event that the worker relays to the notification consumers.
//
// Shop profile, schedule and catalog pricing are read through the
// ShopDirectory and Catalog ports, implemented by bridges in
// internal/app/bootstrap.
package orderservice
