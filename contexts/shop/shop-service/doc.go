// Package shopservice owns the shop aggregate: public profile, appearance
// customization, payment link settings, the weekly pickup schedule with
// closures, and the FAQ.
//
// Other contexts read shop data through bridges built in
// internal/app/bootstrap; they never import this package's internals.
package shopservice
