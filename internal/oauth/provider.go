// Package oauth adapts external identity providers to a common assertion.
package oauth

import "context"

// Assertion is the identity asserted by an external provider after a
// successful code exchange.
type Assertion struct {
	Provider       string
	ExternalID     string
	Email          string
	Name           string
	Avatar         string
	AvatarOriginal string
}

// IdentityProvider builds the redirect to the provider and turns the
// callback code into an Assertion.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Assertion, error)
}
