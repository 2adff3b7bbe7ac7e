// Package provider defines the external contract of the identity provider.
// Only this contract is used by the auth manager; the concrete SDK lives
// behind it.
package provider

import "context"

// ConsentRequest asks the provider to begin a consent flow.
type ConsentRequest struct {
	// Scopes to request.
	Scopes []string

	// State is the caller-supplied correlation token, echoed back on the
	// callback when the provider's delivery path carries it.
	State string
}

// Callback is the result of a consent flow, delivered to the callback
// registered with SetCallback.
type Callback struct {
	// AccessToken is the granted credential. Empty when Error is set.
	AccessToken string

	// ExpiresIn is the credential lifetime in seconds.
	ExpiresIn int64

	// Scope is the space-separated list of granted scopes.
	Scope string

	// State echoes the correlation token. Some provider delivery paths
	// omit it; empty means "not carried", not "mismatch".
	State string

	// Error is the provider error code ("access_denied", ...). Empty on
	// success.
	Error string
}

// Client is the consumed surface of the identity provider.
type Client interface {
	// SetCallback registers the function invoked for every completed
	// flow. Later calls replace the callback.
	SetCallback(fn func(Callback))

	// BeginConsent starts a consent flow. The result arrives on the
	// registered callback, not as a return value.
	BeginConsent(ctx context.Context, req ConsentRequest) error

	// Revoke invalidates the credential with the provider.
	Revoke(ctx context.Context, token string) error
}
