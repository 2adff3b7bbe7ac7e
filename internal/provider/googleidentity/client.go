// Package googleidentity implements the provider contract against Google's
// OAuth2 endpoints: consent in a browser window, code exchange on redirect,
// best-effort revocation.
package googleidentity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/calpane/calpane/internal/popup"
	"github.com/calpane/calpane/internal/provider"
)

// ProviderHost is the host consent windows are opened on, used by the popup
// tracker to recognize them.
const ProviderHost = "accounts.google.com"

const revokeURL = "https://oauth2.googleapis.com/revoke"

// Client implements provider.Client using golang.org/x/oauth2.
type Client struct {
	cfg        *oauth2.Config
	open       popup.OpenFunc
	httpClient *http.Client

	mu       sync.Mutex
	callback func(provider.Callback)
}

// New creates a Client. open is the (tracker-wrapped) window-opening
// primitive used to show the consent page.
func New(clientID, clientSecret, redirectURL string, open popup.OpenFunc) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
		},
		open:       open,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetCallback registers the flow-result callback.
func (c *Client) SetCallback(fn func(provider.Callback)) {
	c.mu.Lock()
	c.callback = fn
	c.mu.Unlock()
}

// BeginConsent opens the consent page for the requested scopes, tagged with
// the caller's state. The result arrives via HandleRedirect.
func (c *Client) BeginConsent(ctx context.Context, req provider.ConsentRequest) error {
	cfg := *c.cfg
	cfg.Scopes = req.Scopes
	consentURL := cfg.AuthCodeURL(req.State, oauth2.AccessTypeOnline)

	if _, err := c.open(consentURL); err != nil {
		return fmt.Errorf("failed to open consent window: %w", err)
	}
	return nil
}

// HandleRedirect completes a flow from the values on the provider's redirect.
// It exchanges the code, then invokes the registered callback with the
// credential, the granted-scope string and the echoed state. Provider errors
// (user closed the consent screen, denied access) are forwarded as error
// callbacks.
func (c *Client) HandleRedirect(ctx context.Context, code, state, errCode string) {
	if errCode != "" {
		c.deliver(provider.Callback{State: state, Error: errCode})
		return
	}

	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		c.deliver(provider.Callback{State: state, Error: "exchange_failed"})
		return
	}

	expiresIn := int64(time.Until(token.Expiry).Seconds())
	scope, _ := token.Extra("scope").(string)

	c.deliver(provider.Callback{
		AccessToken: token.AccessToken,
		ExpiresIn:   expiresIn,
		Scope:       scope,
		State:       state,
	})
}

// Revoke invalidates the token at Google's revocation endpoint.
func (c *Client) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) deliver(cb provider.Callback) {
	c.mu.Lock()
	fn := c.callback
	c.mu.Unlock()
	if fn != nil {
		fn(cb)
	}
}
