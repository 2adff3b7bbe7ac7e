// Package cloudstore locates, reads, writes and deletes the single remote
// configuration file in the user's private app-storage area, with bounded
// retry on transient failures.
package cloudstore

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Store is the consumed surface of the remote configuration store. The
// production implementation talks to Google Drive's appDataFolder; an
// in-memory implementation backs tests and demo mode.
type Store interface {
	// Locate resolves the config file's storage id. An absent file is
	// success with an empty id.
	Locate(ctx context.Context) (string, error)

	// Read fetches the raw JSON content of the config file. A missing
	// file is success with nil data, not an error.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the remote file with content, creating it when
	// absent. Requires a valid session.
	Write(ctx context.Context, content []byte) error

	// Delete removes the remote file. An absent file counts as already
	// deleted.
	Delete(ctx context.Context) error

	// CheckAccess probes whether the storage area is reachable. Reports
	// false without a network call when the connectivity probe says
	// offline.
	CheckAccess(ctx context.Context) bool
}

// StoreError is the failure half of every store result: an HTTP-class code
// plus a message. Code 0 means a network-level failure with no status.
type StoreError struct {
	Code    int
	Message string
}

func (e *StoreError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("cloud store: network error: %s", e.Message)
	}
	return fmt.Sprintf("cloud store: %d: %s", e.Code, e.Message)
}

// NewStoreError creates a StoreError.
func NewStoreError(code int, message string) *StoreError {
	return &StoreError{Code: code, Message: message}
}

// TokenProvider reports the current session token's validity. The store only
// needs to know whether an authenticated call is possible; the token itself
// travels via the HTTP layer's token source.
type TokenProvider interface {
	Authenticated() bool
}

// ConnectivityProbe reports whether the host believes it is online. Checked
// before lightweight probes so an offline machine fails fast instead of
// timing out.
type ConnectivityProbe func() bool

// DialProbe returns a ConnectivityProbe that reports online when a short
// TCP dial to addr ("host:port") succeeds.
func DialProbe(addr string) ConnectivityProbe {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}
