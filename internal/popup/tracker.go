// Package popup tracks the identity provider's consent window. The code that
// opens windows is third-party and exposes no handle, so the tracker wraps
// the window-opening primitive exactly once and captures any window whose URL
// belongs to the provider, or any window opened while a flow is armed.
package popup

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// armWindow bounds how long an "about to open" flag stays set, so an
// unrelated window opened later is not mistaken for the consent popup.
const armWindow = 1 * time.Second

// Window is a handle to an opened consent window.
type Window interface {
	// IsOpen reports whether the window is still open. The probe may be
	// denied under opener-policy isolation, in which case it returns an
	// error and callers must assume closed.
	IsOpen() (bool, error)

	// Focus raises the window. Best-effort.
	Focus() error

	// Close closes the window.
	Close() error
}

// OpenFunc opens a URL in a new window. Implementations may return a nil
// Window when the environment exposes no handle.
type OpenFunc func(rawURL string) (Window, error)

// Tracker captures a reference to the consent popup so the auth manager can
// detect "already open" and focus it instead of opening a second one.
type Tracker struct {
	providerHost string

	mu         sync.Mutex
	wrapped    OpenFunc
	captured   Window
	armedUntil time.Time
}

// NewTracker creates a Tracker that recognizes windows on providerHost.
func NewTracker(providerHost string) *Tracker {
	return &Tracker{providerHost: providerHost}
}

// Wrap intercepts the window-opening primitive. The first call installs the
// interception and later calls return the same wrapped function, so the
// patch is applied once per process lifetime.
func (t *Tracker) Wrap(open OpenFunc) OpenFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrapped != nil {
		return t.wrapped
	}
	t.wrapped = func(rawURL string) (Window, error) {
		w, err := open(rawURL)
		if err != nil {
			return nil, err
		}
		t.observe(rawURL, w)
		return w, nil
	}
	return t.wrapped
}

// Arm marks that a consent window is about to open. Windows opened within
// the arming window are captured even when their URL does not carry the
// provider host (same-tab-opener flows).
func (t *Tracker) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armedUntil = time.Now().Add(armWindow)
}

// IsOpen reports whether a captured popup is still open. A denied probe
// counts as closed: a stale "closed" answer only risks a duplicate popup,
// while a stale "open" answer would block sign-in retries for good.
func (t *Tracker) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.captured == nil {
		return false
	}
	open, err := t.captured.IsOpen()
	if err != nil || !open {
		t.captured = nil
		return false
	}
	return true
}

// Focus raises the captured popup. Returns false when there is none or the
// focus call failed.
func (t *Tracker) Focus() bool {
	t.mu.Lock()
	w := t.captured
	t.mu.Unlock()
	if w == nil {
		return false
	}
	return w.Focus() == nil
}

// Close closes and forgets the captured popup, if any.
func (t *Tracker) Close() {
	t.mu.Lock()
	w := t.captured
	t.captured = nil
	t.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}
}

func (t *Tracker) observe(rawURL string, w Window) {
	if w == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.matchesProvider(rawURL) || time.Now().Before(t.armedUntil) {
		t.captured = w
		t.armedUntil = time.Time{}
	}
}

func (t *Tracker) matchesProvider(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || t.providerHost == "" {
		return false
	}
	host := u.Hostname()
	return host == t.providerHost || strings.HasSuffix(host, "."+t.providerHost)
}
