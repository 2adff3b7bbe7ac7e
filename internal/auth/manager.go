// Package auth orchestrates sign-in, sign-out, token exchange and scope
// escalation against the identity provider, with CSRF state correlation and
// popup lifecycle tracking.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/calpane/calpane/internal/model"
	"github.com/calpane/calpane/internal/popup"
	"github.com/calpane/calpane/internal/provider"
	"github.com/calpane/calpane/internal/session"
)

// Scopes requested on the initial sign-in.
var BaseScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// DriveScope is the additional scope requested for cloud config storage.
const DriveScope = "https://www.googleapis.com/auth/drive.appdata"

// ErrStateMismatch reports a callback whose state did not match any flow
// this client started. Surfaced distinctly from generic auth failure.
var ErrStateMismatch = errors.New("state_mismatch")

// SignInResult tells the caller what SignIn actually did.
type SignInResult string

const (
	ResultOpened      SignInResult = "opened"
	ResultFocused     SignInResult = "focused"
	ResultUnavailable SignInResult = "unavailable"
)

// ClientFactory constructs the provider client. It returns nil while the
// provider SDK is not ready yet.
type ClientFactory func() provider.Client

// Manager owns the session token and the pending-flow map.
type Manager struct {
	clientID string
	factory  ClientFactory
	tracker  *popup.Tracker
	storage  session.Storage
	flows    *flowStore
	now      func() time.Time

	mu           sync.Mutex
	client       provider.Client
	onSuccess    func(model.SessionToken)
	onError      func(error)
	scopeWaiters map[string]chan bool
}

// NewManager creates a Manager. The provider client is constructed lazily on
// Initialize, once a client identifier is configured and the factory is
// ready.
func NewManager(clientID string, factory ClientFactory, tracker *popup.Tracker, storage session.Storage) *Manager {
	return &Manager{
		clientID:     clientID,
		factory:      factory,
		tracker:      tracker,
		storage:      storage,
		flows:        newFlowStore(),
		now:          time.Now,
		scopeWaiters: make(map[string]chan bool),
	}
}

// Initialize registers the result callbacks and lazily constructs the
// provider client. Re-entrant: subsequent calls just update the callbacks.
// Returns false when the client identifier is missing or the provider is not
// ready.
func (m *Manager) Initialize(onSuccess func(model.SessionToken), onError func(error)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onSuccess = onSuccess
	m.onError = onError

	if m.client != nil {
		return true
	}
	if m.clientID == "" || m.factory == nil {
		return false
	}
	client := m.factory()
	if client == nil {
		return false
	}
	client.SetCallback(m.HandleCallback)
	m.client = client
	return true
}

// SignIn starts a sign-in flow. If the consent popup is already open it is
// focused instead and no second popup is opened.
func (m *Manager) SignIn(ctx context.Context) SignInResult {
	if m.tracker.IsOpen() {
		m.tracker.Focus()
		return ResultFocused
	}

	client := m.currentClient()
	if client == nil {
		return ResultUnavailable
	}

	state := uuid.NewString()
	m.flows.register(state, tagSignIn)
	m.tracker.Arm()

	if err := client.BeginConsent(ctx, provider.ConsentRequest{Scopes: BaseScopes, State: state}); err != nil {
		m.flows.consume(state)
		m.reportError(fmt.Errorf("failed to begin consent: %w", err))
		return ResultUnavailable
	}
	return ResultOpened
}

// RequestDriveScope runs an independent authorization flow asking for the
// storage scope on top of the current grant. It reports true only when the
// callback's granted scopes include DriveScope and its state matches the one
// generated here.
func (m *Manager) RequestDriveScope(ctx context.Context) (bool, error) {
	client := m.currentClient()
	if client == nil {
		return false, errors.New("provider client not initialized")
	}

	state := uuid.NewString()
	ch := make(chan bool, 1)

	m.mu.Lock()
	m.scopeWaiters[state] = ch
	m.mu.Unlock()

	m.flows.register(state, tagScope)
	m.tracker.Arm()

	scopes := append(append([]string{}, BaseScopes...), DriveScope)
	if err := client.BeginConsent(ctx, provider.ConsentRequest{Scopes: scopes, State: state}); err != nil {
		m.dropScopeWaiter(state)
		m.flows.consume(state)
		return false, fmt.Errorf("failed to begin consent: %w", err)
	}

	select {
	case granted := <-ch:
		return granted, nil
	case <-time.After(flowTTL):
		m.dropScopeWaiter(state)
		return false, nil
	case <-ctx.Done():
		m.dropScopeWaiter(state)
		return false, ctx.Err()
	}
}

// HandleCallback validates and applies a provider callback. This is the CSRF
// boundary: a callback carrying a state this client never issued is rejected
// with ErrStateMismatch and the pending entry is discarded.
func (m *Manager) HandleCallback(cb provider.Callback) {
	if cb.Error != "" {
		if cb.State != "" {
			m.flows.consume(cb.State)
			m.resolveScopeWaiter(cb.State, false)
		}
		m.reportError(fmt.Errorf("provider error: %s", cb.Error))
		return
	}

	if cb.State != "" {
		if _, ok := m.flows.consume(cb.State); !ok {
			log.Error().Str("state", cb.State).Msg("auth callback state mismatch; rejecting flow")
			m.resolveScopeWaiter(cb.State, false)
			m.reportError(ErrStateMismatch)
			return
		}
	} else {
		// Some provider delivery paths omit the state. Accept only if a
		// flow of ours is actually pending.
		if m.flows.pendingCount() == 0 {
			log.Error().Msg("auth callback without state and no pending flow; rejecting")
			m.reportError(ErrStateMismatch)
			return
		}
	}

	token := model.SessionToken{
		AccessToken:   cb.AccessToken,
		ExpiresAt:     m.now().UnixMilli() + cb.ExpiresIn*1000,
		GrantedScopes: cb.Scope,
	}
	m.storeToken(token)

	if cb.State != "" {
		m.resolveScopeWaiter(cb.State, scopeGranted(cb.Scope, DriveScope))
	}

	m.mu.Lock()
	onSuccess := m.onSuccess
	m.mu.Unlock()
	if onSuccess != nil {
		onSuccess(token)
	}
}

// Token returns the current session token. An expired token is cleared on
// read and reported as absent.
func (m *Manager) Token() (*model.SessionToken, bool) {
	access, ok := m.storage.Get(session.SlotAccessToken)
	if !ok || access == "" {
		return nil, false
	}
	expiryRaw, _ := m.storage.Get(session.SlotTokenExpiry)
	expiresAt, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil || m.now().UnixMilli() >= expiresAt {
		m.clearToken()
		return nil, false
	}
	scopes, _ := m.storage.Get(session.SlotGrantedScopes)
	return &model.SessionToken{AccessToken: access, ExpiresAt: expiresAt, GrantedScopes: scopes}, true
}

// Authenticated reports whether a live session token is present.
func (m *Manager) Authenticated() bool {
	_, ok := m.Token()
	return ok
}

// HasDriveScope reports whether the current grant includes the storage scope.
func (m *Manager) HasDriveScope() bool {
	token, ok := m.Token()
	if !ok {
		return false
	}
	return scopeGranted(token.GrantedScopes, DriveScope)
}

// SignOut revokes the current token (best-effort) and clears the persisted
// session state.
func (m *Manager) SignOut(ctx context.Context) {
	if token, ok := m.Token(); ok {
		if client := m.currentClient(); client != nil {
			if err := client.Revoke(ctx, token.AccessToken); err != nil {
				log.Warn().Err(err).Msg("token revocation failed")
			}
		}
	}
	m.clearToken()
}

func (m *Manager) currentClient() provider.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Manager) storeToken(token model.SessionToken) {
	_ = m.storage.Set(session.SlotAccessToken, token.AccessToken)
	_ = m.storage.Set(session.SlotTokenExpiry, strconv.FormatInt(token.ExpiresAt, 10))
	_ = m.storage.Set(session.SlotGrantedScopes, token.GrantedScopes)
}

func (m *Manager) clearToken() {
	_ = m.storage.Clear(session.SlotAccessToken, session.SlotTokenExpiry, session.SlotGrantedScopes)
}

func (m *Manager) reportError(err error) {
	m.mu.Lock()
	onError := m.onError
	m.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}

func (m *Manager) resolveScopeWaiter(state string, granted bool) {
	if state == "" {
		return
	}
	m.mu.Lock()
	ch, ok := m.scopeWaiters[state]
	if ok {
		delete(m.scopeWaiters, state)
	}
	m.mu.Unlock()
	if ok {
		ch <- granted
	}
}

func (m *Manager) dropScopeWaiter(state string) {
	m.mu.Lock()
	delete(m.scopeWaiters, state)
	m.mu.Unlock()
}

func scopeGranted(granted, want string) bool {
	for _, s := range strings.Fields(granted) {
		if s == want {
			return true
		}
	}
	return false
}
