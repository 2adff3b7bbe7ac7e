package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/calpane/calpane/internal/auth"
	"github.com/calpane/calpane/internal/provider/googleidentity"
)

const sessionTTL = 24 * time.Hour

// AuthHandler exposes the authorization flows over the local HTTP surface.
type AuthHandler struct {
	manager     *auth.Manager
	google      *googleidentity.Client
	jwtSecret   string
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(manager *auth.Manager, google *googleidentity.Client, jwtSecret, frontendURL string) *AuthHandler {
	return &AuthHandler{manager: manager, google: google, jwtSecret: jwtSecret, frontendURL: frontendURL}
}

// Login starts (or focuses) the sign-in flow.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	result := h.manager.SignIn(r.Context())
	if result == auth.ResultUnavailable {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"result": string(result)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}

// Callback handles the provider redirect: it forwards code/state to the
// provider client (which exchanges the code and drives the auth manager),
// then issues the UI session cookie and bounces back to the frontend.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.google.HandleRedirect(r.Context(), q.Get("code"), q.Get("state"), q.Get("error"))

	if _, ok := h.manager.Token(); !ok {
		http.Redirect(w, r, h.frontendURL+"/?success=false", http.StatusFound)
		return
	}

	signed, err := IssueSessionJWT(h.jwtSecret, "local", sessionTTL)
	if err != nil {
		http.Error(w, "Failed to sign token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/?success=true", http.StatusFound)
}

// Logout revokes the credential and clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.manager.SignOut(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status reports whether a session is active and what it covers.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	token, ok := h.manager.Token()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"expiresAt":     token.ExpiresAt,
		"driveScope":    h.manager.HasDriveScope(),
	})
}

// DriveConsent runs the scope-escalation flow for the storage scope.
func (h *AuthHandler) DriveConsent(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserID(r, h.jwtSecret); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	granted, err := h.manager.RequestDriveScope(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("scope request failed: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}
