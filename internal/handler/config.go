package handler

import (
	"net/http"

	"github.com/calpane/calpane/internal/cloudstore"
	"github.com/calpane/calpane/internal/store"
)

// ConfigHandler exposes the cloud configuration operations.
type ConfigHandler struct {
	reconciler *store.Reconciler
	remote     cloudstore.Store
	jwtSecret  string
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(reconciler *store.Reconciler, remote cloudstore.Store, jwtSecret string) *ConfigHandler {
	return &ConfigHandler{reconciler: reconciler, remote: remote, jwtSecret: jwtSecret}
}

// Sync pulls the remote config into the local stores. When no remote file
// exists, the local state seeds it.
func (h *ConfigHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserID(r, h.jwtSecret); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cfg, err := h.reconciler.Sync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{"seeded": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeded": false, "config": cfg})
}

// Push writes the local state to the remote store immediately.
func (h *ConfigHandler) Push(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserID(r, h.jwtSecret); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.reconciler.Push(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes the remote config file.
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserID(r, h.jwtSecret); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.reconciler.Delete(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Access reports whether the remote storage area is reachable.
func (h *ConfigHandler) Access(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": h.remote.CheckAccess(r.Context())})
}
