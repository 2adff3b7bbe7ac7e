package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calpane/calpane/internal/model"
	"github.com/calpane/calpane/internal/store"
)

// PrefsHandler exposes the local feature stores: categories, filters,
// hidden calendars and display settings.
type PrefsHandler struct {
	categories *store.CategoryStore
	filters    *store.FilterStore
	calendars  *store.CalendarStore
	display    *store.DisplayStore
	jwtSecret  string
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(categories *store.CategoryStore, filters *store.FilterStore, calendars *store.CalendarStore, display *store.DisplayStore, jwtSecret string) *PrefsHandler {
	return &PrefsHandler{
		categories: categories,
		filters:    filters,
		calendars:  calendars,
		display:    display,
		jwtSecret:  jwtSecret,
	}
}

func (h *PrefsHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if _, err := GetUserID(r, h.jwtSecret); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

type categoryRequest struct {
	ID        string          `json:"id,omitempty"`
	Label     string          `json:"label"`
	Color     string          `json:"color"`
	Keywords  []string        `json:"keywords"`
	MatchMode model.MatchMode `json:"matchMode"`
}

// Categories routes by method: list, create, update, delete/restore.
func (h *PrefsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.categories.Get())

	case http.MethodPost:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		c, err := h.categories.Add(req.Label, req.Color, req.Keywords, req.MatchMode)
		if err != nil {
			h.categoryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)

	case http.MethodPut:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		c, err := h.categories.Update(req.ID, req.Label, req.Color, req.Keywords, req.MatchMode)
		if err != nil {
			h.categoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Missing category id", http.StatusBadRequest)
			return
		}
		if err := h.categories.Remove(id); err != nil {
			h.categoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// RestoreCategory re-enables a disabled built-in category, or resets
// everything when no id is given.
func (h *PrefsHandler) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.categories.ResetToDefaults()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	if err := h.categories.RestoreDefault(id); err != nil {
		h.categoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Filters routes by method: list, create, delete.
func (h *PrefsHandler) Filters(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.filters.Get())

	case http.MethodPost:
		var req struct {
			Pattern string `json:"pattern"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		f, err := h.filters.Add(req.Pattern)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, f)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if err := h.filters.Remove(id); err != nil {
			http.Error(w, "Filter not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Calendars lists or updates the hidden-calendar set.
func (h *PrefsHandler) Calendars(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.calendars.Get())

	case http.MethodPut:
		var req struct {
			ID       string `json:"id"`
			Disabled bool   `json:"disabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		h.calendars.SetDisabled(req.ID, req.Disabled)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Display reads or replaces the display settings.
func (h *PrefsHandler) Display(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.display.Get())

	case http.MethodPut:
		var settings model.DisplaySettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		h.display.Set(settings)
		writeJSON(w, http.StatusOK, settings)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PrefsHandler) categoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
