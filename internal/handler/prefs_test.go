package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calpane/calpane/internal/model"
	"github.com/calpane/calpane/internal/store"
)

func newPrefsHandler() *PrefsHandler {
	return NewPrefsHandler(
		store.NewCategoryStore(nil),
		store.NewFilterStore(nil),
		store.NewCalendarStore(nil),
		store.NewDisplayStore(),
		testSecret,
	)
}

func newAuthedJSONRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	r := newAuthedRequest(t, method, target)
	r.Body = io.NopCloser(strings.NewReader(body))
	return r
}

func TestPrefs_Unauthorized(t *testing.T) {
	h := newPrefsHandler()

	for _, target := range []string{"/prefs/categories", "/prefs/filters", "/prefs/calendars", "/prefs/display"} {
		w := httptest.NewRecorder()
		h.Categories(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestPrefs_CategoryLifecycle(t *testing.T) {
	h := newPrefsHandler()

	// Create.
	w := httptest.NewRecorder()
	r := newAuthedJSONRequest(t, http.MethodPost, "/prefs/categories",
		`{"label":"Sport","color":"#11AA22","keywords":["run","RUN"],"matchMode":"any"}`)
	h.Categories(w, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Category
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, []string{"run"}, created.Keywords)

	// Duplicate label conflicts.
	w = httptest.NewRecorder()
	r = newAuthedJSONRequest(t, http.MethodPost, "/prefs/categories",
		`{"label":"sport","color":"#334455","matchMode":"any"}`)
	h.Categories(w, r)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Update.
	w = httptest.NewRecorder()
	r = newAuthedJSONRequest(t, http.MethodPut, "/prefs/categories",
		`{"id":"`+created.ID+`","label":"Fitness","color":"#22BB33","matchMode":"all"}`)
	h.Categories(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// List includes defaults plus the custom entry.
	w = httptest.NewRecorder()
	h.Categories(w, newAuthedRequest(t, http.MethodGet, "/prefs/categories"))
	require.Equal(t, http.StatusOK, w.Code)
	var all []model.Category
	require.NoError(t, json.NewDecoder(w.Body).Decode(&all))
	assert.Len(t, all, len(model.DefaultCategories())+1)

	// Delete.
	w = httptest.NewRecorder()
	h.Categories(w, newAuthedRequest(t, http.MethodDelete, "/prefs/categories?id="+created.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting again is a 404.
	w = httptest.NewRecorder()
	h.Categories(w, newAuthedRequest(t, http.MethodDelete, "/prefs/categories?id="+created.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrefs_InvalidCategoryRejected(t *testing.T) {
	h := newPrefsHandler()

	w := httptest.NewRecorder()
	r := newAuthedJSONRequest(t, http.MethodPost, "/prefs/categories",
		`{"label":"Sport","color":"not-a-color","matchMode":"any"}`)
	h.Categories(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrefs_RestoreCategory(t *testing.T) {
	h := newPrefsHandler()

	// Disable a built-in, restore it by id.
	w := httptest.NewRecorder()
	h.Categories(w, newAuthedRequest(t, http.MethodDelete, "/prefs/categories?id=work"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.RestoreCategory(w, newAuthedRequest(t, http.MethodPost, "/prefs/categories/restore?id=work"))
	require.Equal(t, http.StatusOK, w.Code)

	// Restoring a non-built-in id is a 404.
	w = httptest.NewRecorder()
	h.RestoreCategory(w, newAuthedRequest(t, http.MethodPost, "/prefs/categories/restore?id=custom-x"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// No id resets everything.
	w = httptest.NewRecorder()
	h.RestoreCategory(w, newAuthedRequest(t, http.MethodPost, "/prefs/categories/restore"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPrefs_Filters(t *testing.T) {
	h := newPrefsHandler()

	w := httptest.NewRecorder()
	r := newAuthedJSONRequest(t, http.MethodPost, "/prefs/filters", `{"pattern":"standup"}`)
	h.Filters(w, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Filter
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = httptest.NewRecorder()
	r = newAuthedJSONRequest(t, http.MethodPost, "/prefs/filters", `{"pattern":"   "}`)
	h.Filters(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.Filters(w, newAuthedRequest(t, http.MethodDelete, "/prefs/filters?id="+created.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Filters(w, newAuthedRequest(t, http.MethodDelete, "/prefs/filters?id=missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrefs_Calendars(t *testing.T) {
	h := newPrefsHandler()

	w := httptest.NewRecorder()
	r := newAuthedJSONRequest(t, http.MethodPut, "/prefs/calendars", `{"id":"cal-1","disabled":true}`)
	h.Calendars(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Calendars(w, newAuthedRequest(t, http.MethodGet, "/prefs/calendars"))
	var hidden []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&hidden))
	assert.Equal(t, []string{"cal-1"}, hidden)

	w = httptest.NewRecorder()
	r = newAuthedJSONRequest(t, http.MethodPut, "/prefs/calendars", `{"disabled":true}`)
	h.Calendars(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrefs_Display(t *testing.T) {
	h := newPrefsHandler()

	w := httptest.NewRecorder()
	h.Display(w, newAuthedRequest(t, http.MethodGet, "/prefs/display"))
	var settings model.DisplaySettings
	require.NoError(t, json.NewDecoder(w.Body).Decode(&settings))
	assert.Equal(t, model.DefaultDisplaySettings(), settings)

	w = httptest.NewRecorder()
	r := newAuthedJSONRequest(t, http.MethodPut, "/prefs/display",
		`{"weekStart":"sunday","timeFormat":"12h","defaultView":"week","showWeekends":false}`)
	h.Display(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Display(w, newAuthedRequest(t, http.MethodGet, "/prefs/display"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(&settings))
	assert.Equal(t, "sunday", settings.WeekStart)
}
