package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calpane/calpane/internal/cloudconfig"
	"github.com/calpane/calpane/internal/cloudstore"
)

const testSecret = "test-secret"

func newAuthedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	signed, err := IssueSessionJWT(testSecret, "local", time.Hour)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	return r
}

func TestSessionJWT_RoundTrip(t *testing.T) {
	signed, err := IssueSessionJWT(testSecret, "local", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	sub, err := GetUserID(r, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "local", sub)
}

func TestSessionJWT_Cookie(t *testing.T) {
	signed, err := IssueSessionJWT(testSecret, "local", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: signed})

	sub, err := GetUserID(r, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "local", sub)
}

func TestSessionJWT_RejectsWrongSecret(t *testing.T) {
	signed, err := IssueSessionJWT("other-secret", "local", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	_, err = GetUserID(r, testSecret)
	assert.Error(t, err)
}

func TestSessionJWT_RejectsExpired(t *testing.T) {
	signed, err := IssueSessionJWT(testSecret, "local", -time.Minute)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	_, err = GetUserID(r, testSecret)
	assert.Error(t, err)
}

func TestSessionJWT_MissingToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserID(r, testSecret)
	assert.Error(t, err)
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"store error keeps code", cloudstore.NewStoreError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{"network error is 503", cloudstore.NewStoreError(0, "offline"), http.StatusServiceUnavailable},
		{"invalid config is 400", fmt.Errorf("sync: %w", cloudconfig.ErrInvalidConfig), http.StatusBadRequest},
		{"unknown error is 500", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tc.err)
			assert.Equal(t, tc.want, w.Code)

			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}
