package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calpane/calpane/internal/cloudconfig"
	"github.com/calpane/calpane/internal/cloudstore"
)

const sessionCookie = "calpane_session"

// IssueSessionJWT mints the local UI session token set as a cookie after a
// successful sign-in.
func IssueSessionJWT(jwtSecret, subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// GetUserID extracts and verifies the UI session from the Authorization
// header or the session cookie.
func GetUserID(r *http.Request, jwtSecret string) (string, error) {
	tokenString := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenString == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			tokenString = c.Value
		}
	}
	if tokenString == "" {
		return "", fmt.Errorf("no authorization token found")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, ok := claims["sub"].(string); ok {
			return sub, nil
		}
	}
	return "", fmt.Errorf("invalid token claims")
}

// writeJSON serializes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to the HTTP status the store/validator semantics call
// for and writes the structured error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var serr *cloudstore.StoreError
	switch {
	case errors.As(err, &serr):
		status = serr.Code
		if status == 0 {
			status = http.StatusServiceUnavailable
		}
	case errors.Is(err, cloudconfig.ErrInvalidConfig):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": err.Error()},
	})
}
