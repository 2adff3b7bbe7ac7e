package cloudstore

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

const testDelay = time.Millisecond

func TestWithRetry_ServerErrorsAreRetried(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), testDelay, func() error {
		attempts++
		if attempts <= 3 {
			return &googleapi.Error{Code: http.StatusInternalServerError, Message: "boom"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts (1 + 3 retries), got %d", attempts)
	}
}

func TestWithRetry_ExhaustionSurfacesLastError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), testDelay, func() error {
		attempts++
		return &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "still down"}
	})
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
	serr := asStoreError(err)
	if serr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected the final attempt's status preserved, got %d", serr.Code)
	}
}

func TestWithRetry_ClientErrorFailsImmediately(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), testDelay, func() error {
		attempts++
		return &googleapi.Error{Code: http.StatusForbidden, Message: "insufficient scope"}
	})
	if attempts != 1 {
		t.Fatalf("expected a 4xx to fail without retry, got %d attempts", attempts)
	}
	if serr := asStoreError(err); serr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 preserved, got %d", serr.Code)
	}
}

func TestWithRetry_RateLimitIsRetried(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), testDelay, func() error {
		attempts++
		if attempts == 1 {
			return &googleapi.Error{Code: http.StatusTooManyRequests, Message: "slow down"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 429 to be retried, got %d attempts", attempts)
	}
}

func TestWithRetry_NetworkErrorsAreRetried(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), testDelay, func() error {
		attempts++
		return errors.New("connection refused")
	})
	if attempts != 4 {
		t.Fatalf("expected network errors retried to exhaustion, got %d attempts", attempts)
	}
	if serr := asStoreError(err); serr.Code != 0 {
		t.Fatalf("expected code 0 for a network failure, got %d", serr.Code)
	}
}

func TestAsStoreError_PassesThroughStoreError(t *testing.T) {
	orig := NewStoreError(http.StatusUnauthorized, "not authenticated")
	if got := asStoreError(orig); got != orig {
		t.Fatalf("expected the original StoreError back, got %v", got)
	}
}
