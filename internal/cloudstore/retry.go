package cloudstore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
)

const (
	// maxRetries is the number of retries after the first attempt, so a
	// request is tried at most four times.
	maxRetries = 3

	defaultBaseDelay = 250 * time.Millisecond
)

// withRetry runs fn with exponential backoff. Rate limiting (429), server
// errors (5xx) and network-level failures are retried; any other 4xx returns
// immediately. The error of the final attempt is surfaced unchanged, so an
// exhausted retry still carries its original status code.
func withRetry(ctx context.Context, baseDelay time.Duration, fn func() error) error {
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(baseDelay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}
		if retryableStatus(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return err
}

// retryableStatus classifies an error as transient. A non-googleapi error is
// a network-level failure and counts as transient.
func retryableStatus(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}

// asStoreError maps any request error to the store's error shape, keeping
// the original status code where one exists.
func asStoreError(err error) *StoreError {
	var serr *StoreError
	if errors.As(err, &serr) {
		return serr
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return NewStoreError(gerr.Code, gerr.Message)
	}
	return NewStoreError(0, err.Error())
}
