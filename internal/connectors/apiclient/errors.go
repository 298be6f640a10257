package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// APIError represents a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps the status code onto a domain sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return domain.ErrMissingCredential
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode >= 500:
		return domain.ErrTransient
	}
	return nil
}

// RateLimitError indicates the upstream returned 429.
type RateLimitError struct {
	RetryAfter time.Duration
	URL        string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %s (URL: %s)", e.RetryAfter, e.URL)
	}
	return fmt.Sprintf("rate limit exceeded (URL: %s)", e.URL)
}

// Unwrap reports the error as rate limited.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, domain.ErrNotFound)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsTransient reports whether a request is worth retrying: timeouts,
// rate limiting and server errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsRateLimited(err) || errors.Is(err, domain.ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
